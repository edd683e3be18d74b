package usecase

import (
	"context"
	"fmt"

	"kbrag/internal/port"
)

// ProgressFunc reports how many chunks have been embedded so far.
type ProgressFunc func(done, total int)

// IndexBuilder embeds chunk texts in order and adds them to a fresh index.
type IndexBuilder struct {
	embedder  port.Embedder
	backend   port.IndexBackend
	batchSize int
}

func NewIndexBuilder(embedder port.Embedder, backend port.IndexBackend, batchSize int) *IndexBuilder {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &IndexBuilder{
		embedder:  embedder,
		backend:   backend,
		batchSize: batchSize,
	}
}

// Build returns an index whose position i holds the embedding of chunks[i].
// Nothing is returned unless every chunk was embedded.
func (b *IndexBuilder) Build(ctx context.Context, chunks []string, progress ProgressFunc) (port.VectorIndex, error) {
	var index port.VectorIndex

	for start := 0; start < len(chunks); start += b.batchSize {
		end := min(start+b.batchSize, len(chunks))

		vectors, err := b.embedder.Embed(ctx, chunks[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), end-start)
		}

		if index == nil {
			index, err = b.backend.NewIndex(len(vectors[0]))
			if err != nil {
				return nil, fmt.Errorf("failed to create index: %w", err)
			}
		}
		if err := index.Add(vectors); err != nil {
			return nil, fmt.Errorf("failed to add vectors: %w", err)
		}

		if progress != nil {
			progress(end, len(chunks))
		}
	}

	if index == nil {
		dimension := b.embedder.Dimension()
		if dimension <= 0 {
			return nil, fmt.Errorf("cannot create an empty index without a known dimension")
		}
		return b.backend.NewIndex(dimension)
	}

	return index, nil
}
