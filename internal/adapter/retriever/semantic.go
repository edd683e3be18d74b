package retriever

import (
	"context"
	"fmt"

	"kbrag/internal/domain"
	"kbrag/internal/port"
)

// SemanticRetriever embeds the query and maps index neighbors back to chunk
// text. Results keep the index's similarity order; nothing is filtered except
// slots that do not point at a chunk.
type SemanticRetriever struct {
	embedder port.Embedder
}

func NewSemanticRetriever(embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{embedder: embedder}
}

func (r *SemanticRetriever) Retrieve(ctx context.Context, query string, index port.VectorIndex, chunks []string, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embedding returned %d vectors for one query", len(embeddings))
	}

	neighbors, err := index.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	hits := make([]domain.Hit, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Position < 0 || n.Position >= len(chunks) {
			continue
		}
		hits = append(hits, domain.Hit{
			Position: n.Position,
			Score:    n.Score,
			Text:     chunks[n.Position],
		})
		if len(hits) == k {
			break
		}
	}

	return hits, nil
}
