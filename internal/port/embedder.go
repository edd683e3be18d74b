package port

import (
	"context"

	"kbrag/internal/domain"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed returns one L2-normalized vector per input text, in input order.
	// It never returns partial results.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the expected embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex stores vectors by insertion position for nearest-neighbor search.
type VectorIndex interface {
	// Add appends vectors; the first added vector gets position Len().
	Add(vectors [][]float32) error

	// Search returns up to k neighbors ordered by inner product, best first.
	// Slots without a neighbor may be reported with position domain.NoMatch.
	Search(query []float32, k int) ([]domain.Neighbor, error)

	// Len returns the number of stored vectors.
	Len() int

	// Dimension returns the vector dimension.
	Dimension() int
}
