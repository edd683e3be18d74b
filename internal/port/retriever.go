package port

import (
	"context"

	"kbrag/internal/domain"
)

// Retriever finds the chunks nearest to a query.
type Retriever interface {
	// Retrieve returns at most k hits ordered by similarity, best first.
	Retrieve(ctx context.Context, query string, index VectorIndex, chunks []string, k int) ([]domain.Hit, error)
}
