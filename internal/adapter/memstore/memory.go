package memstore

import (
	"fmt"
	"sort"
	"sync"

	"kbrag/internal/domain"
)

// FlatIndex is an exact inner-product index held in memory. Vectors are
// addressed by insertion position.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
}

func NewFlatIndex(dimension int) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	return &FlatIndex{dimension: dimension}, nil
}

// Add appends vectors. Either all vectors are added or none.
func (idx *FlatIndex) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != idx.dimension {
			return fmt.Errorf("vector dimension mismatch at %d: expected %d, got %d", i, idx.dimension, len(v))
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, v := range vectors {
		stored := make([]float32, len(v))
		copy(stored, v)
		idx.vectors = append(idx.vectors, stored)
	}
	return nil
}

// Search returns exactly k neighbors, best first. When the index holds fewer
// than k vectors the remaining slots carry domain.NoMatch.
func (idx *FlatIndex) Search(query []float32, k int) ([]domain.Neighbor, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scored := make([]domain.Neighbor, len(idx.vectors))
	for i, v := range idx.vectors {
		scored[i] = domain.Neighbor{Position: i, Score: dot(query, v)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	for len(scored) < k {
		scored = append(scored, domain.Neighbor{Position: domain.NoMatch})
	}

	return scored, nil
}

func (idx *FlatIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

func (idx *FlatIndex) Dimension() int {
	return idx.dimension
}

// Vectors returns the stored vectors in position order.
func (idx *FlatIndex) Vectors() [][]float32 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([][]float32, len(idx.vectors))
	copy(out, idx.vectors)
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
