package memstore

import (
	"testing"

	"kbrag/internal/domain"
)

func TestFlatIndexSearchOrder(t *testing.T) {
	idx, err := NewFlatIndex(2)
	if err != nil {
		t.Fatal(err)
	}

	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{0.8, 0.6},
	}
	if err := idx.Add(vectors); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Position != 0 || results[1].Position != 2 {
		t.Errorf("expected positions [0 2], got [%d %d]", results[0].Position, results[1].Position)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not ordered best first")
	}
}

func TestFlatIndexPadsWithNoMatch(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	if err := idx.Add([][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0}, 4)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(results))
	}
	if results[0].Position != 0 {
		t.Errorf("expected first slot position 0, got %d", results[0].Position)
	}
	for i := 1; i < 4; i++ {
		if results[i].Position != domain.NoMatch {
			t.Errorf("slot %d: expected NoMatch, got %d", i, results[i].Position)
		}
	}
}

func TestFlatIndexTieKeepsInsertionOrder(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	if err := idx.Add([][]float32{{0, 1}, {0, 1}, {0, 1}}); err != nil {
		t.Fatal(err)
	}

	results, _ := idx.Search([]float32{0, 1}, 3)
	for i, r := range results {
		if r.Position != i {
			t.Errorf("slot %d: expected position %d, got %d", i, i, r.Position)
		}
	}
}

func TestFlatIndexDimensionMismatch(t *testing.T) {
	idx, _ := NewFlatIndex(3)

	if err := idx.Add([][]float32{{1, 0, 0}, {1, 0}}); err == nil {
		t.Error("expected error for mismatched vector")
	}
	if idx.Len() != 0 {
		t.Errorf("expected no vectors after failed add, got %d", idx.Len())
	}
	if _, err := idx.Search([]float32{1, 0}, 1); err == nil {
		t.Error("expected error for mismatched query")
	}
}

func TestNewFlatIndexInvalid(t *testing.T) {
	if _, err := NewFlatIndex(0); err == nil {
		t.Error("expected error for zero dimension")
	}
}
