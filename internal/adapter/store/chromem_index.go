package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"kbrag/internal/domain"
	"kbrag/internal/port"
)

const collectionPrefix = "kb-"

// precomputed is handed to chromem as the embedding function. Every document
// and query arrives with its vector already set, so it is never expected to run.
func precomputed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embeddings are computed before indexing")
}

// ChromemIndex is a VectorIndex backed by a chromem-go collection. Document
// IDs are decimal positions.
type ChromemIndex struct {
	mu         sync.Mutex
	dimension  int
	collection *chromem.Collection
	// docs is only retained for indexes built in this process.
	docs []chromem.Document
}

func newChromemIndex(dimension int) (*ChromemIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	coll, err := chromem.NewDB().CreateCollection("building", nil, precomputed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &ChromemIndex{dimension: dimension, collection: coll}, nil
}

func (idx *ChromemIndex) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != idx.dimension {
			return fmt.Errorf("vector dimension mismatch at %d: expected %d, got %d", i, idx.dimension, len(v))
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	base := idx.collection.Count()
	docs := make([]chromem.Document, len(vectors))
	for i, v := range vectors {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(base + i),
			Embedding: v,
		}
	}

	if err := idx.collection.AddDocuments(context.Background(), docs, 1); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	idx.docs = append(idx.docs, docs...)
	return nil
}

// Search returns exactly k neighbors. chromem refuses to return more results
// than it holds, so missing slots are padded with domain.NoMatch.
func (idx *ChromemIndex) Search(query []float32, k int) ([]domain.Neighbor, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	neighbors := make([]domain.Neighbor, 0, k)

	n := min(k, idx.collection.Count())
	if n > 0 {
		results, err := idx.collection.QueryEmbedding(context.Background(), query, n, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to query collection: %w", err)
		}
		for _, r := range results {
			pos, err := strconv.Atoi(r.ID)
			if err != nil {
				pos = domain.NoMatch
			}
			neighbors = append(neighbors, domain.Neighbor{Position: pos, Score: r.Similarity})
		}
	}

	for len(neighbors) < k {
		neighbors = append(neighbors, domain.Neighbor{Position: domain.NoMatch})
	}
	return neighbors, nil
}

func (idx *ChromemIndex) Len() int {
	return idx.collection.Count()
}

func (idx *ChromemIndex) Dimension() int {
	return idx.dimension
}

// ChromemIndexBackend persists indexes as chromem-go database exports holding
// a single collection. The collection name records dimension and build ID.
type ChromemIndexBackend struct{}

func NewChromemIndexBackend() *ChromemIndexBackend {
	return &ChromemIndexBackend{}
}

func (b *ChromemIndexBackend) Name() string {
	return "chromem"
}

func (b *ChromemIndexBackend) NewIndex(dimension int) (port.VectorIndex, error) {
	return newChromemIndex(dimension)
}

func (b *ChromemIndexBackend) Save(index port.VectorIndex, path string, info domain.BuildInfo) error {
	idx, ok := index.(*ChromemIndex)
	if !ok {
		return fmt.Errorf("chromem backend cannot save %T", index)
	}

	idx.mu.Lock()
	docs := idx.docs
	idx.mu.Unlock()
	if len(docs) != idx.Len() {
		return fmt.Errorf("index was not built in this process")
	}

	name := collectionName(idx.dimension, info.ID)
	db := chromem.NewDB()
	coll, err := db.CreateCollection(name, map[string]string{"source": info.Source, "model": info.Model}, precomputed)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	if len(docs) > 0 {
		if err := coll.AddDocuments(context.Background(), docs, 1); err != nil {
			return fmt.Errorf("failed to add documents: %w", err)
		}
	}

	if err := db.ExportToFile(path, false, "", name); err != nil {
		return fmt.Errorf("failed to export collection: %w", err)
	}
	return nil
}

func (b *ChromemIndexBackend) Load(path string) (port.VectorIndex, domain.BuildInfo, error) {
	var info domain.BuildInfo

	if _, err := os.Stat(path); err != nil {
		return nil, info, err
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(path, ""); err != nil {
		return nil, info, domain.Corrupt(err, "cannot import index file %s", path)
	}

	collections := db.ListCollections()
	if len(collections) != 1 {
		return nil, info, domain.Corrupt(nil, "expected 1 collection, found %d", len(collections))
	}

	for name, coll := range collections {
		dimension, buildID, err := parseCollectionName(name)
		if err != nil {
			return nil, info, domain.Corrupt(err, "bad collection name %q", name)
		}
		info.ID = buildID
		info.Dimension = dimension
		info.SchemaVersion = CurrentSchemaVersion
		return &ChromemIndex{dimension: dimension, collection: coll}, info, nil
	}
	return nil, info, domain.Corrupt(nil, "no collection")
}

func collectionName(dimension int, buildID string) string {
	return fmt.Sprintf("%s%d-%s", collectionPrefix, dimension, buildID)
}

func parseCollectionName(name string) (int, string, error) {
	rest, ok := strings.CutPrefix(name, collectionPrefix)
	if !ok {
		return 0, "", fmt.Errorf("missing prefix %q", collectionPrefix)
	}
	dim, buildID, ok := strings.Cut(rest, "-")
	if !ok || buildID == "" {
		return 0, "", fmt.Errorf("missing build ID")
	}
	dimension, err := strconv.Atoi(dim)
	if err != nil || dimension <= 0 {
		return 0, "", fmt.Errorf("bad dimension %q", dim)
	}
	return dimension, buildID, nil
}
