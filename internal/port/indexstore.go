package port

import "kbrag/internal/domain"

// KnowledgeBase is a vector index paired with the chunk texts it indexes.
// Index position i holds the embedding of Chunks[i].
type KnowledgeBase struct {
	Index  VectorIndex
	Chunks []string
	Info   domain.BuildInfo
}

// IndexBackend creates vector indexes and persists them to a single file.
type IndexBackend interface {
	Name() string

	NewIndex(dimension int) (VectorIndex, error)

	// Save writes index to path, tagged with info.
	Save(index VectorIndex, path string, info domain.BuildInfo) error

	// Load reads an index written by Save. The returned BuildInfo carries at
	// least the build ID and dimension.
	Load(path string) (VectorIndex, domain.BuildInfo, error)
}

// KnowledgeBaseStore persists the index and chunk files as one unit.
type KnowledgeBaseStore interface {
	Save(kb *KnowledgeBase) error

	// Load returns domain.ErrNotIngested when nothing has been persisted.
	Load() (*KnowledgeBase, error)

	// Exists reports whether both files are present.
	Exists() bool
}
