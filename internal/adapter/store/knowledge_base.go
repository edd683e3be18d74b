package store

import (
	"errors"
	"fmt"
	"os"

	"kbrag/internal/domain"
	"kbrag/internal/port"
)

// KnowledgeBaseStore saves and loads the index file and the chunk file as a
// pair. Both files carry the same build ID.
type KnowledgeBaseStore struct {
	backend    port.IndexBackend
	indexPath  string
	chunksPath string
	rename     func(oldpath, newpath string) error
}

func NewKnowledgeBaseStore(backend port.IndexBackend, indexPath, chunksPath string) *KnowledgeBaseStore {
	return &KnowledgeBaseStore{
		backend:    backend,
		indexPath:  indexPath,
		chunksPath: chunksPath,
		rename:     os.Rename,
	}
}

func (s *KnowledgeBaseStore) Exists() bool {
	return fileExists(s.indexPath) && fileExists(s.chunksPath)
}

// Save writes both files next to their targets and renames them into place.
// On failure the previously saved pair is left as it was.
func (s *KnowledgeBaseStore) Save(kb *port.KnowledgeBase) error {
	if kb.Index.Len() != len(kb.Chunks) {
		return fmt.Errorf("index holds %d vectors but there are %d chunks", kb.Index.Len(), len(kb.Chunks))
	}
	if kb.Info.ID == "" {
		return fmt.Errorf("build ID is required")
	}

	info := kb.Info
	info.SchemaVersion = CurrentSchemaVersion
	info.Dimension = kb.Index.Dimension()

	indexTmp := s.indexPath + ".tmp"
	chunksTmp := s.chunksPath + ".tmp"
	cleanup := func() {
		os.Remove(indexTmp)
		os.Remove(chunksTmp)
	}

	if err := s.backend.Save(kb.Index, indexTmp, info); err != nil {
		cleanup()
		return fmt.Errorf("failed to save index: %w", err)
	}
	if err := writeChunkFile(chunksTmp, info, kb.Chunks); err != nil {
		cleanup()
		return fmt.Errorf("failed to save chunks: %w", err)
	}

	// The previous index is parked until the chunk file is in place, so a
	// failed second rename can put the old pair back.
	backup := s.indexPath + ".prev"
	hadIndex := fileExists(s.indexPath)
	if hadIndex {
		if err := s.rename(s.indexPath, backup); err != nil {
			cleanup()
			return fmt.Errorf("failed to park previous index file: %w", err)
		}
	}
	restore := func() {
		if hadIndex {
			os.Remove(s.indexPath)
			s.rename(backup, s.indexPath)
		}
	}

	if err := s.rename(indexTmp, s.indexPath); err != nil {
		restore()
		cleanup()
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	if err := s.rename(chunksTmp, s.chunksPath); err != nil {
		if !hadIndex {
			os.Remove(s.indexPath)
		}
		restore()
		cleanup()
		return fmt.Errorf("failed to replace chunk file: %w", err)
	}
	os.Remove(backup)

	kb.Info = info
	return nil
}

// Load reads both files and checks that they belong to the same build.
func (s *KnowledgeBaseStore) Load() (*port.KnowledgeBase, error) {
	if !s.Exists() {
		return nil, domain.ErrNotIngested
	}

	index, indexInfo, err := s.backend.Load(s.indexPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotIngested
		}
		return nil, err
	}

	info, chunks, err := readChunkFile(s.chunksPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotIngested
		}
		return nil, err
	}

	if info.ID != indexInfo.ID {
		return nil, domain.Corrupt(nil, "index build %s does not match chunk build %s", indexInfo.ID, info.ID)
	}
	if index.Len() != len(chunks) {
		return nil, domain.Corrupt(nil, "index holds %d vectors but chunk file holds %d chunks", index.Len(), len(chunks))
	}
	if info.Dimension != 0 && info.Dimension != index.Dimension() {
		return nil, domain.Corrupt(nil, "index dimension %d does not match build dimension %d", index.Dimension(), info.Dimension)
	}

	return &port.KnowledgeBase{Index: index, Chunks: chunks, Info: info}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
