package store

import (
	"encoding/json"
	"fmt"
	"os"

	"kbrag/internal/domain"
)

// chunkFile is the on-disk chunk store: ordered chunk texts plus the build
// they belong to.
type chunkFile struct {
	Build  domain.BuildInfo `json:"build"`
	Chunks []string         `json:"chunks"`
}

func writeChunkFile(path string, info domain.BuildInfo, chunks []string) error {
	if chunks == nil {
		chunks = []string{}
	}
	data, err := json.Marshal(chunkFile{Build: info, Chunks: chunks})
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write chunk file: %w", err)
	}
	return nil
}

func readChunkFile(path string) (domain.BuildInfo, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.BuildInfo{}, nil, err
		}
		return domain.BuildInfo{}, nil, domain.Corrupt(err, "unreadable chunk file %s", path)
	}

	var f chunkFile
	if err := json.Unmarshal(data, &f); err != nil {
		return domain.BuildInfo{}, nil, domain.Corrupt(err, "unreadable chunk file %s", path)
	}
	if f.Build.ID == "" {
		return domain.BuildInfo{}, nil, domain.Corrupt(nil, "chunk file %s has no build ID", path)
	}
	return f.Build, f.Chunks, nil
}
