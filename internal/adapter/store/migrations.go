package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"kbrag/config"
	"kbrag/internal/domain"
)

// CurrentSchemaVersion is stamped into every persisted build. Bump it when
// the index or chunk file layout changes.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion = []byte("schema_version")
	keyConfigHash    = []byte("config_hash")
)

// schemaStamp is the part of the meta bucket read before anything else.
type schemaStamp struct {
	Version    int
	ConfigHash string
}

func readSchemaStamp(meta *bbolt.Bucket) (schemaStamp, error) {
	var stamp schemaStamp

	raw := meta.Get(keySchemaVersion)
	if raw == nil {
		return stamp, fmt.Errorf("schema version not set")
	}
	if err := json.Unmarshal(raw, &stamp.Version); err != nil {
		return stamp, err
	}
	stamp.ConfigHash = string(meta.Get(keyConfigHash))
	return stamp, nil
}

func writeSchemaStamp(meta *bbolt.Bucket, stamp schemaStamp) error {
	raw, err := json.Marshal(stamp.Version)
	if err != nil {
		return err
	}
	if err := meta.Put(keySchemaVersion, raw); err != nil {
		return err
	}
	return meta.Put(keyConfigHash, []byte(stamp.ConfigHash))
}

// ComputeConfigHash fingerprints the settings that shape a build: how the
// document is chunked, which model embeds it and where vectors are kept.
func ComputeConfigHash(cfg *config.Config) string {
	fingerprint := struct {
		Size      int    `json:"size"`
		Overlap   int    `json:"overlap"`
		Backend   string `json:"backend"`
		Provider  string `json:"provider"`
		Model     string `json:"model"`
		Dimension int    `json:"dimension"`
	}{
		Size:      cfg.Index.ChunkSize,
		Overlap:   cfg.Index.ChunkOverlap,
		Backend:   cfg.Index.Backend,
		Provider:  cfg.Embedding.Provider,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
	}

	data, _ := json.Marshal(fingerprint)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// BuildCheck reports whether a persisted build was made under the running
// schema and configuration.
type BuildCheck struct {
	Stale  bool
	Reason string
}

// CheckBuild compares a loaded build against cfg. A stale build still answers
// questions against its own chunks.
func CheckBuild(info domain.BuildInfo, cfg *config.Config) BuildCheck {
	switch {
	case info.SchemaVersion > CurrentSchemaVersion:
		return BuildCheck{Stale: true, Reason: fmt.Sprintf("knowledge base written by a newer schema (v%d > v%d)", info.SchemaVersion, CurrentSchemaVersion)}
	case info.SchemaVersion < CurrentSchemaVersion:
		return BuildCheck{Stale: true, Reason: fmt.Sprintf("knowledge base schema v%d predates v%d", info.SchemaVersion, CurrentSchemaVersion)}
	case info.ConfigHash != "" && info.ConfigHash != ComputeConfigHash(cfg):
		return BuildCheck{Stale: true, Reason: "chunking or embedding settings changed since ingestion"}
	}
	return BuildCheck{}
}
