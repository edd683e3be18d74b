package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the knowledge base service.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Server    ServerConfig    `yaml:"server"`
}

// SourceConfig points at the single knowledge document.
type SourceConfig struct {
	// Document is a doublestar pattern relative to the root directory.
	// It must match exactly one file.
	Document string `yaml:"document" env:"KBRAG_DOCUMENT"`
}

// IndexConfig holds chunking and persistence configuration.
type IndexConfig struct {
	DataDir      string `yaml:"data_dir" env:"KBRAG_DATA_DIR"`
	IndexFile    string `yaml:"index_file" env:"KBRAG_INDEX_FILE"`
	ChunksFile   string `yaml:"chunks_file" env:"KBRAG_CHUNKS_FILE"`
	Backend      string `yaml:"backend" env:"KBRAG_INDEX_BACKEND"` // "bolt", "chromem"
	ChunkSize    int    `yaml:"chunk_size" env:"KBRAG_CHUNK_SIZE"`
	ChunkOverlap int    `yaml:"chunk_overlap" env:"KBRAG_CHUNK_OVERLAP"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k" env:"KBRAG_TOP_K"`
	CacheSize int           `yaml:"cache_size" env:"KBRAG_CACHE_SIZE"` // 0 disables the cache
	CacheTTL  time.Duration `yaml:"cache_ttl" env:"KBRAG_CACHE_TTL"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" env:"KBRAG_EMBEDDING_PROVIDER"` // "openai", "ollama", "compatible", "mock"
	Model     string `yaml:"model" env:"KBRAG_EMBEDDING_MODEL"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	Dimension int    `yaml:"dimension"` // 0 uses the model's known dimension
	BatchSize int    `yaml:"batch_size"`
}

// ChatConfig holds completion model configuration.
type ChatConfig struct {
	Provider     string `yaml:"provider" env:"KBRAG_CHAT_PROVIDER"` // "openai", "ollama", "compatible"
	Model        string `yaml:"model" env:"KBRAG_CHAT_MODEL"`
	APIKeyEnv    string `yaml:"api_key_env"`
	BaseURL      string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	SystemPrompt string `yaml:"system_prompt"` // empty uses the built-in grounding instruction
}

// ServerConfig holds HTTP boundary configuration.
type ServerConfig struct {
	Addr           string   `yaml:"addr" env:"KBRAG_ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Document: "data/knowledge.{pdf,md,txt}",
		},
		Index: IndexConfig{
			DataDir:      "data",
			IndexFile:    "index.db",
			ChunksFile:   "chunks.json",
			Backend:      "bolt",
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Retrieve: RetrieveConfig{
			TopK:      4,
			CacheSize: 100,
			CacheTTL:  5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: 100,
		},
		Chat: ChatConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
	}
}

// Load loads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for kbrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "kbrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".kbrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// No file: defaults plus environment.
	return Load(filepath.Join(dir, "kbrag.yaml"))
}

// Validate checks values that would otherwise fail deep inside ingestion.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be in [0, %d), got %d", c.Index.ChunkSize, c.Index.ChunkOverlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	switch c.Index.Backend {
	case "bolt", "chromem":
	default:
		return fmt.Errorf("unsupported index backend: %s", c.Index.Backend)
	}
	switch c.Embedding.Provider {
	case "openai", "ollama", "compatible", "mock":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}
	switch c.Chat.Provider {
	case "openai", "ollama", "compatible":
	default:
		return fmt.Errorf("unsupported chat provider: %s", c.Chat.Provider)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir returns the absolute data directory for a root directory.
func (c *Config) DataDir(root string) string {
	if filepath.IsAbs(c.Index.DataDir) {
		return c.Index.DataDir
	}
	return filepath.Join(root, c.Index.DataDir)
}

// IndexPath returns the path of the persisted vector index.
func (c *Config) IndexPath(root string) string {
	return filepath.Join(c.DataDir(root), c.Index.IndexFile)
}

// ChunksPath returns the path of the persisted chunk store.
func (c *Config) ChunksPath(root string) string {
	return filepath.Join(c.DataDir(root), c.Index.ChunksFile)
}

// EnsureDataDir ensures the data directory exists.
func (c *Config) EnsureDataDir(root string) error {
	return os.MkdirAll(c.DataDir(root), 0755)
}
