package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kbrag/config"
	"kbrag/internal/adapter/store"
	"kbrag/internal/domain"
	"kbrag/internal/port"
)

// IngestUseCase rebuilds the knowledge base from the source document.
type IngestUseCase struct {
	cfg       *config.Config
	root      string
	resolver  port.SourceResolver
	extractor port.TextExtractor
	chunker   port.Chunker
	builder   *IndexBuilder
	embedder  port.Embedder
	store     port.KnowledgeBaseStore
	state     *State
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(
	cfg *config.Config,
	root string,
	resolver port.SourceResolver,
	extractor port.TextExtractor,
	chunker port.Chunker,
	builder *IndexBuilder,
	embedder port.Embedder,
	kbStore port.KnowledgeBaseStore,
	state *State,
) *IngestUseCase {
	return &IngestUseCase{
		cfg:       cfg,
		root:      root,
		resolver:  resolver,
		extractor: extractor,
		chunker:   chunker,
		builder:   builder,
		embedder:  embedder,
		store:     kbStore,
		state:     state,
	}
}

// IngestResult contains the results of an ingestion.
type IngestResult struct {
	Status  string `json:"status"`
	Chunks  int    `json:"chunks"`
	BuildID string `json:"build_id"`
	Source  string `json:"source"`
}

// Ingest runs resolve, extract, chunk, embed, index, save and load, then
// replaces the served knowledge base. On failure the previous knowledge base
// stays in place, both in memory and on disk.
func (u *IngestUseCase) Ingest(ctx context.Context, progress ProgressFunc) (*IngestResult, error) {
	path, err := u.resolver.Resolve(u.cfg.Source.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source: %w", err)
	}

	text, err := u.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("failed to extract text: %w", &domain.ExtractionError{Path: path, Err: fmt.Errorf("no text found")})
	}

	chunks, err := u.chunker.Chunk(text)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk text: %w", err)
	}
	texts := domain.Texts(chunks)

	index, err := u.builder.Build(ctx, texts, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	kb := &port.KnowledgeBase{
		Index:  index,
		Chunks: texts,
		Info: domain.BuildInfo{
			ID:           uuid.NewString(),
			Source:       path,
			Model:        u.embedder.ModelName(),
			Dimension:    index.Dimension(),
			ChunkSize:    u.cfg.Index.ChunkSize,
			ChunkOverlap: u.cfg.Index.ChunkOverlap,
			ConfigHash:   store.ComputeConfigHash(u.cfg),
			CreatedAt:    time.Now().UTC(),
		},
	}

	if err := u.cfg.EnsureDataDir(u.root); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := u.store.Save(kb); err != nil {
		return nil, fmt.Errorf("failed to save knowledge base: %w", err)
	}

	loaded, err := u.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}
	u.state.Replace(loaded)

	return &IngestResult{
		Status:  "ok",
		Chunks:  len(loaded.Chunks),
		BuildID: loaded.Info.ID,
		Source:  path,
	}, nil
}
