package cli

import (
	"fmt"

	"kbrag/config"
	"kbrag/internal/adapter/cache"
	"kbrag/internal/adapter/chunker"
	"kbrag/internal/adapter/embedding"
	"kbrag/internal/adapter/extractor"
	"kbrag/internal/adapter/fs"
	"kbrag/internal/adapter/llm"
	"kbrag/internal/adapter/retriever"
	"kbrag/internal/adapter/store"
	"kbrag/internal/port"
	"kbrag/internal/usecase"
)

// app holds the wired use cases for one command run.
type app struct {
	cfg    *config.Config
	root   string
	state  *usecase.State
	ingest *usecase.IngestUseCase
	chat   *usecase.ChatUseCase
	llm    *llm.Client
}

// newApp wires adapters from cfg. The completion client is only created when
// withLLM is set, so ingest and search work without chat credentials.
func newApp(cfg *config.Config, root string, withLLM bool) (*app, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	ch, err := chunker.NewCharChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	kbStore := newKnowledgeBaseStore(cfg, root, backend)
	state := usecase.NewState()

	var ret port.Retriever = retriever.NewSemanticRetriever(embedder)
	if cfg.Retrieve.CacheSize > 0 {
		cached := cache.NewCachedRetriever(ret, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))
		state.OnReplace(cached.Invalidate)
		ret = cached
	}

	a := &app{
		cfg:   cfg,
		root:  root,
		state: state,
	}

	builder := usecase.NewIndexBuilder(embedder, backend, cfg.Embedding.BatchSize)
	a.ingest = usecase.NewIngestUseCase(cfg, root, fs.NewSourceResolver(root), extractor.New(), ch, builder, embedder, kbStore, state)

	var composer *usecase.AnswerComposer
	if withLLM {
		a.llm, err = llm.NewClient(llm.Options{
			Provider:  cfg.Chat.Provider,
			Model:     cfg.Chat.Model,
			BaseURL:   cfg.Chat.BaseURL,
			APIKeyEnv: cfg.Chat.APIKeyEnv,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chat client: %w", err)
		}
		composer, err = usecase.NewAnswerComposer(a.llm, cfg.Chat.SystemPrompt)
		if err != nil {
			return nil, err
		}
	}
	a.chat = usecase.NewChatUseCase(cfg, state, kbStore, ret, composer)

	return a, nil
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	opts := embedding.Options{
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
		BatchSize: cfg.Embedding.BatchSize,
	}

	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, opts)
	case "ollama":
		return embedding.NewOllamaEmbedder(opts)
	case "compatible":
		return embedding.NewCompatibleEmbedder(cfg.Embedding.APIKeyEnv, opts)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

func newBackend(cfg *config.Config) (port.IndexBackend, error) {
	switch cfg.Index.Backend {
	case "bolt":
		return store.NewBoltIndexBackend(), nil
	case "chromem":
		return store.NewChromemIndexBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", cfg.Index.Backend)
	}
}

func newKnowledgeBaseStore(cfg *config.Config, root string, backend port.IndexBackend) *store.KnowledgeBaseStore {
	return store.NewKnowledgeBaseStore(backend, cfg.IndexPath(root), cfg.ChunksPath(root))
}

// loadStatus reads the persisted knowledge base without creating any provider
// client, so it works without credentials.
func loadStatus(cfg *config.Config, root string) (usecase.Status, error) {
	backend, err := newBackend(cfg)
	if err != nil {
		return usecase.Status{}, err
	}
	chat := usecase.NewChatUseCase(cfg, usecase.NewState(), newKnowledgeBaseStore(cfg, root, backend), nil, nil)
	return chat.Status(), nil
}
