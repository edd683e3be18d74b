package embedding

import (
	"context"
	"fmt"
	"math"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"kbrag/internal/domain"
)

// MaxBatch is the largest number of inputs sent in one embeddings request.
const MaxBatch = 100

const defaultOllamaURL = "http://localhost:11434/v1"

// OpenAIEmbedder embeds text through an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
}

// Options configures an OpenAIEmbedder.
type Options struct {
	Model     string
	BaseURL   string
	Dimension int // 0 accepts whatever the model returns
	BatchSize int
}

func NewOpenAIEmbedder(apiKeyEnv string, opts Options) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return newEmbedder(apiKey, opts), nil
}

func NewOllamaEmbedder(opts Options) (*OpenAIEmbedder, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultOllamaURL
	}
	if opts.Dimension == 0 {
		switch opts.Model {
		case "nomic-embed-text":
			opts.Dimension = 768
		case "mxbai-embed-large":
			opts.Dimension = 1024
		case "all-minilm":
			opts.Dimension = 384
		}
	}
	return newEmbedder("ollama", opts), nil
}

// NewCompatibleEmbedder targets any server speaking the OpenAI embeddings API.
func NewCompatibleEmbedder(apiKeyEnv string, opts Options) (*OpenAIEmbedder, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base_url is required for the compatible provider")
	}
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		apiKey = "none"
	}
	return newEmbedder(apiKey, opts), nil
}

func newEmbedder(apiKey string, opts Options) *OpenAIEmbedder {
	if opts.Dimension == 0 {
		switch opts.Model {
		case "text-embedding-3-small", "text-embedding-ada-002":
			opts.Dimension = 1536
		case "text-embedding-3-large":
			opts.Dimension = 3072
		}
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 || batchSize > MaxBatch {
		batchSize = MaxBatch
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		dimension: opts.Dimension,
		batchSize: batchSize,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, &domain.ProviderError{Op: "create embeddings", Err: err}
	}

	if len(resp.Data) != len(texts) {
		return nil, &domain.ProviderError{
			Op:  "create embeddings",
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) || embeddings[data.Index] != nil {
			return nil, &domain.ProviderError{
				Op:  "create embeddings",
				Err: fmt.Errorf("unexpected embedding index %d", data.Index),
			}
		}
		if len(data.Embedding) == 0 {
			return nil, &domain.ProviderError{
				Op:  "create embeddings",
				Err: fmt.Errorf("empty embedding at index %d", data.Index),
			}
		}
		if e.dimension > 0 && len(data.Embedding) != e.dimension {
			return nil, &domain.ProviderError{
				Op:  "create embeddings",
				Err: fmt.Errorf("expected dimension %d, got %d", e.dimension, len(data.Embedding)),
			}
		}

		v := make([]float32, len(data.Embedding))
		for i, x := range data.Embedding {
			v[i] = float32(x)
		}
		Normalize(v)
		embeddings[data.Index] = v
	}

	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Normalize scales v to unit length in place. Zero vectors are left alone.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
