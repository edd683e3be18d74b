package llm

import (
	"context"
	"fmt"
	"os"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"kbrag/internal/domain"
)

// Provider defaults for OpenAI-compatible chat APIs.
var providers = map[string]struct {
	baseURL   string
	keyEnvVar string
}{
	"openai": {"", "OPENAI_API_KEY"},
	"ollama": {"http://localhost:11434/v1", ""},
}

// Client generates answers through an OpenAI-compatible chat completions API.
type Client struct {
	client *openai.Client
	model  string

	mu    sync.Mutex
	stats Stats
}

// Stats tracks token usage reported by the API.
type Stats struct {
	Calls            int
	PromptTokens     int
	CompletionTokens int
}

// Options configures a Client.
type Options struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKeyEnv string
}

func NewClient(opts Options) (*Client, error) {
	p, ok := providers[opts.Provider]
	if !ok && opts.BaseURL == "" {
		return nil, fmt.Errorf("unknown provider: %s (set base_url for custom endpoints)", opts.Provider)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = p.baseURL
	}

	keyEnv := opts.APIKeyEnv
	if keyEnv == "" {
		keyEnv = p.keyEnvVar
	}

	apiKey := "none"
	if opts.Provider == "openai" {
		apiKey = os.Getenv(keyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found. Set %s environment variable", keyEnv)
		}
	} else if keyEnv != "" && os.Getenv(keyEnv) != "" {
		apiKey = os.Getenv(keyEnv)
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
	}, nil
}

// GenerateWithSystem sends one system and one user message and returns the
// first choice verbatim.
func (c *Client) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", &domain.ProviderError{Op: "create chat completion", Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &domain.ProviderError{Op: "create chat completion", Err: fmt.Errorf("no choices returned")}
	}

	c.mu.Lock()
	c.stats.Calls++
	c.stats.PromptTokens += resp.Usage.PromptTokens
	c.stats.CompletionTokens += resp.Usage.CompletionTokens
	c.mu.Unlock()

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) ModelName() string {
	return c.model
}

// Stats returns the accumulated usage.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
