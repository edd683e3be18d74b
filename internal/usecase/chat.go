package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"kbrag/config"
	"kbrag/internal/adapter/store"
	"kbrag/internal/domain"
	"kbrag/internal/port"
)

// ChatUseCase answers questions against the current knowledge base.
type ChatUseCase struct {
	cfg       *config.Config
	state     *State
	store     port.KnowledgeBaseStore
	retriever port.Retriever
	composer  *AnswerComposer

	loadMu sync.Mutex
}

// NewChatUseCase creates a new chat use case.
func NewChatUseCase(
	cfg *config.Config,
	state *State,
	kbStore port.KnowledgeBaseStore,
	retriever port.Retriever,
	composer *AnswerComposer,
) *ChatUseCase {
	return &ChatUseCase{
		cfg:       cfg,
		state:     state,
		store:     kbStore,
		retriever: retriever,
		composer:  composer,
	}
}

// ChatResult is the answer to one question.
type ChatResult struct {
	Answer string `json:"answer"`
}

// Chat answers message from the top_k nearest chunks. Before any ingestion it
// returns the not-ingested notice instead of an error.
func (u *ChatUseCase) Chat(ctx context.Context, message string) (*ChatResult, error) {
	kb, err := u.knowledgeBase()
	if errors.Is(err, domain.ErrNotIngested) {
		return &ChatResult{Answer: domain.NotIngestedNotice}, nil
	}
	if err != nil {
		return nil, err
	}
	if u.composer == nil {
		return nil, fmt.Errorf("no completion model configured")
	}

	hits, err := u.retriever.Retrieve(ctx, message, kb.Index, kb.Chunks, u.cfg.Retrieve.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	chunks := make([]string, len(hits))
	for i, h := range hits {
		chunks[i] = h.Text
	}

	answer, err := u.composer.Compose(ctx, message, chunks)
	if err != nil {
		return nil, err
	}
	return &ChatResult{Answer: answer}, nil
}

// Search returns the k nearest chunks without calling the completion model.
// A non-positive k uses the configured top_k.
func (u *ChatUseCase) Search(ctx context.Context, message string, k int) ([]domain.Hit, error) {
	if k <= 0 {
		k = u.cfg.Retrieve.TopK
	}

	kb, err := u.knowledgeBase()
	if err != nil {
		return nil, err
	}

	hits, err := u.retriever.Retrieve(ctx, message, kb.Index, kb.Chunks, k)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	return hits, nil
}

// Knowledge base states reported by Status.
const (
	StateAbsent  = "absent"
	StateReady   = "ready"
	StateCorrupt = "corrupt"
)

// Status describes the knowledge base that would answer the next question.
type Status struct {
	State  string            `json:"state"`
	Info   *domain.BuildInfo `json:"info,omitempty"`
	Chunks int               `json:"chunks"`
	Stale  string            `json:"stale,omitempty"`
	Detail string            `json:"detail,omitempty"`
}

func (u *ChatUseCase) Status() Status {
	kb, err := u.knowledgeBase()
	switch {
	case errors.Is(err, domain.ErrNotIngested):
		return Status{State: StateAbsent}
	case err != nil:
		return Status{State: StateCorrupt, Detail: err.Error()}
	}

	info := kb.Info
	status := Status{
		State:  StateReady,
		Info:   &info,
		Chunks: len(kb.Chunks),
	}
	if check := store.CheckBuild(info, u.cfg); check.Stale {
		status.Stale = check.Reason
	}
	return status
}

// knowledgeBase returns the served knowledge base, loading a previously
// persisted one on first use.
func (u *ChatUseCase) knowledgeBase() (*port.KnowledgeBase, error) {
	if kb := u.state.Get(); kb != nil {
		return kb, nil
	}

	u.loadMu.Lock()
	defer u.loadMu.Unlock()

	if kb := u.state.Get(); kb != nil {
		return kb, nil
	}
	if !u.store.Exists() {
		return nil, domain.ErrNotIngested
	}

	kb, err := u.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}
	u.state.Replace(kb)
	return kb, nil
}
