package usecase

import (
	"sync"

	"kbrag/internal/port"
)

// State owns the knowledge base currently answering questions. It starts
// empty and is replaced wholesale by ingestion.
type State struct {
	mu        sync.RWMutex
	kb        *port.KnowledgeBase
	onReplace []func()
}

func NewState() *State {
	return &State{}
}

// Get returns the current knowledge base, or nil before the first ingestion.
func (s *State) Get() *port.KnowledgeBase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kb
}

// Replace swaps in kb and runs the registered hooks.
func (s *State) Replace(kb *port.KnowledgeBase) {
	s.mu.Lock()
	s.kb = kb
	hooks := s.onReplace
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// OnReplace registers fn to run after every Replace.
func (s *State) OnReplace(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReplace = append(s.onReplace, fn)
}
