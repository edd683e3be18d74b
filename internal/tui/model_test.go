package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"kbrag/internal/domain"
	"kbrag/internal/usecase"
)

type fakeChat struct {
	answer string
	err    error
}

func (f fakeChat) Chat(ctx context.Context, message string) (*usecase.ChatResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.ChatResult{Answer: f.answer}, nil
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func typeText(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func TestAskAndAnswer(t *testing.T) {
	m := sized(New(context.Background(), fakeChat{answer: "We open at nine."}, "test"))
	m = typeText(m, "When do you open?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if !m.waiting || len(m.turns) != 1 || cmd == nil {
		t.Fatal("expected a pending question after Enter")
	}
	if m.input.Value() != "" {
		t.Error("expected the input to be cleared")
	}

	msg := m.ask("When do you open?")()
	next, _ = m.Update(msg)
	m = next.(Model)

	if m.waiting {
		t.Error("expected waiting to end after the answer")
	}
	if m.turns[0].answer != "We open at nine." {
		t.Errorf("unexpected answer: %q", m.turns[0].answer)
	}
	if !strings.Contains(m.View(), "We open at nine.") {
		t.Error("expected the answer in the view")
	}
}

func TestAnswerError(t *testing.T) {
	providerErr := &domain.ProviderError{Op: "create chat completion", Err: errors.New("Rate limit reached")}
	m := sized(New(context.Background(), fakeChat{err: providerErr}, "test"))
	m = typeText(m, "hello")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	next, _ = m.Update(m.ask("hello")())
	m = next.(Model)

	if !m.turns[0].failed || !strings.HasPrefix(m.turns[0].answer, "OpenAI API error:") {
		t.Errorf("unexpected failed turn: %+v", m.turns[0])
	}
}

func TestEmptyQuestionIgnored(t *testing.T) {
	m := sized(New(context.Background(), fakeChat{}, "test"))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	if len(m.turns) != 0 || cmd != nil {
		t.Error("expected Enter on empty input to do nothing")
	}
}
