package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kbrag/internal/usecase"
)

// ChatPort is the TUI-facing subset of the chat use case.
type ChatPort interface {
	Chat(ctx context.Context, message string) (*usecase.ChatResult, error)
}

type turn struct {
	question string
	answer   string
	failed   bool
}

type answerMsg struct {
	answer string
	err    error
}

// Model is the Bubble Tea model for an interactive chat session.
type Model struct {
	ctx      context.Context
	chat     ChatPort
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	turns    []turn
	summary  string
	waiting  bool
	ready    bool
}

// New creates a chat model. summary is shown under the title.
func New(ctx context.Context, chat ChatPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		chat:     chat,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		summary:  summary,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header, summary, status, input box
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-fh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.waiting = false
		last := &m.turns[len(m.turns)-1]
		if msg.err != nil {
			last.answer = usecase.FailureDetail(usecase.OpChat, msg.err)
			last.failed = true
		} else {
			last.answer = msg.answer
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.input.SetValue("")
			m.turns = append(m.turns, turn{question: q})
			m.waiting = true
			m.refresh()
			return m, tea.Batch(m.ask(q), m.spinner.Tick)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.chat.Chat(m.ctx, question)
		if err != nil {
			return answerMsg{err: err}
		}
		return answerMsg{answer: result.Answer}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Knowledge Base Chat")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	status := statusStyle.Render("Enter to ask, Esc to quit")
	if m.waiting {
		status = statusStyle.Render(m.spinner.View() + " thinking...")
	}
	return header + "\n" + summary + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return "No questions yet."
	}

	width := max(10, m.viewport.Width-2)
	var sb strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Width(width).Render("You: " + t.question))
		sb.WriteString("\n")
		switch {
		case t.answer == "":
			sb.WriteString(pendingStyle.Render("..."))
		case t.failed:
			sb.WriteString(errorStyle.Width(width).Render(t.answer))
		default:
			sb.WriteString(lipgloss.NewStyle().Width(width).Render(t.answer))
		}
	}
	return sb.String()
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	pendingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
