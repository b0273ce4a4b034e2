// ABOUTME: Bubble Tea chat surface for the study agent
// ABOUTME: Renders the conversation with source labels and runs questions off the UI loop
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harper/study-agent/internal/models"
	"github.com/harper/study-agent/internal/storage"
)

// SourcePrefix introduces the source label under each answer
const SourcePrefix = "📌 Source:"

// Asker is the TUI-facing subset of the agent
type Asker interface {
	Ask(ctx context.Context, question string) (models.Answer, error)
}

// entry is one rendered line of the conversation
type entry struct {
	role    models.Role
	content string
	source  models.Source
}

// answerMsg carries a finished flow back to the UI loop
type answerMsg struct {
	answer models.Answer
	err    error
}

// Model is the Bubble Tea model for the chat surface
type Model struct {
	ctx      context.Context
	agent    Asker
	history  storage.HistoryStore
	input    textinput.Model
	viewport viewport.Model
	entries  []entry
	status   string
	thinking bool
	ready    bool
}

// New creates a chat model seeded with the stored history
func New(ctx context.Context, agent Asker, history storage.HistoryStore) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	m := Model{
		ctx:      ctx,
		agent:    agent,
		history:  history,
		input:    ti,
		viewport: vp,
		status:   "Ready. ctrl+l clears history, ctrl+c quits.",
	}

	turns, err := history.ReadAll()
	if err != nil {
		m.status = "Could not load history: " + err.Error()
	}
	for _, t := range turns {
		m.entries = append(m.entries, entry{role: t.Role, content: t.Content})
	}
	return m
}

// Init initializes the model (text input cursor blink)
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and answer events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 + ch // header + status + input + spacer + frame
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case answerMsg:
		m.thinking = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = "Ready."
		}
		m.entries = append(m.entries, entry{
			role:    models.RoleAssistant,
			content: msg.answer.Text,
			source:  msg.answer.Source,
		})
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "ctrl+l":
			if m.thinking {
				return m, nil
			}
			if err := m.history.Clear(); err != nil {
				m.status = "Error: " + err.Error()
			} else {
				m.entries = nil
				m.status = "History cleared."
			}
			m.refresh()
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.thinking {
				return m, nil
			}
			m.input.Reset()
			m.entries = append(m.entries, entry{role: models.RoleUser, content: q})
			m.thinking = true
			m.status = "Thinking..."
			m.refresh()
			return m, m.ask(q)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.agent.Ask(m.ctx, question)
		return answerMsg{answer: answer, err: err}
	}
}

// View renders the header, conversation, input and status line
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Study Agent")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m Model) renderConversation() string {
	if len(m.entries) == 0 {
		return "No conversation yet."
	}

	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		if e.role == models.RoleUser {
			b.WriteString(userStyle.Render("You: ") + e.content + "\n")
			continue
		}
		b.WriteString(assistantStyle.Render("Agent: ") + e.content + "\n")
		if e.source != models.SourceNone {
			b.WriteString(sourceStyle.Render(fmt.Sprintf("%s %s", SourcePrefix, e.source)) + "\n")
		}
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
