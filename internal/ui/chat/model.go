// Package chat is the interactive session TUI: a conversation viewport over
// a text input, wired to a reading session. All grounding decisions happen
// in the session; this model only renders turns and relays input.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quillstream/quillstream/internal/model"
	"github.com/quillstream/quillstream/internal/session"
)

const askTimeout = 90 * time.Second

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	refStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(0, 1)

	chromeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Model is the bubbletea model for a chat session.
type Model struct {
	sess     *session.Session
	input    textarea.Model
	viewport viewport.Model
	spin     spinner.Model

	width   int
	height  int
	waiting bool
	err     error
	quit    bool
}

type answerMsg struct {
	turn model.ConversationTurn
	err  error
}

// New builds the chat model over an open session.
func New(sess *session.Session) Model {
	ti := textarea.New()
	ti.Placeholder = "Ask about the current corpus, or /articles to browse..."
	ti.Focus()
	ti.SetWidth(72)
	ti.SetHeight(2)
	ti.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(72, 16)

	m := Model{
		sess:     sess,
		input:    ti,
		viewport: vp,
		spin:     sp,
	}
	m.refreshViewport()
	return m
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.sess.Close()
			m.quit = true
			return m, tea.Quit

		case "enter":
			if m.waiting {
				return m, nil
			}
			input := strings.TrimSpace(m.input.Value())
			if input == "" {
				return m, nil
			}
			if input == "/quit" || input == "/exit" {
				m.sess.Close()
				m.quit = true
				return m, tea.Quit
			}
			m.input.Reset()
			m.waiting = true
			m.err = nil
			return m, tea.Batch(m.spin.Tick, ask(m.sess, input))
		}

	case answerMsg:
		m.waiting = false
		m.err = msg.err
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 6)
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = msg.Height - 9
		m.refreshViewport()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func ask(sess *session.Session, input string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()
		turn, err := sess.Ask(ctx, input)
		return answerMsg{turn: turn, err: err}
	}
}

func (m *Model) refreshViewport() {
	var sb strings.Builder
	for _, turn := range m.sess.Turns() {
		switch turn.Role {
		case model.RoleUser:
			sb.WriteString(userStyle.Render("You: ") + turn.Text)
		case model.RoleAssistant:
			sb.WriteString(assistantStyle.Render(turn.Text))
			if len(turn.ReferencedItemIDs) > 0 {
				sb.WriteString("\n" + refStyle.Render(fmt.Sprintf("(grounded in %d items)", len(turn.ReferencedItemIDs))))
			}
		}
		sb.WriteString("\n\n")
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if m.quit {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Render("quillstream session")
	status := refStyle.Render(fmt.Sprintf("%d items pinned", len(m.sess.Snapshot())))
	if m.waiting {
		status = m.spin.View() + " thinking..."
	}
	if m.err != nil {
		status = errStyle.Render(m.err.Error())
	}

	conversation := chromeStyle.Width(maxInt(m.width-4, 40)).Render(m.viewport.View())
	inputArea := chromeStyle.Width(maxInt(m.width-4, 40)).Render(m.input.View())
	help := helpStyle.Render("[enter] send · [esc] quit · /articles /categories /recent /important /read N")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		"  "+title+"  "+status,
		conversation,
		inputArea,
		help,
	)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
