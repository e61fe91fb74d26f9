package chatcmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/govorun-ai/govorun/cmd/govorun/apiclient"
)

const chatLongDesc string = `Chat with the assistant from the terminal.

Each line you enter is sent to a running govorun server and the
spoken reply is saved as a numbered MP3 file in the reply directory.

Examples:
  govorun chat
  govorun chat --server http://192.168.1.42:8080 --dir ./replies`

const chatShortDesc string = "Chat with the assistant interactively"

var (
	padStyle    = lipgloss.NewStyle().PaddingLeft(1).PaddingTop(1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	youStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type chatCommander struct {
	serverURL string
	dir       string
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "http://localhost:8080", "URL of the govorun server")
	cmd.Flags().StringVarP(&cmder.dir, "dir", "d", ".", "Directory for saved replies")

	return cmd
}

func (c *chatCommander) run() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("could not create reply directory: %w", err)
	}

	model := newChatModel(strings.TrimRight(c.serverURL, "/"), c.dir)
	program := tea.NewProgram(model)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running chat: %w", err)
	}
	return nil
}

// exchange is one question and the state of its reply.
type exchange struct {
	question string
	note     string
	failed   bool
}

// replyMsg is sent when a round-trip to the server is complete.
type replyMsg struct {
	note   string
	failed bool
}

type chatModel struct {
	serverURL string
	dir       string

	input     textinput.Model
	exchanges []exchange
	waiting   bool
	seq       int
	quitting  bool
}

func newChatModel(serverURL, dir string) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Спросите что-нибудь..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	return chatModel{
		serverURL: serverURL,
		dir:       dir,
		input:     ti,
	}
}

// sendCmd posts the question and saves the spoken reply as a numbered file.
// The round-trip runs to completion once started, so a fresh context is fine.
func sendCmd(serverURL, dir string, seq int, text string) tea.Cmd {
	return func() tea.Msg {
		audio, err := apiclient.FetchReply(context.Background(), serverURL, text)
		if err != nil {
			return replyMsg{note: err.Error(), failed: true}
		}

		path := filepath.Join(dir, fmt.Sprintf("reply-%04d.mp3", seq))
		if err := os.WriteFile(path, audio, 0o644); err != nil {
			return replyMsg{note: err.Error(), failed: true}
		}

		return replyMsg{note: fmt.Sprintf("%s (%d bytes)", filepath.Base(path), len(audio))}
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case replyMsg:
		m.waiting = false
		if len(m.exchanges) > 0 {
			last := &m.exchanges[len(m.exchanges)-1]
			last.note = msg.note
			last.failed = msg.failed
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			// One question in flight at a time
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}

			m.seq++
			m.exchanges = append(m.exchanges, exchange{question: text})
			m.input.SetValue("")
			m.waiting = true
			return m, sendCmd(m.serverURL, m.dir, m.seq, text)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) View() string {
	if m.quitting {
		return "До встречи!\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("Говорун"))
	s.WriteString("\n\n")

	for _, ex := range m.exchanges {
		s.WriteString(youStyle.Render("Вы: "))
		s.WriteString(ex.question)
		s.WriteString("\n")

		switch {
		case ex.note == "":
			s.WriteString(mutedStyle.Render("    ...думаю"))
		case ex.failed:
			s.WriteString(failedStyle.Render("    " + ex.note))
		default:
			s.WriteString(replyStyle.Render("    ♪ " + ex.note))
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.input.View())
	s.WriteString("\n\n")
	s.WriteString(mutedStyle.Render("Enter: отправить, Esc: выйти"))

	return padStyle.Render(s.String())
}
