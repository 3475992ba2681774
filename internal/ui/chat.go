package ui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"prism/internal/api"
	"prism/internal/chat"
)

func (m Model) updateChatMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.chatInput.Blur()
		m.mode = modeList
		m.status = ""
		return m, nil
	case "ctrl+n":
		if m.conv.Pending() {
			m.status = "Wait for the reply before starting a new chat"
			return m, nil
		}
		m.conv.Reset()
		m.chatInput.SetValue("")
		m.status = "Started a new chat"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		ex, err := m.conv.Begin(m.chatInput.Value())
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			return m, nil
		case err != nil:
			m.status = err.Error()
			return m, nil
		}
		m.chatInput.SetValue("")
		m.status = "Thinking..."
		return m, sendChat(m.ctx, m.backend, ex.Text, ex.ConversationID)
	default:
		var cmd tea.Cmd
		m.chatInput, cmd = m.chatInput.Update(msg)
		return m, cmd
	}
}

// onChatReply records the reply and reloads the board, since the assistant
// may have changed tasks.
func (m Model) onChatReply(msg chatReplyMsg) (tea.Model, tea.Cmd) {
	if msg.result.State == api.Failed {
		m.conv.Fail(msg.result.Err)
		m.failure("Chat", msg.result.Err)
		return m, nil
	}
	m.conv.Resolve(msg.result.Value)
	m.status = ""
	return m, fetchTasks(m.ctx, m.backend)
}

func (m Model) renderChat() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Assistant"))
	b.WriteString("\n\n")

	msgs := m.conv.Messages()
	if len(msgs) == 0 {
		b.WriteString(styles.muted.Render("Ask me to add tasks, change due dates or summarise what's left."))
		b.WriteString("\n")
	}
	for _, msg := range msgs {
		switch {
		case msg.Role == chat.RoleUser:
			b.WriteString(styles.userMsg.Render("You: "))
			b.WriteString(msg.Content)
		case msg.Failed:
			b.WriteString(styles.err.Render(msg.Content))
		default:
			b.WriteString(styles.assistantMsg.Render("Prism: "))
			b.WriteString(msg.Content)
		}
		b.WriteString("\n")
	}
	if m.conv.Pending() {
		b.WriteString(styles.muted.Render("Prism is typing..."))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.chatInput.View())
	b.WriteString("\n")
	return b.String()
}
