// Package chat keeps the transcript of a conversation with the task
// assistant. User messages are echoed before the reply arrives.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"prism/internal/api"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const FailureText = "⚠️ Sorry, I encountered an error. Please try again."

var (
	ErrEmptyMessage = api.ErrEmptyMessage
	ErrBusy         = errors.New("a message is already waiting for a reply")
)

type Message struct {
	Role    Role
	Content string
	At      time.Time
	// Failed marks the inline error shown in place of a reply.
	Failed bool
}

// Sender is the gateway call behind a conversation.
type Sender interface {
	SendChatMessage(ctx context.Context, text, conversationID string) (api.ChatReply, error)
}

// Exchange is a user message waiting for its reply.
type Exchange struct {
	Text           string
	ConversationID string
}

type Conversation struct {
	id       string
	messages []Message
	pending  bool
	clock    func() time.Time
}

func New() *Conversation {
	return &Conversation{clock: time.Now}
}

func (c *Conversation) ID() string { return c.id }

func (c *Conversation) Pending() bool { return c.pending }

func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Begin echoes text as a user message and returns the exchange to send.
func (c *Conversation) Begin(text string) (Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Exchange{}, ErrEmptyMessage
	}
	if c.pending {
		return Exchange{}, ErrBusy
	}
	c.pending = true
	c.messages = append(c.messages, Message{Role: RoleUser, Content: text, At: c.clock()})
	return Exchange{Text: text, ConversationID: c.id}, nil
}

func (c *Conversation) Resolve(reply api.ChatReply) {
	c.pending = false
	if reply.ConversationID != "" {
		c.id = reply.ConversationID
	}
	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: reply.Message, At: c.clock()})
}

// Fail records the inline error message; the user echo stays in place.
func (c *Conversation) Fail(error) {
	c.pending = false
	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: FailureText, At: c.clock(), Failed: true})
}

// Reset starts a new conversation.
func (c *Conversation) Reset() {
	c.id = ""
	c.messages = nil
	c.pending = false
}

// Send runs a whole exchange and returns the assistant's reply. The error
// of a failed call is returned after the inline failure is recorded.
func (c *Conversation) Send(ctx context.Context, s Sender, text string) (Message, error) {
	ex, err := c.Begin(text)
	if err != nil {
		return Message{}, err
	}
	reply, err := s.SendChatMessage(ctx, ex.Text, ex.ConversationID)
	if err != nil {
		c.Fail(err)
		return c.messages[len(c.messages)-1], err
	}
	c.Resolve(reply)
	return c.messages[len(c.messages)-1], nil
}
