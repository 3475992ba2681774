package chat

import (
	"context"
	"errors"
	"testing"

	"prism/internal/api"
)

type senderFunc func(ctx context.Context, text, conversationID string) (api.ChatReply, error)

func (f senderFunc) SendChatMessage(ctx context.Context, text, conversationID string) (api.ChatReply, error) {
	return f(ctx, text, conversationID)
}

func TestSendKeepsConversationID(t *testing.T) {
	var seen []string
	s := senderFunc(func(_ context.Context, text, id string) (api.ChatReply, error) {
		seen = append(seen, id)
		return api.ChatReply{Message: "ok: " + text, ConversationID: "c-1"}, nil
	})
	c := New()

	reply, err := c.Send(context.Background(), s, "  add milk ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply.Role != RoleAssistant || reply.Content != "ok: add milk" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if _, err := c.Send(context.Background(), s, "and eggs"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(seen) != 2 || seen[0] != "" || seen[1] != "c-1" {
		t.Fatalf("conversation ids sent = %q", seen)
	}
	msgs := c.Messages()
	if len(msgs) != 4 || msgs[0].Role != RoleUser || msgs[0].Content != "add milk" {
		t.Fatalf("unexpected transcript: %+v", msgs)
	}
}

func TestSendFailureAddsInlineError(t *testing.T) {
	boom := errors.New("502")
	s := senderFunc(func(context.Context, string, string) (api.ChatReply, error) {
		return api.ChatReply{}, boom
	})
	c := New()

	msg, err := c.Send(context.Background(), s, "hello")
	if !errors.Is(err, boom) {
		t.Fatalf("expected error, got %v", err)
	}
	if !msg.Failed || msg.Content != FailureText {
		t.Fatalf("unexpected failure message: %+v", msg)
	}
	if c.Pending() {
		t.Fatalf("conversation should not be pending after failure")
	}
	if msgs := c.Messages(); len(msgs) != 2 || msgs[0].Content != "hello" {
		t.Fatalf("user echo should stay: %+v", msgs)
	}
}

func TestBeginRejectsBlankAndConcurrent(t *testing.T) {
	c := New()
	if _, err := c.Begin(" \n "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(c.Messages()) != 0 {
		t.Fatalf("blank message must not be echoed")
	}
	if _, err := c.Begin("first"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := c.Begin("second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestReset(t *testing.T) {
	c := New()
	if _, err := c.Begin("hi"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	c.Resolve(api.ChatReply{Message: "hello", ConversationID: "c-9"})
	c.Reset()
	if c.ID() != "" || len(c.Messages()) != 0 || c.Pending() {
		t.Fatalf("reset left state behind: id=%q msgs=%d", c.ID(), len(c.Messages()))
	}
}
