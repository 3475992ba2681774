package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var ErrEmptyMessage = errors.New("message cannot be empty")

type chatRequest struct {
	Message        string  `json:"message"`
	ConversationID *string `json:"conversation_id,omitempty"`
}

type ChatReply struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// SendChatMessage posts text to the assistant. An empty conversationID starts
// a new conversation; the reply carries the ID to continue it.
func (c *Client) SendChatMessage(ctx context.Context, text, conversationID string) (ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatReply{}, ErrEmptyMessage
	}
	req := chatRequest{Message: text}
	if conversationID != "" {
		req.ConversationID = &conversationID
	}

	var reply ChatReply
	err := c.do(ctx, call{op: "send_chat_message", method: http.MethodPost, path: "/api/chat", body: req, out: &reply, auth: true})
	return reply, err
}
