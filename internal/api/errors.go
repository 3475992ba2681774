package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RequestError is a failed gateway call. StatusCode is zero when the request
// never produced an HTTP response.
type RequestError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	op := strings.ReplaceAll(e.Op, "_", " ")
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("%s: %v", op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s: status %d: %s", op, e.StatusCode, e.Message)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Notice is the short text shown to the user for err.
func Notice(err error) string {
	var rerr *RequestError
	if errors.As(err, &rerr) && rerr.Message != "" {
		return rerr.Message
	}
	return err.Error()
}

// IsStatus reports whether err is a RequestError with the given HTTP status.
func IsStatus(err error, code int) bool {
	var rerr *RequestError
	return errors.As(err, &rerr) && rerr.StatusCode == code
}

// errorDetail extracts the message of a FastAPI-style {"detail": ...} body,
// falling back to the raw body and then the status text.
func errorDetail(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var text string
		if err := json.Unmarshal(payload.Detail, &text); err == nil && text != "" {
			return text
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}
