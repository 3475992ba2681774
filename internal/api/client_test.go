package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"prism/internal/session"
	"prism/internal/task"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type missingToken struct{}

func (missingToken) Token() (string, error) { return "", session.ErrAuthenticationMissing }

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithTokenSource(staticToken("tok"))}, opts...)
	c, err := New(Config{BaseURL: srv.URL + "/"}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "ftp://example.com", "::"} {
		if _, err := New(Config{BaseURL: raw}); err == nil {
			t.Fatalf("New(%q) expected error", raw)
		}
	}
}

func TestListTasksSendsBearerAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Errorf("missing X-Request-Id")
		}
		_, _ = io.WriteString(w, `[
			{"id": 1, "title": "Write report", "description": null, "category": "work",
			 "priority": "high", "due_date": "2026-03-12T00:00:00", "completed": false,
			 "created_at": "2026-03-01T09:30:00.123456"},
			{"id": 2, "title": "Groceries", "category": null, "priority": "low",
			 "due_date": null, "completed": true, "created_at": "2026-03-02T10:00:00Z"}
		]`)
	})

	tasks, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	first := tasks[0]
	if first.Category != task.CategoryWork || first.Priority != task.PriorityHigh {
		t.Fatalf("unexpected first task: %+v", first)
	}
	if first.DueDate == nil || !first.DueDate.Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected due date: %v", first.DueDate)
	}
	if tasks[1].Category != "" || tasks[1].DueDate != nil || !tasks[1].Completed {
		t.Fatalf("unexpected second task: %+v", tasks[1])
	}
}

func TestListTasksNullBodyIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})
	tasks, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestCreateTaskNormalizesPayload(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 7, "title": "Plan trip", "priority": "medium", "completed": false, "created_at": "2026-03-10T12:00:00"}`)
	})

	created, err := c.CreateTask(context.Background(), task.Input{Title: "  Plan trip  "})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.ID != 7 {
		t.Fatalf("expected id 7, got %d", created.ID)
	}
	if body["title"] != "Plan trip" || body["priority"] != "medium" {
		t.Fatalf("unexpected payload: %v", body)
	}
	if v, ok := body["category"]; !ok || v != nil {
		t.Fatalf("expected null category, got %v", body["category"])
	}
	if v, ok := body["due_date"]; !ok || v != nil {
		t.Fatalf("expected null due_date, got %v", body["due_date"])
	}
}

func TestUpdateTaskSendsOnlyPatchedFields(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/tasks/3" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"id": 3, "title": "Renamed", "priority": "low", "completed": false, "created_at": "2026-03-01T00:00:00"}`)
	})

	title := "Renamed"
	none := task.Category("")
	updated, err := c.UpdateTask(context.Background(), 3, task.Patch{Title: &title, Category: &none, ClearDueDate: true})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("unexpected task: %+v", updated)
	}
	if len(body) != 3 {
		t.Fatalf("expected 3 fields, got %v", body)
	}
	if body["category"] != nil || body["due_date"] != nil {
		t.Fatalf("expected cleared fields to be null: %v", body)
	}
	if _, ok := body["priority"]; ok {
		t.Fatalf("priority should not be sent: %v", body)
	}
}

func TestDeleteAndToggle(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, `{"id": 5, "title": "x", "completed": true, "created_at": "2026-03-01T00:00:00"}`)
	})

	if err := c.DeleteTask(context.Background(), 4); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	toggled, err := c.ToggleComplete(context.Background(), 5)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if !toggled.Completed {
		t.Fatalf("expected completed task")
	}
	want := []string{"DELETE /api/tasks/4", "PATCH /api/tasks/5/complete"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Fatalf("requests = %v, want %v", seen, want)
	}
}

func TestErrorDetailIsSurfaced(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", http.StatusNotFound, `{"detail": "Task not found"}`, "Task not found"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail": [{"msg": "field required"}, {"msg": "too long"}]}`, "field required; too long"},
		{"plain body", http.StatusBadGateway, `upstream down`, "upstream down"},
		{"empty body", http.StatusInternalServerError, ``, "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			err := c.DeleteTask(context.Background(), 1)
			var rerr *RequestError
			if !errors.As(err, &rerr) {
				t.Fatalf("expected RequestError, got %v", err)
			}
			if rerr.StatusCode != tc.status || rerr.Message != tc.want {
				t.Fatalf("got status %d message %q", rerr.StatusCode, rerr.Message)
			}
			if !IsStatus(err, tc.status) {
				t.Fatalf("IsStatus(%d) = false", tc.status)
			}
			if Notice(err) != tc.want {
				t.Fatalf("Notice = %q", Notice(err))
			}
		})
	}
}

func TestMissingTokenSkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, WithTokenSource(missingToken{}))

	_, err := c.ListTasks(context.Background())
	if !errors.Is(err, session.ErrAuthenticationMissing) {
		t.Fatalf("expected ErrAuthenticationMissing, got %v", err)
	}
	if called {
		t.Fatalf("request should not reach the server")
	}
}

func TestSignInDoesNotSendToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/signin" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("sign in must not send a bearer token")
		}
		var req signInRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "ada@example.com" || req.Password != "secret" {
			t.Errorf("unexpected credentials: %+v", req)
		}
		_, _ = io.WriteString(w, `{"token": "jwt", "user": {"id": "u1", "name": "Ada", "email": "ada@example.com"}}`)
	}, WithTokenSource(missingToken{}))

	s, err := c.SignIn(context.Background(), " ada@example.com ", "secret")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if s.Token != "jwt" || s.User.Name != "Ada" {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestSignUpRejectsBlankFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	if _, err := c.SignUp(context.Background(), " ", "a@b.c", "pw"); err == nil {
		t.Fatalf("expected error for blank name")
	}
}

func TestSignInWithoutTokenFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"user": {"name": "Ada"}}`)
	})
	if _, err := c.SignIn(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestSendChatMessage(t *testing.T) {
	var req map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = io.WriteString(w, `{"message": "Added it.", "conversation_id": "c-1"}`)
	})

	if _, err := c.SendChatMessage(context.Background(), "   ", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	reply, err := c.SendChatMessage(context.Background(), " add milk ", "")
	if err != nil {
		t.Fatalf("SendChatMessage: %v", err)
	}
	if reply.Message != "Added it." || reply.ConversationID != "c-1" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if req["message"] != "add milk" {
		t.Fatalf("unexpected request: %v", req)
	}
	if _, ok := req["conversation_id"]; ok {
		t.Fatalf("new conversation should omit conversation_id: %v", req)
	}
}

func TestMetricsAndLogging(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail": "Task not found"}`)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}, WithMetrics(m), WithLogger(logger))

	if _, err := c.ListTasks(context.Background()); err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if err := c.DeleteTask(context.Background(), 9); err == nil {
		t.Fatalf("expected delete to fail")
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("list_tasks", "200")); got != 1 {
		t.Fatalf("list_tasks 200 = %v", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("delete_task")); got != 1 {
		t.Fatalf("delete_task errors = %v", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("list_tasks")); got != 0 {
		t.Fatalf("list_tasks errors = %v", got)
	}

	last := hook.LastEntry()
	if last == nil || last.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error entry, got %+v", last)
	}
	if last.Data["operation"] != "delete_task" || last.Data["status"] != http.StatusNotFound {
		t.Fatalf("unexpected fields: %v", last.Data)
	}
	if len(hook.AllEntries()) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(hook.AllEntries()))
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, RateLimit: 0.001, RateBurst: 1}, WithTokenSource(staticToken("tok")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.ListTasks(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.ListTasks(ctx); err == nil {
		t.Fatalf("expected the limiter to refuse the second call")
	}
}

func TestResultSettle(t *testing.T) {
	if r := PendingResult[int](); r.Done() || r.State.String() != "pending" {
		t.Fatalf("unexpected pending result: %+v", r)
	}
	if r := Settle(3, nil); r.State != Succeeded || r.Value != 3 {
		t.Fatalf("unexpected success: %+v", r)
	}
	boom := errors.New("boom")
	if r := Settle(3, boom); r.State != Failed || r.Value != 0 || !errors.Is(r.Err, boom) {
		t.Fatalf("unexpected failure: %+v", r)
	}
}
