package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"prism/internal/task"
)

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    *string `json:"category"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
}

func (c *Client) ListTasks(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	err := c.do(ctx, call{op: "list_tasks", method: http.MethodGet, path: "/api/tasks", out: &tasks, auth: true})
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// CreateTask sends a normalized copy of in; the returned task carries the
// server-assigned ID and creation time.
func (c *Client) CreateTask(ctx context.Context, in task.Input) (task.Task, error) {
	in = in.Normalize()
	req := createTaskRequest{
		Title:       in.Title,
		Description: in.Description,
		Priority:    string(in.Priority),
		DueDate:     formatDue(in.DueDate),
	}
	if in.Category != "" {
		category := string(in.Category)
		req.Category = &category
	}

	var created task.Task
	err := c.do(ctx, call{op: "create_task", method: http.MethodPost, path: "/api/tasks", body: req, out: &created, auth: true})
	return created, err
}

func (c *Client) UpdateTask(ctx context.Context, id int64, p task.Patch) (task.Task, error) {
	var updated task.Task
	err := c.do(ctx, call{
		op:     "update_task",
		method: http.MethodPatch,
		path:   taskPath(id),
		body:   patchBody(p),
		out:    &updated,
		auth:   true,
	})
	return updated, err
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "delete_task", method: http.MethodDelete, path: taskPath(id), auth: true})
}

func (c *Client) ToggleComplete(ctx context.Context, id int64) (task.Task, error) {
	var toggled task.Task
	err := c.do(ctx, call{op: "toggle_complete", method: http.MethodPatch, path: taskPath(id) + "/complete", out: &toggled, auth: true})
	return toggled, err
}

func taskPath(id int64) string {
	return fmt.Sprintf("/api/tasks/%d", id)
}

// patchBody encodes only the fields set in p. Cleared category and due date
// are sent as JSON null.
func patchBody(p task.Patch) map[string]any {
	body := make(map[string]any, 5)
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Category != nil {
		if *p.Category == "" {
			body["category"] = nil
		} else {
			body["category"] = string(*p.Category)
		}
	}
	if p.Priority != nil {
		body["priority"] = string(*p.Priority)
	}
	switch {
	case p.DueDate != nil:
		body["due_date"] = *formatDue(p.DueDate)
	case p.ClearDueDate:
		body["due_date"] = nil
	}
	return body
}

func formatDue(due *time.Time) *string {
	if due == nil {
		return nil
	}
	s := due.UTC().Format(time.RFC3339)
	return &s
}
