package ui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"prism/internal/api"
	"prism/internal/task"
)

// Gateway calls run as commands; their results come back to Update as
// messages, and only Update touches the board.

type tasksLoadedMsg struct {
	result api.Result[[]task.Task]
}

type saveKind int

const (
	saveCreate saveKind = iota
	saveUpdate
	saveToggle
)

type taskSavedMsg struct {
	kind   saveKind
	// form is the seq of the form that sent a create or update.
	form   int
	result api.Result[task.Task]
}

type taskDeletedMsg struct {
	id     int64
	result api.Result[struct{}]
}

type chatReplyMsg struct {
	result api.Result[api.ChatReply]
}

func fetchTasks(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		return tasksLoadedMsg{result: api.Settle(b.ListTasks(ctx))}
	}
}

func createTask(ctx context.Context, b Backend, form int, in task.Input) tea.Cmd {
	return func() tea.Msg {
		return taskSavedMsg{kind: saveCreate, form: form, result: api.Settle(b.CreateTask(ctx, in))}
	}
}

func updateTask(ctx context.Context, b Backend, form int, id int64, p task.Patch) tea.Cmd {
	return func() tea.Msg {
		return taskSavedMsg{kind: saveUpdate, form: form, result: api.Settle(b.UpdateTask(ctx, id, p))}
	}
}

func toggleTask(ctx context.Context, b Backend, id int64) tea.Cmd {
	return func() tea.Msg {
		return taskSavedMsg{kind: saveToggle, result: api.Settle(b.ToggleComplete(ctx, id))}
	}
}

func deleteTask(ctx context.Context, b Backend, id int64) tea.Cmd {
	return func() tea.Msg {
		return taskDeletedMsg{id: id, result: api.Settle(struct{}{}, b.DeleteTask(ctx, id))}
	}
}

func sendChat(ctx context.Context, b Backend, text, conversationID string) tea.Cmd {
	return func() tea.Msg {
		return chatReplyMsg{result: api.Settle(b.SendChatMessage(ctx, text, conversationID))}
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
