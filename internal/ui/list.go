package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"prism/internal/api"
	"prism/internal/task"
)

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.visible()))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.visible()))
	case k.Add:
		return m.startForm(nil)
	case k.Edit:
		t, ok := m.selected()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startForm(&t)
	case k.Toggle:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.status = fmt.Sprintf("Updating \"%s\"...", t.Title)
		return m, toggleTask(m.ctx, m.backend, t.ID)
	case k.Delete:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case k.Search:
		m.mode = modeSearch
		m.search.SetValue(m.board.Filter.Query)
		m.search.CursorEnd()
		m.status = "Type to search, enter to keep, esc to clear"
		cmd := m.search.Focus()
		return m, cmd
	case k.FilterStatus:
		m.board.Filter.Status = m.board.Filter.Status.Next()
		m.cursor = 0
	case k.FilterCategory:
		m.board.Filter.Category = m.board.Filter.Category.Next()
		m.cursor = 0
	case k.FilterPriority:
		m.board.Filter.Priority = nextPriorityFilter(m.board.Filter.Priority)
		m.cursor = 0
	case k.ClearFilters:
		m.board.Filter = task.FilterState{Status: m.board.Filter.Status}
		m.cursor = 0
		m.status = "Filters cleared"
	case k.Refresh:
		m.load = api.PendingResult[[]task.Task]()
		m.status = "Refreshing..."
		return m, fetchTasks(m.ctx, m.backend)
	case k.Chat:
		m.mode = modeChat
		m.status = "Chat: enter to send, ctrl+n for a new chat, esc to go back"
		cmd := m.chatInput.Focus()
		return m, cmd
	}
	return m, nil
}

// nextPriorityFilter cycles any -> high -> medium -> low -> any.
func nextPriorityFilter(p task.Priority) task.Priority {
	if p == task.PriorityLow {
		return ""
	}
	if p == "" {
		return task.PriorityHigh
	}
	return p.Next()
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.board.Filter.Query = ""
		return m.leaveSearch("Search cleared"), nil
	case m.cfg.Keys.Confirm, "enter":
		return m.leaveSearch(""), nil
	default:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.board.Filter.Query = m.search.Value()
		m.cursor = 0
		return m, cmd
	}
}

func (m Model) leaveSearch(status string) Model {
	m.search.Blur()
	m.search.SetValue("")
	m.mode = modeList
	m.status = status
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	return m
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		m.confirmDel = false
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			return m, nil
		}
		id := m.pendingDel.ID
		m.status = "Deleting..."
		return m, deleteTask(m.ctx, m.backend, id)
	default:
		return m, nil
	}
}

func (m Model) onTasksLoaded(msg tasksLoadedMsg) (tea.Model, tea.Cmd) {
	m.load = msg.result
	if err := m.board.Loaded(msg.result.Value, msg.result.Err); err != nil {
		m.failure("Loading tasks", err)
		return m, nil
	}
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	m.status = fmt.Sprintf("%d tasks", m.board.Len())
	m.log.WithField("tasks", m.board.Len()).Debug("tasks loaded")
	return m, nil
}

func (m Model) onTaskSaved(msg taskSavedMsg) (tea.Model, tea.Cmd) {
	res := msg.result
	var err error
	switch msg.kind {
	case saveCreate:
		err = m.board.Created(res.Value, res.Err)
	default:
		err = m.board.Saved(res.Value, res.Err)
	}
	// own is false when the form that sent the save has since been closed.
	own := msg.kind != saveToggle && m.form != nil && m.form.seq == msg.form

	if err != nil {
		verb := "Updating task"
		if msg.kind == saveCreate {
			verb = "Creating task"
		}
		m.failure(verb, err)
		if own {
			return m.keepForm(), nil
		}
		return m, nil
	}

	switch msg.kind {
	case saveCreate:
		m.status = fmt.Sprintf("Added \"%s\"", res.Value.Title)
	case saveUpdate:
		m.status = fmt.Sprintf("Saved \"%s\"", res.Value.Title)
	case saveToggle:
		if res.Value.Completed {
			m.status = fmt.Sprintf("Completed \"%s\"", res.Value.Title)
		} else {
			m.status = fmt.Sprintf("Reopened \"%s\"", res.Value.Title)
		}
	}
	if own {
		m = m.closeForm()
	}
	if m.mode == modeList {
		m.selectID(res.Value.ID)
	}
	return m, nil
}

func (m Model) onTaskDeleted(msg taskDeletedMsg) (tea.Model, tea.Cmd) {
	m.pendingDel = nil
	if err := m.board.Deleted(msg.id, msg.result.Err); err != nil {
		m.failure("Deleting task", err)
		return m, nil
	}
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	m.status = "Deleted task"
	return m, nil
}

func newSearchInput() textinput.Model {
	search := textinput.New()
	search.Placeholder = "Search title or description"
	search.Prompt = "/ "
	search.CharLimit = 200
	search.Width = 40
	return search
}
