package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"prism/internal/api"
	"prism/internal/board"
	"prism/internal/chat"
	"prism/internal/config"
	"prism/internal/session"
	"prism/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeForm
	modeChat
)

// Backend is every API call the views make.
type Backend interface {
	board.Gateway
	chat.Sender
}

type Model struct {
	ctx     context.Context
	backend Backend
	cfg     config.Config
	session session.Session
	log     logrus.FieldLogger
	now     func() time.Time

	board  *board.Board
	load   api.Result[[]task.Task]
	cursor int
	mode   mode
	status string
	// statusErr marks status as a failure notice.
	statusErr bool

	search     textinput.Model
	input      textinput.Model
	form       *formState
	forms      int
	confirmDel bool
	pendingDel *task.Task

	conv      *chat.Conversation
	chatInput textinput.Model

	width int
}

type Option func(*Model)

func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Model) { m.log = log }
}

func New(ctx context.Context, backend Backend, cfg config.Config, s session.Session, opts ...Option) Model {
	ti := textinput.New()
	ti.CharLimit = task.MaxDescriptionLength + 1
	ti.Width = 50

	ci := textinput.New()
	ci.Placeholder = "Ask the assistant to add, update or summarise tasks"
	ci.Prompt = "> "
	ci.CharLimit = 2000
	ci.Width = 60

	m := Model{
		ctx:       ctx,
		backend:   backend,
		cfg:       cfg,
		session:   s,
		log:       discardLogger(),
		now:       time.Now,
		board:     board.New(task.FilterState{Status: cfg.Filter()}),
		load:      api.PendingResult[[]task.Task](),
		mode:      modeList,
		status:    "Loading tasks...",
		search:    newSearchInput(),
		input:     ti,
		conv:      chat.New(),
		chatInput: ci,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func Run(ctx context.Context, backend Backend, cfg config.Config, s session.Session, opts ...Option) error {
	m := New(ctx, backend, cfg, s, opts...)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return fetchTasks(m.ctx, m.backend)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case tea.KeyMsg, tasksLoadedMsg, taskSavedMsg, taskDeletedMsg, chatReplyMsg:
		m.statusErr = false
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		switch m.mode {
		case modeForm:
			return m.updateFormMode(msg.String(), msg)
		case modeSearch:
			return m.updateSearchMode(msg.String(), msg)
		case modeChat:
			return m.updateChatMode(msg.String(), msg)
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-20, 20)
		m.chatInput.Width = max(msg.Width-10, 20)
		return m, nil
	case tasksLoadedMsg:
		return m.onTasksLoaded(msg)
	case taskSavedMsg:
		return m.onTaskSaved(msg)
	case taskDeletedMsg:
		return m.onTaskDeleted(msg)
	case chatReplyMsg:
		return m.onChatReply(msg)
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.mode {
	case modeChat:
		b.WriteString(m.renderChat())
	case modeForm:
		b.WriteString(m.renderForm())
	default:
		b.WriteString(m.renderTabs())
		b.WriteString("\n")
		b.WriteString(m.renderFilters())
		b.WriteString("\n\n")
		b.WriteString(m.renderBody())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(styles.help.Render(m.renderHelp()))
	return b.String()
}

// visible is the list the cursor indexes into.
func (m Model) visible() []task.Task {
	return m.board.Visible(m.now())
}

func (m Model) selected() (task.Task, bool) {
	tasks := m.visible()
	if len(tasks) == 0 {
		return task.Task{}, false
	}
	return tasks[clampCursor(m.cursor, len(tasks))], true
}

func (m *Model) selectID(id int64) {
	for i, t := range m.visible() {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
	m.cursor = clampCursor(m.cursor, len(m.visible()))
}

// failure turns a gateway error into the status line and logs it.
func (m *Model) failure(action string, err error) {
	m.log.WithError(err).WithField("action", action).Warn("request failed")
	m.statusErr = true
	switch {
	case errors.Is(err, session.ErrAuthenticationMissing), api.IsStatus(err, http.StatusUnauthorized):
		m.status = "Session expired. Quit and run `prism login`."
	default:
		m.status = fmt.Sprintf("%s failed: %s", action, api.Notice(err))
	}
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
