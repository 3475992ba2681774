package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"prism/internal/task"
)

const dateLayout = "2006-01-02"

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldCategory
	fieldPriority
	fieldDue
	fieldCount
)

func (f formField) label() string {
	switch f {
	case fieldTitle:
		return "title"
	case fieldDescription:
		return "description"
	case fieldCategory:
		return "category"
	case fieldPriority:
		return "priority"
	case fieldDue:
		return "due date (YYYY-MM-DD)"
	default:
		return ""
	}
}

// choice fields are cycled with left/right instead of typed.
func (f formField) choice() bool {
	return f == fieldCategory || f == fieldPriority
}

type formState struct {
	// seq tells this form apart from earlier ones.
	seq         int
	taskID      int64
	title       string
	description string
	category    task.Category
	priority    task.Priority
	due         string
	index       formField
	errors      map[string]string
	saving      bool
}

func newFormState(t *task.Task, loc *time.Location) *formState {
	if t == nil {
		return &formState{priority: task.PriorityMedium, errors: map[string]string{}}
	}
	fs := &formState{
		taskID:      t.ID,
		title:       t.Title,
		description: t.Description,
		category:    t.Category,
		priority:    t.Priority,
		errors:      map[string]string{},
	}
	if t.DueDate != nil {
		fs.due = t.DueDate.In(loc).Format(dateLayout)
	}
	return fs
}

func (fs formState) editing() bool {
	return fs.taskID != 0
}

func (fs formState) currentValue() string {
	switch fs.index {
	case fieldTitle:
		return fs.title
	case fieldDescription:
		return fs.description
	case fieldDue:
		return fs.due
	default:
		return ""
	}
}

func (fs *formState) setCurrentValue(v string) {
	switch fs.index {
	case fieldTitle:
		fs.title = v
	case fieldDescription:
		fs.description = v
	case fieldDue:
		fs.due = v
	}
}

func (fs *formState) cycle() {
	switch fs.index {
	case fieldCategory:
		fs.category = fs.category.Next()
	case fieldPriority:
		fs.priority = fs.priority.Next()
	}
}

// input builds the task input, reporting a malformed due date.
func (fs formState) input(loc *time.Location) (task.Input, error) {
	in := task.Input{
		Title:       fs.title,
		Description: fs.description,
		Category:    fs.category,
		Priority:    fs.priority,
	}
	due, err := parseDate(fs.due, loc)
	if err != nil {
		return in, err
	}
	in.DueDate = due
	return in, nil
}

func parseDate(v string, loc *time.Location) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return nil, fmt.Errorf("use the YYYY-MM-DD format")
	}
	return &t, nil
}

func (m Model) startForm(t *task.Task) (tea.Model, tea.Cmd) {
	m.forms++
	m.form = newFormState(t, m.now().Location())
	m.form.seq = m.forms
	m.mode = modeForm
	m.loadField()
	if m.form.editing() {
		m.status = "Editing task: tab to move, enter to advance, ctrl+s to save, esc to cancel"
	} else {
		m.status = "New task: tab to move, enter to advance, ctrl+s to save, esc to cancel"
	}
	cmd := m.input.Focus()
	return m, cmd
}

func (m *Model) loadField() {
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.index.label()
	m.input.CursorEnd()
}

func (m Model) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}
	k := m.cfg.Keys
	switch key {
	case k.Cancel, "esc":
		m = m.closeForm()
		m.status = "Edit cancelled"
		return m, nil
	case k.NextField, "tab", "down":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = formField(wrapIndex(int(m.form.index)+1, int(fieldCount)))
		m.loadField()
		return m, nil
	case k.PrevField, "shift+tab", "up":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = formField(wrapIndex(int(m.form.index)-1, int(fieldCount)))
		m.loadField()
		return m, nil
	case "ctrl+s":
		m.form.setCurrentValue(m.input.Value())
		return m.submitForm()
	case k.Confirm, "enter":
		m.form.setCurrentValue(m.input.Value())
		if m.form.index >= fieldCount-1 {
			return m.submitForm()
		}
		m.form.index++
		m.loadField()
		return m, nil
	}

	if m.form.index.choice() {
		switch key {
		case "left", "right", " ", "h", "l":
			m.form.cycle()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	fs := m.form
	if fs.saving {
		return m, nil
	}
	fs.errors = map[string]string{}

	in, dueErr := fs.input(m.now().Location())
	if dueErr != nil {
		fs.errors["due"] = dueErr.Error()
	}
	if verr, ok := in.Validate().(*task.ValidationError); ok {
		for field, msg := range verr.Fields() {
			fs.errors[field] = msg
		}
	}
	if len(fs.errors) > 0 {
		m.status = "Fix the highlighted fields"
		return m, nil
	}

	fs.saving = true
	in = in.Normalize()
	if fs.editing() {
		m.status = "Saving..."
		return m, updateTask(m.ctx, m.backend, fs.seq, fs.taskID, in.Patch())
	}
	m.status = "Adding..."
	return m, createTask(m.ctx, m.backend, fs.seq, in)
}

// keepForm leaves the form open after a failed save so nothing is lost.
func (m Model) keepForm() Model {
	if m.form != nil {
		m.form.saving = false
	}
	return m
}

func (m Model) closeForm() Model {
	m.form = nil
	m.mode = modeList
	m.input.Blur()
	m.input.SetValue("")
	return m
}

func (m Model) renderForm() string {
	fs := m.form
	if fs == nil {
		return ""
	}
	var b strings.Builder
	title := "New task"
	if fs.editing() {
		title = fmt.Sprintf("Edit task #%d", fs.taskID)
	}
	b.WriteString(styles.title.Render(title))

	in, _ := fs.input(m.now().Location())
	b.WriteString(styles.muted.Render(fmt.Sprintf("  %d%% complete", in.Completion())))
	b.WriteString("\n\n")

	values := []string{fs.title, fs.description, categoryLabel(fs.category), priorityLabel(fs.priority), fs.due}
	errKeys := []string{"title", "description", "", "", "due"}
	for i := fieldTitle; i < fieldCount; i++ {
		prefix := " "
		if i == fs.index {
			prefix = ">"
		}
		val := values[i]
		if i == fs.index && !i.choice() {
			val = m.input.Value()
		}
		if strings.TrimSpace(val) == "" {
			val = styles.muted.Render("(empty)")
		}
		if i.choice() && i == fs.index {
			val = "< " + val + " >"
		}
		b.WriteString(fmt.Sprintf("%s %-22s : %s\n", prefix, i.label(), val))
		if msg := fs.errors[errKeys[i]]; errKeys[i] != "" && msg != "" {
			b.WriteString(styles.err.Render("    " + msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if fs.index.choice() {
		b.WriteString(styles.muted.Render("left/right or space to change"))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	return b.String()
}

func categoryLabel(c task.Category) string {
	if info, ok := task.LookupCategory(c); ok {
		return info.Icon + " " + info.Label
	}
	return "None"
}

func priorityLabel(p task.Priority) string {
	if info, ok := task.LookupPriority(p); ok {
		return info.Icon + " " + info.Label
	}
	return ""
}
