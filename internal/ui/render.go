package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"prism/internal/api"
	"prism/internal/config"
	"prism/internal/task"
)

var palette = map[string]lipgloss.Color{
	"blue":   lipgloss.Color("33"),
	"purple": lipgloss.Color("135"),
	"green":  lipgloss.Color("42"),
	"red":    lipgloss.Color("196"),
	"yellow": lipgloss.Color("220"),
	"gray":   lipgloss.Color("245"),
}

var styles = struct {
	title        lipgloss.Style
	muted        lipgloss.Style
	err          lipgloss.Style
	help         lipgloss.Style
	tab          lipgloss.Style
	activeTab    lipgloss.Style
	cursor       lipgloss.Style
	done         lipgloss.Style
	userMsg      lipgloss.Style
	assistantMsg lipgloss.Style
}{
	title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135")),
	muted:        lipgloss.NewStyle().Foreground(palette["gray"]),
	err:          lipgloss.NewStyle().Foreground(palette["red"]),
	help:         lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	tab:          lipgloss.NewStyle().Padding(0, 1).Foreground(palette["gray"]),
	activeTab:    lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("231")).Background(palette["purple"]),
	cursor:       lipgloss.NewStyle().Foreground(palette["purple"]).Bold(true),
	done:         lipgloss.NewStyle().Strikethrough(true).Foreground(palette["gray"]),
	userMsg:      lipgloss.NewStyle().Bold(true).Foreground(palette["blue"]),
	assistantMsg: lipgloss.NewStyle().Bold(true).Foreground(palette["purple"]),
}

func colored(key, text string) string {
	c, ok := palette[key]
	if !ok {
		return text
	}
	return lipgloss.NewStyle().Foreground(c).Render(text)
}

func (m Model) renderHeader() string {
	return styles.title.Render("Prism") + styles.muted.Render("  signed in as "+m.session.DisplayName())
}

func (m Model) renderTabs() string {
	counts := m.board.Counts()
	labels := map[task.Status]string{
		task.StatusAll:       "All",
		task.StatusActive:    "Active",
		task.StatusCompleted: "Completed",
	}
	tabs := make([]string, 0, 3)
	for _, s := range task.Statuses() {
		label := fmt.Sprintf("%s (%d)", labels[s], counts.For(s))
		if s == m.board.Filter.Status {
			tabs = append(tabs, styles.activeTab.Render(label))
		} else {
			tabs = append(tabs, styles.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderFilters() string {
	f := m.board.Filter
	parts := []string{"category: " + categoryLabel(f.Category)}
	if f.Priority == "" {
		parts = append(parts, "priority: Any")
	} else {
		parts = append(parts, "priority: "+priorityLabel(f.Priority))
	}
	if m.mode == modeSearch {
		parts = append(parts, m.search.View())
	} else if f.Query != "" {
		parts = append(parts, fmt.Sprintf("search: %q", f.Query))
	}
	return styles.muted.Render(strings.Join(parts, "  •  "))
}

func (m Model) renderBody() string {
	switch m.load.State {
	case api.Pending:
		if m.board.Len() == 0 {
			return styles.muted.Render("Loading tasks...") + "\n"
		}
	case api.Failed:
		if m.board.Len() == 0 {
			return styles.err.Render("Could not load tasks. Press "+m.cfg.Keys.Refresh+" to retry.") + "\n"
		}
	}

	tasks := m.visible()
	if len(tasks) == 0 {
		if m.board.Len() == 0 {
			return styles.muted.Render("No tasks yet. Press "+m.cfg.Keys.Add+" to add one.") + "\n"
		}
		return styles.muted.Render("No tasks match the current filters.") + "\n"
	}

	now := m.now()
	var b strings.Builder
	for i, t := range tasks {
		cursor := "  "
		if i == clampCursor(m.cursor, len(tasks)) && m.mode == modeList {
			cursor = styles.cursor.Render("> ")
		}
		checkbox := "[ ]"
		title := t.Title
		if t.Completed {
			checkbox = "[x]"
			title = styles.done.Render(title)
		}

		icon := " "
		if info, ok := task.LookupPriority(t.Priority); ok {
			icon = info.Icon
		}
		row := fmt.Sprintf("%s%s %s %s", cursor, checkbox, icon, title)
		if info, ok := task.LookupCategory(t.Category); ok {
			row += "  " + colored(info.ColorKey, info.Icon+" "+info.Label)
		}
		if badge := task.DueBadge(t.DueDate, t.Completed, now); badge.Text != "" {
			row += "  " + renderBadge(badge)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	if t, ok := m.selected(); ok {
		b.WriteString("\n")
		b.WriteString(m.renderDetail(t))
	}
	return b.String()
}

func renderBadge(badge task.Badge) string {
	switch badge.Urgency {
	case task.UrgencyOverdue:
		return colored("red", badge.Text)
	case task.UrgencyToday, task.UrgencyTomorrow:
		return colored("yellow", badge.Text)
	case task.UrgencySoon:
		return colored("blue", badge.Text)
	default:
		return styles.muted.Render(badge.Text)
	}
}

func (m Model) renderDetail(t task.Task) string {
	var b strings.Builder
	if t.Description != "" {
		b.WriteString(t.Description)
		b.WriteString("\n")
	}
	meta := fmt.Sprintf("#%d • created %s", t.ID, humanize.RelTime(t.CreatedAt, m.now(), "ago", "from now"))
	if !t.UpdatedAt.IsZero() && !t.UpdatedAt.Equal(t.CreatedAt) {
		meta += " • updated " + humanize.RelTime(t.UpdatedAt, m.now(), "ago", "from now")
	}
	b.WriteString(styles.muted.Render(meta))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderStatus() string {
	if m.statusErr {
		return styles.err.Render(m.status)
	}
	return m.status
}

func (m Model) renderHelp() string {
	switch {
	case m.confirmDel:
		return "y confirm • n cancel"
	case m.mode == modeForm:
		return "tab/shift+tab move • enter next • ctrl+s save • esc cancel"
	case m.mode == modeChat:
		return "enter send • ctrl+n new chat • esc back"
	case m.mode == modeSearch:
		return "enter keep • esc clear"
	}
	return renderHelp(m.cfg.Keys)
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s toggle • %s delete • %s search • %s/%s/%s filter • %s clear • %s refresh • %s chat • %s quit",
		k.Up, k.Down, k.Add, k.Edit, keyName(k.Toggle), k.Delete, k.Search,
		k.FilterStatus, k.FilterCategory, k.FilterPriority, k.ClearFilters, k.Refresh, k.Chat, k.Quit)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
