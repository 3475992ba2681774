// Package task holds the Prism task model and the pure functions the views
// derive from it: filtering, ordering, validation and due-date badges.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Task struct {
	ID          int64
	Title       string
	Description string
	Category    Category
	Priority    Priority
	DueDate     *time.Time
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOverdue reports whether t is open and its due date is strictly before now.
func (t Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// Input is the draft a task form submits for creation or a full edit.
type Input struct {
	Title       string
	Description string
	Category    Category
	Priority    Priority
	DueDate     *time.Time
}

func (in Input) Draft() Draft {
	return Draft{Title: in.Title, Description: in.Description}
}

func (in Input) Validate() error {
	return Validate(in.Draft())
}

// Normalize trims the text fields and defaults the priority to medium.
func (in Input) Normalize() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	return in
}

// Patch converts a full edit into a partial update that sets every field,
// clearing category and due date when they are empty.
func (in Input) Patch() Patch {
	title := in.Title
	description := in.Description
	category := in.Category
	priority := in.Priority
	p := Patch{
		Title:       &title,
		Description: &description,
		Category:    &category,
		Priority:    &priority,
	}
	if in.DueDate != nil {
		due := *in.DueDate
		p.DueDate = &due
	} else {
		p.ClearDueDate = true
	}
	return p
}

// Completion is the share of the four form fields that are filled, in percent.
func (in Input) Completion() int {
	filled := 0
	if strings.TrimSpace(in.Title) != "" {
		filled++
	}
	if in.Priority != "" {
		filled++
	}
	if in.Category != "" {
		filled++
	}
	if in.DueDate != nil {
		filled++
	}
	return filled * 100 / 4
}

// InputFrom seeds an edit form with the current values of t.
func InputFrom(t Task) Input {
	in := Input{
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Priority:    t.Priority,
	}
	if t.DueDate != nil {
		due := *t.DueDate
		in.DueDate = &due
	}
	return in
}

// Patch is a partial update. Nil fields are left untouched; a Category
// pointing at the empty value clears the category.
type Patch struct {
	Title        *string
	Description  *string
	Category     *Category
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDueDate
}

// Draft returns the title and description t would have after applying p.
func (p Patch) Draft(t Task) Draft {
	d := Draft{Title: t.Title, Description: t.Description}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	return d
}

type wireTask struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var w wireTask
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Task{ID: w.ID, Title: w.Title, Completed: w.Completed}
	if w.Description != nil {
		out.Description = *w.Description
	}
	if w.Category != nil {
		out.Category = Category(*w.Category)
	}
	if w.Priority != nil {
		out.Priority = Priority(*w.Priority)
	}
	if w.DueDate != nil && *w.DueDate != "" {
		due, err := ParseTimestamp(*w.DueDate)
		if err != nil {
			return fmt.Errorf("task %d due_date: %w", w.ID, err)
		}
		out.DueDate = &due
	}
	if w.CreatedAt != "" {
		created, err := ParseTimestamp(w.CreatedAt)
		if err != nil {
			return fmt.Errorf("task %d created_at: %w", w.ID, err)
		}
		out.CreatedAt = created
	}
	if w.UpdatedAt != "" {
		updated, err := ParseTimestamp(w.UpdatedAt)
		if err != nil {
			return fmt.Errorf("task %d updated_at: %w", w.ID, err)
		}
		out.UpdatedAt = updated
	}
	*t = out
	return nil
}

func (t Task) MarshalJSON() ([]byte, error) {
	w := wireTask{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.Description != "" {
		w.Description = &t.Description
	}
	if t.Category != "" {
		category := string(t.Category)
		w.Category = &category
	}
	if t.Priority != "" {
		priority := string(t.Priority)
		w.Priority = &priority
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC().Format(time.RFC3339Nano)
		w.DueDate = &due
	}
	if !t.UpdatedAt.IsZero() {
		w.UpdatedAt = t.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(w)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339, the API's zone-less ISO datetimes and bare
// dates. Values without a zone are taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}
