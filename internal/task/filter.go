package task

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

func Statuses() []Status {
	return []Status{StatusAll, StatusActive, StatusCompleted}
}

func (s Status) Valid() bool {
	for _, valid := range Statuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Next cycles all -> active -> completed -> all.
func (s Status) Next() Status {
	switch s {
	case StatusAll:
		return StatusActive
	case StatusActive:
		return StatusCompleted
	default:
		return StatusAll
	}
}

// FilterState is the set of predicates a view applies to the task list.
// Empty Category, Priority and Query disable their predicate.
type FilterState struct {
	Status   Status
	Category Category
	Priority Priority
	Query    string
}

func (s FilterState) Validate() error {
	if s.Status != "" && !s.Status.Valid() {
		return fmt.Errorf("unknown status filter %q", s.Status)
	}
	if s.Category != "" && !s.Category.Valid() {
		return fmt.Errorf("unknown category filter %q", s.Category)
	}
	if s.Priority != "" && !s.Priority.Valid() {
		return fmt.Errorf("unknown priority filter %q", s.Priority)
	}
	return nil
}

// Narrowed reports whether any category or priority filter is set.
func (s FilterState) Narrowed() bool {
	return s.Category != "" || s.Priority != ""
}

// Filter returns the tasks matching every active predicate of s, in input
// order. The input slice is not modified.
func Filter(tasks []Task, s FilterState) []Task {
	query := strings.ToLower(strings.TrimSpace(s.Query))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if query != "" && !matchesQuery(t, query) {
			continue
		}
		if s.Category != "" && t.Category != s.Category {
			continue
		}
		if s.Priority != "" && t.Priority != s.Priority {
			continue
		}
		switch s.Status {
		case StatusActive:
			if t.Completed {
				continue
			}
		case StatusCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func matchesQuery(t Task, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), query)
}

// Visible is the filtered, ordered view of tasks.
func Visible(tasks []Task, s FilterState, now time.Time) []Task {
	return Sort(Filter(tasks, s), now)
}

type Counts struct {
	All       int
	Active    int
	Completed int
}

func Count(tasks []Task) Counts {
	c := Counts{All: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}

func (c Counts) For(s Status) int {
	switch s {
	case StatusActive:
		return c.Active
	case StatusCompleted:
		return c.Completed
	default:
		return c.All
	}
}
