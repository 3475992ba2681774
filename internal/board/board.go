// Package board keeps the client-side copy of the user's tasks and the
// filter applied to it. The list is only replaced or patched with values the
// API has returned.
package board

import (
	"slices"
	"time"

	"prism/internal/task"
)

type Board struct {
	tasks  []task.Task
	Filter task.FilterState
}

func New(filter task.FilterState) *Board {
	if filter.Status == "" {
		filter.Status = task.StatusAll
	}
	return &Board{Filter: filter}
}

// Tasks returns a copy of the list in server order.
func (b *Board) Tasks() []task.Task {
	return slices.Clone(b.tasks)
}

func (b *Board) Len() int {
	return len(b.tasks)
}

func (b *Board) Replace(tasks []task.Task) {
	b.tasks = slices.Clone(tasks)
}

// Prepend adds a newly created task at the head of the list.
func (b *Board) Prepend(t task.Task) {
	b.tasks = slices.Insert(b.tasks, 0, t)
}

// Apply replaces the task with t's ID and reports whether one was found.
func (b *Board) Apply(t task.Task) bool {
	i := b.index(t.ID)
	if i < 0 {
		return false
	}
	b.tasks[i] = t
	return true
}

func (b *Board) Remove(id int64) bool {
	i := b.index(id)
	if i < 0 {
		return false
	}
	b.tasks = slices.Delete(b.tasks, i, i+1)
	return true
}

func (b *Board) Get(id int64) (task.Task, bool) {
	i := b.index(id)
	if i < 0 {
		return task.Task{}, false
	}
	return b.tasks[i], true
}

// Loaded, Created, Saved and Deleted record the outcome of a gateway call.
// A non-nil err leaves the board untouched and is returned unchanged.

func (b *Board) Loaded(tasks []task.Task, err error) error {
	if err != nil {
		return err
	}
	b.Replace(tasks)
	return nil
}

func (b *Board) Created(t task.Task, err error) error {
	if err != nil {
		return err
	}
	b.Prepend(t)
	return nil
}

// Saved applies an updated or toggled task. A task that is no longer on the
// board is ignored.
func (b *Board) Saved(t task.Task, err error) error {
	if err != nil {
		return err
	}
	b.Apply(t)
	return nil
}

func (b *Board) Deleted(id int64, err error) error {
	if err != nil {
		return err
	}
	b.Remove(id)
	return nil
}

// Visible is the filtered and ordered list the views render.
func (b *Board) Visible(now time.Time) []task.Task {
	return task.Visible(b.tasks, b.Filter, now)
}

// Counts covers the whole list, independent of the filter.
func (b *Board) Counts() task.Counts {
	return task.Count(b.tasks)
}

func (b *Board) index(id int64) int {
	return slices.IndexFunc(b.tasks, func(t task.Task) bool { return t.ID == id })
}
