package task

import (
	"slices"
	"time"
)

// Compare orders a before b (negative) or after b (positive). Keys, first
// difference wins: overdue open tasks, priority rank, having a due date,
// earlier due date, then newer CreatedAt.
func Compare(a, b Task, now time.Time) int {
	aOverdue, bOverdue := a.IsOverdue(now), b.IsOverdue(now)
	if aOverdue != bOverdue {
		if aOverdue {
			return -1
		}
		return 1
	}

	if ar, br := a.Priority.Rank(), b.Priority.Rank(); ar != br {
		return ar - br
	}

	switch {
	case a.DueDate != nil && b.DueDate != nil:
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
	case a.DueDate != nil:
		return -1
	case b.DueDate != nil:
		return 1
	}

	return b.CreatedAt.Compare(a.CreatedAt)
}

// Sort returns a new slice holding tasks in Compare order. Ties keep their
// input order.
func Sort(tasks []Task, now time.Time) []Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b Task) int {
		return Compare(a, b, now)
	})
	return out
}
