package task

import (
	"fmt"
	"time"
)

type Urgency int

const (
	UrgencyNone Urgency = iota
	UrgencyDone
	UrgencyOverdue
	UrgencyToday
	UrgencyTomorrow
	UrgencySoon
	UrgencyLater
)

// Badge is the due-date label shown next to a task.
type Badge struct {
	Urgency Urgency
	Text    string
}

const badgeDateLayout = "Jan 02, 2006"

// DueBadge labels a due date relative to now, in now's location. Day
// differences count whole 24h periods, truncated toward zero.
func DueBadge(due *time.Time, completed bool, now time.Time) Badge {
	if due == nil {
		return Badge{}
	}
	date := due.In(now.Location())
	if completed {
		return Badge{Urgency: UrgencyDone, Text: date.Format(badgeDateLayout)}
	}

	days := int(date.Sub(now).Hours() / 24)
	today := sameDay(date, now)
	switch {
	case date.Before(now) && !today:
		if days < 0 {
			days = -days
		}
		return Badge{Urgency: UrgencyOverdue, Text: fmt.Sprintf("Overdue by %d %s", days, plural(days, "day"))}
	case today:
		return Badge{Urgency: UrgencyToday, Text: "Due today"}
	case sameDay(date, now.AddDate(0, 0, 1)):
		return Badge{Urgency: UrgencyTomorrow, Text: "Due tomorrow"}
	case days <= 7:
		return Badge{Urgency: UrgencySoon, Text: fmt.Sprintf("Due in %d %s", days, plural(days, "day"))}
	default:
		return Badge{Urgency: UrgencyLater, Text: date.Format(badgeDateLayout)}
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
