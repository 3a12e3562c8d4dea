// Package analytics derives read-only aggregates from task snapshots. Every
// function is pure: it never mutates its input and never does I/O.
package analytics

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/CrowderSoup/taskquest/database"
)

type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Active         int `json:"active"`
	CompletionRate int `json:"completionRate"`
	Starred        int `json:"starred"`
}

// PersonalStats counts tasks. CompletionRate is a rounded percentage.
func PersonalStats(tasks []database.FlatTask) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		} else {
			s.Active++
		}
		if t.Starred {
			s.Starred++
		}
	}
	s.CompletionRate = percent(s.Completed, s.Total)
	return s
}

// Uncategorized is the bucket for tasks without a category.
const Uncategorized = "uncategorized"

func CategoryCounts(tasks []database.FlatTask) map[string]int {
	counts := make(map[string]int)
	for _, t := range tasks {
		c := t.Category
		if c == "" {
			c = Uncategorized
		}
		counts[c]++
	}
	return counts
}

type SessionType string

const (
	SessionWork  SessionType = "work"
	SessionBreak SessionType = "break"
)

// Session is one finished focus or break timer. Duration is in minutes.
type Session struct {
	Type        SessionType `json:"type"`
	Duration    int         `json:"duration"`
	CompletedAt time.Time   `json:"completedAt"`
}

// FocusMinutes sums the duration of work sessions.
func FocusMinutes(sessions []Session) int {
	total := 0
	for _, s := range sessions {
		if s.Type == SessionWork {
			total += s.Duration
		}
	}
	return total
}

// WorkSessions counts completed work sessions.
func WorkSessions(sessions []Session) int {
	n := 0
	for _, s := range sessions {
		if s.Type == SessionWork {
			n++
		}
	}
	return n
}

// SessionsByDay counts sessions per calendar day (YYYY-MM-DD) in loc.
func SessionsByDay(sessions []Session, loc *time.Location) map[string]int {
	if loc == nil {
		loc = time.Local
	}
	days := make(map[string]int)
	for _, s := range sessions {
		days[s.CompletedAt.In(loc).Format(time.DateOnly)]++
	}
	return days
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterStarred   Filter = "starred"
)

// FilterTasks keeps the tasks matching f whose text contains query, case
// insensitively. An unknown filter behaves like FilterAll.
func FilterTasks(tasks []database.FlatTask, f Filter, query string) []database.FlatTask {
	query = strings.ToLower(strings.TrimSpace(query))
	out := []database.FlatTask{}
	for _, t := range tasks {
		switch f {
		case FilterActive:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		case FilterStarred:
			if !t.Starred {
				continue
			}
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Text), query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func priorityRank(p database.Priority) int {
	switch p {
	case database.PriorityHigh:
		return 0
	case database.PriorityMedium:
		return 1
	case database.PriorityLow:
		return 2
	}
	return 3
}

// SortTasks returns a copy ordered starred first, then by priority from
// high to low. The order is otherwise stable.
func SortTasks(tasks []database.FlatTask) []database.FlatTask {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b database.FlatTask) int {
		if a.Starred != b.Starred {
			if a.Starred {
				return -1
			}
			return 1
		}
		return priorityRank(a.Priority) - priorityRank(b.Priority)
	})
	return out
}

// Visible is FilterTasks followed by SortTasks.
func Visible(tasks []database.FlatTask, f Filter, query string) []database.FlatTask {
	return SortTasks(FilterTasks(tasks, f, query))
}

// IsOverdue reports whether an open task's due date lies before today.
func IsOverdue(t database.FlatTask, now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return t.DueDate.Time.Before(today)
}

// WeeklyCompletions counts completed tasks per day for the seven days
// ending with now's day, oldest first. Tasks without CompletedAt are
// counted on their creation day.
func WeeklyCompletions(tasks []database.FlatTask, now time.Time) [7]int {
	var counts [7]int
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		at := t.CreatedAt
		if t.CompletedAt != nil {
			at = *t.CompletedAt
		}
		if at.IsZero() {
			continue
		}
		ay, am, ad := at.In(loc).Date()
		day := time.Date(ay, am, ad, 0, 0, 0, 0, loc)
		ago := int(math.Round(today.Sub(day).Hours() / 24))
		if ago >= 0 && ago < 7 {
			counts[6-ago]++
		}
	}
	return counts
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return (part*200 + total) / (2 * total)
}
