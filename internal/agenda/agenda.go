// Package agenda groups tasks the way the list views present them.
// Every function takes the reference time explicitly; "today" is the
// calendar day of now in now's location.
package agenda

import (
	"time"

	"github.com/ytakahashi/task-reminder/internal/models"
)

type Stats struct {
	Total     int
	Completed int
	Pending   int
	Overdue   int
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func filter(tasks []models.Task, keep func(models.Task) bool) []models.Task {
	out := []models.Task{}
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// Today returns the tasks scheduled on now's calendar day.
func Today(tasks []models.Task, now time.Time) []models.Task {
	return filter(tasks, func(t models.Task) bool {
		return sameDay(t.ScheduledTime, now)
	})
}

// Upcoming returns future tasks scheduled after today.
func Upcoming(tasks []models.Task, now time.Time) []models.Task {
	return filter(tasks, func(t models.Task) bool {
		return t.ScheduledTime.After(now) && !sameDay(t.ScheduledTime, now)
	})
}

// Overdue returns incomplete tasks from before today.
func Overdue(tasks []models.Task, now time.Time) []models.Task {
	return filter(tasks, func(t models.Task) bool {
		return t.ScheduledTime.Before(now) && !t.Completed && !sameDay(t.ScheduledTime, now)
	})
}

// IsOverdue reports whether t is past due and not completed, today included.
func IsOverdue(t models.Task, now time.Time) bool {
	return t.ScheduledTime.Before(now) && !t.Completed
}

func Summarize(tasks []models.Task, now time.Time) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	s.Overdue = len(Overdue(tasks, now))
	return s
}

// CountByPriority tallies tasks per priority.
func CountByPriority(tasks []models.Task) map[models.Priority]int {
	counts := make(map[models.Priority]int)
	for _, t := range tasks {
		counts[t.Priority]++
	}
	return counts
}
