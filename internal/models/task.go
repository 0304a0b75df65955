package models

import (
	"time"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a scheduled reminder
type Task struct {
	ID              string    `firestore:"id" json:"id" db:"id"`
	Title           string    `firestore:"title" json:"title" db:"title"`
	ScheduledTime   time.Time `firestore:"scheduledTime" json:"scheduledTime" db:"scheduled_time"`
	Priority        Priority  `firestore:"priority" json:"priority" db:"priority"`
	Completed       bool      `firestore:"completed" json:"completed" db:"completed"`
	FollowUpEnabled bool      `firestore:"followUpEnabled" json:"followUpEnabled" db:"follow_up_enabled"`
	FollowUpSent    bool      `firestore:"followUpSent" json:"followUpSent" db:"follow_up_sent"`
}

// NewTask holds the caller-supplied fields of a task about to be created.
// Nil fields take their defaults.
type NewTask struct {
	Title           string    `json:"title" validate:"required,notblank,max=100"`
	ScheduledTime   time.Time `json:"scheduledTime" validate:"required,future"`
	Priority        *Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	FollowUpEnabled *bool     `json:"followUpEnabled,omitempty"`
}

// Build turns n into a Task with the given id and the creation defaults applied.
// Completed and FollowUpSent always start false. The scheduled time keeps
// microsecond precision, the finest that every store can hold.
func (n NewTask) Build(id string) Task {
	t := Task{
		ID:              id,
		Title:           n.Title,
		ScheduledTime:   n.ScheduledTime.Truncate(time.Microsecond),
		Priority:        PriorityMedium,
		FollowUpEnabled: true,
	}
	if n.Priority != nil && *n.Priority != "" {
		t.Priority = *n.Priority
	}
	if n.FollowUpEnabled != nil {
		t.FollowUpEnabled = *n.FollowUpEnabled
	}
	return t
}

// TaskPatch is a partial update. Only non-nil fields are applied; the id is never patchable.
type TaskPatch struct {
	Title           *string    `json:"title,omitempty" validate:"omitempty,notblank,max=100"`
	ScheduledTime   *time.Time `json:"scheduledTime,omitempty"`
	Priority        *Priority  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Completed       *bool      `json:"completed,omitempty"`
	FollowUpEnabled *bool      `json:"followUpEnabled,omitempty"`
	FollowUpSent    *bool      `json:"followUpSent,omitempty"`
}

// Apply shallow-merges p into t and returns the result.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.ScheduledTime != nil {
		t.ScheduledTime = p.ScheduledTime.Truncate(time.Microsecond)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.FollowUpEnabled != nil {
		t.FollowUpEnabled = *p.FollowUpEnabled
	}
	if p.FollowUpSent != nil {
		t.FollowUpSent = *p.FollowUpSent
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p == TaskPatch{}
}
