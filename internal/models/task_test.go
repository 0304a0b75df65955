package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewTask_BuildAppliesDefaults(t *testing.T) {
	when := time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC)

	got := NewTask{Title: "water plants", ScheduledTime: when}.Build("abc")

	assert.Equal(t, Task{
		ID:              "abc",
		Title:           "water plants",
		ScheduledTime:   when,
		Priority:        PriorityMedium,
		Completed:       false,
		FollowUpEnabled: true,
		FollowUpSent:    false,
	}, got)
}

func TestNewTask_BuildKeepsExplicitValues(t *testing.T) {
	got := NewTask{
		Title:           "call mom",
		Priority:        ptr(PriorityHigh),
		FollowUpEnabled: ptr(false),
	}.Build("id-1")

	assert.Equal(t, PriorityHigh, got.Priority)
	assert.False(t, got.FollowUpEnabled)
	assert.False(t, got.Completed)
	assert.False(t, got.FollowUpSent)
}

func TestTaskPatch_Apply(t *testing.T) {
	base := Task{ID: "x", Title: "a", Priority: PriorityLow, FollowUpEnabled: true}

	got := TaskPatch{Completed: ptr(true), Title: ptr("b")}.Apply(base)

	assert.Equal(t, "x", got.ID)
	assert.Equal(t, "b", got.Title)
	assert.True(t, got.Completed)
	assert.Equal(t, PriorityLow, got.Priority)
	assert.True(t, got.FollowUpEnabled)

	assert.True(t, TaskPatch{}.IsEmpty())
	assert.False(t, TaskPatch{FollowUpSent: ptr(false)}.IsEmpty())
}

func TestValidateForCreate(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	long := make([]byte, MaxTitleLength+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name   string
		in     NewTask
		fields []string
	}{
		{"valid", NewTask{Title: "ok", ScheduledTime: now.Add(time.Minute)}, nil},
		{"missing title", NewTask{Title: "  ", ScheduledTime: now.Add(time.Minute)}, []string{"title"}},
		{"title too long", NewTask{Title: string(long), ScheduledTime: now.Add(time.Minute)}, []string{"title"}},
		{"past time", NewTask{Title: "ok", ScheduledTime: now.Add(-time.Minute)}, []string{"scheduledTime"}},
		{"now is not future", NewTask{Title: "ok", ScheduledTime: now}, []string{"scheduledTime"}},
		{"bad priority", NewTask{Title: "ok", ScheduledTime: now.Add(time.Hour), Priority: ptr(Priority("urgent"))}, []string{"priority"}},
		{"empty priority", NewTask{Title: "ok", ScheduledTime: now.Add(time.Hour), Priority: ptr(Priority(""))}, []string{"priority"}},
		{"everything wrong", NewTask{Priority: ptr(Priority("x"))}, []string{"title", "scheduledTime", "priority"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateForCreate(tt.in, now)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			var fields []string
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestValidateForCreate_Messages(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	err := ValidateForCreate(NewTask{
		Title:         strings.Repeat("é", MaxTitleLength+1),
		ScheduledTime: now.Add(-time.Second),
		Priority:      ptr(Priority("urgent")),
	}, now)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []FieldError{
		{Field: "title", Message: "Title must be 100 characters or less"},
		{Field: "scheduledTime", Message: "Scheduled time must be in the future"},
		{Field: "priority", Message: "Priority must be one of low, medium, high"},
	}, verr.Errors)
	assert.True(t, verr.Has("priority"))
	assert.False(t, verr.Has("followUpEnabled"))
}

func TestValidateForCreate_TitleLengthCountsCharacters(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	in := NewTask{Title: strings.Repeat("é", MaxTitleLength), ScheduledTime: now.Add(time.Hour)}
	assert.NoError(t, ValidateForCreate(in, now))
}

func TestValidateNewTask_AllowsPastTimes(t *testing.T) {
	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, ValidateNewTask(NewTask{Title: "ok", ScheduledTime: past}))

	err := ValidateNewTask(NewTask{Title: "   "})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []FieldError{
		{Field: "title", Message: "Title must not be empty"},
		{Field: "scheduledTime", Message: "Scheduled time is required"},
	}, verr.Errors)
}

func TestValidatePatch(t *testing.T) {
	assert.NoError(t, ValidatePatch(TaskPatch{}))
	assert.NoError(t, ValidatePatch(TaskPatch{Completed: ptr(true)}))
	assert.NoError(t, ValidatePatch(TaskPatch{Title: ptr("renamed"), Priority: ptr(PriorityLow)}))
	assert.Error(t, ValidatePatch(TaskPatch{Priority: ptr(Priority("nope"))}))
	assert.Error(t, ValidatePatch(TaskPatch{Title: ptr("")}))
	assert.Error(t, ValidatePatch(TaskPatch{Title: ptr(strings.Repeat("a", MaxTitleLength+1))}))
}

func TestScheduledTime_KeepsMicroseconds(t *testing.T) {
	when := time.Date(2030, 1, 2, 9, 0, 0, 123456789, time.UTC)
	want := time.Date(2030, 1, 2, 9, 0, 0, 123456000, time.UTC)

	assert.Equal(t, want, NewTask{Title: "x", ScheduledTime: when}.Build("id").ScheduledTime)
	assert.Equal(t, want, TaskPatch{ScheduledTime: &when}.Apply(Task{}).ScheduledTime)
}
