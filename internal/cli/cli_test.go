package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytakahashi/task-reminder/internal/agenda"
	"github.com/ytakahashi/task-reminder/internal/handlers"
	"github.com/ytakahashi/task-reminder/internal/models"
	"github.com/ytakahashi/task-reminder/internal/services"
	"go.uber.org/zap"
)

func startServer(t *testing.T) string {
	t.Helper()
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")

	log := zap.NewNop().Sugar()
	e := handlers.NewRouter(handlers.NewTaskHandler(services.NewMemoryStore(), log, nil), log)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	// flag values survive between executions of the same command tree
	listJSON = false
	addAt = "+1h"
	addPriority = ""
	addNoFollowUp = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--api-url", url}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands_AddListDone(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "add", "Water", "plants", "--at", "+2h", "-p", "high", "--no-follow-up")
	require.NoError(t, err)
	assert.Contains(t, out, "Water plants")
	assert.Contains(t, out, "(no follow-up)")

	out, err = run(t, url, "list", "--json")
	require.NoError(t, err)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, "Water plants", task.Title)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.False(t, task.FollowUpEnabled)

	out, err = run(t, url, "done", task.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "[x]")

	out, err = run(t, url, "rm", task.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+task.ID)

	_, err = run(t, url, "show", task.ID)
	assert.EqualError(t, err, "task "+task.ID+" not found")
}

func TestCommands_AddValidatesBeforeSending(t *testing.T) {
	url := startServer(t)

	_, err := run(t, url, "add", "Too late", "--at", "2020-01-01 09:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduledTime")

	_, err = run(t, url, "add", strings.Repeat("x", models.MaxTitleLength+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")

	out, err := run(t, url, "list", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestFormatTask(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	task := models.Task{
		ID:              "abc",
		Title:           "Call mom",
		ScheduledTime:   now.Add(-time.Hour),
		Priority:        models.PriorityLow,
		FollowUpEnabled: true,
	}

	line := formatTask(task, now)
	assert.Contains(t, line, "[ ]")
	assert.Contains(t, line, "Call mom")
	assert.Contains(t, line, "overdue")
	assert.NotContains(t, line, "no follow-up")

	task.Completed = true
	assert.NotContains(t, formatTask(task, now), "overdue")
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, agenda.Stats{Total: 3, Completed: 1, Pending: 2}, map[models.Priority]int{
		models.PriorityHigh: 2,
		models.PriorityLow:  1,
	})
	out := buf.String()
	assert.Contains(t, out, "3 total")
	assert.Contains(t, out, "2 high")
	assert.Contains(t, out, "1 low")
	assert.NotContains(t, out, "medium")
	assert.NotContains(t, out, "overdue")
}

func TestRangeCommand_BareEndDateCoversWholeDay(t *testing.T) {
	url := startServer(t)
	day := time.Now().UTC().AddDate(0, 0, 2)
	evening := time.Date(day.Year(), day.Month(), day.Day(), 21, 0, 0, 0, time.UTC)

	_, err := run(t, url, "add", "Evening", "walk", "--at", evening.Format(time.RFC3339))
	require.NoError(t, err)

	date := evening.Format("2006-01-02")
	out, err := run(t, url, "range", date, date, "--json")
	require.NoError(t, err)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Evening walk", tasks[0].Title)

	out, err = run(t, url, "range", date, date+"T12:00", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}
