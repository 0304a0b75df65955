package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ytakahashi/task-reminder/internal/models"
	"github.com/ytakahashi/task-reminder/internal/notify"
)

const (
	apiTimeout     = 10 * time.Second
	noticeDuration = 4 * time.Second
	maxReminders   = 3
)

type tasksLoadedMsg struct {
	tasks []models.Task
}

// apiErrMsg reports a failed call; the cached list stays as it was.
type apiErrMsg struct {
	action string
	err    error
}

type mutatedMsg struct {
	notice string
}

type refreshTickMsg struct{}

type clearNoticeMsg struct {
	seq int
}

// ReminderMsg is delivered by Notifier when a reminder fires.
type ReminderMsg struct {
	Title string
	Body  string
	At    time.Time
}

// Notifier shows notifications inside the running program.
type Notifier struct {
	send func(tea.Msg)
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Attach routes notifications to p. Notifications sent before Attach fail.
func (n *Notifier) Attach(p *tea.Program) {
	n.send = p.Send
}

func (n *Notifier) Send(_ context.Context, note notify.Notification) error {
	if n.send == nil {
		return errNotAttached
	}
	n.send(ReminderMsg{Title: note.Title, Body: note.Body, At: time.Now()})
	return nil
}

var (
	errNotAttached = errors.New("tui notifier is not attached to a program")
	errTaskGone    = errors.New("task no longer exists")
)

func fetchTasks(api API) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()

		tasks, err := api.List(ctx)
		if err != nil {
			return apiErrMsg{action: "load tasks", err: err}
		}
		return tasksLoadedMsg{tasks: tasks}
	}
}

func createTask(api API, in models.NewTask) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()

		task, err := api.Create(ctx, in)
		if err != nil {
			return apiErrMsg{action: "create task", err: err}
		}
		return mutatedMsg{notice: "Created “" + task.Title + "”"}
	}
}

func setCompleted(api API, task models.Task, completed bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()

		_, found, err := api.Update(ctx, task.ID, models.TaskPatch{Completed: &completed})
		if err != nil {
			return apiErrMsg{action: "update task", err: err}
		}
		if !found {
			return apiErrMsg{action: "update task", err: errTaskGone}
		}
		if completed {
			return mutatedMsg{notice: "Completed “" + task.Title + "”"}
		}
		return mutatedMsg{notice: "Reopened “" + task.Title + "”"}
	}
}

func deleteTask(api API, task models.Task) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
		defer cancel()

		deleted, err := api.Delete(ctx, task.ID)
		if err != nil {
			return apiErrMsg{action: "delete task", err: err}
		}
		if !deleted {
			return apiErrMsg{action: "delete task", err: errTaskGone}
		}
		return mutatedMsg{notice: "Deleted “" + task.Title + "”"}
	}
}

func refreshAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func clearNoticeAfter(seq int) tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}
