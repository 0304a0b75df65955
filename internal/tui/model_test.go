package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ytakahashi/task-reminder/internal/models"
	"github.com/ytakahashi/task-reminder/internal/notify"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

type fakeAPI struct {
	tasks   []models.Task
	listErr error
	created []models.NewTask
	patches map[string]models.TaskPatch
	deleted []string
}

func (f *fakeAPI) List(ctx context.Context) ([]models.Task, error) {
	return f.tasks, f.listErr
}

func (f *fakeAPI) Create(ctx context.Context, in models.NewTask) (models.Task, error) {
	f.created = append(f.created, in)
	return in.Build("new"), nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, bool, error) {
	if f.patches == nil {
		f.patches = make(map[string]models.TaskPatch)
	}
	f.patches[id] = patch
	for _, t := range f.tasks {
		if t.ID == id {
			return patch.Apply(t), true, nil
		}
	}
	return models.Task{}, false, nil
}

func (f *fakeAPI) Delete(ctx context.Context, id string) (bool, error) {
	f.deleted = append(f.deleted, id)
	return true, nil
}

type fakeSyncer struct {
	synced [][]models.Task
}

func (f *fakeSyncer) Sync(tasks []models.Task) {
	f.synced = append(f.synced, tasks)
}

type fakePermissions struct {
	p notify.Permission
}

func (f *fakePermissions) Permission() notify.Permission     { return f.p }
func (f *fakePermissions) SetPermission(p notify.Permission) { f.p = p }

func task(id, title string, at time.Time, completed bool) models.Task {
	return models.Task{
		ID:              id,
		Title:           title,
		ScheduledTime:   at,
		Priority:        models.PriorityMedium,
		Completed:       completed,
		FollowUpEnabled: true,
	}
}

func sampleTasks() []models.Task {
	return []models.Task{
		task("old", "File taxes", now.Add(-26*time.Hour), false),
		task("today", "Call mom", now.Add(2*time.Hour), false),
		task("later", "Dentist", now.Add(48*time.Hour), false),
	}
}

func newTestModel(api *fakeAPI, perm notify.Permission) (Model, *fakeSyncer, *fakePermissions) {
	syncer := &fakeSyncer{}
	perms := &fakePermissions{p: perm}
	m := New(Options{
		API:         api,
		Scheduler:   syncer,
		Permissions: perms,
		Now:         func() time.Time { return now },
	})
	return m, syncer, perms
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestNew_AsksForPermissionFirst(t *testing.T) {
	m, _, perms := newTestModel(&fakeAPI{}, notify.PermissionDefault)
	assert.Equal(t, ViewPermission, m.view)
	assert.Contains(t, m.View(), "Allow notifications?")

	m, _ = update(t, m, key("y"))
	assert.Equal(t, ViewList, m.view)
	assert.Equal(t, notify.PermissionGranted, perms.p)
	assert.Equal(t, "Notifications enabled", m.notice)
}

func TestNew_SkipsPromptWhenAlreadyDecided(t *testing.T) {
	m, _, _ := newTestModel(&fakeAPI{}, notify.PermissionDenied)
	assert.Equal(t, ViewList, m.view)
}

func TestPermission_Deny(t *testing.T) {
	m, _, perms := newTestModel(&fakeAPI{}, notify.PermissionDefault)
	m, _ = update(t, m, key("n"))
	assert.Equal(t, notify.PermissionDenied, perms.p)
	assert.Equal(t, ViewList, m.view)
}

func TestTasksLoaded_GroupsAndSyncs(t *testing.T) {
	api := &fakeAPI{tasks: sampleTasks()}
	m, syncer, _ := newTestModel(api, notify.PermissionGranted)

	m, _ = update(t, m, fetchTasks(api)())

	require.Len(t, syncer.synced, 1)
	assert.Len(t, syncer.synced[0], 3)
	assert.False(t, m.loading)

	require.Len(t, m.rows, 3)
	assert.Equal(t, "Overdue", m.rows[0].section)
	assert.Equal(t, "Today", m.rows[1].section)
	assert.Equal(t, "Upcoming", m.rows[2].section)

	view := m.View()
	assert.Contains(t, view, "File taxes")
	assert.Contains(t, view, "Call mom")
	assert.Contains(t, view, "Dentist")
	assert.Contains(t, view, "1 overdue")
}

func TestAPIError_KeepsCachedTasks(t *testing.T) {
	api := &fakeAPI{tasks: sampleTasks()}
	m, syncer, _ := newTestModel(api, notify.PermissionGranted)
	m, _ = update(t, m, fetchTasks(api)())

	api.listErr = errors.New("connection refused")
	m, _ = update(t, m, fetchTasks(api)())

	assert.Len(t, m.tasks, 3)
	assert.Len(t, syncer.synced, 1)
	assert.True(t, m.noticeIsErr)
	assert.Contains(t, m.notice, "connection refused")
}

func TestClearNotice_IgnoresStaleSequence(t *testing.T) {
	m, _, _ := newTestModel(&fakeAPI{}, notify.PermissionGranted)
	m, _ = update(t, m, mutatedMsg{notice: "first"})
	m, _ = update(t, m, mutatedMsg{notice: "second"})

	m, _ = update(t, m, clearNoticeMsg{seq: 1})
	assert.Equal(t, "second", m.notice)

	m, _ = update(t, m, clearNoticeMsg{seq: 2})
	assert.Empty(t, m.notice)
}

func TestToggleAndDeleteSelected(t *testing.T) {
	api := &fakeAPI{tasks: sampleTasks()}
	m, _, _ := newTestModel(api, notify.PermissionGranted)
	m, _ = update(t, m, fetchTasks(api)())

	m, _ = update(t, m, key("down"))
	m, cmd := update(t, m, key(" "))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, mutatedMsg{notice: "Completed “Call mom”"}, msg)
	require.Contains(t, api.patches, "today")
	assert.True(t, *api.patches["today"].Completed)

	_, cmd = update(t, m, key("d"))
	require.NotNil(t, cmd)
	assert.Equal(t, mutatedMsg{notice: "Deleted “Call mom”"}, cmd())
	assert.Equal(t, []string{"today"}, api.deleted)
}

func TestToggle_TaskGone(t *testing.T) {
	api := &fakeAPI{}
	msg := setCompleted(api, task("ghost", "Ghost", now, false), true)()
	errMsg, ok := msg.(apiErrMsg)
	require.True(t, ok)
	assert.ErrorIs(t, errMsg.err, errTaskGone)
}

func TestForm_RejectsInvalidInput(t *testing.T) {
	api := &fakeAPI{}
	m, _, _ := newTestModel(api, notify.PermissionGranted)

	m, _ = update(t, m, key("n"))
	require.Equal(t, ViewForm, m.view)

	m, cmd := update(t, m, key("enter"))
	assert.Nil(t, cmd)
	assert.Equal(t, ViewForm, m.view)
	assert.Contains(t, m.form.err, "title")
	assert.Empty(t, api.created)
}

func TestForm_CreatesTask(t *testing.T) {
	api := &fakeAPI{}
	m, _, _ := newTestModel(api, notify.PermissionGranted)

	m, _ = update(t, m, key("n"))
	m.form.title.SetValue("Water plants")
	m.form.when.SetValue("+30m")

	// priority field: cycle from medium to high
	m, _ = update(t, m, key("tab"))
	m, _ = update(t, m, key("tab"))
	m, _ = update(t, m, key("l"))
	// follow-up field: turn it off
	m, _ = update(t, m, key("tab"))
	m, _ = update(t, m, key(" "))

	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, ViewList, m.view)

	assert.Equal(t, mutatedMsg{notice: "Created “Water plants”"}, cmd())
	require.Len(t, api.created, 1)
	in := api.created[0]
	assert.Equal(t, "Water plants", in.Title)
	assert.Equal(t, now.Add(30*time.Minute), in.ScheduledTime)
	assert.Equal(t, models.PriorityHigh, *in.Priority)
	assert.False(t, *in.FollowUpEnabled)
}

func TestForm_RejectsPastTime(t *testing.T) {
	m, _, _ := newTestModel(&fakeAPI{}, notify.PermissionGranted)
	m, _ = update(t, m, key("n"))
	m.form.title.SetValue("Too late")
	m.form.when.SetValue("2020-01-01 09:00")

	m, cmd := update(t, m, key("enter"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.form.err, "scheduledTime")
}

func TestTimePicker_FillsWhenField(t *testing.T) {
	m, _, _ := newTestModel(&fakeAPI{}, notify.PermissionGranted)
	m, _ = update(t, m, key("n"))

	m, _ = update(t, m, key("ctrl+t"))
	require.Equal(t, ViewTimePicker, m.view)
	assert.Contains(t, m.View(), "Pick a time")

	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("enter"))

	assert.Equal(t, ViewForm, m.view)
	assert.Equal(t, "+30m", m.form.when.Value())
	assert.Equal(t, fieldWhen, m.form.focus)
}

func TestTimePicker_EscReturnsToForm(t *testing.T) {
	m, _, _ := newTestModel(&fakeAPI{}, notify.PermissionGranted)
	m, _ = update(t, m, key("n"))
	m, _ = update(t, m, key("ctrl+t"))
	m, _ = update(t, m, key("esc"))
	assert.Equal(t, ViewForm, m.view)
	assert.Equal(t, "+1h", m.form.when.Value())
}

func TestReminders_BannerKeepsLatest(t *testing.T) {
	m, _, _ := newTestModel(&fakeAPI{}, notify.PermissionGranted)
	for i, name := range []string{"a", "b", "c", "d"} {
		m, _ = update(t, m, ReminderMsg{Title: "Task Reminder", Body: "Time to complete: " + name, At: now.Add(time.Duration(i) * time.Minute)})
	}

	require.Len(t, m.reminders, maxReminders)
	assert.Equal(t, "Time to complete: b", m.reminders[0].Body)
	assert.Contains(t, m.View(), "Time to complete: d")

	m, _ = update(t, m, key("esc"))
	assert.Empty(t, m.reminders)
}

func TestNotifier_RequiresAttach(t *testing.T) {
	n := NewNotifier()
	err := n.Send(context.Background(), notify.Notification{Title: "x"})
	assert.ErrorIs(t, err, errNotAttached)
}

func TestQuitKeys(t *testing.T) {
	m, _, _ := newTestModel(&fakeAPI{}, notify.PermissionGranted)
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
