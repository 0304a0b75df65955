package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ytakahashi/task-reminder/internal/agenda"
	"github.com/ytakahashi/task-reminder/internal/models"
	"github.com/ytakahashi/task-reminder/internal/notify"
)

// API is the subset of the task client the interface needs.
type API interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, in models.NewTask) (models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Syncer re-arms reminder timers from a fresh task list.
type Syncer interface {
	Sync(tasks []models.Task)
}

// Permissions holds the notification permission state.
type Permissions interface {
	Permission() notify.Permission
	SetPermission(p notify.Permission)
}

type Options struct {
	API          API
	Scheduler    Syncer
	Permissions  Permissions
	PollInterval time.Duration
	Now          func() time.Time
}

// View represents the different screens in the TUI.
type View int

const (
	ViewList View = iota
	ViewForm
	ViewTimePicker
	ViewPermission
)

type row struct {
	section string
	task    models.Task
}

// Model is the main Bubble Tea model.
type Model struct {
	opts Options

	view   View
	width  int
	height int

	tasks   []models.Task
	rows    []row
	cursor  int
	loading bool
	spinner spinner.Model

	form   formModel
	picker pickerModel

	notice      string
	noticeIsErr bool
	noticeSeq   int

	reminders []ReminderMsg
}

func New(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	m := Model{
		opts:    opts,
		view:    ViewList,
		loading: true,
		spinner: sp,
		form:    newForm(),
	}
	if opts.Permissions != nil && opts.Permissions.Permission() == notify.PermissionDefault {
		m.view = ViewPermission
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchTasks(m.opts.API), refreshAfter(m.opts.PollInterval))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tasksLoadedMsg:
		m.loading = false
		m.tasks = msg.tasks
		if m.opts.Scheduler != nil {
			m.opts.Scheduler.Sync(msg.tasks)
		}
		m.rebuildRows()
		return m, nil

	case apiErrMsg:
		m.loading = false
		return m.setNotice(fmt.Sprintf("Could not %s: %v", msg.action, msg.err), true)

	case mutatedMsg:
		next, cmd := m.setNotice(msg.notice, false)
		return next, tea.Batch(cmd, fetchTasks(m.opts.API))

	case refreshTickMsg:
		return m, tea.Batch(fetchTasks(m.opts.API), refreshAfter(m.opts.PollInterval))

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
			m.noticeIsErr = false
		}
		return m, nil

	case ReminderMsg:
		m.reminders = append(m.reminders, msg)
		if len(m.reminders) > maxReminders {
			m.reminders = m.reminders[len(m.reminders)-maxReminders:]
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case ViewPermission:
			return m.updatePermission(msg)
		case ViewForm:
			return m.updateForm(msg)
		case ViewTimePicker:
			return m.updatePicker(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "esc":
		m.reminders = nil
	case "n":
		m.form = newForm()
		m.view = ViewForm
	case "r":
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, fetchTasks(m.opts.API))
	case "p":
		if m.opts.Permissions != nil {
			m.view = ViewPermission
		}
	case " ", "x":
		if t, ok := m.selected(); ok {
			return m, setCompleted(m.opts.API, t, !t.Completed)
		}
	case "d":
		if t, ok := m.selected(); ok {
			return m, deleteTask(m.opts.API, t)
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = ViewList
		return m, nil
	case "ctrl+t":
		m.picker = pickerModel{}
		m.view = ViewTimePicker
		return m, nil
	case "enter":
		in, err := m.form.build(m.opts.Now())
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.form.err = ""
		m.view = ViewList
		return m, createTask(m.opts.API, in)
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.view = ViewForm
		return m, nil
	}
	picker, value, done := m.picker.update(msg)
	m.picker = picker
	if done {
		m.form.when.SetValue(value)
		m.form = m.form.focused(fieldWhen)
		m.view = ViewForm
	}
	return m, nil
}

func (m Model) updatePermission(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		m.opts.Permissions.SetPermission(notify.PermissionGranted)
		m.view = ViewList
		return m.setNotice("Notifications enabled", false)
	case "n":
		m.opts.Permissions.SetPermission(notify.PermissionDenied)
		m.view = ViewList
		return m.setNotice("Notifications disabled; reminders will be skipped", false)
	case "esc", "q":
		m.view = ViewList
	}
	return m, nil
}

func (m Model) setNotice(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.noticeSeq++
	m.notice = text
	m.noticeIsErr = isErr
	return m, clearNoticeAfter(m.noticeSeq)
}

func (m Model) selected() (models.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return models.Task{}, false
	}
	return m.rows[m.cursor].task, true
}

// rebuildRows groups the cached tasks into sections and keeps the
// cursor on the same task when it is still listed. Completed tasks from
// earlier days are not shown.
func (m *Model) rebuildRows() {
	var selectedID string
	if t, ok := m.selected(); ok {
		selectedID = t.ID
	}

	now := m.opts.Now()
	var rows []row
	for _, t := range agenda.Overdue(m.tasks, now) {
		rows = append(rows, row{section: "Overdue", task: t})
	}
	for _, t := range agenda.Today(m.tasks, now) {
		rows = append(rows, row{section: "Today", task: t})
	}
	for _, t := range agenda.Upcoming(m.tasks, now) {
		rows = append(rows, row{section: "Upcoming", task: t})
	}
	m.rows = rows

	m.cursor = min(m.cursor, max(len(rows)-1, 0))
	for i, r := range rows {
		if r.task.ID == selectedID {
			m.cursor = i
			break
		}
	}
}

func (m Model) View() string {
	now := m.opts.Now()

	var body string
	switch m.view {
	case ViewPermission:
		body = m.viewPermission()
	case ViewForm:
		body = m.form.view(now) + "\n" + subtleStyle.Render("tab next field • ←/→ change • ctrl+t pick a time • enter save • esc cancel")
	case ViewTimePicker:
		body = m.picker.view(now) + "\n" + subtleStyle.Render("↑/↓ move • enter choose • esc back")
	default:
		body = m.viewList(now)
	}

	var b strings.Builder
	for _, r := range m.reminders {
		b.WriteString(reminderStyle.Render("🔔 "+r.Title+"\n"+r.Body) + "\n")
	}
	b.WriteString(body)
	if m.notice != "" {
		style := successStyle
		if m.noticeIsErr {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.notice))
	}
	return b.String()
}

func (m Model) viewList(now time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Task Reminder"))
	b.WriteString("\n")

	if m.loading && len(m.tasks) == 0 {
		b.WriteString(m.spinner.View() + " Loading tasks...\n")
		return b.String()
	}

	if len(m.rows) == 0 {
		b.WriteString(subtleStyle.Render("Nothing scheduled. Press n to add a task.") + "\n")
	}

	section := ""
	for i, r := range m.rows {
		if r.section != section {
			if section != "" {
				b.WriteString("\n")
			}
			section = r.section
			b.WriteString(sectionStyle.Render(section) + "\n")
		}
		b.WriteString(m.renderRow(r.task, i == m.cursor, now) + "\n")
	}

	stats := agenda.Summarize(m.tasks, now)
	b.WriteString("\n" + subtleStyle.Render(fmt.Sprintf("%d tasks • %d pending • %d overdue • %d done",
		stats.Total, stats.Pending, stats.Overdue, stats.Completed)))
	b.WriteString("\n" + subtleStyle.Render("n new • space done • d delete • r refresh • p notifications • esc dismiss • q quit"))
	return b.String()
}

func (m Model) renderRow(t models.Task, selected bool, now time.Time) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	when := t.ScheduledTime.Local().Format("15:04")
	if !agenda.StartOfDay(t.ScheduledTime.Local()).Equal(agenda.StartOfDay(now.Local())) {
		when = t.ScheduledTime.Local().Format("Jan 2 15:04")
	}

	prio := lipgloss.NewStyle().Foreground(priorityColors[string(t.Priority)]).Render(fmt.Sprintf("%-6s", t.Priority))
	title := t.Title
	if t.Completed {
		title = doneStyle.Render(title)
	}

	line := fmt.Sprintf("%s %s %s %s", check, when, prio, title)
	if selected {
		return selectedStyle.Render("› ") + line
	}
	return "  " + line
}

func (m Model) viewPermission() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Allow notifications?"))
	b.WriteString("\n")
	b.WriteString("Reminders are shown when a task is due, with a follow-up an hour\nlater if it is still open.\n\n")
	b.WriteString(fmt.Sprintf("Current setting: %s\n\n", m.opts.Permissions.Permission()))
	b.WriteString(subtleStyle.Render("y allow • n block • esc decide later"))
	return boxStyle.Render(b.String())
}
