package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ytakahashi/task-reminder/internal/agenda"
	"github.com/ytakahashi/task-reminder/internal/models"
)

const (
	fieldTitle = iota
	fieldWhen
	fieldPriority
	fieldFollowUp
	fieldCount
)

var priorities = []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}

// formModel is the task creation form.
type formModel struct {
	title    textinput.Model
	when     textinput.Model
	priority int
	followUp bool
	focus    int
	err      string
}

func newForm() formModel {
	title := textinput.New()
	title.Placeholder = "What needs doing?"
	title.CharLimit = models.MaxTitleLength
	title.Width = 40

	when := textinput.New()
	when.Placeholder = "+1h, 14:30, tomorrow 9am"
	when.Width = 40
	when.SetValue("+1h")

	f := formModel{
		title:    title,
		when:     when,
		priority: 1,
		followUp: true,
	}
	f.title.Focus()
	return f
}

func (f formModel) focused(i int) formModel {
	f.focus = (i + fieldCount) % fieldCount
	f.title.Blur()
	f.when.Blur()
	switch f.focus {
	case fieldTitle:
		f.title.Focus()
	case fieldWhen:
		f.when.Focus()
	}
	return f
}

// build turns the form into a validated creation payload.
func (f formModel) build(now time.Time) (models.NewTask, error) {
	when, err := agenda.ParseWhen(f.when.Value(), now)
	if err != nil {
		return models.NewTask{}, err
	}
	p := priorities[f.priority]
	follow := f.followUp
	in := models.NewTask{
		Title:           strings.TrimSpace(f.title.Value()),
		ScheduledTime:   when,
		Priority:        &p,
		FollowUpEnabled: &follow,
	}
	if err := models.ValidateForCreate(in, now); err != nil {
		return models.NewTask{}, err
	}
	return in, nil
}

func (f formModel) update(msg tea.KeyMsg) (formModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return f.focused(f.focus + 1), nil
	case "shift+tab", "up":
		return f.focused(f.focus - 1), nil
	}

	switch f.focus {
	case fieldPriority:
		switch msg.String() {
		case "left", "h":
			f.priority = (f.priority + len(priorities) - 1) % len(priorities)
		case "right", "l", " ":
			f.priority = (f.priority + 1) % len(priorities)
		}
		return f, nil
	case fieldFollowUp:
		switch msg.String() {
		case " ", "left", "right", "h", "l":
			f.followUp = !f.followUp
		}
		return f, nil
	}

	var cmd tea.Cmd
	if f.focus == fieldTitle {
		f.title, cmd = f.title.Update(msg)
	} else {
		f.when, cmd = f.when.Update(msg)
	}
	return f, cmd
}

func (f formModel) view(now time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New task"))
	b.WriteString("\n")

	label := func(i int, name string) string {
		if f.focus == i {
			return selectedStyle.Render("› " + name)
		}
		return subtleStyle.Render("  " + name)
	}

	b.WriteString(label(fieldTitle, "Title") + "\n  " + f.title.View() + "\n\n")

	b.WriteString(label(fieldWhen, "When") + "\n  " + f.when.View())
	if t, err := agenda.ParseWhen(f.when.Value(), now); err == nil {
		b.WriteString(subtleStyle.Render("  → " + t.Format("Mon Jan 2 15:04")))
	}
	b.WriteString("\n\n")

	var prio []string
	for i, p := range priorities {
		style := subtleStyle
		if i == f.priority {
			style = lipgloss.NewStyle().Bold(true).Foreground(priorityColors[string(p)])
		}
		prio = append(prio, style.Render(string(p)))
	}
	b.WriteString(label(fieldPriority, "Priority") + "\n  " + strings.Join(prio, "  ") + "\n\n")

	follow := "off"
	if f.followUp {
		follow = "on, one hour after the reminder"
	}
	b.WriteString(label(fieldFollowUp, "Follow-up") + "\n  " + follow + "\n")

	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render(f.err) + "\n")
	}
	return boxStyle.Render(b.String())
}
