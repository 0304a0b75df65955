package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ytakahashi/task-reminder/internal/agenda"
)

type preset struct {
	label string
	value string
}

var presets = []preset{
	{"In 15 minutes", "+15m"},
	{"In 30 minutes", "+30m"},
	{"In 1 hour", "+1h"},
	{"In 3 hours", "+3h"},
	{"This evening", "18:00"},
	{"Tomorrow morning", "tomorrow 09:00"},
	{"Tomorrow evening", "tomorrow 18:00"},
}

// pickerModel offers preset times for the form's When field.
type pickerModel struct {
	cursor int
}

// update returns the chosen value once enter is pressed.
func (p pickerModel) update(msg tea.KeyMsg) (pickerModel, string, bool) {
	switch msg.String() {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(presets)-1 {
			p.cursor++
		}
	case "enter":
		return p, presets[p.cursor].value, true
	}
	return p, "", false
}

func (p pickerModel) view(now time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pick a time"))
	b.WriteString("\n")

	for i, pr := range presets {
		line := pr.label
		if t, err := agenda.ParseWhen(pr.value, now); err == nil {
			hint := t.Format("Mon 15:04")
			if !t.After(now) {
				hint += ", already past"
			}
			line += subtleStyle.Render("  " + hint)
		}
		if i == p.cursor {
			b.WriteString(selectedStyle.Render("› ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return boxStyle.Render(b.String())
}
