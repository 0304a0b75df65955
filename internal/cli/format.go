package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ytakahashi/task-reminder/internal/agenda"
	"github.com/ytakahashi/task-reminder/internal/models"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFAF"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87AF87"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AF5F5F"))

	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#AF5F5F")).Bold(true),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#D7AF5F")),
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#87AF87")),
	}
)

func formatTask(t models.Task, now time.Time) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	when := t.ScheduledTime.In(now.Location()).Format("Mon Jan 2 15:04")
	if agenda.IsOverdue(t, now) {
		when = errorStyle.Render(when + " overdue")
	}

	prio := priorityStyles[t.Priority].Render(fmt.Sprintf("%-6s", t.Priority))

	line := fmt.Sprintf("%s %s  %s  %s", check, prio, when, t.Title)
	if !t.FollowUpEnabled {
		line += subtleStyle.Render("  (no follow-up)")
	}
	return line + subtleStyle.Render("  "+t.ID)
}

func printSection(w io.Writer, title string, tasks []models.Task, now time.Time) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", title, len(tasks))))
	if len(tasks) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("  nothing here"))
	}
	for _, t := range tasks {
		fmt.Fprintln(w, "  "+formatTask(t, now))
	}
	fmt.Fprintln(w)
}

func printStats(w io.Writer, s agenda.Stats, byPriority map[models.Priority]int) {
	parts := []string{
		fmt.Sprintf("%d total", s.Total),
		fmt.Sprintf("%d pending", s.Pending),
		fmt.Sprintf("%d done", s.Completed),
	}
	if s.Overdue > 0 {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("%d overdue", s.Overdue)))
	}
	fmt.Fprintln(w, subtleStyle.Render(strings.Join(parts, " · ")))

	var prio []string
	for _, p := range []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		if n := byPriority[p]; n > 0 {
			prio = append(prio, priorityStyles[p].Render(fmt.Sprintf("%d %s", n, p)))
		}
	}
	if len(prio) > 0 {
		fmt.Fprintln(w, strings.Join(prio, subtleStyle.Render(" · ")))
	}
}
