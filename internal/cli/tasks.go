package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ytakahashi/task-reminder/internal/agenda"
	"github.com/ytakahashi/task-reminder/internal/models"
)

var (
	listJSON bool

	addAt         string
	addPriority   string
	addNoFollowUp bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show today's, upcoming and overdue tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := app.API.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch tasks: %w", err)
		}
		if listJSON {
			return writeJSON(tasks)
		}

		now := time.Now()
		if overdue := agenda.Overdue(tasks, now); len(overdue) > 0 {
			printSection(app.Out, "Overdue", overdue, now)
		}
		printSection(app.Out, "Today", agenda.Today(tasks, now), now)
		printSection(app.Out, "Upcoming", agenda.Upcoming(tasks, now), now)
		printStats(app.Out, agenda.Summarize(tasks, now), agenda.CountByPriority(tasks))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, found, err := app.API.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("task %s not found", args[0])
		}
		return writeJSON(task)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Long: `Create a task. --at accepts "+30m", "in 2h", "14:30", "tomorrow 9am",
"2030-01-31 09:00" or an RFC 3339 timestamp.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		when, err := agenda.ParseWhen(addAt, now)
		if err != nil {
			return err
		}

		in := models.NewTask{
			Title:         strings.Join(args, " "),
			ScheduledTime: when,
		}
		if addPriority != "" {
			p := models.Priority(strings.ToLower(addPriority))
			in.Priority = &p
		}
		if addNoFollowUp {
			off := false
			in.FollowUpEnabled = &off
		}

		if err := models.ValidateForCreate(in, now); err != nil {
			return err
		}

		task, err := app.API.Create(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		fmt.Fprintln(app.Out, successStyle.Render("Created ")+formatTask(task, now))
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCompleted(cmd, args[0], true)
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Mark a task not completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCompleted(cmd, args[0], false)
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deleted, err := app.API.Delete(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		if !deleted {
			return fmt.Errorf("task %s not found", args[0])
		}
		fmt.Fprintln(app.Out, successStyle.Render("Deleted "+args[0]))
		return nil
	},
}

var rangeCmd = &cobra.Command{
	Use:   "range <start> <end>",
	Short: "List tasks scheduled between two dates (inclusive)",
	Long: `Dates may be YYYY-MM-DD, YYYY-MM-DDTHH:MM[:SS] or RFC 3339. Dates without a zone
are UTC. An end given as a bare date covers that whole day.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := agenda.ParseDate(args[0])
		if err != nil {
			return err
		}
		end, err := agenda.ParseDate(args[1])
		if err != nil {
			return err
		}
		if agenda.IsDateOnly(args[1]) {
			end = agenda.EndOfDay(end)
		}

		tasks, err := app.API.ListInRange(cmd.Context(), start, end)
		if err != nil {
			return fmt.Errorf("failed to fetch tasks: %w", err)
		}
		if listJSON {
			return writeJSON(tasks)
		}
		printSection(app.Out, fmt.Sprintf("%s – %s", args[0], args[1]), tasks, time.Now())
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print raw JSON")
	rangeCmd.Flags().BoolVar(&listJSON, "json", false, "print raw JSON")

	addCmd.Flags().StringVar(&addAt, "at", "+1h", "when the reminder fires")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "low, medium or high (default medium)")
	addCmd.Flags().BoolVar(&addNoFollowUp, "no-follow-up", false, "skip the follow-up reminder an hour later")
}

func setCompleted(cmd *cobra.Command, id string, completed bool) error {
	task, found, err := app.API.Update(cmd.Context(), id, models.TaskPatch{Completed: &completed})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if !found {
		return fmt.Errorf("task %s not found", id)
	}
	fmt.Fprintln(app.Out, successStyle.Render("Updated ")+formatTask(task, time.Now()))
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(app.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
