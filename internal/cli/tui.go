package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/ytakahashi/task-reminder/internal/logging"
	"github.com/ytakahashi/task-reminder/internal/notify"
	"github.com/ytakahashi/task-reminder/internal/reminders"
	"github.com/ytakahashi/task-reminder/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive task list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context(), app)
	},
}

func runTUI(ctx context.Context, a *App) error {
	// Anything written to stderr would tear the alternate screen.
	log, err := logging.NewFileOnly(a.Config.Log.Level, a.Config.Log.File)
	if err != nil {
		return err
	}
	defer log.Sync()

	inProgram := tui.NewNotifier()
	var sink notify.Notifier = inProgram
	switch a.Config.Notify.Backend {
	case "terminal", "":
	default:
		sink, err = notify.NewNotifier(a.Config.Notify.Backend, a.Config.Notify.ChannelToken, a.Config.Notify.LineUserID, a.Out, log)
		if err != nil {
			return err
		}
	}
	// The model asks for permission itself.
	center := notify.NewCenter(sink, nil, log)

	svc := reminders.New(a.API, center, a.Config.Reminders.FollowUpDelay, log)
	defer svc.Stop()

	model := tui.New(tui.Options{
		API:          a.API,
		Scheduler:    svc.Scheduler(),
		Permissions:  center,
		PollInterval: a.Config.Client.PollInterval,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	inProgram.Attach(p)

	_, err = p.Run()
	return err
}
