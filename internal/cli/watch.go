package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ytakahashi/task-reminder/internal/models"
	"github.com/ytakahashi/task-reminder/internal/notify"
	"github.com/ytakahashi/task-reminder/internal/reminders"
)

var watchGrant bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay running and deliver reminders for upcoming tasks",
	Long: `watch polls the server, arms a reminder for every incomplete future task
and emits a follow-up an hour after each reminder unless the task disabled it.
Timers live only as long as this process; restarting re-arms them from the server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		center, err := newCenter(app, notify.NewTerminalPrompter(app.In, app.Out))
		if err != nil {
			return err
		}
		if watchGrant {
			center.SetPermission(notify.PermissionGranted)
		}
		if center.Permission() == notify.PermissionDefault {
			center.RequestPermission(ctx)
		}
		if center.Permission() != notify.PermissionGranted {
			fmt.Fprintln(app.Out, subtleStyle.Render("Notifications are off; reminders will be skipped. Re-run with --yes to enable them."))
		}

		svc := reminders.New(app.API, center, app.Config.Reminders.FollowUpDelay, app.Log)
		defer svc.Stop()

		fmt.Fprintf(app.Out, "Watching %s every %s (Ctrl+C to stop)\n", app.Config.Client.APIURL, app.Config.Client.PollInterval)
		svc.Run(ctx, app.Config.Client.PollInterval, func(tasks []models.Task) {
			app.Log.Debugw("tasks refreshed", "count", len(tasks), "armed", svc.Scheduler().Len())
		})
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVarP(&watchGrant, "yes", "y", false, "grant notification permission without asking")
}

func newCenter(a *App, prompter notify.Prompter) (*notify.Center, error) {
	n, err := notify.NewNotifier(a.Config.Notify.Backend, a.Config.Notify.ChannelToken, a.Config.Notify.LineUserID, a.Out, a.Log)
	if err != nil {
		return nil, err
	}
	return notify.NewCenter(n, prompter, a.Log), nil
}
