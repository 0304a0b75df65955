package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/ytakahashi/task-reminder/internal/client"
	"github.com/ytakahashi/task-reminder/internal/config"
	"github.com/ytakahashi/task-reminder/internal/logging"
	"go.uber.org/zap"
)

// App carries what every command needs.
type App struct {
	Config *config.Config
	Log    *zap.SugaredLogger
	API    *client.Client
	Out    io.Writer
	In     io.Reader
}

var (
	apiURL string
	app    *App
)

var rootCmd = &cobra.Command{
	Use:   "remind",
	Short: "Schedule tasks and get reminded when they are due",
	Long: `remind talks to a task-reminder server. Create tasks with a time and a
priority, list what is due today, and keep "remind watch" running to get a
notification when a task is due and a follow-up an hour later.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := NewApp(cmd.OutOrStdout(), cmd.InOrStdin())
		if err != nil {
			return err
		}
		app = a
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "task API base URL (default $API_URL or http://localhost:8080)")

	rootCmd.AddCommand(listCmd, showCmd, addCmd, doneCmd, undoCmd, rmCmd, rangeCmd, watchCmd, tuiCmd)
}

// NewApp loads configuration and builds the shared dependencies.
func NewApp(out io.Writer, in io.Reader) (*App, error) {
	config.LoadDotEnv()

	cfg, err := config.Load("terminal")
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.Client.APIURL = apiURL
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	return &App{
		Config: cfg,
		Log:    log,
		API:    client.New(cfg.Client.APIURL, nil),
		Out:    out,
		In:     in,
	}, nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
	}
	return err
}

// RunTUI starts the interactive interface without going through cobra.
func RunTUI() error {
	a, err := NewApp(os.Stdout, os.Stdin)
	if err != nil {
		return err
	}
	return runTUI(context.Background(), a)
}
