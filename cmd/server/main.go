package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ytakahashi/task-reminder/internal/config"
	"github.com/ytakahashi/task-reminder/internal/handlers"
	"github.com/ytakahashi/task-reminder/internal/logging"
	"github.com/ytakahashi/task-reminder/internal/notify"
	"github.com/ytakahashi/task-reminder/internal/reminders"
	"github.com/ytakahashi/task-reminder/internal/services"
	"go.uber.org/zap"
)

func main() {
	if !config.LoadDotEnv() {
		log.Println("No .env file found")
	}

	cfg, err := config.Load("log")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// run returns instead of exiting so its deferred cleanup always happens.
	if err := run(cfg, logger); err != nil {
		logger.Errorw("Server stopped with error", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := services.NewStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s task store: %w", cfg.Store.Backend, err)
	}
	defer store.Close()

	var hook handlers.ReminderHook
	if cfg.Reminders.Enabled {
		sink, err := notify.NewNotifier(cfg.Notify.Backend, cfg.Notify.ChannelToken, cfg.Notify.LineUserID, os.Stdout, logger)
		if err != nil {
			return fmt.Errorf("failed to create %s notifier: %w", cfg.Notify.Backend, err)
		}
		center := notify.NewCenter(sink, notify.AutoGrant, logger)
		center.RequestPermission(ctx)

		svc := reminders.New(store, center, cfg.Reminders.FollowUpDelay, logger)
		defer svc.Stop()

		tasks, err := svc.Refresh(ctx)
		if err != nil {
			logger.Warnw("Failed to arm reminders at startup", "error", err)
		} else {
			logger.Infow("Reminders armed", "tasks", len(tasks), "timers", svc.Scheduler().Len(), "notifier", cfg.Notify.Backend)
		}
		hook = svc.Scheduler()
	}

	e := handlers.NewRouter(handlers.NewTaskHandler(store, logger, hook), logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("Server starting", "port", cfg.Port)
		serveErr <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Infow("Server stopped")
	return nil
}
