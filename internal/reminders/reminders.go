// Package reminders keeps a Scheduler in step with a task source and
// records delivered follow-ups back to it.
package reminders

import (
	"context"
	"time"

	"github.com/ytakahashi/task-reminder/internal/models"
	"github.com/ytakahashi/task-reminder/internal/scheduler"
	"go.uber.org/zap"
)

// Source is where tasks are read from and follow-up state is written to.
// Both the store and the API client satisfy it.
type Source interface {
	List(ctx context.Context) ([]models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, bool, error)
}

type Service struct {
	source Source
	sched  *scheduler.Scheduler
	log    *zap.SugaredLogger
}

func New(source Source, reminder scheduler.Reminder, followUpDelay time.Duration, log *zap.SugaredLogger) *Service {
	s := &Service{
		source: source,
		log:    log,
	}
	s.sched = scheduler.New(reminder,
		scheduler.WithFollowUpDelay(followUpDelay),
		scheduler.WithFollowUpSent(s.markFollowUpSent),
		scheduler.WithLogger(log),
	)
	return s
}

// Scheduler exposes the underlying scheduler, for example as the HTTP
// handler's reminder hook.
func (s *Service) Scheduler() *scheduler.Scheduler {
	return s.sched
}

// Refresh re-reads every task and re-arms the timers.
func (s *Service) Refresh(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.source.List(ctx)
	if err != nil {
		return nil, err
	}
	s.sched.Sync(tasks)
	return tasks, nil
}

// Run refreshes immediately and then every interval until ctx is done.
// Fetch failures are logged and the previous timers are kept.
func (s *Service) Run(ctx context.Context, interval time.Duration, onRefresh func([]models.Task)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		tasks, err := s.Refresh(ctx)
		if err != nil {
			s.log.Warnw("failed to refresh tasks", "error", err)
		} else if onRefresh != nil {
			onRefresh(tasks)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop discards every pending timer.
func (s *Service) Stop() {
	s.sched.CancelAll()
}

func (s *Service) markFollowUpSent(ctx context.Context, task models.Task) {
	sent := true
	_, ok, err := s.source.Update(ctx, task.ID, models.TaskPatch{FollowUpSent: &sent})
	if err != nil {
		s.log.Warnw("failed to record follow-up", "task", task.ID, "error", err)
		return
	}
	if !ok {
		s.log.Debugw("follow-up sent for a deleted task", "task", task.ID)
	}
}
