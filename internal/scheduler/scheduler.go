// Package scheduler turns tasks into deferred reminder notifications.
//
// Each task id owns at most one pending main timer and at most one pending
// follow-up timer. Scheduling a task always cancels whatever was pending for
// its id first, so repeated calls never produce duplicate reminders.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ytakahashi/task-reminder/internal/models"
	"github.com/ytakahashi/task-reminder/internal/notify"
	"go.uber.org/zap"
)

// DefaultFollowUpDelay is the gap between a reminder and its follow-up.
const DefaultFollowUpDelay = time.Hour

// Reminder emits reminder notifications. *notify.Center implements it.
type Reminder interface {
	ShowTaskReminder(ctx context.Context, taskTitle string, followUp bool) notify.Result
}

// FollowUpSentFunc is called after a follow-up for task was emitted.
type FollowUpSentFunc func(ctx context.Context, task models.Task)

type Option func(*Scheduler)

func WithFollowUpDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.followUpDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithFollowUpSent(fn FollowUpSentFunc) Option {
	return func(s *Scheduler) { s.onFollowUpSent = fn }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Scheduler) { s.log = log }
}

// handle is compared by identity when its timer fires; a handle no longer in
// the map was cancelled or replaced and must not emit.
type handle struct {
	timer *time.Timer
	due   time.Time
}

type Scheduler struct {
	mu        sync.Mutex
	main      map[string]*handle
	followUps map[string]*handle

	reminder       Reminder
	followUpDelay  time.Duration
	now            func() time.Time
	onFollowUpSent FollowUpSentFunc
	log            *zap.SugaredLogger
}

func New(reminder Reminder, opts ...Option) *Scheduler {
	s := &Scheduler{
		main:          make(map[string]*handle),
		followUps:     make(map[string]*handle),
		reminder:      reminder,
		followUpDelay: DefaultFollowUpDelay,
		now:           time.Now,
		log:           zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arms the main reminder for task. Completed tasks are ignored.
// Any pending timers for the id are cancelled, and nothing new is armed when
// the scheduled time is not in the future.
func (s *Scheduler) Schedule(task models.Task) {
	if task.Completed {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(task.ID)

	delay := task.ScheduledTime.Sub(s.now())
	if delay <= 0 {
		return
	}

	h := &handle{due: task.ScheduledTime}
	h.timer = time.AfterFunc(delay, func() { s.fireMain(h, task) })
	s.main[task.ID] = h

	s.log.Debugw("reminder armed", "task", task.ID, "in", delay)
}

// Cancel discards both pending timers for id. It is safe to call for ids
// with nothing pending.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	s.cancelLocked(id)
	s.mu.Unlock()
}

// CancelAll discards every pending timer.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, h := range s.main {
		h.timer.Stop()
		delete(s.main, id)
	}
	for id, h := range s.followUps {
		h.timer.Stop()
		delete(s.followUps, id)
	}
}

// Refresh applies the current state of one task: a future incomplete task
// is rescheduled, a completed one loses its timers, and one that is already
// due keeps a pending follow-up.
func (s *Scheduler) Refresh(t models.Task) {
	switch {
	case t.Completed:
		s.Cancel(t.ID)
	case t.ScheduledTime.After(s.now()):
		s.Schedule(t)
	default:
		s.cancelDue(t)
	}
}

// Sync refreshes every task in a freshly fetched list and drops the timers
// of tasks that are no longer in it.
func (s *Scheduler) Sync(tasks []models.Task) {
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		seen[t.ID] = struct{}{}
		s.Refresh(t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.main {
		if _, ok := seen[id]; !ok {
			s.cancelLocked(id)
		}
	}
	for id := range s.followUps {
		if _, ok := seen[id]; !ok {
			s.cancelLocked(id)
		}
	}
}

// Pending reports which timers are armed for id.
func (s *Scheduler) Pending(id string) (main, followUp bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, main = s.main[id]
	_, followUp = s.followUps[id]
	return main, followUp
}

// Len returns the number of armed timers of both kinds.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.main) + len(s.followUps)
}

func (s *Scheduler) cancelLocked(id string) {
	if h, ok := s.main[id]; ok {
		h.timer.Stop()
		delete(s.main, id)
	}
	if h, ok := s.followUps[id]; ok {
		h.timer.Stop()
		delete(s.followUps, id)
	}
}

// cancelDue handles a task that is already due. A main timer armed for an
// older scheduled time is dropped; one armed for this exact time is about to
// fire and stays. The follow-up stays only while the task still wants one.
func (s *Scheduler) cancelDue(t models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.main[t.ID]; ok && !h.due.Equal(t.ScheduledTime) {
		h.timer.Stop()
		delete(s.main, t.ID)
	}
	if t.FollowUpEnabled && !t.FollowUpSent {
		return
	}
	if h, ok := s.followUps[t.ID]; ok {
		h.timer.Stop()
		delete(s.followUps, t.ID)
	}
}

func (s *Scheduler) fireMain(h *handle, task models.Task) {
	s.mu.Lock()
	if s.main[task.ID] != h {
		s.mu.Unlock()
		return
	}
	delete(s.main, task.ID)

	if task.FollowUpEnabled && !task.FollowUpSent {
		fh := &handle{}
		fh.timer = time.AfterFunc(s.followUpDelay, func() { s.fireFollowUp(fh, task) })
		s.followUps[task.ID] = fh
	}
	s.mu.Unlock()

	s.emit(task, false)
}

func (s *Scheduler) fireFollowUp(h *handle, task models.Task) {
	s.mu.Lock()
	if s.followUps[task.ID] != h {
		s.mu.Unlock()
		return
	}
	delete(s.followUps, task.ID)
	s.mu.Unlock()

	if s.emit(task, true) == notify.Emitted && s.onFollowUpSent != nil {
		s.onFollowUpSent(context.Background(), task)
	}
}

// emit never lets a notification failure escape into the timer goroutine.
func (s *Scheduler) emit(task models.Task, followUp bool) (res notify.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("reminder notification failed", "task", task.ID, "followUp", followUp, "panic", r)
			res = notify.Suppressed
		}
	}()

	res = s.reminder.ShowTaskReminder(context.Background(), task.Title, followUp)
	s.log.Infow("reminder fired", "task", task.ID, "followUp", followUp, "result", res)
	return res
}
