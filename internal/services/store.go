package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ytakahashi/task-reminder/internal/config"
	"github.com/ytakahashi/task-reminder/internal/models"
	"go.uber.org/zap"
)

type Task = models.Task

// TaskStore owns the canonical task records. Each call is atomic on its own;
// there are no multi-record transactions. A missing id is reported through
// the boolean result, never as an error.
type TaskStore interface {
	Get(ctx context.Context, id string) (Task, bool, error)
	// List returns every task ordered by scheduled time.
	List(ctx context.Context) ([]Task, error)
	Create(ctx context.Context, in models.NewTask) (Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (Task, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	// ListInRange returns the tasks with start <= scheduledTime <= end, ordered by scheduled time.
	ListInRange(ctx context.Context, start, end time.Time) ([]Task, error)
	Close() error
}

func newID() string {
	return uuid.New().String()
}

// sortByScheduledTime orders tasks ascending, breaking ties by id so that
// List and an unbounded ListInRange agree.
func sortByScheduledTime(tasks []Task) {
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.ScheduledTime.Equal(b.ScheduledTime) {
			return a.ScheduledTime.Before(b.ScheduledTime)
		}
		return a.ID < b.ID
	})
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// NewStore opens the backend selected in cfg.
func NewStore(ctx context.Context, cfg config.StoreConfig, log *zap.SugaredLogger) (TaskStore, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		log.Infow("using in-memory task store")
		return NewMemoryStore(), nil
	case config.BackendFirestore:
		log.Infow("using firestore task store", "project", cfg.ProjectID, "collection", cfg.Collection)
		return NewFirestoreStore(ctx, cfg.ProjectID, cfg.Collection)
	case config.BackendRedis:
		log.Infow("using redis task store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.BackendPostgres:
		log.Infow("using postgres task store")
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
