package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/ytakahashi/task-reminder/internal/models"
)

const (
	pgTaskColumns = `id, title, scheduled_time, priority, completed, follow_up_enabled, follow_up_sent`

	pgCreateSchema = `CREATE TABLE IF NOT EXISTS tasks (
	id                TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	scheduled_time    TIMESTAMPTZ NOT NULL,
	priority          TEXT NOT NULL DEFAULT 'medium',
	completed         BOOLEAN NOT NULL DEFAULT FALSE,
	follow_up_enabled BOOLEAN NOT NULL DEFAULT TRUE,
	follow_up_sent    BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS tasks_scheduled_time_idx ON tasks (scheduled_time)`

	pgGetTask    = `SELECT ` + pgTaskColumns + ` FROM tasks WHERE id = $1`
	pgLockTask   = pgGetTask + ` FOR UPDATE`
	pgListTasks  = `SELECT ` + pgTaskColumns + ` FROM tasks ORDER BY scheduled_time ASC, id ASC`
	pgRangeTasks = `SELECT ` + pgTaskColumns + ` FROM tasks WHERE scheduled_time >= $1 AND scheduled_time <= $2 ORDER BY scheduled_time ASC, id ASC`
	pgInsertTask = `INSERT INTO tasks (` + pgTaskColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	pgUpdateTask = `UPDATE tasks SET title = $2, scheduled_time = $3, priority = $4, completed = $5, follow_up_enabled = $6, follow_up_sent = $7 WHERE id = $1`
	pgDeleteTask = `DELETE FROM tasks WHERE id = $1`
)

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, pgCreateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return newPostgresStore(db), nil
}

func newPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func (ps *PostgresStore) Get(ctx context.Context, id string) (Task, bool, error) {
	var task Task
	err := ps.db.GetContext(ctx, &task, pgGetTask, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, fmt.Errorf("get task %s: %w", id, err)
	}
	return task, true, nil
}

func (ps *PostgresStore) List(ctx context.Context) ([]Task, error) {
	tasks := []Task{}
	if err := ps.db.SelectContext(ctx, &tasks, pgListTasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (ps *PostgresStore) Create(ctx context.Context, in models.NewTask) (Task, error) {
	task := in.Build(newID())

	_, err := ps.db.ExecContext(ctx, pgInsertTask,
		task.ID, task.Title, task.ScheduledTime, task.Priority,
		task.Completed, task.FollowUpEnabled, task.FollowUpSent,
	)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (ps *PostgresStore) Update(ctx context.Context, id string, patch models.TaskPatch) (Task, bool, error) {
	tx, err := ps.db.BeginTxx(ctx, nil)
	if err != nil {
		return Task{}, false, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var current Task
	err = tx.GetContext(ctx, &current, pgLockTask, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, fmt.Errorf("lock task %s: %w", id, err)
	}

	updated := patch.Apply(current)
	_, err = tx.ExecContext(ctx, pgUpdateTask,
		updated.ID, updated.Title, updated.ScheduledTime, updated.Priority,
		updated.Completed, updated.FollowUpEnabled, updated.FollowUpSent,
	)
	if err != nil {
		return Task{}, false, fmt.Errorf("update task %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return Task{}, false, fmt.Errorf("commit update: %w", err)
	}
	return updated, true, nil
}

func (ps *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := ps.db.ExecContext(ctx, pgDeleteTask, id)
	if err != nil {
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}
	return n > 0, nil
}

func (ps *PostgresStore) ListInRange(ctx context.Context, start, end time.Time) ([]Task, error) {
	tasks := []Task{}
	if err := ps.db.SelectContext(ctx, &tasks, pgRangeTasks, start, end); err != nil {
		return nil, fmt.Errorf("list tasks in range: %w", err)
	}
	return tasks, nil
}
