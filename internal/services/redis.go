package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ytakahashi/task-reminder/internal/models"
)

const (
	redisTasksKey    = "tasks"
	redisScheduleKey = "tasks:schedule"

	redisMaxRetries = 10
)

// RedisStore keeps each task as JSON in a hash and indexes scheduled times
// (unix milliseconds) in a sorted set.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

func (rs *RedisStore) Get(ctx context.Context, id string) (Task, bool, error) {
	return getRedisTask(ctx, rs.client, id)
}

func (rs *RedisStore) List(ctx context.Context) ([]Task, error) {
	ids, err := rs.client.ZRange(ctx, redisScheduleKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list task ids: %w", err)
	}
	return rs.load(ctx, ids)
}

func (rs *RedisStore) Create(ctx context.Context, in models.NewTask) (Task, error) {
	task := in.Build(newID())

	data, err := json.Marshal(task)
	if err != nil {
		return Task{}, fmt.Errorf("failed to marshal task: %w", err)
	}

	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisTasksKey, task.ID, data)
		pipe.ZAdd(ctx, redisScheduleKey, &redis.Z{Score: scheduleScore(task.ScheduledTime), Member: task.ID})
		return nil
	})
	if err != nil {
		return Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

func (rs *RedisStore) Update(ctx context.Context, id string, patch models.TaskPatch) (Task, bool, error) {
	var (
		updated Task
		found   bool
	)

	txf := func(tx *redis.Tx) error {
		current, ok, err := getRedisTask(ctx, tx, id)
		if err != nil {
			return err
		}
		found = ok
		if !ok {
			return nil
		}

		updated = patch.Apply(current)
		data, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("failed to marshal task: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, redisTasksKey, id, data)
			pipe.ZAdd(ctx, redisScheduleKey, &redis.Z{Score: scheduleScore(updated.ScheduledTime), Member: id})
			return nil
		})
		return err
	}

	if err := rs.watch(ctx, txf); err != nil {
		return Task{}, false, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	return updated, found, nil
}

func (rs *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	var hdel *redis.IntCmd
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hdel = pipe.HDel(ctx, redisTasksKey, id)
		pipe.ZRem(ctx, redisScheduleKey, id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return hdel.Val() > 0, nil
}

func (rs *RedisStore) ListInRange(ctx context.Context, start, end time.Time) ([]Task, error) {
	// Scores are truncated to milliseconds, so widen the query and filter exactly below.
	ids, err := rs.client.ZRangeByScore(ctx, redisScheduleKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(start.UnixMilli()-1, 10),
		Max: strconv.FormatInt(end.UnixMilli()+1, 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query task range: %w", err)
	}

	candidates, err := rs.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(candidates))
	for _, t := range candidates {
		if inRange(t.ScheduledTime, start, end) {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (rs *RedisStore) load(ctx context.Context, ids []string) ([]Task, error) {
	tasks := make([]Task, 0, len(ids))
	if len(ids) == 0 {
		return tasks, nil
	}

	values, err := rs.client.HMGet(ctx, redisTasksKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// index entry without a record; a concurrent delete is in flight
			continue
		}
		var task Task
		if err := json.Unmarshal([]byte(s), &task); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task: %w", err)
		}
		tasks = append(tasks, task)
	}

	sortByScheduledTime(tasks)
	return tasks, nil
}

func (rs *RedisStore) watch(ctx context.Context, txf func(tx *redis.Tx) error) error {
	for i := 0; i < redisMaxRetries; i++ {
		err := rs.client.Watch(ctx, txf, redisTasksKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("too many concurrent updates")
}

type hashGetter interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

func getRedisTask(ctx context.Context, c hashGetter, id string) (Task, bool, error) {
	data, err := c.HGet(ctx, redisTasksKey, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, fmt.Errorf("failed to get task %s: %w", id, err)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return Task{}, false, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return task, true, nil
}

func scheduleScore(t time.Time) float64 {
	return float64(t.UnixMilli())
}
