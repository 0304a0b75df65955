package services

import (
	"context"
	"sync"
	"time"

	"github.com/ytakahashi/task-reminder/internal/models"
)

type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]Task),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Task, bool, error) {
	s.mu.RLock()
	t, ok := s.tasks[id]
	s.mu.RUnlock()

	return t, ok, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Task, error) {
	s.mu.RLock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	s.mu.RUnlock()

	sortByScheduledTime(out)
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, in models.NewTask) (Task, error) {
	t := in.Build(newID())

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()

	return t, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, patch models.TaskPatch) (Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false, nil
	}
	t = patch.Apply(t)
	s.tasks[id] = t
	return t, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

func (s *MemoryStore) ListInRange(_ context.Context, start, end time.Time) ([]Task, error) {
	s.mu.RLock()
	var out []Task
	for _, t := range s.tasks {
		if inRange(t.ScheduledTime, start, end) {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	if out == nil {
		out = []Task{}
	}
	sortByScheduledTime(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
