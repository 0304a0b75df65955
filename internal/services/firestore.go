package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/ytakahashi/task-reminder/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(ctx context.Context, projectID, collection string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	if collection == "" {
		collection = "tasks"
	}

	return &FirestoreStore{
		client:     client,
		collection: collection,
	}, nil
}

func (fs *FirestoreStore) Close() error {
	return fs.client.Close()
}

func (fs *FirestoreStore) tasks() *firestore.CollectionRef {
	return fs.client.Collection(fs.collection)
}

func (fs *FirestoreStore) Get(ctx context.Context, id string) (Task, bool, error) {
	doc, err := fs.tasks().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, fmt.Errorf("failed to get task %s: %w", id, err)
	}

	var task Task
	if err := doc.DataTo(&task); err != nil {
		return Task{}, false, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return task, true, nil
}

func (fs *FirestoreStore) List(ctx context.Context) ([]Task, error) {
	iter := fs.tasks().
		OrderBy("scheduledTime", firestore.Asc).
		Documents(ctx)
	return collectTasks(iter)
}

func (fs *FirestoreStore) Create(ctx context.Context, in models.NewTask) (Task, error) {
	task := in.Build(newID())

	_, err := fs.tasks().Doc(task.ID).Set(ctx, task)
	if err != nil {
		return Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

func (fs *FirestoreStore) Update(ctx context.Context, id string, patch models.TaskPatch) (Task, bool, error) {
	ref := fs.tasks().Doc(id)

	var (
		updated Task
		found   bool
	)
	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		found = false
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return err
		}

		var current Task
		if err := doc.DataTo(&current); err != nil {
			return fmt.Errorf("failed to unmarshal task: %w", err)
		}
		updated = patch.Apply(current)
		found = true
		return tx.Set(ref, updated)
	})
	if err != nil {
		return Task{}, false, fmt.Errorf("failed to update task %s: %w", id, err)
	}

	return updated, found, nil
}

func (fs *FirestoreStore) Delete(ctx context.Context, id string) (bool, error) {
	ref := fs.tasks().Doc(id)

	var deleted bool
	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		deleted = false
		_, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return err
		}
		deleted = true
		return tx.Delete(ref)
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete task %s: %w", id, err)
	}

	return deleted, nil
}

func (fs *FirestoreStore) ListInRange(ctx context.Context, start, end time.Time) ([]Task, error) {
	iter := fs.tasks().
		Where("scheduledTime", ">=", start).
		Where("scheduledTime", "<=", end).
		OrderBy("scheduledTime", firestore.Asc).
		Documents(ctx)
	return collectTasks(iter)
}

func collectTasks(iter *firestore.DocumentIterator) ([]Task, error) {
	defer iter.Stop()

	tasks := []Task{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate tasks: %w", err)
		}

		var task Task
		if err := doc.DataTo(&task); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task: %w", err)
		}

		tasks = append(tasks, task)
	}

	sortByScheduledTime(tasks)
	return tasks, nil
}
