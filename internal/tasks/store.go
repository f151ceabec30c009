package tasks

import (
	"context"
	"fmt"
	"time"

	"habit-coach-backend/internal/apperr"
)

// Store persists tasks, their task journal entries and progress history.
//
// AppendProgressRecord must insert the record and append its id to the
// owning task atomically: either both happen or neither does.
type Store interface {
	CreateTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, userID, taskID string) (*Task, error)
	ListTasks(ctx context.Context, userID string) ([]Task, error)
	UpdateTask(ctx context.Context, userID, taskID string, u Update) (*Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error

	AddJournalEntry(ctx context.Context, userID, taskID string, e *JournalEntry) error
	JournalContents(ctx context.Context, userID, taskID string) ([]string, error)

	AppendProgressRecord(ctx context.Context, rec *ProgressRecord) error
	ProgressSince(ctx context.Context, userID string, since time.Time) ([]ScoredRecord, error)
}

const opStore = "store"

func errMissing(field string) error {
	return apperr.New(apperr.KindInvalidInput, "validate-task", field+" is required")
}

func errInvalid(field, value string) error {
	return apperr.New(apperr.KindInvalidInput, "validate-task", fmt.Sprintf("invalid %s: %s", field, value))
}

func errTaskNotFound(taskID string) error {
	return apperr.New(apperr.KindNotFound, opStore, "task not found: "+taskID)
}

func errPersist(what string, err error) error {
	return apperr.Wrap(apperr.KindPersistence, opStore, fmt.Errorf("%s: %w", what, err))
}

func cloneTask(t *Task) Task {
	c := *t
	c.ProgressRecords = append([]string{}, t.ProgressRecords...)
	c.JournalEntries = append([]string{}, t.JournalEntries...)
	c.Goal = cloneFloat(t.Goal)
	c.Progress = cloneFloat(t.Progress)
	c.OriginalGoal = cloneFloat(t.OriginalGoal)
	c.CurrentGoal = cloneFloat(t.CurrentGoal)
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
