package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in maps guarded by one mutex. Used by tests
// and by `serve --memory` for local runs without Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	tasks    map[string]*Task
	journals map[string]*JournalEntry
	records  []ProgressRecord

	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:    make(map[string]*Task),
		journals: make(map[string]*JournalEntry),
		Now:      time.Now,
	}
}

func (s *MemoryStore) CreateTask(ctx context.Context, t *Task) error {
	if err := ctx.Err(); err != nil {
		return errPersist("create task", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := s.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	c := cloneTask(t)
	s.tasks[t.ID] = &c
	return nil
}

func (s *MemoryStore) GetTask(ctx context.Context, userID, taskID string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, errTaskNotFound(taskID)
	}
	c := cloneTask(t)
	return &c, nil
}

func (s *MemoryStore) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) UpdateTask(ctx context.Context, userID, taskID string, u Update) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, errTaskNotFound(taskID)
	}
	next := cloneTask(t)
	u.Apply(&next)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.Now().UTC()
	s.tasks[taskID] = &next

	c := cloneTask(&next)
	return &c, nil
}

func (s *MemoryStore) DeleteTask(ctx context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return errTaskNotFound(taskID)
	}
	delete(s.tasks, taskID)
	for _, id := range t.JournalEntries {
		delete(s.journals, id)
	}

	kept := s.records[:0]
	for _, r := range s.records {
		if r.TaskID != taskID {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

func (s *MemoryStore) AddJournalEntry(ctx context.Context, userID, taskID string, e *JournalEntry) error {
	if err := ctx.Err(); err != nil {
		return errPersist("add journal entry", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return errTaskNotFound(taskID)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := s.Now().UTC()
	e.UserID = userID
	e.IsTaskJournal = true
	e.CreatedAt, e.UpdatedAt = now, now

	c := *e
	s.journals[e.ID] = &c
	t.JournalEntries = append(t.JournalEntries, e.ID)
	return nil
}

func (s *MemoryStore) JournalContents(ctx context.Context, userID, taskID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, errTaskNotFound(taskID)
	}
	out := make([]string, 0, len(t.JournalEntries))
	for _, id := range t.JournalEntries {
		if j, ok := s.journals[id]; ok {
			out = append(out, j.Content)
		}
	}
	return out, nil
}

func (s *MemoryStore) AppendProgressRecord(ctx context.Context, rec *ProgressRecord) error {
	if err := ctx.Err(); err != nil {
		return errPersist("append progress record", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[rec.TaskID]
	if !ok || t.UserID != rec.UserID {
		return errPersist("append progress record", errors.New("owning task not found"))
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := s.Now().UTC()
	if rec.Date.IsZero() {
		rec.Date = now
	}
	rec.CreatedAt = now

	c := *rec
	c.Progress = cloneFloat(rec.Progress)
	s.records = append(s.records, c)
	t.ProgressRecords = append(t.ProgressRecords, rec.ID)
	return nil
}

func (s *MemoryStore) ProgressSince(ctx context.Context, userID string, since time.Time) ([]ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ScoredRecord
	for _, r := range s.records {
		if r.UserID != userID || r.Date.Before(since) {
			continue
		}
		t, ok := s.tasks[r.TaskID]
		if !ok {
			continue
		}
		out = append(out, ScoredRecord{ProgressRecord: r, Task: cloneTask(t)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}
