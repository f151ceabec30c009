package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore is the production Store. Back-references live in uuid[]
// columns on tasks and are appended with array_append inside the UPDATE,
// so concurrent appends to the same task never overwrite each other.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

const taskColumns = `
	id, user_id, title, description, category, emoji, color, type, status,
	goal, progress, original_goal, current_goal, streak,
	progress_records, journal_entries, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var (
		t                                  Task
		goal, progress, origGoal, currGoal sql.NullFloat64
		records, journals                  []string
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Category, &t.Emoji, &t.Color, &t.Type, &t.Status,
		&goal, &progress, &origGoal, &currGoal, &t.Streak,
		pq.Array(&records), pq.Array(&journals), &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return Task{}, err
	}
	t.Goal = nullFloat(goal)
	t.Progress = nullFloat(progress)
	t.OriginalGoal = nullFloat(origGoal)
	t.CurrentGoal = nullFloat(currGoal)
	t.ProgressRecords = nonNil(records)
	t.JournalEntries = nonNil(journals)
	return t, nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, t *Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}

	row := s.DB.QueryRowContext(ctx, `
		INSERT INTO tasks (
			id, user_id, title, description, category, emoji, color, type, status,
			goal, progress, original_goal, current_goal, streak
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at
	`,
		t.ID, t.UserID, t.Title, t.Description, t.Category, t.Emoji, t.Color, t.Type, t.Status,
		t.Goal, t.Progress, t.OriginalGoal, t.CurrentGoal, t.Streak,
	)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return errPersist("insert task", err)
	}
	return nil
}

func (s *PostgresStore) GetTask(ctx context.Context, userID, taskID string) (*Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, errTaskNotFound(taskID)
	}
	row := s.DB.QueryRowContext(ctx, `SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`, taskID, userID)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errTaskNotFound(taskID)
	}
	if err != nil {
		return nil, errPersist("select task", err)
	}
	return &t, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, errPersist("list tasks", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, errPersist("scan task", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errPersist("list tasks", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateTask(ctx context.Context, userID, taskID string, u Update) (*Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, errTaskNotFound(taskID)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, errPersist("begin", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, taskID, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errTaskNotFound(taskID)
	}
	if err != nil {
		return nil, errPersist("select task", err)
	}

	u.Apply(&t)
	if err := t.Validate(); err != nil {
		return nil, err
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE tasks
		SET title=$1, description=$2, status=$3, goal=$4, progress=$5, current_goal=$6, streak=$7, updated_at=now()
		WHERE id=$8 AND user_id=$9
		RETURNING updated_at
	`, t.Title, t.Description, t.Status, t.Goal, t.Progress, t.CurrentGoal, t.Streak, taskID, userID).Scan(&t.UpdatedAt)
	if err != nil {
		return nil, errPersist("update task", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errPersist("commit", err)
	}
	return &t, nil
}

// DeleteTask removes the task with its journal entries. Progress records
// go with it through ON DELETE CASCADE.
func (s *PostgresStore) DeleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := uuid.Parse(taskID); err != nil {
		return errTaskNotFound(taskID)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return errPersist("begin", err)
	}
	defer tx.Rollback()

	var journals []string
	err = tx.QueryRowContext(ctx, `
		DELETE FROM tasks WHERE id=$1 AND user_id=$2
		RETURNING journal_entries
	`, taskID, userID).Scan(pq.Array(&journals))
	if errors.Is(err, sql.ErrNoRows) {
		return errTaskNotFound(taskID)
	}
	if err != nil {
		return errPersist("delete task", err)
	}

	if len(journals) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ANY($1::uuid[])`, pq.Array(journals)); err != nil {
			return errPersist("delete journal entries", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errPersist("commit", err)
	}
	return nil
}

func (s *PostgresStore) AddJournalEntry(ctx context.Context, userID, taskID string, e *JournalEntry) error {
	if _, err := uuid.Parse(taskID); err != nil {
		return errTaskNotFound(taskID)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.UserID = userID
	e.IsTaskJournal = true

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return errPersist("begin", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO journal_entries (id, user_id, title, content, is_task_journal)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING created_at, updated_at
	`, e.ID, userID, e.Title, e.Content).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return errPersist("insert journal entry", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET journal_entries = array_append(journal_entries, $1::uuid), updated_at = now()
		WHERE id = $2 AND user_id = $3
	`, e.ID, taskID, userID)
	if err != nil {
		return errPersist("append journal entry", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errTaskNotFound(taskID)
	}
	if err := tx.Commit(); err != nil {
		return errPersist("commit", err)
	}
	return nil
}

func (s *PostgresStore) JournalContents(ctx context.Context, userID, taskID string) ([]string, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, errTaskNotFound(taskID)
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT j.content
		FROM tasks t
		CROSS JOIN LATERAL unnest(t.journal_entries) WITH ORDINALITY AS e(id, ord)
		JOIN journal_entries j ON j.id = e.id
		WHERE t.id = $1 AND t.user_id = $2
		ORDER BY e.ord
	`, taskID, userID)
	if err != nil {
		return nil, errPersist("select journal entries", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, errPersist("scan journal entry", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errPersist("select journal entries", err)
	}
	return out, nil
}

func (s *PostgresStore) AppendProgressRecord(ctx context.Context, rec *ProgressRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now().UTC()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return errPersist("begin", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO progress_records (id, task_id, user_id, date, progress, is_completed, ai_score, ai_feedback)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, rec.ID, rec.TaskID, rec.UserID, rec.Date, rec.Progress, rec.IsCompleted, rec.AIScore, rec.AIFeedback).Scan(&rec.CreatedAt)
	if err != nil {
		return errPersist("insert progress record", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET progress_records = array_append(progress_records, $1::uuid), updated_at = now()
		WHERE id = $2 AND user_id = $3
	`, rec.ID, rec.TaskID, rec.UserID)
	if err != nil {
		return errPersist("append progress record", err)
	}
	if affected, _ := res.RowsAffected(); affected != 1 {
		return errPersist("append progress record", fmt.Errorf("task %s: %d rows updated", rec.TaskID, affected))
	}

	if err := tx.Commit(); err != nil {
		return errPersist("commit", err)
	}
	return nil
}

func (s *PostgresStore) ProgressSince(ctx context.Context, userID string, since time.Time) ([]ScoredRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT
			p.id, p.task_id, p.user_id, p.date, p.progress, p.is_completed, p.ai_score, p.ai_feedback, p.created_at,
			t.title, t.category, t.type, t.status, t.goal, t.progress, t.current_goal
		FROM progress_records p
		JOIN tasks t ON t.id = p.task_id
		WHERE p.user_id = $1 AND p.date >= $2
		ORDER BY p.date, p.created_at
	`, userID, since)
	if err != nil {
		return nil, errPersist("select progress records", err)
	}
	defer rows.Close()

	var out []ScoredRecord
	for rows.Next() {
		var (
			r                              ScoredRecord
			snap, goal, progress, currGoal sql.NullFloat64
		)
		if err := rows.Scan(
			&r.ID, &r.TaskID, &r.UserID, &r.Date, &snap, &r.IsCompleted, &r.AIScore, &r.AIFeedback, &r.CreatedAt,
			&r.Task.Title, &r.Task.Category, &r.Task.Type, &r.Task.Status, &goal, &progress, &currGoal,
		); err != nil {
			return nil, errPersist("scan progress record", err)
		}
		r.Progress = nullFloat(snap)
		r.Task.ID = r.TaskID
		r.Task.UserID = r.UserID
		r.Task.Goal = nullFloat(goal)
		r.Task.Progress = nullFloat(progress)
		r.Task.CurrentGoal = nullFloat(currGoal)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errPersist("select progress records", err)
	}
	return out, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
