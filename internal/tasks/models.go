package tasks

import (
	"strings"
	"time"
)

type TaskType string

const (
	TypeOneTime    TaskType = "one-time"
	TypeContinuous TaskType = "continuous"
)

func (t TaskType) Valid() bool {
	return t == TypeOneTime || t == TypeContinuous
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is a habit or a one-off goal. Goal and Progress are nil for
// one-time tasks; Normalize enforces that.
type Task struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category"`
	Emoji           string    `json:"emoji,omitempty"`
	Color           string    `json:"color"`
	Type            TaskType  `json:"type"`
	Status          Status    `json:"status"`
	Goal            *float64  `json:"goal,omitempty"`
	Progress        *float64  `json:"progress,omitempty"`
	OriginalGoal    *float64  `json:"originalGoal,omitempty"`
	CurrentGoal     *float64  `json:"currentGoal,omitempty"`
	Streak          int       `json:"streak"`
	ProgressRecords []string  `json:"progressRecords"`
	JournalEntries  []string  `json:"journalEntries"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Normalize drops goal/progress from one-time tasks and starts continuous
// tasks at zero progress.
func (t *Task) Normalize() {
	if t.Status == "" {
		t.Status = StatusPending
	}
	switch t.Type {
	case TypeOneTime:
		t.Goal = nil
		t.Progress = nil
		t.OriginalGoal = nil
		t.CurrentGoal = nil
	case TypeContinuous:
		if t.Progress == nil {
			zero := 0.0
			t.Progress = &zero
		}
	}
	if t.ProgressRecords == nil {
		t.ProgressRecords = []string{}
	}
	if t.JournalEntries == nil {
		t.JournalEntries = []string{}
	}
}

// Validate checks the fields a caller must supply.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errMissing("title")
	}
	if !t.Type.Valid() {
		return errInvalid("type", string(t.Type))
	}
	if !t.Status.Valid() {
		return errInvalid("status", string(t.Status))
	}
	if t.Type == TypeContinuous && (t.Goal == nil || *t.Goal <= 0) {
		return errMissing("goal for continuous task")
	}
	if t.Type == TypeOneTime && (t.Goal != nil || t.Progress != nil) {
		return errInvalid("goal", "one-time tasks carry no goal or progress")
	}
	return nil
}

// Completion is progress/goal capped at 100, in percent. ok is false for
// tasks without a goal.
func (t *Task) Completion() (pct float64, ok bool) {
	if t.Goal == nil || *t.Goal <= 0 {
		return 0, false
	}
	p := 0.0
	if t.Progress != nil {
		p = *t.Progress
	}
	pct = p * 100 / *t.Goal
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct, true
}

// EffectiveGoal is the goal currently in force.
func (t *Task) EffectiveGoal() *float64 {
	if t.CurrentGoal != nil {
		return t.CurrentGoal
	}
	return t.Goal
}

type JournalEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user"`
	Title         string    `json:"title,omitempty"`
	Content       string    `json:"content"`
	IsTaskJournal bool      `json:"isTaskJournal"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProgressRecord is one scoring of a task. Never updated after insert.
type ProgressRecord struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task"`
	UserID      string    `json:"user"`
	Date        time.Time `json:"date"`
	Progress    *float64  `json:"progress"`
	IsCompleted bool      `json:"isCompleted"`
	AIScore     int       `json:"aiScore"`
	AIFeedback  string    `json:"aiFeedback"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ScoredRecord is a progress record joined with the task fields the
// recommendation pass needs.
type ScoredRecord struct {
	ProgressRecord
	Task Task
}

// Update is a partial task modification. Nil fields are left alone.
type Update struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      *Status  `json:"status,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
	CurrentGoal *float64 `json:"currentGoal,omitempty"`
	Streak      *int     `json:"streak,omitempty"`
}

// Apply mutates t with the non-nil fields of u.
func (u Update) Apply(t *Task) {
	if u.Title != nil {
		t.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		t.Description = strings.TrimSpace(*u.Description)
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if t.Type == TypeContinuous {
		if u.Progress != nil {
			t.Progress = u.Progress
		}
		if u.CurrentGoal != nil {
			t.CurrentGoal = u.CurrentGoal
			t.Goal = u.CurrentGoal
		}
	}
	if u.Streak != nil {
		t.Streak = *u.Streak
	}
}

func Float(v float64) *float64 { return &v }
