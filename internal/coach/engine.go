// Package coach runs the scoring and recommendation flows: prompt, oracle,
// extraction, validation, deterministic classification, persistence.
package coach

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"habit-coach-backend/internal/ai"
	"habit-coach-backend/internal/analytics"
	"habit-coach-backend/internal/apperr"
	"habit-coach-backend/internal/tasks"
)

const (
	// RecommendationWindow is how far back recommend-existing looks.
	RecommendationWindow = 7 * 24 * time.Hour
)

type Engine struct {
	Store    tasks.Store
	Gateway  *ai.Gateway
	Recorder *Recorder
	Events   analytics.Sink
	Log      *zap.Logger
	Now      func() time.Time
}

func NewEngine(store tasks.Store, gateway *ai.Gateway, events analytics.Sink, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if events == nil {
		events = analytics.LogSink{Logger: log}
	}
	e := &Engine{
		Store:   store,
		Gateway: gateway,
		Events:  events,
		Log:     log,
		Now:     time.Now,
	}
	// Records are dated by the engine clock, like the recommendation window.
	e.Recorder = &Recorder{Store: store, Now: func() time.Time { return e.Now() }}
	return e
}

// NewTask is a task as submitted, before categorization.
type NewTask struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        tasks.TaskType `json:"type"`
	Goal        *float64       `json:"goal"`
}

func (n NewTask) validate() error {
	invalid := func(msg string) error {
		return apperr.New(apperr.KindInvalidInput, ai.OpCategorize, msg)
	}
	if strings.TrimSpace(n.Title) == "" {
		return invalid("title is required")
	}
	if !n.Type.Valid() {
		return invalid("type must be one-time or continuous")
	}
	if n.Type == tasks.TypeContinuous && (n.Goal == nil || *n.Goal <= 0) {
		return invalid("continuous tasks need a positive goal")
	}
	return nil
}

// CategorizeTask asks the oracle for a category, emoji and color and stores
// the new task with them.
func (e *Engine) CategorizeTask(ctx context.Context, userID string, in NewTask) (*tasks.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	prompt := ai.BuildCategorizePrompt(ai.TaskDraft{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
	})
	raw, err := e.Gateway.Ask(ctx, ai.OpCategorize, prompt)
	if err != nil {
		return nil, err
	}
	cat, err := ai.ParseCategorization(raw)
	if err != nil {
		return nil, err
	}

	t := &tasks.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    cat.Category,
		Emoji:       cat.Emoji,
		Color:       cat.Color,
		Type:        in.Type,
		Status:      tasks.StatusPending,
	}
	if in.Type == tasks.TypeContinuous {
		goal := *in.Goal
		t.Goal = tasks.Float(goal)
		t.Progress = tasks.Float(0)
		t.OriginalGoal = tasks.Float(goal)
		t.CurrentGoal = tasks.Float(goal)
	}
	if err := e.Store.CreateTask(ctx, t); err != nil {
		return nil, err
	}

	e.emit(ctx, userID, analytics.EventTaskCreated, map[string]any{
		"task_id":  t.ID,
		"type":     string(t.Type),
		"category": t.Category,
	})
	return t, nil
}

// ScoreProgress scores the task's current state against its journal and
// records the result. The oracle's score is clamped into the band the
// task's state allows.
func (e *Engine) ScoreProgress(ctx context.Context, userID, taskID string) (*tasks.ProgressRecord, error) {
	task, err := e.Store.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	journal, err := e.Store.JournalContents(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	raw, err := e.Gateway.Ask(ctx, ai.OpScore, ai.BuildScorePrompt(*task, journal))
	if err != nil {
		return nil, err
	}
	report, err := ai.ParseScoreReport(raw)
	if err != nil {
		return nil, err
	}

	band := analytics.ScoreBand(*task, len(journal) > 0)
	if clamped := band.Clamp(report.Score); clamped != report.Score {
		e.Log.Debug("oracle score outside band",
			zap.String("task_id", task.ID),
			zap.Int("score", report.Score),
			zap.Int("band_min", band.Min),
			zap.Int("band_max", band.Max),
		)
		report.Score = clamped
	}

	rec, err := e.Recorder.Record(ctx, *task, report)
	if err != nil {
		return nil, err
	}

	e.emit(ctx, userID, analytics.EventProgressScored, map[string]any{
		"task_id":    task.ID,
		"score_tier": analytics.ScoreTier(rec.AIScore),
		"completed":  rec.IsCompleted,
	})
	return rec, nil
}

// Recommendation is the merged outcome for one task.
type Recommendation struct {
	TaskID       string              `json:"taskId"`
	Title        string              `json:"title"`
	Suggestion   *string             `json:"suggestion"`
	Reason       string              `json:"reason"`
	Tier         analytics.Tier      `json:"tier"`
	Trend        analytics.Direction `json:"trend"`
	AverageScore float64             `json:"averageScore"`
}

type taskHistory struct {
	task     tasks.Task
	scores   []int
	feedback []string
}

// RecommendExisting reviews the last week of scores. Tier, trend and the
// suggestion are computed here; the oracle only words the reason.
func (e *Engine) RecommendExisting(ctx context.Context, userID string) ([]Recommendation, error) {
	since := e.Now().Add(-RecommendationWindow)
	records, err := e.Store.ProgressSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.New(apperr.KindNoHistory, ai.OpRecommendExisting, "no progress records in the last 7 days")
	}

	var order []string
	byTask := make(map[string]*taskHistory)
	all := make([]int, 0, len(records))
	for _, r := range records {
		h, ok := byTask[r.TaskID]
		if !ok {
			h = &taskHistory{task: r.Task}
			byTask[r.TaskID] = h
			order = append(order, r.TaskID)
		}
		h.scores = append(h.scores, r.AIScore)
		if r.AIFeedback != "" {
			h.feedback = append(h.feedback, r.AIFeedback)
		}
		all = append(all, r.AIScore)
	}
	overall := analytics.Average(all)

	recs := make([]Recommendation, 0, len(order))
	perf := make([]ai.TaskPerformance, 0, len(order))
	for _, id := range order {
		h := byTask[id]
		avg := analytics.Average(h.scores)
		recent := analytics.Recent(h.scores, analytics.TrendWindow)
		tier := analytics.TierFor(avg, overall)
		trend := analytics.Trend(h.scores)
		policy := analytics.Suggest(tier, trend, h.task)

		recs = append(recs, Recommendation{
			TaskID:       id,
			Title:        h.task.Title,
			Suggestion:   policy.Text,
			Reason:       policy.Reason,
			Tier:         tier,
			Trend:        trend,
			AverageScore: avg,
		})
		perf = append(perf, ai.TaskPerformance{
			TaskID:   id,
			Title:    h.task.Title,
			Type:     h.task.Type,
			Goal:     h.task.EffectiveGoal(),
			Average:  avg,
			Recent:   recent,
			Feedback: lastN(h.feedback, analytics.TrendWindow),
			Tier:     string(tier),
			Trend:    string(trend),
		})
	}

	prompt := ai.BuildRecommendExistingPrompt(ai.ExistingInput{
		WindowStart:    since,
		OverallAverage: overall,
		Tasks:          perf,
	})
	raw, err := e.Gateway.Ask(ctx, ai.OpRecommendExisting, prompt)
	if err != nil {
		return nil, err
	}
	replies, err := ai.ParseRecommendations(raw)
	if err != nil {
		return nil, err
	}

	recs = mergeReplies(recs, replies)

	changes := 0
	for _, r := range recs {
		if r.Suggestion != nil {
			changes++
		}
	}
	e.emit(ctx, userID, analytics.EventRecommendationsGenerated, map[string]any{
		"tasks":   len(recs),
		"changes": changes,
	})
	return recs, nil
}

// mergeReplies takes the oracle's reason where it gave a non-empty one.
// Suggestions always stay with the policy; replies for unknown tasks are
// ignored.
func mergeReplies(recs []Recommendation, replies []ai.RecommendationReply) []Recommendation {
	index := make(map[string]int, len(recs))
	for i, r := range recs {
		index[r.TaskID] = i
	}
	for _, reply := range replies {
		i, ok := index[reply.TaskID]
		if !ok {
			continue
		}
		if reason := strings.TrimSpace(reply.Reason); reason != "" {
			recs[i].Reason = reason
		}
	}
	return recs
}

// RecommendNewTasks suggests three tasks from categories the user has not
// used yet. When every category is taken it returns an empty list without
// asking the oracle.
func (e *Engine) RecommendNewTasks(ctx context.Context, userID string) ([]ai.NewTaskSuggestion, error) {
	list, err := e.Store.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	available := tasks.UnusedCategories(list)
	if len(available) == 0 {
		return []ai.NewTaskSuggestion{}, nil
	}

	raw, err := e.Gateway.Ask(ctx, ai.OpRecommendNew, ai.BuildNewTasksPrompt(available))
	if err != nil {
		return nil, err
	}
	out, err := ai.ParseNewTasks(raw)
	if err != nil {
		return nil, err
	}

	e.emit(ctx, userID, analytics.EventNewTasksSuggested, map[string]any{
		"available_categories": len(available),
	})
	return out, nil
}

// RecommendNewCategories suggests five categories outside the ones the
// user's tasks already use.
func (e *Engine) RecommendNewCategories(ctx context.Context, userID string) ([]ai.CategorySuggestion, error) {
	list, err := e.Store.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing := tasks.DistinctCategories(list)

	raw, err := e.Gateway.Ask(ctx, ai.OpRecommendCategories, ai.BuildNewCategoriesPrompt(existing))
	if err != nil {
		return nil, err
	}
	out, err := ai.ParseNewCategories(raw, existing)
	if err != nil {
		return nil, err
	}

	e.emit(ctx, userID, analytics.EventNewCategoriesSuggested, map[string]any{
		"existing_categories": len(existing),
	})
	return out, nil
}

// JournalInput is a task journal entry as submitted.
type JournalInput struct {
	TaskID  string `json:"taskId"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AddJournalEntry stores a task journal entry and links it to the task.
func (e *Engine) AddJournalEntry(ctx context.Context, userID string, in JournalInput) (*tasks.JournalEntry, error) {
	if strings.TrimSpace(in.TaskID) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "add-journal-entry", "taskId is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "add-journal-entry", "content is required")
	}

	entry := &tasks.JournalEntry{
		UserID:        userID,
		Title:         strings.TrimSpace(in.Title),
		Content:       strings.TrimSpace(in.Content),
		IsTaskJournal: true,
	}
	if err := e.Store.AddJournalEntry(ctx, userID, in.TaskID, entry); err != nil {
		return nil, err
	}

	e.emit(ctx, userID, analytics.EventJournalEntryAdded, map[string]any{
		"task_id": in.TaskID,
		"length":  len(entry.Content),
	})
	return entry, nil
}

// emit records an event; a failing sink is logged and otherwise ignored.
func (e *Engine) emit(ctx context.Context, userID, name string, props map[string]any) {
	env := analytics.EnvelopeFrom(ctx)
	env.UserID = userID
	if err := e.Events.Log(ctx, env, name, props); err != nil {
		e.Log.Warn("analytics event dropped", zap.String("event", name), zap.Error(err))
	}
}

func lastN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
