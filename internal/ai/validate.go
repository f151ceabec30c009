package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"habit-coach-backend/internal/apperr"
	"habit-coach-backend/internal/tasks"
)

const (
	NewTaskCount     = 3
	NewCategoryCount = 5
)

// ScoreReport is a validated score-progress reply.
type ScoreReport struct {
	Score    int
	Feedback string
}

// Categorization is a validated categorize-task reply. Category is the
// canonical name from the fixed list.
type Categorization struct {
	Category string `json:"category"`
	Emoji    string `json:"emoji"`
	Color    string `json:"color"`
}

// NewTaskSuggestion is one validated recommend-new reply element.
type NewTaskSuggestion struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Type        tasks.TaskType `json:"type"`
	Goal        *float64       `json:"goal,omitempty"`
	Progress    *float64       `json:"progress,omitempty"`
	Category    string         `json:"category"`
	Reason      string         `json:"reason"`
}

type CategorySuggestion struct {
	Category string `json:"category"`
}

// RecommendationReply is one recommend-existing reply element as the
// oracle wrote it. It is merged with the deterministic policy later.
type RecommendationReply struct {
	TaskID     string
	Title      string
	Suggestion *string
	Reason     string
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// fields is a decoded JSON object whose values are checked one by one, so a
// wrong value type is a structure error and not a parse error.
type fields map[string]json.RawMessage

// present reports whether key exists with a non-null value.
func (f fields) present(key string) bool {
	raw, ok := f[key]
	return ok && strings.TrimSpace(string(raw)) != "null"
}

func (f fields) str(key string) (string, bool) {
	raw, ok := f[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (f fields) num(key string) (float64, bool) {
	raw, ok := f[key]
	if !ok {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

func decodeObject(op, raw, span string) (fields, error) {
	var f fields
	if err := json.Unmarshal([]byte(span), &f); err != nil {
		return nil, apperr.Wrap(apperr.KindOracleJSONParse, op, err).WithRaw(raw)
	}
	if f == nil {
		return nil, apperr.New(apperr.KindOracleJSONParse, op, "reply is null").WithRaw(raw)
	}
	return f, nil
}

// decodeArray parses span as an array of objects. A non-object element is
// reported with kind.
func decodeArray(op, raw, span string, kind apperr.Kind) ([]fields, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(span), &items); err != nil {
		return nil, apperr.Wrap(apperr.KindOracleJSONParse, op, err).WithRaw(raw)
	}
	out := make([]fields, 0, len(items))
	for i, item := range items {
		var f fields
		if err := json.Unmarshal(item, &f); err != nil || f == nil {
			return nil, apperr.New(kind, op, fmt.Sprintf("element %d is not an object", i)).WithRaw(raw)
		}
		out = append(out, f)
	}
	return out, nil
}

// ParseScoreReport extracts and validates a score-progress reply. The score
// must be a number in [0,100] and is rounded; feedback must be non-empty.
// "aiFeedback" is accepted for "feedback".
func ParseScoreReport(raw string) (ScoreReport, error) {
	span, err := ExtractObject(OpScore, raw)
	if err != nil {
		return ScoreReport{}, err
	}
	f, err := decodeObject(OpScore, raw, span)
	if err != nil {
		return ScoreReport{}, err
	}

	incomplete := func(msg string) error {
		return apperr.New(apperr.KindIncompleteOracleReport, OpScore, msg).WithRaw(raw)
	}

	score, ok := f.num("score")
	if !ok {
		return ScoreReport{}, incomplete("score missing or not a number")
	}
	if math.IsNaN(score) || score < 0 || score > 100 {
		return ScoreReport{}, incomplete(fmt.Sprintf("score %v out of range", score))
	}

	feedback, ok := f.str("feedback")
	if !ok || strings.TrimSpace(feedback) == "" {
		feedback, ok = f.str("aiFeedback")
	}
	feedback = strings.TrimSpace(feedback)
	if !ok || feedback == "" {
		return ScoreReport{}, incomplete("feedback missing")
	}

	return ScoreReport{Score: int(math.Round(score)), Feedback: feedback}, nil
}

// ParseCategorization extracts and validates a categorize-task reply.
func ParseCategorization(raw string) (Categorization, error) {
	span, err := ExtractObject(OpCategorize, raw)
	if err != nil {
		return Categorization{}, err
	}
	f, err := decodeObject(OpCategorize, raw, span)
	if err != nil {
		return Categorization{}, err
	}

	invalid := func(msg string) error {
		return apperr.New(apperr.KindInvalidCategoryStructure, OpCategorize, msg).WithRaw(raw)
	}

	name, _ := f.str("category")
	cat, ok := tasks.LookupCategory(strings.TrimSpace(name))
	if !ok {
		return Categorization{}, invalid(fmt.Sprintf("unknown category %q", name))
	}
	color, _ := f.str("color")
	color = strings.TrimSpace(color)
	if !hexColor.MatchString(color) {
		return Categorization{}, invalid(fmt.Sprintf("color %q is not a hex color", color))
	}
	emoji, _ := f.str("emoji")
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return Categorization{}, invalid("emoji missing")
	}

	return Categorization{Category: cat.Name, Emoji: emoji, Color: color}, nil
}

// ParseNewTasks extracts and validates a recommend-new reply: exactly three
// tasks, continuous ones with a positive goal, one-time ones with neither
// goal nor progress. A continuous task without progress starts at 0.
func ParseNewTasks(raw string) ([]NewTaskSuggestion, error) {
	span, err := ExtractArray(OpRecommendNew, raw)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(OpRecommendNew, raw, span, apperr.KindInvalidTaskStructure)
	if err != nil {
		return nil, err
	}

	invalid := func(i int, msg string) error {
		return apperr.New(apperr.KindInvalidTaskStructure, OpRecommendNew,
			fmt.Sprintf("task %d: %s", i, msg)).WithRaw(raw)
	}

	if len(items) != NewTaskCount {
		return nil, apperr.New(apperr.KindInvalidTaskStructure, OpRecommendNew,
			fmt.Sprintf("expected %d tasks, got %d", NewTaskCount, len(items))).WithRaw(raw)
	}

	out := make([]NewTaskSuggestion, 0, len(items))
	for i, f := range items {
		var s NewTaskSuggestion

		title, _ := f.str("title")
		s.Title = strings.TrimSpace(title)
		if s.Title == "" {
			return nil, invalid(i, "title missing")
		}
		typ, _ := f.str("type")
		s.Type = tasks.TaskType(strings.ToLower(strings.TrimSpace(typ)))
		if !s.Type.Valid() {
			return nil, invalid(i, fmt.Sprintf("type %q", typ))
		}
		s.Description, _ = f.str("description")
		s.Category, _ = f.str("category")
		s.Reason, _ = f.str("reason")

		switch s.Type {
		case tasks.TypeContinuous:
			goal, ok := f.num("goal")
			if !ok || goal <= 0 {
				return nil, invalid(i, "continuous task needs a positive goal")
			}
			s.Goal = tasks.Float(goal)
			progress := 0.0
			if f.present("progress") {
				if progress, ok = f.num("progress"); !ok || progress < 0 {
					return nil, invalid(i, "progress is not a non-negative number")
				}
			}
			s.Progress = tasks.Float(progress)
		case tasks.TypeOneTime:
			if f.present("goal") || f.present("progress") {
				return nil, invalid(i, "one-time task carries goal or progress")
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseNewCategories extracts and validates a recommend-categories reply:
// exactly five names, none already in existing (case-insensitive) and no
// repeats.
func ParseNewCategories(raw string, existing []string) ([]CategorySuggestion, error) {
	span, err := ExtractArray(OpRecommendCategories, raw)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(OpRecommendCategories, raw, span, apperr.KindInvalidCategoryStructure)
	if err != nil {
		return nil, err
	}

	invalid := func(msg string) error {
		return apperr.New(apperr.KindInvalidCategoryStructure, OpRecommendCategories, msg).WithRaw(raw)
	}

	if len(items) != NewCategoryCount {
		return nil, invalid(fmt.Sprintf("expected %d categories, got %d", NewCategoryCount, len(items)))
	}

	seen := make(map[string]bool, len(existing)+len(items))
	for _, name := range existing {
		seen[strings.ToLower(strings.TrimSpace(name))] = true
	}

	out := make([]CategorySuggestion, 0, len(items))
	for i, f := range items {
		name, _ := f.str("category")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, invalid(fmt.Sprintf("category %d missing", i))
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, invalid(fmt.Sprintf("category %q is not new", name))
		}
		seen[key] = true
		out = append(out, CategorySuggestion{Category: name})
	}
	return out, nil
}

// ParseRecommendations extracts and validates a recommend-existing reply.
func ParseRecommendations(raw string) ([]RecommendationReply, error) {
	span, err := ExtractArray(OpRecommendExisting, raw)
	if err != nil {
		return nil, err
	}
	items, err := decodeArray(OpRecommendExisting, raw, span, apperr.KindIncompleteOracleReport)
	if err != nil {
		return nil, err
	}

	incomplete := func(i int, msg string) error {
		return apperr.New(apperr.KindIncompleteOracleReport, OpRecommendExisting,
			fmt.Sprintf("recommendation %d: %s", i, msg)).WithRaw(raw)
	}

	out := make([]RecommendationReply, 0, len(items))
	for i, f := range items {
		var r RecommendationReply

		id, _ := f.str("taskId")
		r.TaskID = strings.TrimSpace(id)
		if r.TaskID == "" {
			return nil, incomplete(i, "taskId missing")
		}
		reason, ok := f.str("reason")
		if !ok {
			return nil, incomplete(i, "reason missing")
		}
		r.Reason = strings.TrimSpace(reason)
		r.Title, _ = f.str("title")

		if f.present("suggestion") {
			s, ok := f.str("suggestion")
			if !ok {
				return nil, incomplete(i, "suggestion is neither text nor null")
			}
			r.Suggestion = &s
		}
		out = append(out, r)
	}
	return out, nil
}
