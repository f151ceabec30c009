package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-coach-backend/internal/apperr"
	"habit-coach-backend/internal/tasks"
)

func TestExtract_RoundTrip(t *testing.T) {
	payload := map[string]any{"score": 58.0, "feedback": "Close the inbox first."}
	encoded, err := json.Marshal(payload)
	require.NoError(t, err)

	wrappings := []struct{ prefix, suffix string }{
		{"", ""},
		{"Here is the report:\n```json\n", "\n```"},
		{"Sure thing! ", " Let me know if you need anything else."},
		{"\n\n\t", "\n"},
	}
	for _, w := range wrappings {
		span, err := ExtractObject(OpScore, w.prefix+string(encoded)+w.suffix)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(span), &got))
		assert.Equal(t, payload, got)
	}

	arr := `[{"category":"A"},{"category":"B"}]`
	span, err := ExtractArray(OpRecommendCategories, "Categories: "+arr+" Enjoy.")
	require.NoError(t, err)
	assert.Equal(t, arr, span)
}

func TestExtract_NoSpan(t *testing.T) {
	for _, raw := range []string{"", "I cannot help with that.", "} backwards {"} {
		_, err := ExtractObject(OpScore, raw)
		require.Error(t, err)
		assert.Equal(t, apperr.KindMalformedOracleOutput, apperr.KindOf(err))
		assert.Equal(t, raw, apperr.RawOf(err))
		assert.Equal(t, OpScore, apperr.OpOf(err))
	}

	_, err := ExtractArray(OpRecommendNew, `{"title":"no array here"}`)
	assert.Equal(t, apperr.KindMalformedOracleOutput, apperr.KindOf(err))
}

func TestParseScoreReport(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     ScoreReport
		wantKind apperr.Kind
	}{
		{"plain", `{"score": 72, "feedback": "Solid."}`, ScoreReport{72, "Solid."}, apperr.KindUnknown},
		{"rounded", `{"score": 71.6, "feedback": "Solid."}`, ScoreReport{72, "Solid."}, apperr.KindUnknown},
		{"alias", "```json\n{\"score\": 40, \"aiFeedback\": \"Do more.\"}\n```", ScoreReport{40, "Do more."}, apperr.KindUnknown},
		{"no braces", "score: 40", ScoreReport{}, apperr.KindMalformedOracleOutput},
		{"broken json", `{"score": 40, "feedback": }`, ScoreReport{}, apperr.KindOracleJSONParse},
		{"missing score", `{"feedback": "x"}`, ScoreReport{}, apperr.KindIncompleteOracleReport},
		{"string score", `{"score": "40", "feedback": "x"}`, ScoreReport{}, apperr.KindIncompleteOracleReport},
		{"score too high", `{"score": 140, "feedback": "x"}`, ScoreReport{}, apperr.KindIncompleteOracleReport},
		{"negative score", `{"score": -1, "feedback": "x"}`, ScoreReport{}, apperr.KindIncompleteOracleReport},
		{"empty feedback", `{"score": 50, "feedback": "  "}`, ScoreReport{}, apperr.KindIncompleteOracleReport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScoreReport(tt.raw)
			if tt.wantKind == apperr.KindUnknown {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			assert.Equal(t, tt.raw, apperr.RawOf(err))
		})
	}
}

func TestParseCategorization(t *testing.T) {
	got, err := ParseCategorization(`Result: {"category": "health & fitness", "emoji": "🏃", "color": "#2E8B57"}`)
	require.NoError(t, err)
	assert.Equal(t, Categorization{Category: "Health & Fitness", Emoji: "🏃", Color: "#2E8B57"}, got)

	bad := []string{
		`{"category": "Astrology", "emoji": "🔮", "color": "#123456"}`,
		`{"category": "Work", "emoji": "💼", "color": "blue"}`,
		`{"category": "Work", "emoji": "", "color": "#fff"}`,
		`{"category": 7, "emoji": "💼", "color": "#fff"}`,
	}
	for _, raw := range bad {
		_, err := ParseCategorization(raw)
		assert.Equal(t, apperr.KindInvalidCategoryStructure, apperr.KindOf(err), raw)
	}
}

const validNewTasks = `[
  {"title": "Organize Desk", "type": "one-time", "category": "Productivity", "reason": "Focus."},
  {"title": "Run 5km", "type": "continuous", "goal": 5, "category": "Health & Fitness", "reason": "Stamina."},
  {"title": "Meditate", "type": "continuous", "goal": 10, "progress": 2, "category": "Self-care", "reason": "Calm."}
]`

func TestParseNewTasks(t *testing.T) {
	got, err := ParseNewTasks("Here you go:\n" + validNewTasks)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, tasks.TypeOneTime, got[0].Type)
	assert.Nil(t, got[0].Goal)
	assert.Nil(t, got[0].Progress)

	require.NotNil(t, got[1].Progress)
	assert.Equal(t, 0.0, *got[1].Progress, "missing progress defaults to 0")
	assert.Equal(t, 5.0, *got[1].Goal)
	assert.Equal(t, 2.0, *got[2].Progress)
}

func TestParseNewTasks_Rejects(t *testing.T) {
	tests := map[string]string{
		"two tasks": `[
  {"title": "A", "type": "one-time"},
  {"title": "B", "type": "one-time"}]`,
		"continuous without goal": `[
  {"title": "A", "type": "continuous"},
  {"title": "B", "type": "one-time"},
  {"title": "C", "type": "one-time"}]`,
		"continuous zero goal": `[
  {"title": "A", "type": "continuous", "goal": 0},
  {"title": "B", "type": "one-time"},
  {"title": "C", "type": "one-time"}]`,
		"one-time with progress": `[
  {"title": "A", "type": "one-time", "progress": 3},
  {"title": "B", "type": "one-time"},
  {"title": "C", "type": "one-time"}]`,
		"one-time with goal": `[
  {"title": "A", "type": "one-time", "goal": 3},
  {"title": "B", "type": "one-time"},
  {"title": "C", "type": "one-time"}]`,
		"bad type": `[
  {"title": "A", "type": "daily"},
  {"title": "B", "type": "one-time"},
  {"title": "C", "type": "one-time"}]`,
		"missing title": `[
  {"type": "one-time"},
  {"title": "B", "type": "one-time"},
  {"title": "C", "type": "one-time"}]`,
		"not objects": `["a", "b", "c"]`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseNewTasks(raw)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidTaskStructure, apperr.KindOf(err))
		})
	}
}

func TestParseNewTasks_NullGoalOnOneTimeIsAbsent(t *testing.T) {
	raw := `[
  {"title": "A", "type": "one-time", "goal": null, "progress": null},
  {"title": "B", "type": "one-time"},
  {"title": "C", "type": "one-time"}]`
	got, err := ParseNewTasks(raw)
	require.NoError(t, err)
	assert.Nil(t, got[0].Goal)
}

func TestParseNewCategories(t *testing.T) {
	raw := `[{"category":"Digital Detox"},{"category":"Language Learning"},{"category":"Gardening"},{"category":"Volunteering"},{"category":"Cooking"}]`
	got, err := ParseNewCategories(raw, []string{"Work", "Hobby"})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "Digital Detox", got[0].Category)

	tests := map[string]struct {
		raw      string
		existing []string
	}{
		"four": {`[{"category":"A"},{"category":"B"},{"category":"C"},{"category":"D"}]`, nil},
		"six":  {`[{"category":"A"},{"category":"B"},{"category":"C"},{"category":"D"},{"category":"E"},{"category":"F"}]`, nil},
		"already used": {
			`[{"category":"work"},{"category":"B"},{"category":"C"},{"category":"D"},{"category":"E"}]`,
			[]string{"Work"},
		},
		"duplicate": {`[{"category":"A"},{"category":"a"},{"category":"C"},{"category":"D"},{"category":"E"}]`, nil},
		"empty":     {`[{"category":""},{"category":"B"},{"category":"C"},{"category":"D"},{"category":"E"}]`, nil},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseNewCategories(tt.raw, tt.existing)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidCategoryStructure, apperr.KindOf(err))
		})
	}
}

func TestParseRecommendations(t *testing.T) {
	raw := "```json\n" + `[
  {"taskId": "t1", "title": "Write", "suggestion": "Try 800 words.", "reason": "Dipping."},
  {"taskId": "t2", "title": "Workout", "suggestion": null, "reason": "Stable."},
  {"taskId": "t3", "reason": ""}
]` + "\n```"
	got, err := ParseRecommendations(raw)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.NotNil(t, got[0].Suggestion)
	assert.Equal(t, "Try 800 words.", *got[0].Suggestion)
	assert.Nil(t, got[1].Suggestion)
	assert.Equal(t, "", got[2].Reason)

	for _, bad := range []string{
		`[{"title": "no id", "reason": "x"}]`,
		`[{"taskId": "t1"}]`,
		`[{"taskId": "t1", "reason": "x", "suggestion": 5}]`,
	} {
		_, err := ParseRecommendations(bad)
		assert.Equal(t, apperr.KindIncompleteOracleReport, apperr.KindOf(err), bad)
	}

	_, err = ParseRecommendations(`[{"taskId": "t1", "reason": "x",}]`)
	assert.Equal(t, apperr.KindOracleJSONParse, apperr.KindOf(err))
}
