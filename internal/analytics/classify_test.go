package analytics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-coach-backend/internal/tasks"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		name         string
		avg, overall float64
		want         Tier
	}{
		{"well above", 80, 65, TierGreat},
		{"exactly plus margin", 75, 65, TierGreat},
		{"just under plus margin", 74.9, 65, TierNormal},
		{"equal", 65, 65, TierNormal},
		{"exactly minus margin", 55, 65, TierStruggling},
		{"well below", 30, 65, TierStruggling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierFor(tt.avg, tt.overall))
		})
	}
}

func TestTierSymmetry(t *testing.T) {
	for _, overall := range []float64{0, 12.5, 50, 65, 90} {
		avg := overall - TierMargin
		mirrored := 2*overall - avg
		assert.Equal(t, TierStruggling, TierFor(avg, overall))
		assert.Equal(t, TierGreat, TierFor(mirrored, overall))
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   Direction
	}{
		{"empty", nil, TrendFlat},
		{"single", []int{50}, TrendFlat},
		{"strictly up", []int{75, 85, 90}, TrendUp},
		{"strictly down", []int{90, 85, 75}, TrendDown},
		{"noisy but rising", []int{40, 55, 50, 60, 70}, TrendUp},
		{"zig zag", []int{70, 68, 72}, TrendFlat},
		{"up then back", []int{50, 60, 55}, TrendFlat},
		{"constant", []int{60, 60, 60}, TrendFlat},
		{"only newest five count", []int{100, 10, 20, 30, 40, 50}, TrendUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Trend(tt.scores))
		})
	}
}

func TestTrendReversalFlipsDirection(t *testing.T) {
	inc := []int{10, 20, 35, 50, 80}
	rev := make([]int, len(inc))
	for i, s := range inc {
		rev[len(inc)-1-i] = s
	}
	assert.Equal(t, TrendUp, Trend(inc))
	assert.Equal(t, TrendDown, Trend(rev))
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, Average(nil))
	assert.InDelta(t, 70.0, Average([]int{60, 70, 80}), 1e-9)
}

func TestSuggest_Policy(t *testing.T) {
	writing := tasks.Task{Title: "Write 1000 words", Type: tasks.TypeContinuous, Goal: tasks.Float(1000)}
	wake := tasks.Task{Title: "Wake up at 5 AM", Type: tasks.TypeOneTime}

	tests := []struct {
		name     string
		tier     Tier
		trend    Direction
		task     tasks.Task
		wantText string
	}{
		{"struggling flat eases goal", TierStruggling, TrendFlat, writing, "Try 'Write 1000 words' with a goal of 800 instead of 1000."},
		{"struggling down eases goal", TierStruggling, TrendDown, writing, "Try 'Write 1000 words' with a goal of 800 instead of 1000."},
		{"great up raises goal", TierGreat, TrendUp, writing, "Try 'Write 1000 words' with a goal of 1200 instead of 1000."},
		{"great up moves time earlier", TierGreat, TrendUp, wake, "Push to 'Wake up at 4 AM'."},
		{"struggling flat moves time later", TierStruggling, TrendFlat, wake, "Try 'Wake up at 6 AM' instead."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Suggest(tt.tier, tt.trend, tt.task)
			require.NotNil(t, s.Text)
			assert.Equal(t, tt.wantText, *s.Text)
			assert.NotEmpty(t, s.Reason)
		})
	}
}

func TestSuggest_NoChange(t *testing.T) {
	task := tasks.Task{Title: "Workout", Type: tasks.TypeContinuous, Goal: tasks.Float(30)}
	combos := []struct {
		tier  Tier
		trend Direction
	}{
		{TierNormal, TrendUp},
		{TierNormal, TrendFlat},
		{TierNormal, TrendDown},
		{TierGreat, TrendFlat},
		{TierGreat, TrendDown},
		{TierStruggling, TrendUp},
	}
	for _, c := range combos {
		t.Run(string(c.tier)+"/"+string(c.trend), func(t *testing.T) {
			s := Suggest(c.tier, c.trend, task)
			assert.Nil(t, s.Text)
			assert.NotEmpty(t, s.Reason)
		})
	}
}

func TestSuggest_UsesCurrentGoal(t *testing.T) {
	task := tasks.Task{Title: "Run", Type: tasks.TypeContinuous, Goal: tasks.Float(10), CurrentGoal: tasks.Float(5)}
	s := Suggest(TierGreat, TrendUp, task)
	require.NotNil(t, s.Text)
	assert.Contains(t, *s.Text, "goal of 6 instead of 5")
}

func TestSuggest_GenericWhenNothingToAdjust(t *testing.T) {
	task := tasks.Task{Title: "Declutter the garage", Type: tasks.TypeOneTime}
	s := Suggest(TierStruggling, TrendDown, task)
	require.NotNil(t, s.Text)
	assert.Contains(t, *s.Text, "lighter variation")
}

func TestScaleGoal(t *testing.T) {
	tests := []struct {
		goal float64
		dir  int
		want float64
	}{
		{1000, -1, 800},
		{1000, +1, 1200},
		{10, -1, 8},
		{5, +1, 6},
		{3, -1, 2},
		{2, -1, 1.6},
		{2, +1, 2.4},
		{1, -1, 0.8},
		{1, +1, 1.2},
		{2.5, -1, 2},
		{2.5, +1, 3},
	}
	for _, tt := range tests {
		got := ScaleGoal(tt.goal, tt.dir)
		assert.InDelta(t, tt.want, got, 1e-9, "goal %v dir %d", tt.goal, tt.dir)
		assert.NotEqual(t, tt.goal, got)
	}
}

func TestSuggest_SmallGoalStillChanges(t *testing.T) {
	task := tasks.Task{Title: "Push-ups", Type: tasks.TypeContinuous, Goal: tasks.Float(1)}

	s := Suggest(TierStruggling, TrendDown, task)
	require.NotNil(t, s.Text)
	assert.Equal(t, "Try 'Push-ups' with a goal of 0.8 instead of 1.", *s.Text)

	s = Suggest(TierGreat, TrendUp, task)
	require.NotNil(t, s.Text)
	assert.Equal(t, "Try 'Push-ups' with a goal of 1.2 instead of 1.", *s.Text)
}

func TestShiftClockTime(t *testing.T) {
	tests := []struct {
		in    string
		hours int
		want  string
		ok    bool
	}{
		{"Wake up at 5 AM", -1, "Wake up at 4 AM", true},
		{"Wake up at 5am", +1, "Wake up at 6am", true},
		{"Sleep by 11:30 pm", +1, "Sleep by 12:30 am", true},
		{"Lunch at 12 PM", -1, "Lunch at 11 AM", true},
		{"Stand-up at 09:15", -1, "Stand-up at 08:15", true},
		{"Run at 23:00", +1, "Run at 00:00", true},
		{"Run 5km", +1, "Run 5km", false},
		{"Ratio 7:99 drill", +1, "Ratio 7:99 drill", false},
		{"Read at 7:60 pm", +1, "Read at 7:60 pm", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ShiftClockTime(tt.in, tt.hours)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompletionBand(t *testing.T) {
	tests := []struct {
		completion float64
		completed  bool
		want       Band
	}{
		{100, true, Band{95, 100}},
		{95, true, Band{95, 100}},
		{100, false, Band{85, 94}},
		{90, true, Band{85, 94}},
		{85, false, Band{85, 94}},
		{70, false, Band{70, 84}},
		{69.9, false, Band{50, 69}},
		{60, false, Band{50, 69}},
		{25, false, Band{25, 49}},
		{10, false, Band{10, 24}},
		{3, false, Band{5, 9}},
		{0, false, Band{0, 9}},
	}
	for _, tt := range tests {
		got := CompletionBand(tt.completion, tt.completed)
		assert.Equal(t, tt.want, got, "completion=%v completed=%v", tt.completion, tt.completed)
	}
}

func TestBandCeilingBelowSeventy(t *testing.T) {
	for c := 0.0; c < 70; c += 0.5 {
		for _, done := range []bool{false, true} {
			b := CompletionBand(c, done)
			assert.LessOrEqual(t, b.Clamp(100), 69, "completion=%v", c)
		}
	}
}

func TestScoreBand_Scenarios(t *testing.T) {
	pending := tasks.Task{Type: tasks.TypeContinuous, Goal: tasks.Float(1000), Progress: tasks.Float(600), Status: tasks.StatusPending}
	b := ScoreBand(pending, true)
	assert.Equal(t, Band{50, 69}, b)
	assert.Equal(t, 69, b.Clamp(88))
	assert.Equal(t, 50, b.Clamp(12))
	assert.Equal(t, 61, b.Clamp(61))

	oneTime := tasks.Task{Type: tasks.TypeOneTime, Status: tasks.StatusCompleted}
	assert.Equal(t, 100, ScoreBand(oneTime, false).Clamp(40))

	open := tasks.Task{Type: tasks.TypeOneTime, Status: tasks.StatusPending}
	assert.Equal(t, Band{5, 75}, ScoreBand(open, true))
	assert.Equal(t, Band{0, 75}, ScoreBand(open, false))

	done := tasks.Task{Type: tasks.TypeContinuous, Goal: tasks.Float(10), Progress: tasks.Float(10), Status: tasks.StatusCompleted}
	assert.Equal(t, Band{95, 100}, ScoreBand(done, false))
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Platform", "Android")
	r.Header.Set("X-Device-Locale", "en-US")
	r.Header.Set("X-Source-Event-Key", "legacy")
	r.Header.Set("Idempotency-Key", "abc")

	env := FromRequest(r)
	assert.Equal(t, "android", env.Platform)
	assert.Equal(t, "en-US", env.DeviceLocale)
	assert.Equal(t, "abc", env.SourceEventKey)

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Platform", "toaster")
	assert.Equal(t, "unknown", FromRequest(r).Platform)
}

func TestScoreTier(t *testing.T) {
	assert.Equal(t, "high", ScoreTier(90))
	assert.Equal(t, "mid", ScoreTier(60))
	assert.Equal(t, "low", ScoreTier(10))
}
