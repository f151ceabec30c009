package analytics

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"habit-coach-backend/internal/tasks"
)

type Tier string

const (
	TierGreat      Tier = "Great"
	TierNormal     Tier = "Normal"
	TierStruggling Tier = "Struggling"
)

type Direction string

const (
	TrendUp   Direction = "Up"
	TrendDown Direction = "Down"
	TrendFlat Direction = "Flat"
)

const (
	// TierMargin is how far a task's average must sit from the overall
	// average to leave the Normal tier.
	TierMargin = 10.0

	// TrendWindow is how many of the newest scores the trend looks at.
	TrendWindow = 5

	goalStep = 0.20
)

// TierFor compares a task's average score with the overall average.
func TierFor(avg, overall float64) Tier {
	switch {
	case avg >= overall+TierMargin:
		return TierGreat
	case avg <= overall-TierMargin:
		return TierStruggling
	default:
		return TierNormal
	}
}

// Trend reads the direction of the newest TrendWindow scores (oldest
// first). Up needs a net rise and more rising than falling steps; Down is
// the mirror image. Anything else, including fewer than two scores, is
// Flat.
func Trend(scores []int) Direction {
	recent := Recent(scores, TrendWindow)
	if len(recent) < 2 {
		return TrendFlat
	}
	ups, downs := 0, 0
	for i := 1; i < len(recent); i++ {
		switch {
		case recent[i] > recent[i-1]:
			ups++
		case recent[i] < recent[i-1]:
			downs++
		}
	}
	net := recent[len(recent)-1] - recent[0]
	switch {
	case net > 0 && ups > downs:
		return TrendUp
	case net < 0 && downs > ups:
		return TrendDown
	default:
		return TrendFlat
	}
}

// Recent returns the last n elements of scores.
func Recent(scores []int, n int) []int {
	if len(scores) <= n {
		return scores
	}
	return scores[len(scores)-n:]
}

func Average(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// Suggestion is the policy outcome for one task. Text is nil when the
// task should stay as it is; Reason is always set.
type Suggestion struct {
	Text   *string
	Reason string
}

var clockTime = regexp.MustCompile(`(?i)\b(\d{1,2})(?::([0-5]\d))?\s*(am|pm)\b|\b(\d{1,2}):([0-5]\d)\b`)

// Suggest applies the adjustment policy:
//
//	Struggling + Down/Flat -> ease (goal -20% or one hour later)
//	Great + Up             -> intensify (goal +20% or one hour earlier)
//	anything else          -> no change
func Suggest(tier Tier, trend Direction, task tasks.Task) Suggestion {
	switch {
	case tier == TierStruggling && (trend == TrendDown || trend == TrendFlat):
		text := adjust(task, -1)
		return Suggestion{
			Text:   &text,
			Reason: fmt.Sprintf("Your average score is below your overall average and your recent scores are %s, so an easier variation should help you rebuild momentum.", trendWords(trend)),
		}
	case tier == TierGreat && trend == TrendUp:
		text := adjust(task, +1)
		return Suggestion{
			Text:   &text,
			Reason: "You are well above your overall average and your scores are trending upward, so it is time for a bigger challenge.",
		}
	default:
		return Suggestion{Reason: noChangeReason(tier, trend)}
	}
}

func trendWords(d Direction) string {
	if d == TrendDown {
		return "falling"
	}
	return "not improving"
}

func noChangeReason(tier Tier, trend Direction) string {
	switch tier {
	case TierGreat:
		return fmt.Sprintf("You are doing well, but your recent trend is %s; keep the current target until the gains are consistent.", strings.ToLower(string(trend)))
	case TierStruggling:
		return "Your average is below your overall average, but your scores are climbing; keep going with the current target."
	default:
		return "Your performance is stable and within the normal range, so no change is needed."
	}
}

// adjust builds the suggestion text. dir is -1 to ease, +1 to intensify.
func adjust(task tasks.Task, dir int) string {
	if goal := task.EffectiveGoal(); task.Type == tasks.TypeContinuous && goal != nil && *goal > 0 {
		next := ScaleGoal(*goal, dir)
		return fmt.Sprintf("Try '%s' with a goal of %s instead of %s.", task.Title, formatNumber(next), formatNumber(*goal))
	}
	if shifted, ok := ShiftClockTime(task.Title, -dir); ok {
		if dir < 0 {
			return fmt.Sprintf("Try '%s' instead.", shifted)
		}
		return fmt.Sprintf("Push to '%s'.", shifted)
	}
	if dir < 0 {
		return fmt.Sprintf("Try a lighter variation of '%s' for the next week.", task.Title)
	}
	return fmt.Sprintf("Try a more demanding variation of '%s' for the next week.", task.Title)
}

// ScaleGoal moves goal by 20% in direction dir. Whole-number goals stay
// whole when rounding still changes the goal and keeps it at one or more;
// otherwise the result keeps two decimals.
func ScaleGoal(goal float64, dir int) float64 {
	next := goal * (1 + goalStep*float64(dir))
	if goal == math.Trunc(goal) {
		if whole := math.Round(next); whole != goal && whole >= 1 {
			return whole
		}
	}
	if cents := math.Round(next*100) / 100; cents != goal && cents > 0 {
		return cents
	}
	return next
}

// ShiftClockTime moves the first clock time in s by hours, keeping the
// original notation (12h with am/pm, or 24h). ok is false when s has no
// clock time.
func ShiftClockTime(s string, hours int) (string, bool) {
	loc := clockTime.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, false
	}
	m := clockTime.FindStringSubmatch(s)

	var replacement string
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		if h < 1 || h > 12 {
			return s, false
		}
		pm := strings.EqualFold(m[3], "pm")
		h24 := h % 12
		if pm {
			h24 += 12
		}
		h24 = ((h24+hours)%24 + 24) % 24

		suffix := "AM"
		if h24 >= 12 {
			suffix = "PM"
		}
		if m[3] == strings.ToLower(m[3]) {
			suffix = strings.ToLower(suffix)
		}
		h12 := h24 % 12
		if h12 == 0 {
			h12 = 12
		}
		replacement = strconv.Itoa(h12)
		if m[2] != "" {
			replacement += ":" + m[2]
		}
		space := strings.TrimSuffix(s[loc[0]:loc[1]], m[3])
		if strings.HasSuffix(space, " ") {
			replacement += " "
		}
		replacement += suffix
	} else {
		h, _ := strconv.Atoi(m[4])
		if h > 23 {
			return s, false
		}
		h = ((h+hours)%24 + 24) % 24
		replacement = fmt.Sprintf("%02d:%s", h, m[5])
		if len(m[4]) == 1 && h < 10 {
			replacement = fmt.Sprintf("%d:%s", h, m[5])
		}
	}
	return s[:loc[0]] + replacement + s[loc[1]:], true
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
