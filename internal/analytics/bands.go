package analytics

import (
	"habit-coach-backend/internal/tasks"
)

// Band is an inclusive score range.
type Band struct {
	Min, Max int
}

func (b Band) Contains(score int) bool {
	return score >= b.Min && score <= b.Max
}

// Clamp pulls score into the band.
func (b Band) Clamp(score int) int {
	if score < b.Min {
		return b.Min
	}
	if score > b.Max {
		return b.Max
	}
	return score
}

// CompletionBand maps a continuous task's completion (percent) and status
// to the range its score must fall in. A completed task with at least 95%
// is the only way into 95-100; otherwise the completion band decides.
// Below 10% the floor is 5 unless nothing was done at all.
func CompletionBand(completion float64, completed bool) Band {
	switch {
	case completed && completion >= 95:
		return Band{95, 100}
	case completion >= 85:
		return Band{85, 94}
	case completion >= 70:
		return Band{70, 84}
	case completion >= 50:
		return Band{50, 69}
	case completion >= 25:
		return Band{25, 49}
	case completion >= 10:
		return Band{10, 24}
	case completion > 0:
		return Band{5, 9}
	default:
		return Band{0, 9}
	}
}

// OneTimeBand is 100 for a completed task. An unfinished one is judged
// from the journal on 0-75; with no journal at all there is no evidence of
// effort and the floor of 5 does not apply.
func OneTimeBand(completed, hasJournal bool) Band {
	switch {
	case completed:
		return Band{100, 100}
	case hasJournal:
		return Band{5, 75}
	default:
		return Band{0, 75}
	}
}

// ScoreBand picks the band for a task in its current state.
func ScoreBand(t tasks.Task, hasJournal bool) Band {
	completed := t.Status == tasks.StatusCompleted
	if pct, ok := t.Completion(); ok {
		return CompletionBand(pct, completed)
	}
	return OneTimeBand(completed, hasJournal)
}
