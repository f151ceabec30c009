package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"habit-coach-backend/internal/tasks"
)

func TestBuildScorePrompt(t *testing.T) {
	task := tasks.Task{
		Title:    "Write 1000 words",
		Type:     tasks.TypeContinuous,
		Goal:     tasks.Float(1000),
		Progress: tasks.Float(600),
		Status:   tasks.StatusPending,
	}
	p := BuildScorePrompt(task, []string{"Got distracted", "Wrote after lunch"})

	assert.Contains(t, p, "HARD CEILING")
	assert.Contains(t, p, "- goal: 1000")
	assert.Contains(t, p, "- progress: 600")
	assert.Contains(t, p, "- completion: 60%")
	assert.Contains(t, p, "1. Got distracted")
	assert.Contains(t, p, "2. Wrote after lunch")
	assert.NotContains(t, p, "%%")
	assert.True(t, strings.HasSuffix(p, returnObjectOnly))

	assert.Equal(t, p, BuildScorePrompt(task, []string{"Got distracted", "Wrote after lunch"}))
}

func TestBuildScorePrompt_OneTimeWithoutJournal(t *testing.T) {
	p := BuildScorePrompt(tasks.Task{Title: "Call the bank", Type: tasks.TypeOneTime, Status: tasks.StatusPending}, nil)
	assert.Contains(t, p, "(none)")
	assert.NotContains(t, p, "- goal:")
	assert.NotContains(t, p, "- completion:")
}

func TestBuildCategorizePrompt(t *testing.T) {
	p := BuildCategorizePrompt(TaskDraft{Title: "Run 5km", Type: tasks.TypeContinuous})
	for _, name := range tasks.CategoryNames() {
		assert.Contains(t, p, name)
	}
	assert.Contains(t, p, "- title: Run 5km")
	assert.NotContains(t, p, "- description:")
	assert.NotContains(t, p, "%!")
}

func TestBuildRecommendExistingPrompt(t *testing.T) {
	in := ExistingInput{
		WindowStart:    time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC),
		OverallAverage: 65,
		Tasks: []TaskPerformance{{
			TaskID:   "t1",
			Title:    "Wake up at 5 AM",
			Type:     tasks.TypeOneTime,
			Average:  80,
			Recent:   []int{75, 85, 90},
			Feedback: []string{"Up at 5!"},
			Tier:     "Great",
			Trend:    "Up",
		}},
	}
	p := BuildRecommendExistingPrompt(in)

	assert.Contains(t, p, "overall average (65.0) + 10")
	assert.Contains(t, p, "Window start: 2026-10-08T00:00:00Z")
	assert.Contains(t, p, "- recent: [75, 85, 90]")
	assert.Contains(t, p, "- tier: Great")
	assert.Contains(t, p, "goal -20%,")
	assert.NotContains(t, p, "%!")
	assert.Equal(t, p, BuildRecommendExistingPrompt(in))
}

func TestBuildNewPrompts(t *testing.T) {
	p := BuildNewTasksPrompt([]string{"Finance", "Hobby"})
	assert.Contains(t, p, "Finance, Hobby")
	assert.Contains(t, p, "exactly 3")

	p = BuildNewCategoriesPrompt([]string{"Work"})
	assert.Contains(t, p, "exactly 5")
	assert.Contains(t, p, "following categories:\nWork")

	p = BuildNewCategoriesPrompt(nil)
	assert.Contains(t, p, "(none)")
}
