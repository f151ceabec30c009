package ai

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"habit-coach-backend/internal/tasks"
)

// TaskDraft is what the user typed before categorization.
type TaskDraft struct {
	Title       string
	Description string
	Type        tasks.TaskType
}

// BuildCategorizePrompt asks for a category, emoji and color.
func BuildCategorizePrompt(d TaskDraft) string {
	var b strings.Builder

	fmt.Fprintf(&b, categorizeRubric, strings.Join(tasks.CategoryNames(), ", "))
	b.WriteString("\nTask:\n")
	writeField(&b, "title", d.Title)
	writeField(&b, "description", d.Description)
	writeField(&b, "type", string(d.Type))
	b.WriteString("\n")
	b.WriteString(returnObjectOnly)

	return b.String()
}

// BuildScorePrompt renders one task in its current state with its journal.
func BuildScorePrompt(t tasks.Task, journal []string) string {
	var b strings.Builder

	b.WriteString(scoreRubric)
	b.WriteString("\nTask:\n")
	writeField(&b, "title", t.Title)
	writeField(&b, "type", string(t.Type))
	if goal := t.EffectiveGoal(); goal != nil {
		writeField(&b, "goal", formatFloat(*goal))
	}
	if t.Progress != nil {
		writeField(&b, "progress", formatFloat(*t.Progress))
	}
	if pct, ok := t.Completion(); ok {
		writeField(&b, "completion", formatFloat(math.Round(pct*10)/10)+"%")
	}
	writeField(&b, "status", string(t.Status))

	b.WriteString("\nJournal entries:\n")
	if len(journal) == 0 {
		b.WriteString("(none)\n")
	}
	for i, entry := range journal {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(entry))
	}
	b.WriteString("\n")
	b.WriteString(returnObjectOnly)

	return b.String()
}

// TaskPerformance is one task's slice of the recommendation window.
type TaskPerformance struct {
	TaskID   string
	Title    string
	Type     tasks.TaskType
	Goal     *float64
	Average  float64
	Recent   []int
	Feedback []string
	Tier     string
	Trend    string
}

// ExistingInput is everything the recommend-existing prompt embeds.
type ExistingInput struct {
	WindowStart    time.Time
	OverallAverage float64
	Tasks          []TaskPerformance
}

func BuildRecommendExistingPrompt(in ExistingInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, recommendExistingRubric, in.OverallAverage, in.OverallAverage)
	fmt.Fprintf(&b, "\nWindow start: %s\n", in.WindowStart.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Overall average score: %.1f\n", in.OverallAverage)
	b.WriteString("\nTask data:\n")

	for _, p := range in.Tasks {
		b.WriteString("\n")
		writeField(&b, "taskId", p.TaskID)
		writeField(&b, "title", p.Title)
		writeField(&b, "type", string(p.Type))
		if p.Goal != nil {
			writeField(&b, "goal", formatFloat(*p.Goal))
		}
		writeField(&b, "average", fmt.Sprintf("%.1f", p.Average))
		writeField(&b, "recent", formatScores(p.Recent))
		writeField(&b, "tier", p.Tier)
		writeField(&b, "trend", p.Trend)
		if len(p.Feedback) > 0 {
			writeField(&b, "journals", strings.Join(p.Feedback, " | "))
		}
	}
	b.WriteString("\n")
	b.WriteString(returnArrayOnly)

	return b.String()
}

func BuildNewTasksPrompt(available []string) string {
	var b strings.Builder

	b.WriteString(newTasksRubric)
	b.WriteString("\nAvailable categories:\n")
	b.WriteString(strings.Join(available, ", "))
	b.WriteString("\n\n")
	b.WriteString(returnArrayOnly)

	return b.String()
}

func BuildNewCategoriesPrompt(existing []string) string {
	var b strings.Builder

	b.WriteString(newCategoriesRubric)
	b.WriteString("\nThe user currently has tasks in the following categories:\n")
	if len(existing) == 0 {
		b.WriteString("(none)")
	}
	b.WriteString(strings.Join(existing, ", "))
	b.WriteString("\n\n")
	b.WriteString(returnArrayOnly)

	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString("- ")
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatScores(scores []int) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = strconv.Itoa(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
