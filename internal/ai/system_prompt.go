package ai

// Rubrics and worked examples for each oracle operation. The scoring bands
// are repeated here so the model aims for them; the score is clamped into
// the same bands afterwards regardless of what comes back.

const categorizeRubric = `You classify one task of a self-improvement app.

Choose the most appropriate category from this predefined list:
%s

Also suggest a color in HEX format (#RRGGBB) that represents the category,
and one emoji with a professional but modern feel.

Return a JSON object in exactly this format:
{
  "category": "chosen_category",
  "emoji": "emoji_representation",
  "color": "#RRGGBB"
}

Example:
Task: "Run 5km every morning" (continuous)
Output: {"category": "Health & Fitness", "emoji": "🏃", "color": "#2E8B57"}
`

const scoreRubric = `You are a strict evaluator in a self-improvement app. Score the user's
progress on one task out of 100 and write short feedback.

SCORING RULES

Continuous tasks (have a goal and a progress value):
  completion = min(progress / goal, 1) * 100
  95-100  only if status is completed AND completion >= 95%
  85-94   completion >= 85%
  70-84   completion >= 70%
  50-69   completion 50-69%
  25-49   completion 25-49%
  10-24   completion 10-24%
  0-9     completion below 10%; never below 5 unless completion is exactly 0
  HARD CEILING: the score is at most 69 when completion is below 70%.

One-time tasks (no goal):
  100     only if status is completed
  otherwise judge the journal entries:
  50-75   substantial effort, close to done or close to the planned time
  25-49   real but partial effort
  10-24   minimal effort
  0-9     no meaningful effort; never below 5 unless the journal shows none

Journal entries explain the score; they never lift it above the band.

FEEDBACK
2-3 sentences. Be critical and direct, but constructive: name what fell short
and one concrete next step.

OUTPUT
Return only a JSON object with two fields:
{"score": <integer 0-100>, "feedback": "<text>"}

Examples:
Task: "Write 1000 words", goal 1000, progress 600, pending. Journal: ["Got distracted by email"]
Output: {"score": 58, "feedback": "Sixty percent is not a finished day. Distractions cost you the last stretch; close your inbox before you start."}

Task: "Call the bank", one-time, completed.
Output: {"score": 100, "feedback": "Done, and done on time. Keep clearing small admin tasks before they pile up."}
`

const recommendExistingRubric = `You are an assistant for a self-improvement app. Based on the user's task
performance data below, write personalized recommendations for each task.

Each task already carries its tier and trend:
  Tier "Great":      average score >= overall average (%.1f) + 10
  Tier "Struggling": average score <= overall average (%.1f) - 10
  Tier "Normal":     within 10 of the overall average
  Trend over the last scores: "Up", "Down" or "Flat"

Policy:
  Struggling + Down/Flat: an easier variation (goal -20%%, or one hour later)
  Great + Up:             a harder variation (goal +20%%, or one hour earlier)
  otherwise:              suggestion null (no change)

Return a JSON array with one object per task:
  "taskId": string
  "title": string
  "suggestion": string or null
  "reason": string (why the suggestion was made, or why no change is needed)

Examples:
1. Task: "Write 1000 words", Avg: 60, Recent: [50, 60, 55], Tier: Struggling, Trend: Flat
   Output: {"taskId": "t1", "title": "Write 1000 words", "suggestion": "Try 'Write 1000 words' with a goal of 800 instead of 1000.", "reason": "Your average score is below the overall average and your recent performance isn't improving."}
2. Task: "Wake up at 5 AM", Avg: 80, Recent: [75, 85, 90], Tier: Great, Trend: Up
   Output: {"taskId": "t2", "title": "Wake up at 5 AM", "suggestion": "Push to 'Wake up at 4 AM'.", "reason": "You're doing great and your scores are trending upward, so let's challenge you more."}
3. Task: "Workout", Avg: 70, Recent: [70, 68, 72], Tier: Normal, Trend: Flat
   Output: {"taskId": "t3", "title": "Workout", "suggestion": null, "reason": "Your performance is stable and within normal range, so no change is needed."}
`

const newTasksRubric = `You are an assistant for a self-improvement app. Based on the available
categories below, recommend 3 new tasks for the user to try. They should help
the user explore new areas of self-improvement.

Instructions:
1. Suggest exactly 3 unique tasks, each from a different category in the list.
2. For each task provide:
   - "title": string (short, descriptive)
   - "description": string (optional, brief)
   - "type": "one-time" or "continuous"
   - "goal": number (only for continuous tasks, e.g. words to write, minutes to spend)
   - "progress": number (only for continuous tasks, 0)
   - "category": string (one of the available categories)
   - "reason": string (why this task is recommended)
3. One-time tasks have no goal and no progress.

Examples:
- Category: Productivity
  Output: {"title": "Organize Desk", "description": "Spend time decluttering your workspace.", "type": "one-time", "category": "Productivity", "reason": "A tidy desk boosts focus and efficiency."}
- Category: Health & Fitness
  Output: {"title": "Run 5km", "type": "continuous", "goal": 5, "progress": 0, "category": "Health & Fitness", "reason": "Running improves stamina and overall fitness."}
- Category: Self-care
  Output: {"title": "Meditate for 10 minutes", "description": "Practice mindfulness daily.", "type": "continuous", "goal": 10, "progress": 0, "category": "Self-care", "reason": "Meditation reduces stress and enhances mental clarity."}
`

const newCategoriesRubric = `You are an assistant for a self-improvement app.

Instructions:
1. Recommend exactly 5 NEW categories that are NOT in the existing list.
2. Categories can be fun, exploratory, unusual or creative, but still helpful
   for self-improvement.
3. For each category provide:
   - "category": string

Example:
Existing: Work, Hobby
Output: [{"category": "Mindful Mornings"}, {"category": "Language Learning"}, {"category": "Digital Detox"}, {"category": "Community Service"}, {"category": "Creative Writing"}]
`

const (
	returnObjectOnly = "Return ONLY the JSON object. No extra text."
	returnArrayOnly  = "Return ONLY the JSON array. No extra text."
)
