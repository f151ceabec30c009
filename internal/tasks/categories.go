package tasks

import "strings"

type Category struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// Categories is the fixed set a new task is classified into.
var Categories = []Category{
	{Name: "Personal Development", Emoji: "🚀"},
	{Name: "Productivity", Emoji: "📝"},
	{Name: "Work", Emoji: "💼"},
	{Name: "Hobby", Emoji: "🎨"},
	{Name: "Health & Fitness", Emoji: "🏋️"},
	{Name: "Finance", Emoji: "💰"},
	{Name: "Social & Relationships", Emoji: "👥"},
	{Name: "Self-care", Emoji: "🌿"},
	{Name: "Household & Chores", Emoji: "🏠"},
	{Name: "Entertainment", Emoji: "🎮"},
}

func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}

// LookupCategory matches name case-insensitively and returns the
// canonical spelling.
func LookupCategory(name string) (Category, bool) {
	n := strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(c.Name, n) {
			return c, true
		}
	}
	return Category{}, false
}

// UnusedCategories returns the fixed categories none of the given tasks
// belong to, in enumeration order.
func UnusedCategories(existing []Task) []string {
	used := make(map[string]bool, len(existing))
	for _, t := range existing {
		used[strings.ToLower(strings.TrimSpace(t.Category))] = true
	}
	var out []string
	for _, c := range Categories {
		if !used[strings.ToLower(c.Name)] {
			out = append(out, c.Name)
		}
	}
	return out
}

// DistinctCategories returns the categories in use, first occurrence first.
func DistinctCategories(existing []Task) []string {
	seen := make(map[string]bool, len(existing))
	var out []string
	for _, t := range existing {
		key := strings.ToLower(strings.TrimSpace(t.Category))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(t.Category))
	}
	return out
}
