// Package prompts holds the fixed prompt templates and system prompts
// used for goal assistance and periodic summaries. Templates are static
// configuration; rendering substitutes {{name}} placeholders literally
// and leaves unknown placeholders untouched.
package prompts

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownTemplate = errors.New("unknown prompt template")

// Key identifies one of the fixed templates. The set is closed: only
// the exported constants exist, so an unknown key at render time is a
// programming error, not a runtime condition.
type Key string

const (
	GoalTypeInference Key = "goal_type_inference"
	GoalImprovement   Key = "goal_improvement"
	DailySummary      Key = "daily_summary_generation"
	WeeklySummary     Key = "weekly_summary_generation"
	MonthlySummary    Key = "monthly_summary_generation"
)

var systemPrompts = map[Key]string{
	GoalTypeInference: "You are a goal categorization assistant. Respond with only one word: habit, milestone, or project.",
	GoalImprovement:   "You are a goal coaching assistant. Provide concise, actionable suggestions to improve goal clarity and achievability.",
	DailySummary:      "You are a personal progress coach. Create an encouraging daily summary based on the user's progress entries.",
	WeeklySummary:     "You are a personal progress analyst. Create an insightful weekly summary highlighting patterns, achievements, and areas for focus.",
	MonthlySummary:    "You are a personal development strategist. Create a comprehensive monthly summary with key achievements, trends, and strategic recommendations.",
}

var templates = map[Key]string{
	GoalTypeInference: `Categorize this goal into one of three types:
- habit: Regular, repeated actions (daily/weekly/monthly routines)
- milestone: Specific, one-time achievements with clear completion criteria
- project: Multi-step endeavors requiring sustained effort over time

Goal Title: {{title}}
Goal Description: {{description}}

Respond with only one word: habit, milestone, or project.
`,

	GoalImprovement: `Review this goal and suggest improvements for clarity and achievability:

Goal Title: {{title}}
Goal Description: {{description}}
Goal Type: {{goal_type}}

Provide 2-3 specific suggestions to make this goal more:
1. Specific and measurable
2. Achievable and realistic
3. Time-bound (if applicable)

Keep suggestions concise and actionable.
`,

	DailySummary: `Based on today's progress entries, create an encouraging daily summary:

Progress Entries:
{{entries}}

Active Goals:
{{goals}}

Create a 2-3 sentence summary that:
1. Acknowledges what was accomplished
2. Identifies any patterns or insights
3. Provides gentle encouragement

Tone: Supportive, personal, and motivating
`,

	WeeklySummary: `Based on this week's progress, create an insightful weekly summary:

Week: {{week_range}}

Progress Entries:
{{entries}}

Active Goals:
{{goals}}

Completion Stats:
- Days with entries: {{days_with_entries}}/7
- Goals mentioned: {{goals_mentioned}}

Create a summary that:
1. Highlights key achievements and progress
2. Identifies patterns in habits and productivity
3. Suggests areas for focus in the coming week

Keep it to 3-4 sentences. Be specific and actionable.
`,

	MonthlySummary: `Create a comprehensive monthly summary:

Month: {{month_year}}

Key Statistics:
- Total entries: {{total_entries}}
- Consistency rate: {{consistency_rate}}%
- Goals progressed: {{goals_progressed}}

Progress Highlights:
{{monthly_highlights}}

Weekly Patterns:
{{weekly_patterns}}

Create a strategic summary that:
1. Celebrates major achievements and milestones
2. Analyzes trends and patterns across the month
3. Provides 2-3 specific recommendations for next month

Keep it to 4-5 sentences. Focus on insights and forward momentum.
`,
}

// Render substitutes each {{name}} placeholder with its variable
// value. Placeholders without a supplied variable stay verbatim.
func Render(key Key, vars map[string]string) (string, error) {
	template, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, key)
	}

	rendered := template
	for name, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{{"+name+"}}", value)
	}
	return rendered, nil
}

// SystemPromptFor returns the persona prompt paired with a template.
func SystemPromptFor(key Key) string {
	return systemPrompts[key]
}
