package summary

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/strideapp/stride/internal/model"
	"github.com/strideapp/stride/internal/prompts"
)

// noMentionsSentinel fills the goals_mentioned variable when the
// matcher found nothing.
const noMentionsSentinel = "None specifically mentioned"

// Aggregate is the computed input for one summary generation: the
// rendered template variables plus the statistics captured into the
// summary's metadata.
type Aggregate struct {
	Period          Period
	TemplateKey     prompts.Key
	Vars            map[string]string
	EntryCount      int
	DaysWithEntries int
	ConsistencyRate int // monthly only
	MentionedGoals  []string
}

// BuildDaily assembles the daily summary variables: entries as a
// bullet list and active goals with their type.
func BuildDaily(period Period, entries []*model.ProgressEntry, goals []*model.Goal) Aggregate {
	mentioned := MatchGoalMentions(entries, goals)

	return Aggregate{
		Period:      period,
		TemplateKey: prompts.DailySummary,
		Vars: map[string]string{
			"entries": formatEntries(entries),
			"goals":   formatGoals(goals),
		},
		EntryCount:      len(entries),
		DaysWithEntries: distinctDays(entries),
		MentionedGoals:  sortedIDs(mentioned),
	}
}

// BuildWeekly assembles the weekly variables: entries grouped by day
// with a weekday header, the active goal list, the distinct-day count,
// and the mentioned goal titles (or a sentinel when none matched).
func BuildWeekly(period Period, entries []*model.ProgressEntry, goals []*model.Goal) Aggregate {
	mentioned := MatchGoalMentions(entries, goals)
	days := distinctDays(entries)

	var titles []string
	for _, g := range goals {
		if mentioned[g.ID] {
			titles = append(titles, g.Title)
		}
	}
	goalsMentioned := strings.Join(titles, ", ")
	if goalsMentioned == "" {
		goalsMentioned = noMentionsSentinel
	}

	return Aggregate{
		Period:      period,
		TemplateKey: prompts.WeeklySummary,
		Vars: map[string]string{
			"week_range":        fmt.Sprintf("%s - %s", period.Start.Format("January 02"), period.End.Format("January 02, 2006")),
			"entries":           formatEntriesByDay(entries),
			"goals":             formatGoals(goals),
			"days_with_entries": strconv.Itoa(days),
			"goals_mentioned":   goalsMentioned,
		},
		EntryCount:      len(entries),
		DaysWithEntries: days,
		MentionedGoals:  sortedIDs(mentioned),
	}
}

// BuildMonthly assembles the monthly variables. Mentions run against
// all goals, archived ones included, for historical accuracy;
// weeklyCount is how many weekly summaries were already generated
// within the month.
func BuildMonthly(period Period, entries []*model.ProgressEntry, allGoals []*model.Goal, weeklyCount int) Aggregate {
	mentioned := MatchGoalMentions(entries, allGoals)
	days := distinctDays(entries)
	daysInMonth := period.Days()
	rate := int(math.Round(100 * float64(days) / float64(daysInMonth)))

	return Aggregate{
		Period:      period,
		TemplateKey: prompts.MonthlySummary,
		Vars: map[string]string{
			"month_year":         period.Start.Format("January 2006"),
			"total_entries":      strconv.Itoa(len(entries)),
			"consistency_rate":   strconv.Itoa(rate),
			"goals_progressed":   strconv.Itoa(len(mentioned)),
			"monthly_highlights": monthlyHighlights(entries, allGoals),
			"weekly_patterns":    weeklyPatterns(entries, weeklyCount),
		},
		EntryCount:      len(entries),
		DaysWithEntries: days,
		ConsistencyRate: rate,
		MentionedGoals:  sortedIDs(mentioned),
	}
}

func formatEntries(entries []*model.ProgressEntry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = "- " + e.Content
	}
	return strings.Join(lines, "\n")
}

func formatGoals(goals []*model.Goal) string {
	lines := make([]string, len(goals))
	for i, g := range goals {
		goalType := g.Type()
		if goalType == "" {
			goalType = "unspecified"
		}
		lines[i] = fmt.Sprintf("- %s (%s)", g.Title, goalType)
	}
	return strings.Join(lines, "\n")
}

// formatEntriesByDay groups entries under a weekday/date header, one
// block per day in chronological order.
func formatEntriesByDay(entries []*model.ProgressEntry) string {
	var order []string
	byDay := make(map[string][]*model.ProgressEntry)
	for _, e := range entries {
		key := e.EntryDate.String()
		if _, seen := byDay[key]; !seen {
			order = append(order, key)
		}
		byDay[key] = append(byDay[key], e)
	}
	sort.Strings(order)

	blocks := make([]string, 0, len(order))
	for _, key := range order {
		dayEntries := byDay[key]
		header := dayEntries[0].EntryDate.Format("Monday, January 02")
		lines := make([]string, len(dayEntries))
		for i, e := range dayEntries {
			lines[i] = "  - " + e.Content
		}
		blocks = append(blocks, header+":\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// monthlyHighlights renders the most productive day and the top goals
// by exact-title mention count, one line each.
func monthlyHighlights(entries []*model.ProgressEntry, goals []*model.Goal) string {
	var highlights []string

	if day, count := mostProductiveDay(entries); count > 0 {
		highlights = append(highlights,
			fmt.Sprintf("Most productive day: %s with %d entries", day.Format("January 02"), count))
	}

	if top := topMentionedTitles(entries, goals, 3); len(top) > 0 {
		highlights = append(highlights, "Top focus areas: "+strings.Join(top, ", "))
	}

	return strings.Join(highlights, "\n")
}

// weeklyPatterns renders the busiest and quietest weekday plus how
// many weekly summaries the month already has.
func weeklyPatterns(entries []*model.ProgressEntry, weeklyCount int) string {
	var patterns []string

	if most, least, ok := weekdayExtremes(entries); ok {
		patterns = append(patterns,
			fmt.Sprintf("Most active on %ss, least active on %ss", most, least))
	}
	if weeklyCount > 0 {
		patterns = append(patterns, fmt.Sprintf("%d weekly summaries generated", weeklyCount))
	}

	return strings.Join(patterns, "\n")
}

func mostProductiveDay(entries []*model.ProgressEntry) (model.Date, int) {
	counts := make(map[string]int)
	dates := make(map[string]model.Date)
	var order []string
	for _, e := range entries {
		key := e.EntryDate.String()
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			dates[key] = e.EntryDate
		}
		counts[key]++
	}

	var best model.Date
	bestCount := 0
	for _, key := range order {
		if counts[key] > bestCount {
			best = dates[key]
			bestCount = counts[key]
		}
	}
	return best, bestCount
}

func topMentionedTitles(entries []*model.ProgressEntry, goals []*model.Goal, limit int) []string {
	counts := MentionCounts(entries, goals)
	if len(counts) == 0 {
		return nil
	}

	type goalCount struct {
		title string
		count int
	}
	var ranked []goalCount
	for _, g := range goals {
		if n, ok := counts[g.ID]; ok {
			ranked = append(ranked, goalCount{title: g.Title, count: n})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	titles := make([]string, len(ranked))
	for i, gc := range ranked {
		titles[i] = gc.title
	}
	return titles
}

// weekdayExtremes returns the weekday names with the most and fewest
// entries, in first-encountered order on ties.
func weekdayExtremes(entries []*model.ProgressEntry) (most, least string, ok bool) {
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		day := e.EntryDate.Weekday().String()
		if _, seen := counts[day]; !seen {
			order = append(order, day)
		}
		counts[day]++
	}
	if len(order) == 0 {
		return "", "", false
	}

	most, least = order[0], order[0]
	for _, day := range order {
		if counts[day] > counts[most] {
			most = day
		}
		if counts[day] < counts[least] {
			least = day
		}
	}
	return most, least, true
}

func distinctDays(entries []*model.ProgressEntry) int {
	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.EntryDate.String()] = true
	}
	return len(seen)
}

func sortedIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
