package summary

import (
	"strings"

	"github.com/strideapp/stride/internal/model"
)

// Stop-words dropped from goal titles before partial-word matching.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "to": true,
	"of": true, "in": true, "on": true, "at": true, "by": true,
	"a": true, "an": true,
}

// MatchGoalMentions determines which goals are referenced in the
// entries' free text. A goal matches on an exact (case-insensitive)
// title substring, or when any significant word of its title appears
// in the text, either verbatim or via a shared prefix "stem" (so
// "meditate" matches "meditation"). The stem rule is a deliberate
// heuristic with known over- and under-matching; its behavior is
// relied on by stored summary metadata, so keep it as is.
func MatchGoalMentions(entries []*model.ProgressEntry, goals []*model.Goal) map[string]bool {
	mentioned := make(map[string]bool)
	if len(entries) == 0 || len(goals) == 0 {
		return mentioned
	}

	blob := entriesBlob(entries)
	blobWords := tokenize(blob)

	for _, goal := range goals {
		title := strings.ToLower(goal.Title)

		if strings.Contains(blob, title) {
			mentioned[goal.ID] = true
			continue
		}

		for _, word := range significantWords(title) {
			if wordAppears(word, blobWords) {
				mentioned[goal.ID] = true
				break
			}
		}
	}

	return mentioned
}

// MentionCounts counts exact-title occurrences per goal, for ranking
// the most-mentioned goals. Goals without occurrences are omitted.
func MentionCounts(entries []*model.ProgressEntry, goals []*model.Goal) map[string]int {
	counts := make(map[string]int)
	if len(entries) == 0 {
		return counts
	}

	blob := entriesBlob(entries)
	for _, goal := range goals {
		if n := strings.Count(blob, strings.ToLower(goal.Title)); n > 0 {
			counts[goal.ID] = n
		}
	}
	return counts
}

func entriesBlob(entries []*model.ProgressEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.Content
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// significantWords filters a lowercased title down to the words worth
// matching on: stop-words go, as does anything under 2 characters, and
// anything under 3 characters unless it contains a digit (keeps tokens
// like "5k").
func significantWords(title string) []string {
	var out []string
	for _, word := range strings.Fields(title) {
		if len(word) < 2 {
			continue
		}
		if len(word) < 3 && !containsDigit(word) {
			continue
		}
		if stopWords[word] {
			continue
		}
		out = append(out, word)
	}
	return out
}

// wordAppears checks a significant title word against every tokenized
// entry word: exact equality for short words, and for words of 4+
// characters a prefix overlap where either side may first be trimmed
// by its last 2 characters (approximating stem equivalence).
func wordAppears(word string, blobWords []string) bool {
	for _, bw := range blobWords {
		if bw == word {
			return true
		}
		if len(word) >= 4 && len(bw) >= 4 {
			if strings.HasPrefix(bw, word) {
				return true
			}
			if len(word) > 4 && strings.HasPrefix(bw, word[:len(word)-2]) {
				return true
			}
			if len(bw) > 4 && strings.HasPrefix(word, bw[:len(bw)-2]) {
				return true
			}
		}
	}
	return false
}

// tokenize splits on whitespace and strips punctuation, keeping
// letters, digits, and underscores.
func tokenize(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		cleaned := strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r >= 'A' && r <= 'Z':
				return r
			}
			return -1
		}, f)
		if cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
