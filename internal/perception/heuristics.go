package perception

import (
	"strings"
	"unicode"

	"taskmind/internal/task"
)

// =============================================================================
// DETERMINISTIC FALLBACKS
// =============================================================================
// These functions never touch the completion service. They back every
// classification so that a dead upstream still yields a usable create.

// highPriorityKeywords mark an utterance as urgent.
var highPriorityKeywords = []string{
	"urgent", "asap", "critical", "important", "blocking", "emergency",
	"immediately", "right now", "today", "eod", "end of day",
}

// lowPriorityKeywords mark an utterance as deferrable.
var lowPriorityKeywords = []string{
	"eventually", "someday", "when you get a chance", "no rush",
	"low priority", "backlog", "nice to have", "whenever", "not urgent",
}

// InferPriority derives a priority from utterance keywords alone.
// Case-insensitive substring match; high beats low when both appear;
// default medium.
func InferPriority(utterance string) task.Priority {
	lower := strings.ToLower(utterance)
	for _, kw := range highPriorityKeywords {
		if strings.Contains(lower, kw) {
			return task.PriorityHigh
		}
	}
	for _, kw := range lowPriorityKeywords {
		if strings.Contains(lower, kw) {
			return task.PriorityLow
		}
	}
	return task.PriorityMedium
}

// leadingFillers are conversational prefixes stripped before an utterance
// is used as a task title.
var leadingFillers = []string{
	"please ",
	"can you ",
	"could you ",
	"i need to ",
	"i have to ",
	"i want to ",
	"we need to ",
	"remind me to ",
	"add a task to ",
	"add a task ",
	"create a task to ",
	"create a task ",
	"new task ",
	"todo ",
	"task ",
}

// ExtractTitle derives a plausible task title from a raw utterance. Used
// when the completion service failed or returned no usable fields. The
// result is the utterance with conversational filler stripped, cut at the
// first sentence boundary, capped in length, with the first letter
// capitalized.
func ExtractTitle(utterance string) string {
	title := strings.TrimSpace(utterance)

	lower := strings.ToLower(title)
	for changed := true; changed; {
		changed = false
		for _, filler := range leadingFillers {
			if strings.HasPrefix(lower, filler) {
				title = strings.TrimSpace(title[len(filler):])
				lower = strings.ToLower(title)
				changed = true
			}
		}
	}

	if idx := strings.IndexAny(title, ".!\n"); idx > 0 {
		title = strings.TrimSpace(title[:idx])
	}

	const maxTitle = 80
	runes := []rune(title)
	if len(runes) > maxTitle {
		if cut := strings.LastIndex(string(runes[:maxTitle]), " "); cut > 0 {
			title = string(runes[:maxTitle])[:cut]
		} else {
			title = string(runes[:maxTitle])
		}
	}

	title = strings.TrimRight(title, " ?")
	if title == "" {
		return "New task"
	}

	r := []rune(title)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
