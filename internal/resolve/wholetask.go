package resolve

import "strings"

// =============================================================================
// WHOLE-TASK COMPLETION DETECTION
// =============================================================================
// Deterministic guard behind the resolver's rule 1. The completion service
// is asked to apply the whole-task rule itself, but its answer is not
// trusted: a proposed "done" only survives if this check agrees.

// completionVerbs signal that something was finished.
var completionVerbs = []string{
	"done", "finished", "complete", "completed", "wrapped up", "closed",
}

// wholeTaskRefs are phrasings that refer to the task as a unit rather
// than to a named sub-part.
var wholeTaskRefs = []string{
	"the task", "this task", "that task", "the whole", "everything",
	"it is done", "it's done", "its done", "mark it",
}

// titleStopWords are ignored when measuring overlap between the utterance
// and the task title.
var titleStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "to": true, "of": true, "in": true,
	"on": true, "for": true, "and": true, "with": true, "up": true,
	"is": true, "it": true, "my": true, "our": true,
}

// AssertsWholeTaskDone reports whether the utterance asserts that the
// entire titled task is finished. Sub-part reports ("completed the schema
// setup" against "Migrate the database") fail the title-overlap test and
// are treated as notes.
func AssertsWholeTaskDone(utterance, title string) bool {
	lower := strings.ToLower(utterance)

	verb := false
	for _, v := range completionVerbs {
		if strings.Contains(lower, v) {
			verb = true
			break
		}
	}
	if !verb {
		return false
	}

	for _, ref := range wholeTaskRefs {
		if strings.Contains(lower, ref) {
			return true
		}
	}

	// Majority of the title's significant words must appear in the
	// utterance for the completion to count as whole-task.
	words := significantWords(title)
	if len(words) == 0 {
		return false
	}
	matched := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			matched++
		}
	}
	return matched*2 >= len(words)
}

// significantWords extracts the lowercase non-stop-words of a title.
func significantWords(title string) []string {
	fields := strings.Fields(strings.ToLower(title))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,:;!?\"'()[]")
		if len(f) < 3 || titleStopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
