package orchestrator

import "strings"

// =============================================================================
// DETERMINISTIC FOLLOW-UP QUESTIONS
// =============================================================================
// The classifier proposes its own follow-up questions, but common task
// shapes get a guaranteed question regardless of what the completion
// service felt like returning. Keyword-triggered, pure, and ordered.

// followUpTrigger pairs utterance keywords with the question they earn.
type followUpTrigger struct {
	keywords []string
	question string
}

var followUpTriggers = []followUpTrigger{
	{
		keywords: []string{"bug", "fix", "error"},
		question: "What is the impact, and are there steps to reproduce it?",
	},
	{
		keywords: []string{"meeting", "call", "sync"},
		question: "Who needs to take part?",
	},
	{
		keywords: []string{"review", "pr", "code"},
		question: "Which branch or pull request should be looked at?",
	},
	{
		keywords: []string{"deploy", "release", "prod"},
		question: "Are there dependencies or blockers before this can go out?",
	},
}

// genericDetailQuestion is asked when the title is too short to say much.
const genericDetailQuestion = "Can you share more detail about what this involves?"

// GenerateFollowUps produces the deterministic follow-up questions for a
// create. Keywords are matched case-insensitively against the utterance;
// titles of three words or fewer additionally earn the generic detail
// question.
func GenerateFollowUps(utterance, title string) []string {
	lower := strings.ToLower(utterance)
	var questions []string

	for _, trigger := range followUpTriggers {
		for _, kw := range trigger.keywords {
			if containsWord(lower, kw) {
				questions = append(questions, trigger.question)
				break
			}
		}
	}

	if title != "" && len(strings.Fields(title)) <= 3 {
		questions = append(questions, genericDetailQuestion)
	}

	return questions
}

// containsWord matches kw on word boundaries so "prod" does not fire on
// "product" or "pr" on "price".
func containsWord(text, kw string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// MergeQuestions combines classifier-produced questions with generated
// ones, de-duplicates case-insensitively preserving first-seen order, and
// caps the list. Classifier questions come first: they are specific to the
// utterance where the generated ones are generic.
func MergeQuestions(primary, generated []string, max int) []string {
	seen := make(map[string]bool)
	merged := make([]string, 0, len(primary)+len(generated))

	for _, q := range append(append([]string{}, primary...), generated...) {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, q)
		if max > 0 && len(merged) == max {
			break
		}
	}
	return merged
}
