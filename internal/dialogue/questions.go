package dialogue

import (
	"strings"
	"unicode"
)

// dateQuestion is the canonical due-date prompt.
const dateQuestion = "When should this be done by?"

// CombineQuestions folds an ordered list of questions into one natural
// compound question:
//
//	one question:    used verbatim
//	two questions:   "Q1 and q2"
//	three and more:  "Q1, Q2, and q3"
//
// Trailing question marks are stripped from all but the last question, and
// every question after the first starts lowercase.
func CombineQuestions(questions []string) string {
	cleaned := make([]string, 0, len(questions))
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}

	switch len(cleaned) {
	case 0:
		return ""
	case 1:
		return cleaned[0]
	}

	parts := make([]string, len(cleaned))
	for i, q := range cleaned {
		if i < len(cleaned)-1 {
			q = strings.TrimRight(q, "? ")
		}
		if i > 0 {
			q = lowerFirst(q)
		}
		parts[i] = q
	}

	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
}

// IsDateQuestion reports whether a question asks for a date or deadline.
// Date questions are handled by the dedicated date path rather than the
// contextual-clarification path.
func IsDateQuestion(q string) bool {
	lower := strings.ToLower(q)
	for _, marker := range []string{"when", "due", "deadline", "what date", "by which day"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// splitQuestions partitions questions into contextual and date-related.
func splitQuestions(questions []string) (contextual, date []string) {
	for _, q := range questions {
		if IsDateQuestion(q) {
			date = append(date, q)
		} else {
			contextual = append(contextual, q)
		}
	}
	return contextual, date
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
