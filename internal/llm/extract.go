package llm

import (
	"encoding/json"
	"strings"
)

// =============================================================================
// BEST-EFFORT JSON EXTRACTION
// =============================================================================
// The completion service is asked for JSON but returns free text: fenced
// blocks, prose around the object, trailing commentary. ExtractJSON digs
// the first balanced JSON object out of whatever came back and falls back
// to a caller-supplied typed value on any failure. This is the mechanism
// by which the whole engine degrades gracefully instead of crashing on
// malformed-but-200-OK responses.

// ExtractJSON parses the first JSON object found in text into T. On any
// failure it returns fallback unchanged.
func ExtractJSON[T any](text string, fallback T) T {
	cleaned := stripCodeFences(text)

	// Scan forward over every '{' until one parses as a complete object.
	// json.Decoder stops at the end of the first value, so trailing prose
	// is ignored for free.
	for start := strings.Index(cleaned, "{"); start != -1; {
		dec := json.NewDecoder(strings.NewReader(cleaned[start:]))
		var out T
		if err := dec.Decode(&out); err == nil {
			return out
		}
		next := strings.Index(cleaned[start+1:], "{")
		if next == -1 {
			break
		}
		start = start + 1 + next
	}

	return fallback
}

// stripCodeFences removes markdown fence markers so a fenced JSON block
// parses the same as a bare one.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
