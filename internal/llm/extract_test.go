package llm

import "testing"

type extractPayload struct {
	Intent string `json:"intent"`
	Score  int    `json:"score"`
}

func TestExtractJSON(t *testing.T) {
	fallback := extractPayload{Intent: "fallback"}

	tests := []struct {
		name string
		text string
		want extractPayload
	}{
		{
			name: "bare object",
			text: `{"intent": "create", "score": 42}`,
			want: extractPayload{Intent: "create", Score: 42},
		},
		{
			name: "object with prose before and after",
			text: `Sure! Here is the classification you asked for:
{"intent": "update", "score": 10}
Let me know if you need anything else.`,
			want: extractPayload{Intent: "update", Score: 10},
		},
		{
			name: "fenced json block",
			text: "```json\n{\"intent\": \"query\", \"score\": 5}\n```",
			want: extractPayload{Intent: "query", Score: 5},
		},
		{
			name: "fenced block without language tag",
			text: "```\n{\"intent\": \"delete\"}\n```",
			want: extractPayload{Intent: "delete"},
		},
		{
			name: "first brace is not the object",
			text: `the set {1, 2} is irrelevant, the answer is {"intent": "create"}`,
			want: extractPayload{Intent: "create"},
		},
		{
			name: "no json at all",
			text: "I could not produce a classification for that.",
			want: fallback,
		},
		{
			name: "empty string",
			text: "",
			want: fallback,
		},
		{
			name: "truncated object",
			text: `{"intent": "create", "sco`,
			want: fallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.text, fallback)
			if got != tt.want {
				t.Errorf("ExtractJSON(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractJSONPreservesFallbackOnTypeMismatch(t *testing.T) {
	// A decodable object whose fields miss entirely still counts as a
	// successful parse; the zero-valued result is the caller's problem.
	got := ExtractJSON(`{"unrelated": true}`, extractPayload{Intent: "fallback"})
	if got.Intent != "" {
		t.Errorf("expected zero-valued payload from unrelated object, got %+v", got)
	}
}
