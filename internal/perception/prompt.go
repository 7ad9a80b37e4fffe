package perception

import (
	"fmt"
	"strings"
)

// ConversationTurn is a single prior turn handed in by the caller for
// follow-up understanding. The engine itself keeps no history.
type ConversationTurn struct {
	Role    string // "user" or "assistant"
	Content string
}

// classifierSystemPrompt instructs the completion service to classify one
// utterance against the supplied task list and answer in strict JSON.
const classifierSystemPrompt = `You are the intent classifier of a natural-language task manager.
Given the user's message and their current task list, decide what they want to do.

## INTENTS

- create: the user describes new work to track
- update: the user changes a field or adds progress to an EXISTING task
- complete: the user says an EXISTING task is entirely finished
- delete: the user wants an EXISTING task removed
- query: the user asks about their tasks without changing anything
- clarify: the message is about tasks but too ambiguous to act on at all

## TARGET TASK RULES (CRITICAL)

- For update/complete/delete you MUST pick the target from the task list by its exact id.
- NEVER invent, guess, or modify an id. If no listed task plausibly matches, use intent "create" instead.
- Completing a SUB-PART of a task ("finished the schema setup") is an update note, not complete.

## VAGUENESS SCORE

Rate how actionable the message is, 0-100:
- 0-30: clear and specific, actionable as-is
- 31-60: workable, missing only a deadline
- 61-100: unactionable without asking the user what they actually mean

## OUTPUT

Respond with ONLY a JSON object, no prose:
{
  "intent": "create|update|complete|delete|query|clarify",
  "confidence": 0-100,
  "reasoning": "one sentence",
  "task": {
    "title": "short imperative title",
    "description": "optional detail",
    "priority": "low|medium|high",
    "dueDate": "ISO 8601 date or datetime, only if the user gave one",
    "tags": ["optional"]
  },
  "vaguenessScore": 0-100,
  "vagueReason": "why it is vague, if it is",
  "targetTask": { "id": "exact id from the list", "title": "its title", "matchReason": "why it matches" },
  "updates": { "title": "...", "description": "...", "status": "todo|in-progress|done", "priority": "...", "dueDate": "..." },
  "clarifyingQuestion": "one question, only for intent clarify",
  "missingInfo": ["labels of missing details"],
  "followUpQuestions": ["up to 3 short refinement questions"]
}

Omit any field you have nothing for. "updates" must contain ONLY fields that are actually changing.

## EXAMPLES

1. "URGENT: fix the payment gateway timeout by tomorrow" -> intent create, priority high, dueDate tomorrow, vaguenessScore low
2. "I finished the authentication bug fix" with task [t1] "Fix the authentication bug" -> intent complete, targetTask t1
3. "completed the schema setup" with task [t2] "Migrate the database" -> intent update, targetTask t2, a progress note, NOT status done
4. "Deploy" with an empty task list -> intent create, vaguenessScore above 60, followUpQuestions asking what and which environment
5. "what's due this week?" -> intent query`

// buildUserPrompt assembles the per-call prompt: optional conversation
// history, the rendered space context, and the utterance itself.
func buildUserPrompt(utterance, spaceText string, history []ConversationTurn) string {
	var sb strings.Builder

	if len(history) > 0 {
		sb.WriteString("## Recent Conversation\n")
		sb.WriteString("Use this to resolve references to earlier messages.\n\n")
		for _, turn := range history {
			content := turn.Content
			if turn.Role != "user" && len(content) > 400 {
				content = content[:400] + "... (truncated)"
			}
			role := "User"
			if turn.Role != "user" {
				role = "Assistant"
			}
			fmt.Fprintf(&sb, "%s: %s\n", role, content)
		}
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Task List\n")
	sb.WriteString(spaceText)
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "User message: %q", utterance)
	return sb.String()
}
