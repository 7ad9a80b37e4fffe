package dialogue

import (
	"context"
	"strings"
	"testing"
	"time"

	"taskmind/internal/llm"
	"taskmind/internal/orchestrator"
	"taskmind/internal/perception"
	"taskmind/internal/task"
)

// scriptedClient feeds canned classifier responses in order.
type scriptedClient struct {
	responses []string
	prompts   []string
	calls     int
}

func (c *scriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

func (c *scriptedClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.prompts = append(c.prompts, userPrompt)
	i := c.calls
	c.calls++
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	return c.responses[i], nil
}

var noRetry = llm.RetryConfig{MaxRetries: 0, AttemptTimeout: time.Second, Multiplier: 2}

func newTestMachine(client llm.Client) *Machine {
	classifier := perception.NewClassifierWithRetry(client, noRetry)
	m := NewMachine(orchestrator.New(classifier))
	m.SetClock(func() time.Time {
		return time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	})
	return m
}

func TestAdvanceClearCreateActsImmediately(t *testing.T) {
	client := &scriptedClient{responses: []string{`{
		"intent": "create",
		"confidence": 90,
		"task": {"title": "Fix the payment gateway timeout", "priority": "high", "dueDate": "2026-09-01"},
		"vaguenessScore": 10
	}`}}
	m := newTestMachine(client)
	conv := &Conversation{}

	got := m.Advance(context.Background(), conv, "URGENT: fix the payment gateway timeout by tomorrow", nil, "Work", nil)

	if got.Action != ActionCreate {
		t.Fatalf("action = %s, want create", got.Action)
	}
	if got.Create.Title != "Fix the payment gateway timeout" || got.Create.DueDate != "2026-09-01" {
		t.Errorf("create fields = %+v", got.Create)
	}
	if conv.State != StateIdle || conv.Pending != nil {
		t.Errorf("conversation must stay idle after an immediate create")
	}
}

func TestAdvanceVagueCreateAsksOnce(t *testing.T) {
	client := &scriptedClient{responses: []string{
		// "Deploy": too vague to act on.
		`{
			"intent": "create",
			"confidence": 60,
			"task": {"title": "Deploy", "priority": "medium"},
			"vaguenessScore": 80,
			"followUpQuestions": ["What exactly needs to be deployed?", "Which environment is this for?"]
		}`,
		// Answer resolves everything.
		`{
			"intent": "create",
			"confidence": 90,
			"task": {"title": "Deploy the api-gateway to production", "priority": "medium", "dueDate": "2026-09-02"},
			"vaguenessScore": 10
		}`,
	}}
	m := newTestMachine(client)
	conv := &Conversation{}

	first := m.Advance(context.Background(), conv, "Deploy", nil, "Work", nil)
	if first.Action != ActionAsk {
		t.Fatalf("first action = %s, want ask", first.Action)
	}
	if !strings.Contains(first.Question, "What exactly needs to be deployed") {
		t.Errorf("question = %q, want the contextual questions combined", first.Question)
	}
	if !strings.Contains(strings.ToLower(first.Question), "when should this be done by") {
		t.Errorf("question = %q, want the date question appended", first.Question)
	}
	if conv.State != StateAwaitingClarification {
		t.Fatalf("state = %s", conv.State)
	}

	second := m.Advance(context.Background(), conv, "the api-gateway, to production, by wednesday", nil, "Work", nil)
	if second.Action != ActionCreate {
		t.Fatalf("second action = %s, want create", second.Action)
	}
	if second.Create.Title != "Deploy the api-gateway to production" {
		t.Errorf("title = %q", second.Create.Title)
	}
	if second.Create.DueDate != "2026-09-02" {
		t.Errorf("dueDate = %q", second.Create.DueDate)
	}
	if conv.State != StateIdle || conv.Pending != nil {
		t.Errorf("conversation must return to idle after the create")
	}

	// The second classification must carry the pending title as context.
	if len(client.prompts) != 2 || !strings.Contains(client.prompts[1], "Deploy: the api-gateway") {
		t.Errorf("second prompt missing accumulated context")
	}
}

func TestAdvanceClarificationCappedAtOneExtraRound(t *testing.T) {
	vague := `{
		"intent": "create",
		"confidence": 50,
		"task": {"title": "Deploy", "priority": "medium"},
		"vaguenessScore": 85,
		"followUpQuestions": ["What exactly needs to be deployed?"]
	}`
	client := &scriptedClient{responses: []string{vague, vague, vague}}
	m := newTestMachine(client)
	conv := &Conversation{}

	first := m.Advance(context.Background(), conv, "Deploy", nil, "Work", nil)
	if first.Action != ActionAsk {
		t.Fatalf("first action = %s", first.Action)
	}

	second := m.Advance(context.Background(), conv, "hmm not sure", nil, "Work", nil)
	if second.Action != ActionAsk {
		t.Fatalf("second action = %s, want one more ask", second.Action)
	}

	// Third turn: still vague, but the extra round is spent. Must create.
	third := m.Advance(context.Background(), conv, "whatever you think", nil, "Work", nil)
	if third.Action != ActionCreate {
		t.Fatalf("third action = %s, want forced create", third.Action)
	}
	if third.Create.Title == "" {
		t.Error("forced create must carry a title")
	}
	if third.Create.DueDate != "2026-08-31" {
		t.Errorf("forced create dueDate = %q, want the same-day fallback", third.Create.DueDate)
	}
	if conv.State != StateIdle {
		t.Errorf("state = %s, want idle", conv.State)
	}
}

func TestAdvanceWorkableCreateAsksForDateOnly(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{
			"intent": "create",
			"confidence": 85,
			"task": {"title": "Fix the login bug", "priority": "high"},
			"vaguenessScore": 40,
			"followUpQuestions": ["What is the impact, and are there steps to reproduce it?"]
		}`,
		`{
			"intent": "create",
			"confidence": 90,
			"task": {"title": "Fix the login bug", "priority": "high", "dueDate": "2026-09-03"},
			"vaguenessScore": 20
		}`,
	}}
	m := newTestMachine(client)
	conv := &Conversation{}

	first := m.Advance(context.Background(), conv, "fix the login bug, it's urgent", nil, "Work", nil)
	if first.Action != ActionAsk {
		t.Fatalf("first action = %s, want ask", first.Action)
	}
	if first.Question != "When should this be done by?" {
		t.Errorf("question = %q, want only the date question", first.Question)
	}

	second := m.Advance(context.Background(), conv, "by thursday", nil, "Work", nil)
	if second.Action != ActionCreate {
		t.Fatalf("second action = %s, want create", second.Action)
	}
	if second.Create.DueDate != "2026-09-03" {
		t.Errorf("dueDate = %q", second.Create.DueDate)
	}
	// The deferred contextual question must surface as a suggestion.
	found := false
	for _, q := range second.SuggestedImprovements {
		if strings.Contains(q, "impact") {
			found = true
		}
	}
	if !found {
		t.Errorf("deferred question missing from suggestions: %v", second.SuggestedImprovements)
	}
}

func TestAdvanceUpdatePassesThrough(t *testing.T) {
	client := &scriptedClient{responses: []string{`{
		"intent": "update",
		"confidence": 85,
		"targetTask": {"id": "t1", "title": "Fix the login bug"},
		"updates": {"priority": "high"}
	}`}}
	m := newTestMachine(client)
	conv := &Conversation{}

	tasks := []task.Task{{ID: "t1", Title: "Fix the login bug", Priority: task.PriorityMedium, Status: task.StatusTodo}}
	got := m.Advance(context.Background(), conv, "bump the login bug to high", tasks, "Work", nil)

	if got.Action != ActionUpdate {
		t.Fatalf("action = %s, want update", got.Action)
	}
	if got.Classification.TargetTask == nil || got.Classification.TargetTask.ID != "t1" {
		t.Errorf("target = %+v", got.Classification.TargetTask)
	}
	if conv.State != StateIdle {
		t.Errorf("updates must not touch dialogue state")
	}
}

func TestAdvanceClarifyIntentEntersClarification(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{
			"intent": "clarify",
			"confidence": 70,
			"clarifyingQuestion": "Which project is this about?",
			"vaguenessScore": 90
		}`,
		`{
			"intent": "create",
			"confidence": 85,
			"task": {"title": "Ship the billing project milestone", "priority": "medium", "dueDate": "2026-09-10"},
			"vaguenessScore": 20
		}`,
	}}
	m := newTestMachine(client)
	conv := &Conversation{}

	first := m.Advance(context.Background(), conv, "we should ship that thing", nil, "Work", nil)
	if first.Action != ActionAsk || first.Question != "Which project is this about?" {
		t.Fatalf("first = %+v, want the clarifying question", first)
	}
	if conv.State != StateAwaitingClarification {
		t.Fatalf("state = %s", conv.State)
	}

	second := m.Advance(context.Background(), conv, "the billing project, due sept 10", nil, "Work", nil)
	if second.Action != ActionCreate {
		t.Fatalf("second action = %s, want create", second.Action)
	}
	if second.Create.Title != "Ship the billing project milestone" {
		t.Errorf("title = %q", second.Create.Title)
	}
}
