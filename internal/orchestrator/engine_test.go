package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmind/internal/llm"
	"taskmind/internal/perception"
	"taskmind/internal/task"
)

type fakeClient struct {
	response string
	err      error
}

func (c *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.response, c.err
}

func (c *fakeClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.response, c.err
}

func newTestEngine(response string) *Engine {
	noRetry := llm.RetryConfig{MaxRetries: 0, AttemptTimeout: time.Second, Multiplier: 2}
	classifier := perception.NewClassifierWithRetry(&fakeClient{response: response}, noRetry)
	return New(classifier)
}

func TestOrchestrateCompleteBecomesUpdate(t *testing.T) {
	engine := newTestEngine(`{
		"intent": "complete",
		"confidence": 90,
		"targetTask": {"id": "t1", "title": "Fix the login bug"}
	}`)

	tasks := []task.Task{{ID: "t1", Title: "Fix the login bug", Status: task.StatusInProgress, Priority: task.PriorityMedium}}
	got := engine.Orchestrate(context.Background(), Request{
		Utterance: "the login bug fix is done",
		Tasks:     tasks,
		SpaceName: "Work",
	})

	assert.Equal(t, task.IntentUpdate, got.Intent, "complete must be rewritten as update")
	require.NotNil(t, got.UpdateDiff)
	require.NotNil(t, got.UpdateDiff.Status)
	assert.Equal(t, task.StatusDone, *got.UpdateDiff.Status)
	require.NotNil(t, got.TargetTask)
	assert.Equal(t, "t1", got.TargetTask.ID)
}

func TestOrchestrateDemotesDeleteWithoutTarget(t *testing.T) {
	engine := newTestEngine(`{
		"intent": "delete",
		"confidence": 80,
		"targetTask": {"id": "ghost", "title": "Something"}
	}`)

	got := engine.Orchestrate(context.Background(), Request{
		Utterance: "get rid of the onboarding task",
		Tasks:     nil,
		SpaceName: "Work",
	})

	assert.Equal(t, task.IntentCreate, got.Intent)
	assert.Nil(t, got.TargetTask)
	assert.Nil(t, got.UpdateDiff)
	require.NotNil(t, got.TaskFields)
	assert.NotEmpty(t, got.TaskFields.Title)
	assert.True(t, got.TaskFields.Priority.Valid(), "demoted create must carry a valid priority")
}

func TestOrchestrateGeneratesFollowUpsForCreate(t *testing.T) {
	engine := newTestEngine(`{
		"intent": "create",
		"confidence": 85,
		"task": {"title": "Fix checkout bug", "priority": "high"},
		"vaguenessScore": 30
	}`)

	got := engine.Orchestrate(context.Background(), Request{
		Utterance: "fix the checkout bug",
		SpaceName: "Work",
	})

	require.Equal(t, task.IntentCreate, got.Intent)
	assert.Contains(t, got.FollowUpQuestions, "What is the impact, and are there steps to reproduce it?")
	assert.Contains(t, got.FollowUpQuestions, genericDetailQuestion, "three-word title earns the detail question")
	assert.LessOrEqual(t, len(got.FollowUpQuestions), 3)
}

func TestOrchestrateCapsFollowUps(t *testing.T) {
	engine := newTestEngine(`{
		"intent": "create",
		"confidence": 85,
		"task": {"title": "Fix bug", "priority": "high"},
		"followUpQuestions": ["Q one?", "Q two?", "Q three?"]
	}`)

	got := engine.Orchestrate(context.Background(), Request{
		Utterance: "fix the deploy bug in prod review",
		SpaceName: "Work",
	})

	assert.Len(t, got.FollowUpQuestions, 3)
	// Classifier questions outrank the generated ones.
	assert.Equal(t, []string{"Q one?", "Q two?", "Q three?"}, got.FollowUpQuestions)
}

func TestOrchestrateQueryPassesThrough(t *testing.T) {
	engine := newTestEngine(`{
		"intent": "query",
		"confidence": 95,
		"reasoning": "asking about due dates"
	}`)

	got := engine.Orchestrate(context.Background(), Request{
		Utterance: "what's due this week?",
		SpaceName: "Work",
	})

	assert.Equal(t, task.IntentQuery, got.Intent)
	assert.Empty(t, got.FollowUpQuestions, "queries get no follow-up questions")
}

func TestGenerateFollowUps(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		title     string
		contains  string
	}{
		{"bug keyword", "fix the login bug tomorrow", "Fix the login bug tomorrow", "impact"},
		{"meeting keyword", "set up a sync with the infra team", "Set up a sync with the infra team", "take part"},
		{"review keyword", "review the migration PR", "Review the migration PR", "branch or pull request"},
		{"deploy keyword", "deploy the search service", "Deploy the search service", "dependencies or blockers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateFollowUps(tt.utterance, tt.title)
			require.NotEmpty(t, got)
			found := false
			for _, q := range got {
				if strings.Contains(strings.ToLower(q), tt.contains) {
					found = true
				}
			}
			assert.True(t, found, "questions %v should mention %q", got, tt.contains)
		})
	}
}

func TestGenerateFollowUpsWordBoundaries(t *testing.T) {
	// "prod" must not fire inside "product", "pr" not inside "price".
	got := GenerateFollowUps("compare the product price options", "Compare the product price options")
	for _, q := range got {
		assert.NotContains(t, q, "dependencies or blockers")
		assert.NotContains(t, q, "branch or pull request")
	}
}

func TestGenerateFollowUpsShortTitle(t *testing.T) {
	got := GenerateFollowUps("organize desk", "Organize desk")
	require.Len(t, got, 1)
	assert.Equal(t, genericDetailQuestion, got[0])
}

func TestMergeQuestions(t *testing.T) {
	merged := MergeQuestions(
		[]string{"Which environment?", "", "What is the impact?"},
		[]string{"what is the impact?", "Who needs to take part?"},
		3,
	)
	assert.Equal(t, []string{"Which environment?", "What is the impact?", "Who needs to take part?"}, merged)
}

func TestMergeQuestionsCap(t *testing.T) {
	merged := MergeQuestions([]string{"a?", "b?", "c?", "d?"}, nil, 2)
	assert.Equal(t, []string{"a?", "b?"}, merged)
}
