// Package perception turns one user utterance into a validated
// ClassificationResult using the completion service, with deterministic
// fallbacks for every way the service can fail or lie. The classifier
// never returns an error to its caller: a dead or malformed upstream
// degrades to "create a plausible task", never to a crash.
package perception

import (
	"context"

	"taskmind/internal/llm"
	"taskmind/internal/logging"
	"taskmind/internal/spacectx"
	"taskmind/internal/task"
)

// Classifier issues one completion request per utterance and validates the
// result against the space snapshot. Stateless and safe for concurrent use.
type Classifier struct {
	client  llm.Client
	retry   llm.RetryConfig
	ctxOpts spacectx.Options
}

// NewClassifier creates a classifier with default retry and context bounds.
func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{
		client:  client,
		retry:   llm.DefaultRetryConfig(),
		ctxOpts: spacectx.DefaultOptions(),
	}
}

// NewClassifierWithRetry creates a classifier with custom retry tuning.
func NewClassifierWithRetry(client llm.Client, retry llm.RetryConfig) *Classifier {
	return &Classifier{
		client:  client,
		retry:   retry,
		ctxOpts: spacectx.DefaultOptions(),
	}
}

// =============================================================================
// WIRE TYPES
// =============================================================================
// The completion service's JSON is an untrusted payload: fields may be
// missing, mistyped, or fabricated. It is parsed into these loose structs
// and only reaches task.ClassificationResult through validation.

type rawClassification struct {
	Intent             string         `json:"intent"`
	Confidence         float64        `json:"confidence"`
	Reasoning          string         `json:"reasoning"`
	Task               *rawTaskFields `json:"task"`
	VaguenessScore     float64        `json:"vaguenessScore"`
	VagueReason        string         `json:"vagueReason"`
	TargetTask         *rawTarget     `json:"targetTask"`
	Updates            *rawDiff       `json:"updates"`
	ClarifyingQuestion string         `json:"clarifyingQuestion"`
	MissingInfo        []string       `json:"missingInfo"`
	FollowUpQuestions  []string       `json:"followUpQuestions"`
}

type rawTaskFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	DueDate     string   `json:"dueDate"`
	Tags        []string `json:"tags"`
}

type rawTarget struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	MatchReason string `json:"matchReason"`
}

type rawDiff struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify classifies one utterance against a space snapshot. It always
// returns a usable result; upstream failures and malformed responses
// degrade to a create built from deterministic heuristics.
func (c *Classifier) Classify(ctx context.Context, utterance string, space task.SpaceContext, history []ConversationTurn) task.ClassificationResult {
	timer := logging.StartTimer(logging.CategoryPerception, "Classifier.Classify")
	defer timer.Stop()

	spaceText := spacectx.Render(space, c.ctxOpts)
	userPrompt := buildUserPrompt(utterance, spaceText, history)

	resp, err := llm.RetryWithBackoff(ctx, c.retry, "classify", func(ctx context.Context) (string, error) {
		return c.client.CompleteWithSystem(ctx, classifierSystemPrompt, userPrompt)
	})
	if err != nil {
		logging.Get(logging.CategoryPerception).Warnf("classification failed, using heuristic create: %v", err)
		return c.fallbackCreate(utterance, "completion service unavailable")
	}

	raw := llm.ExtractJSON(resp, rawClassification{})
	if raw.Intent == "" {
		logging.Get(logging.CategoryPerception).Warnf("unparsable classification response, using heuristic create")
		return c.fallbackCreate(utterance, "unparsable classification response")
	}

	result := c.validate(raw, utterance, space)
	logging.PerceptionDebug("classified %q as %s (confidence=%d vagueness=%d)",
		truncateForLog(utterance, 80), result.Intent, result.Confidence, result.VaguenessScore)
	return result
}

// validate enforces the post-processing invariants regardless of what the
// completion service returned.
func (c *Classifier) validate(raw rawClassification, utterance string, space task.SpaceContext) task.ClassificationResult {
	result := task.ClassificationResult{
		Intent:             task.ParseIntent(raw.Intent),
		Confidence:         clampScore(raw.Confidence),
		Reasoning:          raw.Reasoning,
		VaguenessScore:     clampScore(raw.VaguenessScore),
		VagueReason:        raw.VagueReason,
		ClarifyingQuestion: raw.ClarifyingQuestion,
		MissingInfo:        raw.MissingInfo,
		FollowUpQuestions:  raw.FollowUpQuestions,
	}

	if raw.Task != nil {
		result.TaskFields = &task.TaskFields{
			Title:       raw.Task.Title,
			Description: raw.Task.Description,
			Priority:    task.Priority(raw.Task.Priority),
			DueDate:     raw.Task.DueDate,
			Tags:        raw.Task.Tags,
		}
	}

	// Safety rule: destructive intents need a target that verifiably
	// exists in the snapshot. Anything else is demoted to create; a
	// possibly-duplicate task beats a guessed destructive target.
	if result.Intent.Destructive() {
		var target *task.Task
		if raw.TargetTask != nil {
			target = task.FindByID(space.Tasks, raw.TargetTask.ID)
		}
		if target == nil {
			logging.Perception("demoting %s to create: no matching task found", result.Intent)
			result.Intent = task.IntentCreate
			result.Reasoning = "no matching task found"
			result.TargetTask = nil
			result.UpdateDiff = nil
		} else {
			result.TargetTask = &task.TargetTask{
				ID:          target.ID,
				Title:       target.Title,
				MatchReason: raw.TargetTask.MatchReason,
			}
			result.UpdateDiff = validateDiff(raw.Updates)
		}
	}

	// Create always carries proposed fields, even if the service omitted
	// them entirely.
	if result.Intent == task.IntentCreate && result.TaskFields == nil {
		result.TaskFields = &task.TaskFields{Title: ExtractTitle(utterance)}
	}
	if result.TaskFields != nil {
		if result.TaskFields.Title == "" {
			result.TaskFields.Title = ExtractTitle(utterance)
		}
		if !result.TaskFields.Priority.Valid() {
			result.TaskFields.Priority = InferPriority(utterance)
		}
	}

	return result
}

// validateDiff converts a raw diff, dropping fields with invalid values
// rather than guessing. Absent fields stay absent.
func validateDiff(raw *rawDiff) *task.UpdateDiff {
	if raw == nil {
		return nil
	}
	diff := &task.UpdateDiff{
		Title:       raw.Title,
		Description: raw.Description,
		DueDate:     raw.DueDate,
	}
	if raw.Status != nil {
		s := task.ParseStatus(*raw.Status)
		diff.Status = &s
	}
	if raw.Priority != nil {
		p := task.ParsePriority(*raw.Priority)
		diff.Priority = &p
	}
	if diff.Empty() {
		return nil
	}
	return diff
}

// fallbackCreate is the safe default when the completion service failed or
// returned garbage: a create built from pure heuristics.
func (c *Classifier) fallbackCreate(utterance, reason string) task.ClassificationResult {
	return task.ClassificationResult{
		Intent:     task.IntentCreate,
		Confidence: 0,
		Reasoning:  reason,
		TaskFields: &task.TaskFields{
			Title:    ExtractTitle(utterance),
			Priority: InferPriority(utterance),
		},
	}
}

func clampScore(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v)
	}
}

func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
