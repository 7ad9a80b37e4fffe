// Package orchestrator is the engine's single entry point. It wires the
// context builder and classifier together, applies the safety backstops a
// second time defensively, merges follow-up questions, and hands one
// normalized result back to the caller. It holds no state between calls.
package orchestrator

import (
	"context"

	"taskmind/internal/logging"
	"taskmind/internal/perception"
	"taskmind/internal/task"
)

// Request carries everything the engine needs for one utterance. Tasks is
// a read-only snapshot supplied by the caller per call.
type Request struct {
	Utterance      string
	Tasks          []task.Task
	SpaceName      string
	RecentActivity *task.RecentActivity
	History        []perception.ConversationTurn
}

// Engine coordinates classification for single utterances. Stateless; one
// instance serves many concurrent conversations.
type Engine struct {
	classifier   *perception.Classifier
	maxFollowUps int
}

// New creates an engine around a classifier.
func New(classifier *perception.Classifier) *Engine {
	return &Engine{classifier: classifier, maxFollowUps: 3}
}

// NewWithFollowUpCap creates an engine with a custom follow-up cap.
func NewWithFollowUpCap(classifier *perception.Classifier, maxFollowUps int) *Engine {
	if maxFollowUps <= 0 {
		maxFollowUps = 3
	}
	return &Engine{classifier: classifier, maxFollowUps: maxFollowUps}
}

// Orchestrate classifies one utterance against the supplied snapshot and
// returns the normalized result. Create/delete/query pass through with the
// classifier's fields; complete is rewritten as an update that sets status
// to done; destructive intents without a verified target have already been
// demoted to create by the classifier, and the demotion is re-checked here.
func (e *Engine) Orchestrate(ctx context.Context, req Request) task.ClassificationResult {
	timer := logging.StartTimer(logging.CategoryOrchestrator, "Engine.Orchestrate")
	defer timer.Stop()

	space := task.SpaceContext{
		SpaceName:      req.SpaceName,
		Tasks:          req.Tasks,
		RecentActivity: req.RecentActivity,
	}

	result := e.classifier.Classify(ctx, req.Utterance, space, req.History)

	// Defensive re-check of the safety rule. The classifier already
	// enforces it; a future classifier swap must not be able to break it.
	if result.Intent.Destructive() {
		if result.TargetTask == nil || task.FindByID(req.Tasks, result.TargetTask.ID) == nil {
			logging.Orchestrator("demoting %s to create: unverifiable target", result.Intent)
			result.Intent = task.IntentCreate
			result.Reasoning = "no matching task found"
			result.TargetTask = nil
			result.UpdateDiff = nil
			if result.TaskFields == nil {
				result.TaskFields = &task.TaskFields{Title: perception.ExtractTitle(req.Utterance)}
			}
		}
	}

	// Priority backstop, applied again in case the classifier is replaced
	// by one that forgets it.
	if result.TaskFields != nil && !result.TaskFields.Priority.Valid() {
		result.TaskFields.Priority = perception.InferPriority(req.Utterance)
	}

	// Normalize complete into an update that sets status to done. The
	// caller only ever has to apply creates, updates, and deletes.
	if result.Intent == task.IntentComplete {
		done := task.StatusDone
		result.Intent = task.IntentUpdate
		if result.UpdateDiff == nil {
			result.UpdateDiff = &task.UpdateDiff{}
		}
		result.UpdateDiff.Status = &done
	}

	if result.Intent == task.IntentCreate {
		title := ""
		if result.TaskFields != nil {
			title = result.TaskFields.Title
		}
		generated := GenerateFollowUps(req.Utterance, title)
		result.FollowUpQuestions = MergeQuestions(result.FollowUpQuestions, generated, e.maxFollowUps)
	}

	logging.Orchestrator("orchestrated intent=%s followUps=%d", result.Intent, len(result.FollowUpQuestions))
	return result
}
