// Package dialogue decides, per utterance, whether to act immediately or
// ask the user one clarifying question first. It is the consumer-facing
// edge of the engine: the caller owns a Conversation per active session
// and passes it into every Advance call; the machine itself keeps no
// state, so one Machine serves many concurrent conversations.
//
// States: Idle -> AwaitingClarification -> Idle. AwaitingClarification
// survives at most one extra round; however vague the second answer is,
// the machine then forces a create from whatever it has gathered.
package dialogue

import (
	"context"
	"time"

	"taskmind/internal/logging"
	"taskmind/internal/orchestrator"
	"taskmind/internal/task"
)

// State is the conversation's dialogue state.
type State string

const (
	StateIdle                  State = "idle"
	StateAwaitingClarification State = "awaiting_clarification"
)

// Conversation is the caller-held state for one session. Zero value is a
// fresh Idle conversation.
type Conversation struct {
	State   State
	Pending *task.PendingTask
}

// reset returns the conversation to Idle, dropping any pending task.
func (c *Conversation) reset() {
	c.State = StateIdle
	c.Pending = nil
}

// Action tells the caller what to do with an outcome.
type Action string

const (
	// ActionCreate: persist a new task from Outcome.Create.
	ActionCreate Action = "create"
	// ActionAsk: put Outcome.Question to the user and call Advance again
	// with their answer and the same Conversation.
	ActionAsk Action = "ask"
	// ActionUpdate: apply the classification's diff to its target task
	// (typically via the resolver for the audit entry).
	ActionUpdate Action = "update"
	// ActionDelete: remove the classification's target task.
	ActionDelete Action = "delete"
	// ActionQuery: answer from the snapshot; nothing changes.
	ActionQuery Action = "query"
)

// Outcome is what one Advance call tells the caller to do.
type Outcome struct {
	Action   Action
	Question string // set for ActionAsk

	// Create holds the finalized fields for ActionCreate.
	Create *task.TaskFields

	// SuggestedImprovements are contextual questions that were not asked
	// synchronously; the caller attaches them to the created task.
	SuggestedImprovements []string

	// Classification is the underlying engine result, needed by the
	// caller for update/delete targets and query answers.
	Classification task.ClassificationResult
}

// Machine drives conversations through the engine.
type Machine struct {
	engine    *orchestrator.Engine
	threshold int // vagueness score above which clarification is required
	clock     func() time.Time
}

// NewMachine creates a machine with the standard vagueness threshold (60).
func NewMachine(engine *orchestrator.Engine) *Machine {
	return NewMachineWithThreshold(engine, 60)
}

// NewMachineWithThreshold creates a machine with a custom threshold. The
// one-extra-round cap is structural and does not depend on the threshold.
func NewMachineWithThreshold(engine *orchestrator.Engine, threshold int) *Machine {
	if threshold <= 0 {
		threshold = 60
	}
	return &Machine{engine: engine, threshold: threshold, clock: time.Now}
}

// SetClock overrides the time source. Tests use this to pin the same-day
// due-date fallback.
func (m *Machine) SetClock(clock func() time.Time) {
	m.clock = clock
}

// Advance processes one user utterance for a conversation and returns what
// to do next. The caller supplies the current task snapshot on every call.
func (m *Machine) Advance(ctx context.Context, conv *Conversation, utterance string, tasks []task.Task, spaceName string, recent *task.RecentActivity) Outcome {
	if conv.State == StateAwaitingClarification && conv.Pending != nil {
		return m.advanceClarification(ctx, conv, utterance, tasks, spaceName, recent)
	}
	return m.advanceIdle(ctx, conv, utterance, tasks, spaceName, recent)
}

// advanceIdle handles a fresh utterance.
func (m *Machine) advanceIdle(ctx context.Context, conv *Conversation, utterance string, tasks []task.Task, spaceName string, recent *task.RecentActivity) Outcome {
	result := m.engine.Orchestrate(ctx, orchestrator.Request{
		Utterance:      utterance,
		Tasks:          tasks,
		SpaceName:      spaceName,
		RecentActivity: recent,
	})

	switch result.Intent {
	case task.IntentUpdate:
		return Outcome{Action: ActionUpdate, Classification: result}
	case task.IntentDelete:
		return Outcome{Action: ActionDelete, Classification: result}
	case task.IntentQuery:
		return Outcome{Action: ActionQuery, Classification: result}
	case task.IntentClarify:
		return m.beginClarification(conv, utterance, result)
	}

	// Create path: decide between asking and acting.
	fields := result.TaskFields
	if fields == nil {
		fields = &task.TaskFields{Title: utterance, Priority: task.PriorityMedium}
	}
	contextual, _ := splitQuestions(result.FollowUpQuestions)
	hasDue := fields.DueDate != ""

	switch {
	case result.VaguenessScore > m.threshold && len(contextual) > 0:
		// Unactionable: ask everything at once, date question included.
		questions := contextual
		if !hasDue {
			questions = append(questions, dateQuestion)
		}
		logging.Dialogue("entering clarification: vagueness=%d questions=%d", result.VaguenessScore, len(questions))
		conv.State = StateAwaitingClarification
		conv.Pending = &task.PendingTask{
			Title:              fields.Title,
			Description:        fields.Description,
			Priority:           fields.Priority,
			AccumulatedContext: utterance,
		}
		return Outcome{Action: ActionAsk, Question: CombineQuestions(questions), Classification: result}

	case !hasDue:
		// Workable but undated: ask only for the date. Contextual
		// questions ride along as suggested improvements instead.
		logging.Dialogue("asking for due date only: vagueness=%d", result.VaguenessScore)
		conv.State = StateAwaitingClarification
		conv.Pending = &task.PendingTask{
			Title:              fields.Title,
			Description:        fields.Description,
			Priority:           fields.Priority,
			AccumulatedContext: utterance,
			DeferredQuestions:  contextual,
		}
		return Outcome{Action: ActionAsk, Question: dateQuestion, Classification: result}

	default:
		conv.reset()
		return Outcome{
			Action:                ActionCreate,
			Create:                fields,
			SuggestedImprovements: contextual,
			Classification:        result,
		}
	}
}

// beginClarification enters AwaitingClarification off a clarify intent.
func (m *Machine) beginClarification(conv *Conversation, utterance string, result task.ClassificationResult) Outcome {
	fields := result.TaskFields
	if fields == nil {
		fields = &task.TaskFields{Title: utterance, Priority: task.PriorityMedium}
	}
	question := result.ClarifyingQuestion
	if question == "" {
		contextual, _ := splitQuestions(result.FollowUpQuestions)
		question = CombineQuestions(append(contextual, dateQuestion))
	}
	conv.State = StateAwaitingClarification
	conv.Pending = &task.PendingTask{
		Title:              fields.Title,
		Description:        fields.Description,
		Priority:           fields.Priority,
		AccumulatedContext: utterance,
	}
	return Outcome{Action: ActionAsk, Question: question, Classification: result}
}

// advanceClarification handles the user's answer to a clarifying question.
func (m *Machine) advanceClarification(ctx context.Context, conv *Conversation, answer string, tasks []task.Task, spaceName string, recent *task.RecentActivity) Outcome {
	pending := conv.Pending
	combined := pending.Title + ": " + answer

	result := m.engine.Orchestrate(ctx, orchestrator.Request{
		Utterance:      combined,
		Tasks:          tasks,
		SpaceName:      spaceName,
		RecentActivity: recent,
	})

	fields := result.TaskFields
	if fields == nil {
		fields = &task.TaskFields{}
	}
	hasDue := fields.DueDate != ""
	contextual, _ := splitQuestions(result.FollowUpQuestions)

	stillVague := result.VaguenessScore > m.threshold || !hasDue
	if stillVague && pending.RoundsUsed < 1 {
		// The one permitted extra round. Whatever comes back next turn,
		// the machine will create.
		pending.RoundsUsed++
		pending.AccumulatedContext += "\n" + answer
		if fields.Title != "" {
			pending.Title = fields.Title
		}
		if fields.Description != "" {
			pending.Description = fields.Description
		}
		questions := contextual
		if !hasDue {
			questions = append(questions, dateQuestion)
		}
		if len(questions) == 0 {
			questions = []string{dateQuestion}
		}
		logging.Dialogue("second clarification round: vagueness=%d", result.VaguenessScore)
		return Outcome{Action: ActionAsk, Question: CombineQuestions(questions), Classification: result}
	}

	// Create now, falling back to the pending task for anything the
	// second pass failed to fill.
	created := &task.TaskFields{
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    fields.Priority,
		DueDate:     fields.DueDate,
		Tags:        fields.Tags,
	}
	if created.Title == "" {
		created.Title = pending.Title
	}
	if created.Description == "" {
		created.Description = pending.Description
	}
	if !created.Priority.Valid() {
		created.Priority = pending.Priority
	}
	if !created.Priority.Valid() {
		created.Priority = task.PriorityMedium
	}
	if created.DueDate == "" {
		// Last resort: due today.
		created.DueDate = m.clock().Format("2006-01-02")
	}

	improvements := append([]string{}, pending.DeferredQuestions...)
	improvements = append(improvements, contextual...)

	logging.Dialogue("clarification resolved, creating %q", created.Title)
	conv.reset()
	return Outcome{
		Action:                ActionCreate,
		Create:                created,
		SuggestedImprovements: orchestrator.MergeQuestions(improvements, nil, 3),
		Classification:        result,
	}
}
