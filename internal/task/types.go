// Package task defines the domain model shared by the intent-orchestration
// engine: tasks, their audit timeline, the per-call space snapshot, and the
// structured results the engine returns to its caller.
//
// The engine never owns task storage. Tasks arrive as a read-only snapshot
// on every call and results are handed back for the caller to persist.
package task

import (
	"strings"
	"time"
)

// =============================================================================
// ENUMS
// =============================================================================

// Priority is the task urgency level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority normalizes a free-form priority string. Unknown values
// fall back to medium so a garbled upstream guess never blocks a create.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Status is the task lifecycle state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus normalizes a free-form status string. It accepts the common
// spelling variants the completion service produces ("in progress",
// "in_progress", "completed"). Unknown values map to todo.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-")) {
	case "in-progress", "in progress", "doing", "active":
		return StatusInProgress
	case "done", "completed", "complete", "finished":
		return StatusDone
	default:
		return StatusTodo
	}
}

// Intent is the classified action for one user utterance.
type Intent string

const (
	IntentCreate   Intent = "create"
	IntentUpdate   Intent = "update"
	IntentComplete Intent = "complete"
	IntentDelete   Intent = "delete"
	IntentQuery    Intent = "query"
	IntentClarify  Intent = "clarify"
)

// Valid reports whether i is one of the six known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentCreate, IntentUpdate, IntentComplete, IntentDelete, IntentQuery, IntentClarify:
		return true
	}
	return false
}

// Destructive reports whether acting on this intent requires a verified
// target task. Destructive intents with an unverifiable target are demoted
// to create by the orchestrator.
func (i Intent) Destructive() bool {
	switch i {
	case IntentUpdate, IntentComplete, IntentDelete:
		return true
	}
	return false
}

// ParseIntent normalizes a free-form intent string. Unknown values map to
// create, the only always-safe action.
func ParseIntent(s string) Intent {
	v := Intent(strings.ToLower(strings.TrimSpace(s)))
	if v.Valid() {
		return v
	}
	return IntentCreate
}

// UpdateType categorizes a timeline entry.
type UpdateType string

const (
	UpdateStatusChange UpdateType = "status_change"
	UpdateNote         UpdateType = "note"
	UpdateFieldUpdate  UpdateType = "field_update"
	UpdateCreation     UpdateType = "creation"
)

// =============================================================================
// TASK AND TIMELINE
// =============================================================================

// Task is one task record as supplied by the external store. Read-only to
// the engine: identifiers are stable within a space and the engine never
// invents an identifier for an existing task.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	Priority    Priority     `json:"priority"`
	Status      Status       `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Updates     []TaskUpdate `json:"updates,omitempty"`

	// SuggestedImprovements holds clarifying questions that were deferred at
	// creation time instead of being asked synchronously.
	SuggestedImprovements []string `json:"suggestedImprovements,omitempty"`
}

// TaskUpdate is one append-only audit timeline entry. Entries are never
// mutated or reordered after creation.
type TaskUpdate struct {
	ID        string     `json:"id"`
	Type      UpdateType `json:"type"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`

	// Field/OldValue/NewValue are set for field_update and status_change
	// entries, empty for notes.
	Field    string `json:"field,omitempty"`
	OldValue string `json:"oldValue,omitempty"`
	NewValue string `json:"newValue,omitempty"`
}

// FindByID returns the task with the given id, or nil if no task in the
// list carries it. Lookup is exact; there is deliberately no fuzzy matching
// here (see the demotion-to-create safety rule).
func FindByID(tasks []Task, id string) *Task {
	if id == "" {
		return nil
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// =============================================================================
// SPACE SNAPSHOT
// =============================================================================

// RecentActivity summarizes the most recent task events in a space. All
// fields are optional.
type RecentActivity struct {
	LastCreated   string `json:"lastCreated,omitempty"`
	LastUpdated   string `json:"lastUpdated,omitempty"`
	LastCompleted string `json:"lastCompleted,omitempty"`
}

// SpaceContext is the transient per-call snapshot of a space. It is rebuilt
// on every classification call and never persisted by the engine.
type SpaceContext struct {
	SpaceName      string
	Tasks          []Task
	RecentActivity *RecentActivity
}

// =============================================================================
// ENGINE RESULTS
// =============================================================================

// TaskFields holds the proposed fields for a new or updated task. All
// fields are optional; absent fields mean "not mentioned", never "clear".
type TaskFields struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"` // ISO date or datetime
	Tags        []string `json:"tags,omitempty"`
}

// TargetTask references an existing task the utterance appears to act on.
type TargetTask struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	MatchReason string `json:"matchReason,omitempty"`
}

// UpdateDiff is the minimal set of fields an update actually changes.
// Pointer fields distinguish "not changing" (nil) from "changing to the
// zero value". Fields not mentioned by the utterance are omitted, never
// nulled as a side effect.
type UpdateDiff struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
}

// Empty reports whether the diff changes nothing.
func (d UpdateDiff) Empty() bool {
	return d.Title == nil && d.Description == nil && d.Status == nil &&
		d.Priority == nil && d.DueDate == nil
}

// ClassificationResult is the validated outcome of classifying one
// utterance against a space snapshot.
type ClassificationResult struct {
	Intent     Intent `json:"intent"`
	Confidence int    `json:"confidence"` // 0-100
	Reasoning  string `json:"reasoning,omitempty"`

	// TaskFields is set for create (and retained through demotion).
	TaskFields *TaskFields `json:"task,omitempty"`

	// VaguenessScore estimates how actionable the utterance is (0-100).
	// Policy signal only; interpreted by the dialogue layer.
	VaguenessScore int    `json:"vaguenessScore,omitempty"`
	VagueReason    string `json:"vagueReason,omitempty"`

	// TargetTask is set for update/complete/delete. If set, its ID has been
	// verified against the snapshot; unverifiable targets are demoted.
	TargetTask *TargetTask `json:"targetTask,omitempty"`

	// UpdateDiff is the proposed field diff for update intents.
	UpdateDiff *UpdateDiff `json:"updates,omitempty"`

	// ClarifyingQuestion and MissingInfo are set for clarify.
	ClarifyingQuestion string   `json:"clarifyingQuestion,omitempty"`
	MissingInfo        []string `json:"missingInfo,omitempty"`

	// FollowUpQuestions are optional refinement questions (max 3 after the
	// orchestrator merges and caps them).
	FollowUpQuestions []string `json:"followUpQuestions,omitempty"`
}

// UpdateResult is the outcome of resolving an update utterance against a
// specific target task.
type UpdateResult struct {
	Diff UpdateDiff `json:"diff"`

	// TimelineEntry describes, in one sentence, what changed or what note
	// was recorded. Exactly one entry is produced per resolution, even when
	// the diff is empty.
	TimelineEntry TaskUpdate `json:"timelineEntry"`

	// MissingInfo is set when the resolver could not act (for example the
	// target id did not resolve) and explains what is needed.
	MissingInfo string `json:"missingInfo,omitempty"`
}

// PendingTask is the caller-held slot for a task awaiting clarification.
// The engine is stateless; the caller owns one slot per conversation and
// passes it back on the follow-up turn.
type PendingTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`

	// AccumulatedContext is the raw utterance plus any clarification
	// answers gathered so far.
	AccumulatedContext string `json:"accumulatedContext"`

	// RoundsUsed counts clarification rounds already spent. Capped at one
	// additional round by the dialogue machine.
	RoundsUsed int `json:"roundsUsed"`

	// DeferredQuestions are contextual follow-ups held back to be attached
	// to the created task as suggested improvements.
	DeferredQuestions []string `json:"deferredQuestions,omitempty"`
}
