// Package resolve turns an update utterance plus a verified target task
// into a minimal field diff and exactly one audit-timeline entry.
//
// The target id always comes from the classifier's already-validated
// result; this package never re-derives a target by fuzzy text matching.
// Its one piece of hard domain logic is the whole-task rule: status may
// become "done" only when the utterance says the entire task is finished,
// never when it reports progress on a sub-part.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskmind/internal/llm"
	"taskmind/internal/logging"
	"taskmind/internal/task"
)

// Resolver resolves update utterances against a target task. Stateless and
// safe for concurrent use.
type Resolver struct {
	client llm.Client
	retry  llm.RetryConfig
}

// NewResolver creates a resolver with default retry tuning.
func NewResolver(client llm.Client) *Resolver {
	return &Resolver{client: client, retry: llm.DefaultRetryConfig()}
}

// NewResolverWithRetry creates a resolver with custom retry tuning.
func NewResolverWithRetry(client llm.Client, retry llm.RetryConfig) *Resolver {
	return &Resolver{client: client, retry: retry}
}

const resolverSystemPrompt = `You resolve a user's update message against ONE existing task.
Produce the minimal set of field changes plus a one-sentence timeline summary.

## RULES (CRITICAL)

1. "status": "done" ONLY when the message says the ENTIRE task is finished
   ("X is done", "I finished X", "mark X as done"). If the message reports
   finishing a SUB-PART of the task ("completed the schema setup",
   "finished the environment config"), do NOT change status; record it as a
   note instead.
2. The same whole-task-vs-sub-part judgment applies to priority ("make it
   urgent" changes priority; "the login part feels urgent" is a note) and
   to due dates (change only on explicit rescheduling language).
3. "updates" contains ONLY fields that are actually changing. Never include
   a field just to repeat its current value, and never null a field the
   message does not mention.
4. "summary" is one plain sentence describing what changed or what note was
   recorded.

## OUTPUT

Respond with ONLY a JSON object:
{
  "updates": { "title": "...", "description": "...", "status": "todo|in-progress|done", "priority": "low|medium|high", "dueDate": "ISO 8601" },
  "note": "progress note text, when the message is a note rather than a field change",
  "summary": "one sentence for the task timeline",
  "missingInfo": "what you would need to act, if you cannot"
}

Omit "updates" entirely when nothing changes.`

type rawResolution struct {
	Updates *struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Priority    *string `json:"priority"`
		DueDate     *string `json:"dueDate"`
	} `json:"updates"`
	Note        string `json:"note"`
	Summary     string `json:"summary"`
	MissingInfo string `json:"missingInfo"`
}

// ResolveUpdate resolves one update utterance against the task with
// targetID. It never returns an error: upstream failures degrade to an
// empty diff with the utterance preserved as a note. If targetID does not
// resolve to a task in the list, the result carries only MissingInfo; the
// resolver must not silently act.
func (r *Resolver) ResolveUpdate(ctx context.Context, utterance string, tasks []task.Task, targetID string, now time.Time) task.UpdateResult {
	timer := logging.StartTimer(logging.CategoryResolve, "Resolver.ResolveUpdate")
	defer timer.Stop()

	target := task.FindByID(tasks, targetID)
	if target == nil {
		logging.Get(logging.CategoryResolve).Warnf("target task %q not found in snapshot", targetID)
		return task.UpdateResult{
			MissingInfo: fmt.Sprintf("task %q was not found; nothing was changed", targetID),
		}
	}

	userPrompt := buildResolvePrompt(utterance, target, now)

	resp, err := llm.RetryWithBackoff(ctx, r.retry, "resolve-update", func(ctx context.Context) (string, error) {
		return r.client.CompleteWithSystem(ctx, resolverSystemPrompt, userPrompt)
	})
	if err != nil {
		logging.Get(logging.CategoryResolve).Warnf("resolution failed, recording note: %v", err)
		return noteResult(target, utterance, now)
	}

	raw := llm.ExtractJSON(resp, rawResolution{})
	if raw.Updates == nil && raw.Note == "" && raw.Summary == "" {
		return noteResult(target, utterance, now)
	}

	return r.buildResult(raw, utterance, target, now)
}

// buildResolvePrompt renders the target task and the utterance.
func buildResolvePrompt(utterance string, target *task.Task, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current date: %s\n\n", now.Format("2006-01-02"))
	sb.WriteString("## Target Task\n")
	fmt.Fprintf(&sb, "id: %s\ntitle: %s\nstatus: %s\npriority: %s\n", target.ID, target.Title, target.Status, target.Priority)
	if target.DueDate != nil {
		fmt.Fprintf(&sb, "dueDate: %s\n", target.DueDate.Format("2006-01-02"))
	}
	if target.Description != "" {
		fmt.Fprintf(&sb, "description: %s\n", target.Description)
	}
	fmt.Fprintf(&sb, "\nUser message: %q", utterance)
	return sb.String()
}

// buildResult validates the raw resolution and synthesizes the timeline
// entry. The whole-task guard runs here so a misbehaving completion
// service still cannot close a task over a sub-part report.
func (r *Resolver) buildResult(raw rawResolution, utterance string, target *task.Task, now time.Time) task.UpdateResult {
	var diff task.UpdateDiff
	if raw.Updates != nil {
		diff.Title = raw.Updates.Title
		diff.Description = raw.Updates.Description
		diff.DueDate = raw.Updates.DueDate
		if raw.Updates.Status != nil {
			s := task.ParseStatus(*raw.Updates.Status)
			diff.Status = &s
		}
		if raw.Updates.Priority != nil {
			p := task.ParsePriority(*raw.Updates.Priority)
			diff.Priority = &p
		}
	}

	note := strings.TrimSpace(raw.Note)

	// Deterministic backstop for rule 1: demote a proposed "done" to a
	// note unless the utterance itself asserts whole-task completion.
	if diff.Status != nil && *diff.Status == task.StatusDone && !AssertsWholeTaskDone(utterance, target.Title) {
		logging.Resolve("demoting status change to note: sub-part completion phrasing for task %s", target.ID)
		diff.Status = nil
		if note == "" {
			note = utterance
		}
	}

	result := task.UpdateResult{Diff: diff, MissingInfo: strings.TrimSpace(raw.MissingInfo)}
	result.TimelineEntry = timelineEntry(diff, note, raw.Summary, utterance, target, now)
	return result
}

// noteResult is the safe degraded outcome: no field changes, the raw
// utterance preserved as a note on the timeline.
func noteResult(target *task.Task, utterance string, now time.Time) task.UpdateResult {
	return task.UpdateResult{
		TimelineEntry: task.TaskUpdate{
			ID:        uuid.NewString(),
			Type:      task.UpdateNote,
			Content:   utterance,
			Timestamp: now,
		},
	}
}

// timelineEntry synthesizes the single audit entry for this resolution.
func timelineEntry(diff task.UpdateDiff, note, summary, utterance string, target *task.Task, now time.Time) task.TaskUpdate {
	entry := task.TaskUpdate{
		ID:        uuid.NewString(),
		Timestamp: now,
	}

	switch {
	case diff.Status != nil:
		entry.Type = task.UpdateStatusChange
		entry.Field = "status"
		entry.OldValue = string(target.Status)
		entry.NewValue = string(*diff.Status)
	case !diff.Empty():
		entry.Type = task.UpdateFieldUpdate
		entry.Field, entry.OldValue, entry.NewValue = firstFieldChange(diff, target)
	default:
		entry.Type = task.UpdateNote
	}

	entry.Content = strings.TrimSpace(summary)
	if entry.Content == "" {
		entry.Content = defaultSummary(entry, note, utterance, target)
	}
	return entry
}

// firstFieldChange picks the field recorded on the entry when several
// changed at once; the full diff still carries the rest.
func firstFieldChange(diff task.UpdateDiff, target *task.Task) (field, oldVal, newVal string) {
	switch {
	case diff.Priority != nil:
		return "priority", string(target.Priority), string(*diff.Priority)
	case diff.DueDate != nil:
		oldDue := ""
		if target.DueDate != nil {
			oldDue = target.DueDate.Format("2006-01-02")
		}
		return "dueDate", oldDue, *diff.DueDate
	case diff.Title != nil:
		return "title", target.Title, *diff.Title
	case diff.Description != nil:
		return "description", target.Description, *diff.Description
	}
	return "", "", ""
}

func defaultSummary(entry task.TaskUpdate, note, utterance string, target *task.Task) string {
	switch entry.Type {
	case task.UpdateStatusChange:
		return fmt.Sprintf("Status changed from %s to %s", entry.OldValue, entry.NewValue)
	case task.UpdateFieldUpdate:
		return fmt.Sprintf("%s changed to %s", entry.Field, entry.NewValue)
	default:
		if note != "" {
			return note
		}
		return utterance
	}
}
