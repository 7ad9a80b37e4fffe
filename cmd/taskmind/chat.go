package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"taskmind/internal/dialogue"
	"taskmind/internal/task"

	"github.com/google/uuid"
)

// session holds the in-memory state for one interactive chat. The engine
// is stateless; the session owns the task list and the conversation slot
// and applies whatever the machine decides.
type session struct {
	machine  *dialogue.Machine
	resolver updateResolver
	conv     dialogue.Conversation
	tasks    []task.Task
	recent   task.RecentActivity
}

// updateResolver is the slice of the resolver the chat loop needs.
type updateResolver interface {
	ResolveUpdate(ctx context.Context, utterance string, tasks []task.Task, targetID string, now time.Time) task.UpdateResult
}

// runChat starts the interactive loop.
func runChat(ctx context.Context) error {
	machine, resolver, err := buildSession(ctx)
	if err != nil {
		return err
	}
	s := &session{machine: machine, resolver: resolver}

	fmt.Printf("taskmind - space %q. Type a message, /list to see tasks, /quit to exit.\n", spaceName)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if s.handleCommand(line) {
				break
			}
			continue
		}
		s.handleMessage(ctx, line)
	}
	return scanner.Err()
}

// handleCommand processes slash commands. Returns true to exit the loop.
func (s *session) handleCommand(line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "/quit", "/exit":
		return true
	case "/list":
		s.printTasks()
	case "/help":
		fmt.Println("Commands: /list  /help  /quit")
		fmt.Println("Anything else is interpreted as a task request.")
	default:
		fmt.Println("Unknown command. Try /help.")
	}
	return false
}

// handleMessage runs one utterance through the machine and applies the
// outcome to the in-memory task list.
func (s *session) handleMessage(ctx context.Context, line string) {
	outcome := s.machine.Advance(ctx, &s.conv, line, s.tasks, spaceName, &s.recent)

	switch outcome.Action {
	case dialogue.ActionAsk:
		fmt.Println(outcome.Question)

	case dialogue.ActionCreate:
		t := s.applyCreate(outcome)
		fmt.Printf("Created %q (%s priority%s).\n", t.Title, t.Priority, dueSuffix(t.DueDate))
		for _, q := range t.SuggestedImprovements {
			fmt.Printf("  suggestion: %s\n", q)
		}

	case dialogue.ActionUpdate:
		s.applyUpdate(ctx, line, outcome)

	case dialogue.ActionDelete:
		s.applyDelete(outcome)

	case dialogue.ActionQuery:
		s.printTasks()
	}
}

// applyCreate persists a new task from the outcome.
func (s *session) applyCreate(outcome dialogue.Outcome) task.Task {
	fields := outcome.Create
	now := time.Now()
	t := task.Task{
		ID:          uuid.NewString(),
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    fields.Priority,
		Status:      task.StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
		DueDate:     parseDueDate(fields.DueDate),
		Updates: []task.TaskUpdate{{
			ID:        uuid.NewString(),
			Type:      task.UpdateCreation,
			Content:   "Task created",
			Timestamp: now,
		}},
		SuggestedImprovements: outcome.SuggestedImprovements,
	}
	if !t.Priority.Valid() {
		t.Priority = task.PriorityMedium
	}
	s.tasks = append(s.tasks, t)
	s.recent.LastCreated = t.Title
	return t
}

// applyUpdate resolves the utterance against the target and applies the
// diff plus the single timeline entry.
func (s *session) applyUpdate(ctx context.Context, utterance string, outcome dialogue.Outcome) {
	target := outcome.Classification.TargetTask
	if target == nil {
		fmt.Println("I couldn't tell which task you meant.")
		return
	}

	result := s.resolver.ResolveUpdate(ctx, utterance, s.tasks, target.ID, time.Now())
	if result.MissingInfo != "" {
		fmt.Println(result.MissingInfo)
		return
	}

	t := task.FindByID(s.tasks, target.ID)
	if t == nil {
		fmt.Println("That task no longer exists.")
		return
	}
	applyDiff(t, result.Diff)
	t.Updates = append(t.Updates, result.TimelineEntry)
	t.UpdatedAt = time.Now()

	s.recent.LastUpdated = t.Title
	if t.Status == task.StatusDone {
		s.recent.LastCompleted = t.Title
	}
	fmt.Printf("Updated %q: %s\n", t.Title, result.TimelineEntry.Content)
}

// applyDelete removes the classified target task.
func (s *session) applyDelete(outcome dialogue.Outcome) {
	target := outcome.Classification.TargetTask
	if target == nil {
		fmt.Println("I couldn't tell which task to delete.")
		return
	}
	for i := range s.tasks {
		if s.tasks[i].ID == target.ID {
			fmt.Printf("Deleted %q.\n", s.tasks[i].Title)
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
	fmt.Println("That task no longer exists.")
}

// applyDiff copies the diff's set fields onto the task. Title is the one
// field that stays the classifier's concern; everything here came through
// the resolver's minimal-diff rule.
func applyDiff(t *task.Task, d task.UpdateDiff) {
	if d.Title != nil {
		t.Title = *d.Title
	}
	if d.Description != nil {
		t.Description = *d.Description
	}
	if d.Status != nil {
		t.Status = *d.Status
	}
	if d.Priority != nil {
		t.Priority = *d.Priority
	}
	if d.DueDate != nil {
		t.DueDate = parseDueDate(*d.DueDate)
	}
}

func (s *session) printTasks() {
	if len(s.tasks) == 0 {
		fmt.Println("No tasks yet.")
		return
	}
	for _, t := range s.tasks {
		fmt.Printf("  [%s] %q (%s, %s%s)\n", t.ID[:8], t.Title, t.Status, t.Priority, dueSuffix(t.DueDate))
	}
}

// parseDueDate accepts the date formats the classifier emits. Unparsable
// strings yield no due date rather than a bogus one.
func parseDueDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if d, err := time.Parse(layout, s); err == nil {
			return &d
		}
	}
	return nil
}

func dueSuffix(due *time.Time) string {
	if due == nil {
		return ""
	}
	return ", due " + due.Format("2006-01-02")
}
