// Package spacectx renders a space's task snapshot into the bounded
// textual context the classifier prompt consumes. The rendering is pure
// string assembly: status counts first, then up to MaxTasks task lines,
// then the recent-activity block.
package spacectx

import (
	"fmt"
	"strings"

	"taskmind/internal/task"
)

// Options bounds the rendered context.
type Options struct {
	// MaxTasks is the maximum number of task lines rendered.
	MaxTasks int

	// MaxDescription truncates each task description to this many runes.
	MaxDescription int
}

// DefaultOptions returns the standard bounds.
func DefaultOptions() Options {
	return Options{
		MaxTasks:       25,
		MaxDescription: 120,
	}
}

// Render produces the textual context for a space snapshot.
func Render(space task.SpaceContext, opts Options) string {
	if opts.MaxTasks <= 0 {
		opts.MaxTasks = DefaultOptions().MaxTasks
	}
	if opts.MaxDescription <= 0 {
		opts.MaxDescription = DefaultOptions().MaxDescription
	}

	var b strings.Builder

	name := space.SpaceName
	if name == "" {
		name = "default"
	}
	fmt.Fprintf(&b, "Space: %s\n", name)

	todo, inProgress, done := countByStatus(space.Tasks)
	fmt.Fprintf(&b, "Tasks: %d total (%d todo, %d in-progress, %d done)\n",
		len(space.Tasks), todo, inProgress, done)

	if len(space.Tasks) > 0 {
		b.WriteString("\nCurrent tasks:\n")
		shown := space.Tasks
		if len(shown) > opts.MaxTasks {
			shown = shown[:opts.MaxTasks]
		}
		for _, t := range shown {
			b.WriteString(renderTask(t, opts.MaxDescription))
		}
		if omitted := len(space.Tasks) - len(shown); omitted > 0 {
			fmt.Fprintf(&b, "  ... and %d more tasks\n", omitted)
		}
	}

	if ra := space.RecentActivity; ra != nil {
		var lines []string
		if ra.LastCreated != "" {
			lines = append(lines, "last created: "+ra.LastCreated)
		}
		if ra.LastUpdated != "" {
			lines = append(lines, "last updated: "+ra.LastUpdated)
		}
		if ra.LastCompleted != "" {
			lines = append(lines, "last completed: "+ra.LastCompleted)
		}
		if len(lines) > 0 {
			b.WriteString("\nRecent activity: " + strings.Join(lines, "; ") + "\n")
		}
	}

	return b.String()
}

// renderTask produces one task line:
//
//	- [id] "title" (status, priority, due 2026-09-04) - description
func renderTask(t task.Task, maxDesc int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  - [%s] %q (%s, %s", t.ID, t.Title, t.Status, t.Priority)
	if t.DueDate != nil {
		fmt.Fprintf(&b, ", due %s", t.DueDate.Format("2006-01-02"))
	}
	b.WriteString(")")
	if desc := strings.TrimSpace(t.Description); desc != "" {
		b.WriteString(" - " + truncate(desc, maxDesc))
	}
	b.WriteString("\n")
	return b.String()
}

func countByStatus(tasks []task.Task) (todo, inProgress, done int) {
	for _, t := range tasks {
		switch t.Status {
		case task.StatusInProgress:
			inProgress++
		case task.StatusDone:
			done++
		default:
			todo++
		}
	}
	return todo, inProgress, done
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
