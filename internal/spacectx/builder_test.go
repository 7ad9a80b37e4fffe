package spacectx

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"taskmind/internal/task"
)

func TestRenderEmptySpace(t *testing.T) {
	got := Render(task.SpaceContext{SpaceName: "Work"}, DefaultOptions())

	if !strings.Contains(got, "Space: Work") {
		t.Errorf("missing space name:\n%s", got)
	}
	if !strings.Contains(got, "Tasks: 0 total (0 todo, 0 in-progress, 0 done)") {
		t.Errorf("missing zero counts:\n%s", got)
	}
	if strings.Contains(got, "Current tasks:") {
		t.Errorf("empty space must not render a task block:\n%s", got)
	}
}

func TestRenderTaskLines(t *testing.T) {
	due := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	space := task.SpaceContext{
		SpaceName: "Work",
		Tasks: []task.Task{
			{ID: "t1", Title: "Fix the login bug", Status: task.StatusInProgress, Priority: task.PriorityHigh, DueDate: &due, Description: "Users locked out after password reset"},
			{ID: "t2", Title: "Write release notes", Status: task.StatusTodo, Priority: task.PriorityMedium},
			{ID: "t3", Title: "Ship v2", Status: task.StatusDone, Priority: task.PriorityLow},
		},
	}

	got := Render(space, DefaultOptions())

	if !strings.Contains(got, "Tasks: 3 total (1 todo, 1 in-progress, 1 done)") {
		t.Errorf("wrong counts:\n%s", got)
	}
	if !strings.Contains(got, `- [t1] "Fix the login bug" (in-progress, high, due 2026-09-04) - Users locked out after password reset`) {
		t.Errorf("t1 line malformed:\n%s", got)
	}
	if !strings.Contains(got, `- [t2] "Write release notes" (todo, medium)`) {
		t.Errorf("t2 line malformed:\n%s", got)
	}
}

func TestRenderCapsTaskCount(t *testing.T) {
	var tasks []task.Task
	for i := 0; i < 30; i++ {
		tasks = append(tasks, task.Task{
			ID:     fmt.Sprintf("t%d", i),
			Title:  fmt.Sprintf("Task %d", i),
			Status: task.StatusTodo,
		})
	}

	got := Render(task.SpaceContext{SpaceName: "Work", Tasks: tasks}, Options{MaxTasks: 25, MaxDescription: 120})

	if !strings.Contains(got, "... and 5 more tasks") {
		t.Errorf("missing omission marker:\n%s", got)
	}
	if strings.Contains(got, "[t25]") {
		t.Errorf("task beyond the cap was rendered:\n%s", got)
	}
}

func TestRenderTruncatesDescriptions(t *testing.T) {
	long := strings.Repeat("x", 200)
	space := task.SpaceContext{
		Tasks: []task.Task{{ID: "t1", Title: "T", Status: task.StatusTodo, Description: long}},
	}

	got := Render(space, Options{MaxTasks: 25, MaxDescription: 50})

	if strings.Contains(got, long) {
		t.Error("description was not truncated")
	}
	if !strings.Contains(got, strings.Repeat("x", 50)+"...") {
		t.Errorf("truncation marker missing:\n%s", got)
	}
}

func TestRenderRecentActivity(t *testing.T) {
	space := task.SpaceContext{
		SpaceName: "Work",
		RecentActivity: &task.RecentActivity{
			LastCreated:   "Fix the login bug",
			LastCompleted: "Ship v2",
		},
	}

	got := Render(space, DefaultOptions())
	if !strings.Contains(got, "Recent activity: last created: Fix the login bug; last completed: Ship v2") {
		t.Errorf("recent activity malformed:\n%s", got)
	}
}

func TestRenderDefaultSpaceName(t *testing.T) {
	got := Render(task.SpaceContext{}, DefaultOptions())
	if !strings.Contains(got, "Space: default") {
		t.Errorf("missing default space name:\n%s", got)
	}
}
