package timeline

import (
	"context"
	"testing"

	"opsboard/internal/model"
)

func projectsFixture() []model.Project {
	return []model.Project{
		{ID: 1, Name: "Bridge"},
		{ID: 2, Name: "Tunnel"},
		{ID: 3, Name: "Depot"},
	}
}

func TestFlattenCollapsedYieldsOneRowPerProject(t *testing.T) {
	l := testLoader(newFakeSource())
	rows := Flatten(projectsFixture(), l, NewOpenState())

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, want := range []string{"Bridge", "Tunnel", "Depot"} {
		if rows[i].Type != model.RowProject || rows[i].Label != want {
			t.Fatalf("row %d = %v %q, want project %q (order must match the filtered list)", i, rows[i].Type, rows[i].Label, want)
		}
	}
}

func TestFlattenExpandedHierarchy(t *testing.T) {
	src := newFakeSource()
	src.tasks[1] = []model.RawRecord{
		{"id": 10, "title": "piles"},
		{"id": 11, "title": "deck"},
	}
	src.milestones[10] = []model.RawRecord{
		{"id": 100, "title": "handover", "dueAt": "2024-02-01"},
	}
	l := testLoader(src)
	l.EnsureTasks(context.Background(), 1)
	l.EnsureMilestones(context.Background(), 10)

	open := NewOpenState()
	open.Projects[1] = true
	open.Tasks[10] = true

	rows := Flatten(projectsFixture(), l, open)

	wantTypes := []model.RowType{
		model.RowProject,   // Bridge
		model.RowTask,      // piles
		model.RowMilestone, // handover
		model.RowTask,      // deck
		model.RowProject,   // Tunnel
		model.RowProject,   // Depot
	}
	if len(rows) != len(wantTypes) {
		t.Fatalf("rows = %d, want %d", len(rows), len(wantTypes))
	}
	for i, want := range wantTypes {
		if rows[i].Type != want {
			t.Fatalf("row %d type = %v, want %v", i, rows[i].Type, want)
		}
	}
	if rows[1].ParentID != 1 || rows[2].ParentID != 10 {
		t.Fatalf("parent ids wrong: task parent %d, milestone parent %d", rows[1].ParentID, rows[2].ParentID)
	}
}

func TestFlattenExpandedButUnloadedTreatedAsEmpty(t *testing.T) {
	l := testLoader(newFakeSource())
	open := NewOpenState()
	open.Projects[1] = true
	open.Tasks[10] = true

	rows := Flatten(projectsFixture(), l, open)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (unloaded children count as empty)", len(rows))
	}
}
