package timeline

import (
	"testing"

	"opsboard/internal/calendar"
	"opsboard/internal/model"
)

func anchorsFixture(t *testing.T) ([]model.Row, calendar.Domain) {
	t.Helper()
	dom := calendar.Build(calendar.Range{From: ptr(day(2024, 1, 1)), To: ptr(day(2024, 1, 31))}, day(2024, 1, 15))
	rows := []model.Row{
		projectRow(model.Project{ID: 1, Name: "Bridge"}),
		milestoneRow(model.Milestone{ID: 100, OccurredAt: ptr(day(2024, 1, 5))}),
		milestoneRow(model.Milestone{ID: 101, OccurredAt: ptr(day(2024, 1, 12)), DependsOn: []int{100}}),
		milestoneRow(model.Milestone{ID: 102}), // dateless: no anchor
	}
	return rows, dom
}

func TestAnchorsIndex(t *testing.T) {
	rows, dom := anchorsFixture(t)
	anchors := Anchors(rows, dom, 38)

	if len(anchors) != 2 {
		t.Fatalf("anchors = %d, want 2 (dateless milestone excluded)", len(anchors))
	}
	a, ok := anchors[100]
	if !ok {
		t.Fatal("milestone 100 missing from anchor index")
	}
	if a.RowIndex != 1 {
		t.Errorf("anchor row = %d, want 1", a.RowIndex)
	}
	if a.XOffset != 4*38 {
		t.Errorf("anchor x = %d, want column*cellWidth = %d", a.XOffset, 4*38)
	}
	if _, ok := anchors[102]; ok {
		t.Fatal("dateless milestone must not anchor")
	}
}

func TestEdgesEmittedOnlyWithBothAnchors(t *testing.T) {
	rows, dom := anchorsFixture(t)
	anchors := Anchors(rows, dom, 38)

	edges, omitted := Edges(rows, anchors)
	if len(edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(edges))
	}
	e := edges[0]
	if e.FromID != 100 || e.ToID != 101 {
		t.Fatalf("edge direction = %d -> %d, want dependency -> dependent (100 -> 101)", e.FromID, e.ToID)
	}
	if omitted != 0 {
		t.Fatalf("omitted = %d, want 0", omitted)
	}

	// Remove the dependency's anchor: the edge disappears on the next pass.
	delete(anchors, 100)
	edges, omitted = Edges(rows, anchors)
	if len(edges) != 0 || omitted != 1 {
		t.Fatalf("after un-anchoring: edges=%d omitted=%d, want 0/1", len(edges), omitted)
	}
}

func TestEdgesDependencyUnionDeduplicated(t *testing.T) {
	dom := calendar.Build(calendar.Range{From: ptr(day(2024, 1, 1)), To: ptr(day(2024, 1, 31))}, day(2024, 1, 15))
	rows := []model.Row{
		milestoneRow(model.Milestone{ID: 100, OccurredAt: ptr(day(2024, 1, 5))}),
		milestoneRow(model.Milestone{ID: 101, OccurredAt: ptr(day(2024, 1, 6))}),
		milestoneRow(model.Milestone{
			ID:         102,
			OccurredAt: ptr(day(2024, 1, 12)),
			DependsOn:  []int{100, 101},
			BlockedBy:  []int{100}, // repeated across both lists
		}),
	}
	edges, _ := Edges(rows, Anchors(rows, dom, 38))
	if len(edges) != 2 {
		t.Fatalf("edges = %d, want 2 (dependsOn ∪ blockedBy de-duplicated)", len(edges))
	}
}

func TestEdgesCyclicGraphPassesThrough(t *testing.T) {
	dom := calendar.Build(calendar.Range{From: ptr(day(2024, 1, 1)), To: ptr(day(2024, 1, 31))}, day(2024, 1, 15))
	rows := []model.Row{
		milestoneRow(model.Milestone{ID: 100, OccurredAt: ptr(day(2024, 1, 5)), DependsOn: []int{101}}),
		milestoneRow(model.Milestone{ID: 101, OccurredAt: ptr(day(2024, 1, 10)), DependsOn: []int{100}}),
	}
	edges, _ := Edges(rows, Anchors(rows, dom, 38))
	// No cycle detection: both directions come out.
	if len(edges) != 2 {
		t.Fatalf("cyclic graph edges = %d, want 2", len(edges))
	}
}

func TestEdgeElbowGeometry(t *testing.T) {
	e := model.Edge{
		From: model.Anchor{RowIndex: 1, XOffset: 76},
		To:   model.Anchor{RowIndex: 3, XOffset: 190},
	}
	pts := e.Elbow(28)
	if len(pts) != 4 {
		t.Fatalf("elbow points = %d, want 4", len(pts))
	}
	midX := (76 + 190) / 2
	fromY := 1*28 + 14
	toY := 3*28 + 14
	want := []model.ElbowPoint{
		{X: 76, Y: fromY},
		{X: midX, Y: fromY},
		{X: midX, Y: toY},
		{X: 190, Y: toY},
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Fatalf("point %d = %+v, want %+v", i, pts[i], want[i])
		}
	}
}
