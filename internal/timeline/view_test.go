package timeline

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"opsboard/internal/calendar"
	"opsboard/internal/model"
)

func testView(src Source, filters FilterSource) *View {
	v := NewView(src, filters, testLoader(src), 38, zap.NewNop())
	v.now = func() time.Time { return day(2024, 1, 10) }
	return v
}

func TestViewReloadAndLayout(t *testing.T) {
	src := newFakeSource()
	src.projects = []model.RawRecord{
		{"id": 1, "name": "Bridge", "status": "Active", "startAt": "2024-01-01", "endAt": "2024-01-10"},
		{"id": 2, "name": "Tunnel", "status": "Done"},
	}
	v := testView(src, nil)
	v.Reload(context.Background())

	layout := v.Layout(context.Background())
	if len(layout.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(layout.Rows))
	}
	if layout.Domain.DayCount() != 40 {
		t.Fatalf("default domain days = %d, want 40", layout.Domain.DayCount())
	}
	// Bridge resolves an interval; Tunnel has no dates at all, so only one
	// placement comes out.
	if len(layout.Placements) != 1 {
		t.Fatalf("placements = %d, want 1", len(layout.Placements))
	}
	p := layout.Placements[0]
	if p.ColumnStart != 15 || p.ColumnStart+p.ColumnSpan-1 != 24 {
		t.Fatalf("bridge bar = [%d, span %d], want columns [15,24]", p.ColumnStart, p.ColumnSpan)
	}
	if layout.CellWidth != 38 {
		t.Fatalf("cell width = %d", layout.CellWidth)
	}
}

func TestViewProjectFetchFailureDegrades(t *testing.T) {
	src := newFakeSource()
	src.failProjects = true
	v := testView(src, nil)
	v.Reload(context.Background())

	layout := v.Layout(context.Background())
	if len(layout.Rows) != 0 {
		t.Fatalf("rows = %d, want empty timeline on project fetch failure", len(layout.Rows))
	}
}

func TestViewExpandCollapseKeepsCache(t *testing.T) {
	src := newFakeSource()
	src.projects = []model.RawRecord{{"id": 1, "name": "Bridge"}}
	src.tasks[1] = []model.RawRecord{{"id": 10, "title": "piles"}}
	v := testView(src, nil)
	v.Reload(context.Background())

	v.ExpandProject(context.Background(), 1)
	if rows := v.Layout(context.Background()).Rows; len(rows) != 2 {
		t.Fatalf("expanded rows = %d, want 2", len(rows))
	}

	v.CollapseProject(1)
	if rows := v.Layout(context.Background()).Rows; len(rows) != 1 {
		t.Fatalf("collapsed rows = %d, want 1", len(rows))
	}

	v.ExpandProject(context.Background(), 1)
	if src.taskCalls != 1 {
		t.Fatalf("task endpoint called %d times, want 1 (cache survives collapse)", src.taskCalls)
	}
}

func TestViewFocusedProjectFilterAndPreload(t *testing.T) {
	src := newFakeSource()
	src.projects = []model.RawRecord{
		{"id": 1, "name": "Bridge"},
		{"id": 2, "name": "Tunnel"},
	}
	src.tasks[2] = []model.RawRecord{{"id": 20, "title": "bore"}}
	src.byProject[2] = []model.RawRecord{
		{"id": 200, "taskId": 20, "title": "breakthrough", "dueAt": "2024-01-08"},
	}

	focused := 2
	bus := NewFilterBus()
	bus.Publish(Filter{FocusedProjectID: &focused})

	v := testView(src, bus)
	v.Reload(context.Background())

	layout := v.Layout(context.Background())
	if len(layout.Rows) != 1 || layout.Rows[0].ID != 2 {
		t.Fatalf("focused view rows = %+v, want only project 2", layout.Rows)
	}
	if src.bulkCalls != 1 {
		t.Fatalf("bulk preload calls = %d, want 1", src.bulkCalls)
	}

	// The preload settled task 20's milestones; expanding costs nothing.
	v.ExpandProject(context.Background(), 2)
	v.ExpandTask(context.Background(), 20)
	if src.msCalls != 0 || src.msQueryCalls != 0 {
		t.Fatalf("per-task milestone calls = (%d, %d), want none after preload", src.msCalls, src.msQueryCalls)
	}

	layout = v.Layout(context.Background())
	if len(layout.Rows) != 3 {
		t.Fatalf("rows = %d, want project+task+milestone", len(layout.Rows))
	}
	if len(layout.Edges) != 0 {
		t.Fatalf("edges = %d, want 0", len(layout.Edges))
	}
}

func TestViewFocusedPreloadSettlesMilestonelessTasks(t *testing.T) {
	src := newFakeSource()
	src.projects = []model.RawRecord{{"id": 2, "name": "Tunnel"}}
	src.tasks[2] = []model.RawRecord{
		{"id": 20, "title": "bore"},
		{"id": 21, "title": "line"},
	}
	// The bulk result only knows about task 20; task 21 has no milestones.
	src.byProject[2] = []model.RawRecord{
		{"id": 200, "taskId": 20, "title": "breakthrough", "dueAt": "2024-01-08"},
	}

	focused := 2
	bus := NewFilterBus()
	bus.Publish(Filter{FocusedProjectID: &focused})

	v := testView(src, bus)
	v.Reload(context.Background())

	if src.taskCalls != 1 {
		t.Fatalf("task calls after reload = %d, want 1", src.taskCalls)
	}

	v.ExpandProject(context.Background(), 2)
	v.ExpandTask(context.Background(), 20)
	v.ExpandTask(context.Background(), 21)
	if src.taskCalls != 1 {
		t.Fatalf("task calls after expand = %d, want 1 (cache from reload)", src.taskCalls)
	}
	if src.msCalls != 0 || src.msQueryCalls != 0 {
		t.Fatalf("per-task milestone calls = (%d, %d), want none; the empty task settled via the preload",
			src.msCalls, src.msQueryCalls)
	}

	rows := v.Layout(context.Background()).Rows
	// project, task 20, its milestone, task 21 (no milestone row).
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
}

func TestViewDateRangeFilter(t *testing.T) {
	src := newFakeSource()
	src.projects = []model.RawRecord{
		{"id": 1, "name": "InRange", "startAt": "2024-01-05", "endAt": "2024-01-20"},
		{"id": 2, "name": "Past", "startAt": "2023-10-01", "endAt": "2023-10-20"},
		{"id": 3, "name": "Dateless"},
	}
	from := day(2024, 1, 1)
	to := day(2024, 1, 31)
	bus := NewFilterBus()
	bus.Publish(Filter{DateRange: calendar.Range{From: &from, To: &to}})

	v := testView(src, bus)
	v.Reload(context.Background())

	rows := v.Layout(context.Background()).Rows
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (overlapping + dateless)", len(rows))
	}
	if rows[0].Label != "InRange" || rows[1].Label != "Dateless" {
		t.Fatalf("rows = [%s, %s]", rows[0].Label, rows[1].Label)
	}
}

func TestViewDateRangeFilterFloorsInstants(t *testing.T) {
	src := newFakeSource()
	src.projects = []model.RawRecord{
		// Starts at 10:00 on the window's last day: the floored interval
		// still overlaps, so the time-of-day must not push it out.
		{"id": 1, "name": "LastDay", "startAt": "2024-01-25T10:00:00", "endAt": "2024-02-10T18:30:00"},
		// Ends mid-morning on the window's first day.
		{"id": 2, "name": "FirstDay", "startAt": "2023-12-01T08:00:00", "endAt": "2024-01-01T09:15:00"},
		// Floored end lands the day before the window opens.
		{"id": 3, "name": "JustBefore", "startAt": "2023-12-01T08:00:00", "endAt": "2023-12-31T23:59:59"},
	}
	from := day(2024, 1, 1)
	to := day(2024, 1, 25)
	bus := NewFilterBus()
	bus.Publish(Filter{DateRange: calendar.Range{From: &from, To: &to}})

	v := testView(src, bus)
	v.Reload(context.Background())

	rows := v.Layout(context.Background()).Rows
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (both boundary projects kept)", len(rows))
	}
	if rows[0].Label != "LastDay" || rows[1].Label != "FirstDay" {
		t.Fatalf("rows = [%s, %s], want [LastDay, FirstDay]", rows[0].Label, rows[1].Label)
	}
}

func TestViewMilestoneEdgesAcrossTasks(t *testing.T) {
	src := newFakeSource()
	src.projects = []model.RawRecord{{"id": 1, "name": "Bridge"}}
	src.tasks[1] = []model.RawRecord{
		{"id": 10, "title": "piles"},
		{"id": 11, "title": "deck"},
	}
	src.milestones[10] = []model.RawRecord{
		{"id": 100, "title": "piles done", "dueAt": "2024-01-05"},
	}
	src.milestones[11] = []model.RawRecord{
		{"id": 110, "title": "deck done", "dueAt": "2024-01-20", "dependsOn": []int{100}},
	}

	v := testView(src, nil)
	v.Reload(context.Background())
	v.ExpandProject(context.Background(), 1)
	v.ExpandTask(context.Background(), 10)
	v.ExpandTask(context.Background(), 11)

	layout := v.Layout(context.Background())
	if len(layout.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(layout.Edges))
	}

	// Collapsing the dependency's task removes its row and anchor; the edge
	// disappears on the next layout.
	v.CollapseTask(10)
	layout = v.Layout(context.Background())
	if len(layout.Edges) != 0 {
		t.Fatalf("edges after collapsing dependency's task = %d, want 0", len(layout.Edges))
	}
}
