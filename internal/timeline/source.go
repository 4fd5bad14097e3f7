// Package timeline is the layout engine behind the Gantt view: it loads the
// project → task → milestone hierarchy lazily, flattens the expanded tree
// into rows, places each row on the calendar day grid and routes dependency
// connectors between milestones. Rendering is someone else's job; the engine
// emits rows, placements and edges only.
package timeline

import (
	"context"

	"opsboard/internal/calendar"
	"opsboard/internal/model"
)

// Filter is the slice of the org-wide filter state the engine consumes.
type Filter struct {
	DateRange        calendar.Range `json:"date_range"`
	FocusedProjectID *int           `json:"focused_project_id,omitempty"`
}

// Source lists raw records from the ops data endpoints. Tasks and milestones
// each have a primary and a fallback endpoint; the loader decides when to
// fall back. Implementations must not normalize — the engine does that on
// arrival.
type Source interface {
	ListProjects(ctx context.Context, f Filter) ([]model.RawRecord, error)
	ListTasks(ctx context.Context, projectID int) ([]model.RawRecord, error)
	ListTasksNested(ctx context.Context, projectID int) ([]model.RawRecord, error)
	ListMilestonesByTask(ctx context.Context, taskID int) ([]model.RawRecord, error)
	ListMilestonesByQuery(ctx context.Context, taskID int) ([]model.RawRecord, error)
	ListMilestonesByProject(ctx context.Context, projectID int) ([]model.RawRecord, error)
}

// FilterSource exposes the externally-owned filter state. Injected at
// construction; views never reach for globals.
type FilterSource interface {
	Filters() Filter
}

// NopFilterSource is the null-object default used when no filter capability
// is wired in.
type NopFilterSource struct{}

func (NopFilterSource) Filters() Filter { return Filter{} }
