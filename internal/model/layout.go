package model

import (
	"time"

	"opsboard/internal/status"
)

type RowType string

const (
	RowProject   RowType = "project"
	RowTask      RowType = "task"
	RowMilestone RowType = "milestone"
)

// Row is one visible line of the flattened tree. Ephemeral: produced fresh
// each flatten pass, never persisted.
type Row struct {
	Type      RowType    `json:"type"`
	ID        int        `json:"id"`
	Label     string     `json:"label"`
	ParentID  int        `json:"parent_id,omitempty"`
	Project   *Project   `json:"project,omitempty"`
	Task      *Task      `json:"task,omitempty"`
	Milestone *Milestone `json:"milestone,omitempty"`
}

// OverdueSpan is the extension segment drawn from a bar's end to today for
// unfinished items whose end date has passed.
type OverdueSpan struct {
	ColumnStart int       `json:"column_start"`
	ColumnSpan  int       `json:"column_span"`
	Since       time.Time `json:"since"`
}

// BarPlacement is one row's clipped position on the day grid. Milestones are
// point events: a single column, never an overdue extension.
type BarPlacement struct {
	RowIndex    int               `json:"row_index"`
	ColumnStart int               `json:"column_start"`
	ColumnSpan  int               `json:"column_span"`
	Point       bool              `json:"point,omitempty"`
	Roadblock   bool              `json:"roadblock,omitempty"`
	Kind        MilestoneKind     `json:"kind,omitempty"`
	Status      status.Status     `json:"status"`
	FinishKind  status.FinishKind `json:"finish_kind,omitempty"`
	Overdue     *OverdueSpan      `json:"overdue,omitempty"`
}

// Anchor is a milestone's resolved (row, x) position, the endpoint unit for
// dependency edges.
type Anchor struct {
	RowIndex int `json:"row_index"`
	XOffset  int `json:"x_offset"`
}

type ElbowPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Edge is one directed dependency connector, from the dependency milestone to
// the dependent one.
type Edge struct {
	FromID int    `json:"from_id"`
	ToID   int    `json:"to_id"`
	From   Anchor `json:"from"`
	To     Anchor `json:"to"`
}

// Elbow returns the connector polyline: horizontal from the source to the
// x midpoint, vertical to the target row, horizontal into the target. The
// renderer draws the arrowhead at the last point.
func (e Edge) Elbow(rowHeight int) []ElbowPoint {
	fromY := e.From.RowIndex*rowHeight + rowHeight/2
	toY := e.To.RowIndex*rowHeight + rowHeight/2
	midX := (e.From.XOffset + e.To.XOffset) / 2
	return []ElbowPoint{
		{X: e.From.XOffset, Y: fromY},
		{X: midX, Y: fromY},
		{X: midX, Y: toY},
		{X: e.To.XOffset, Y: toY},
	}
}
