package timeline

import (
	"time"

	"opsboard/internal/calendar"
	"opsboard/internal/model"
	"opsboard/internal/status"
	"opsboard/internal/timefield"
)

// PlaceRow converts one row's resolved interval into a column span clipped
// to the domain. Projects and tasks get a bar, falling back to the opposite
// bound or createdAt when one side is missing; neither resolvable means no
// bar at all. Milestones are point events on a single column. Unfinished
// rows whose end lies strictly before today additionally get the overdue
// extension segment.
func PlaceRow(row model.Row, rowIndex int, dom calendar.Domain, now time.Time) *model.BarPlacement {
	today := timefield.FloorDay(now)

	switch row.Type {
	case model.RowMilestone:
		m := row.Milestone
		if m == nil || m.OccurredAt == nil {
			return nil
		}
		col := dom.ClampColumn(dom.ColumnOf(*m.OccurredAt))
		return &model.BarPlacement{
			RowIndex:    rowIndex,
			ColumnStart: col,
			ColumnSpan:  1,
			Point:       true,
			Roadblock:   m.IsRoadblock,
			Kind:        m.Kind,
			Status:      m.Status,
			FinishKind:  m.FinishKind,
		}
	case model.RowProject:
		p := row.Project
		if p == nil {
			return nil
		}
		return placeInterval(rowIndex, p.StartAt, p.EndAt, p.CreatedAt, p.Status, dom, today)
	case model.RowTask:
		t := row.Task
		if t == nil {
			return nil
		}
		return placeInterval(rowIndex, t.StartAt, t.DueAt, t.CreatedAt, t.Status, dom, today)
	default:
		return nil
	}
}

func placeInterval(rowIndex int, start, end, created *time.Time, st status.Status, dom calendar.Domain, today time.Time) *model.BarPlacement {
	s := firstOf(start, end, created)
	e := firstOf(end, start, created)
	if s == nil || e == nil {
		return nil
	}

	startCol := dom.ClampColumn(dom.ColumnOf(*s))
	endCol := dom.ClampColumn(dom.ColumnOf(*e))
	span := endCol - startCol + 1
	if span < 1 {
		span = 1
	}

	placement := &model.BarPlacement{
		RowIndex:    rowIndex,
		ColumnStart: startCol,
		ColumnSpan:  span,
		Status:      st,
	}

	if st != status.Finished && timefield.FloorDay(*e).Before(today) {
		todayCol := dom.ClampColumn(dom.ColumnOf(today))
		overdueSpan := todayCol - endCol
		if overdueSpan < 1 {
			overdueSpan = 1
		}
		placement.Overdue = &model.OverdueSpan{
			ColumnStart: endCol,
			ColumnSpan:  overdueSpan,
			Since:       timefield.FloorDay(*e),
		}
	}

	return placement
}

func firstOf(candidates ...*time.Time) *time.Time {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}
