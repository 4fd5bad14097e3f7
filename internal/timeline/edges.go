package timeline

import (
	"opsboard/internal/calendar"
	"opsboard/internal/model"
)

// Anchors builds the anchor index: one entry per milestone row with a
// resolvable occurrence instant, keyed by milestone id. Milestones without a
// date never anchor, so nothing can connect to them.
func Anchors(rows []model.Row, dom calendar.Domain, cellWidth int) map[int]model.Anchor {
	anchors := make(map[int]model.Anchor)
	for i, row := range rows {
		if row.Type != model.RowMilestone || row.Milestone == nil {
			continue
		}
		m := row.Milestone
		if m.OccurredAt == nil {
			continue
		}
		col := dom.ClampColumn(dom.ColumnOf(*m.OccurredAt))
		anchors[m.ID] = model.Anchor{
			RowIndex: i,
			XOffset:  col * cellWidth,
		}
	}
	return anchors
}

// Edges emits one directed edge per resolvable dependency link, from the
// dependency milestone to the dependent one. dependsOn and blockedBy are
// merged and de-duplicated. A link whose either endpoint is missing from the
// anchor index (collapsed task, unloaded parent, dateless milestone) is
// silently omitted. Cycles are not detected: a cyclic graph yields a cyclic
// edge set. The second return value counts omitted links.
func Edges(rows []model.Row, anchors map[int]model.Anchor) ([]model.Edge, int) {
	var edges []model.Edge
	omitted := 0
	for _, row := range rows {
		if row.Type != model.RowMilestone || row.Milestone == nil {
			continue
		}
		m := row.Milestone
		to, ok := anchors[m.ID]
		if !ok {
			omitted += len(dependencyIDs(m))
			continue
		}
		for _, depID := range dependencyIDs(m) {
			from, ok := anchors[depID]
			if !ok {
				omitted++
				continue
			}
			edges = append(edges, model.Edge{
				FromID: depID,
				ToID:   m.ID,
				From:   from,
				To:     to,
			})
		}
	}
	return edges, omitted
}

// dependencyIDs merges dependsOn and blockedBy preserving order, first
// occurrence wins.
func dependencyIDs(m *model.Milestone) []int {
	if len(m.DependsOn) == 0 && len(m.BlockedBy) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(m.DependsOn)+len(m.BlockedBy))
	out := make([]int, 0, len(m.DependsOn)+len(m.BlockedBy))
	for _, lists := range [][]int{m.DependsOn, m.BlockedBy} {
		for _, id := range lists {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
