package timeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"opsboard/internal/calendar"
	"opsboard/internal/model"
	"opsboard/internal/timefield"
	"opsboard/pkg/metrics"
	"opsboard/pkg/otel"
)

// Layout is the engine's full output for one render: ordered rows, the day
// grid, per-row placements and the dependency connectors. Consumed by the
// rendering layer as-is.
type Layout struct {
	Rows       []model.Row          `json:"rows"`
	Domain     calendar.Domain      `json:"domain"`
	Placements []model.BarPlacement `json:"placements"`
	Edges      []model.Edge         `json:"edges"`
	CellWidth  int                  `json:"cell_width"`
}

// View is one embedding of the timeline: it owns the expand state and the
// loaded project list, and drives the loader. All mutation goes through the
// view's own methods; collaborators (Source, FilterSource) are injected at
// construction, with null-object defaults where a capability is absent.
type View struct {
	src       Source
	filters   FilterSource
	loader    *Loader
	logger    *zap.Logger
	cellWidth int
	now       func() time.Time

	mu       sync.Mutex
	projects []model.Project
	open     OpenState
}

func NewView(src Source, filters FilterSource, loader *Loader, cellWidth int, logger *zap.Logger) *View {
	if filters == nil {
		filters = NopFilterSource{}
	}
	if cellWidth <= 0 {
		cellWidth = 38
	}
	return &View{
		src:       src,
		filters:   filters,
		loader:    loader,
		logger:    logger,
		cellWidth: cellWidth,
		now:       time.Now,
		open:      NewOpenState(),
	}
}

// Reload drops all cached children and fetches the project list under the
// current filter. A failing project fetch degrades to an empty timeline —
// logged, not surfaced; the worst case is a sparser view.
func (v *View) Reload(ctx context.Context) {
	f := v.filters.Filters()
	v.loader.Reset()

	recs, err := v.src.ListProjects(ctx, f)
	if err != nil {
		v.logger.Error("Project list fetch failed, rendering empty timeline",
			zap.Error(err))
		recs = nil
	}

	projects := make([]model.Project, 0, len(recs))
	for _, rec := range recs {
		projects = append(projects, model.ProjectFromRaw(rec))
	}
	projects = v.applyProjectFilter(projects, f)

	v.mu.Lock()
	v.projects = projects
	v.open = NewOpenState()
	v.mu.Unlock()

	v.logger.Info("Timeline reloaded",
		zap.Int("project_count", len(projects)),
		zap.Bool("focused", f.FocusedProjectID != nil),
	)

	// Project-detail embedding: a single focused project gets its milestones
	// bulk-preloaded so per-task expands skip their own fetches. Tasks are
	// loaded first so tasks the bulk result never mentions settle as empty
	// too, instead of hitting the per-task endpoints on expand.
	if f.FocusedProjectID != nil && len(projects) == 1 {
		projectID := *f.FocusedProjectID
		tasks := v.loader.EnsureTasks(ctx, projectID)
		taskIDs := make([]int, 0, len(tasks))
		for _, t := range tasks {
			taskIDs = append(taskIDs, t.ID)
		}
		v.loader.PreloadProject(ctx, projectID, taskIDs)
	}
}

// applyProjectFilter keeps the focused project only, or the projects whose
// resolved interval overlaps the explicit filter range. Projects with no
// resolvable interval stay visible — they still get a row, just no bar.
func (v *View) applyProjectFilter(projects []model.Project, f Filter) []model.Project {
	if f.FocusedProjectID != nil {
		out := projects[:0]
		for _, p := range projects {
			if p.ID == *f.FocusedProjectID {
				out = append(out, p)
			}
		}
		return out
	}

	if f.DateRange.From == nil && f.DateRange.To == nil {
		return projects
	}
	dom := calendar.Build(f.DateRange, v.now())
	out := projects[:0]
	for _, p := range projects {
		start := firstOf(p.StartAt, p.EndAt, p.CreatedAt)
		end := firstOf(p.EndAt, p.StartAt, p.CreatedAt)
		if start == nil || end == nil {
			out = append(out, p)
			continue
		}
		// Floor before comparing: the bounds are midnights, the resolved
		// instants usually are not.
		s := timefield.FloorDay(*start)
		e := timefield.FloorDay(*end)
		if !e.Before(dom.Start) && !s.After(dom.End) {
			out = append(out, p)
		}
	}
	return out
}

// ExpandProject opens a project row and triggers its task fetch. Expanding
// an already-open or already-cached project is a no-op on the wire.
func (v *View) ExpandProject(ctx context.Context, projectID int) {
	v.mu.Lock()
	v.open.Projects[projectID] = true
	v.mu.Unlock()
	v.loader.EnsureTasks(ctx, projectID)
}

// CollapseProject closes the row. Cached children are retained for instant
// re-expand.
func (v *View) CollapseProject(projectID int) {
	v.mu.Lock()
	delete(v.open.Projects, projectID)
	v.mu.Unlock()
}

func (v *View) ExpandTask(ctx context.Context, taskID int) {
	v.mu.Lock()
	v.open.Tasks[taskID] = true
	v.mu.Unlock()
	v.loader.EnsureMilestones(ctx, taskID)
}

func (v *View) CollapseTask(taskID int) {
	v.mu.Lock()
	delete(v.open.Tasks, taskID)
	v.mu.Unlock()
}

// Layout computes the full render payload from current state. Pure with
// respect to the caches: no fetching happens here.
func (v *View) Layout(ctx context.Context) Layout {
	_, span := otel.LayoutSpan(ctx)
	defer span.End()
	start := time.Now()

	f := v.filters.Filters()
	now := v.now()
	dom := calendar.Build(f.DateRange, now)

	v.mu.Lock()
	projects := v.projects
	open := v.open
	v.mu.Unlock()

	rows := Flatten(projects, v.loader, open)

	placements := make([]model.BarPlacement, 0, len(rows))
	for i, row := range rows {
		if p := PlaceRow(row, i, dom, now); p != nil {
			placements = append(placements, *p)
		}
	}

	anchors := Anchors(rows, dom, v.cellWidth)
	edges, omitted := Edges(rows, anchors)

	metrics.RecordLayoutBuild(len(rows), time.Since(start))
	metrics.EdgesEmitted.Add(float64(len(edges)))
	metrics.EdgesOmitted.Add(float64(omitted))

	return Layout{
		Rows:       rows,
		Domain:     dom,
		Placements: placements,
		Edges:      edges,
		CellWidth:  v.cellWidth,
	}
}
