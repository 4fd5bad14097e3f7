package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"opsboard/internal/model"
	"opsboard/pkg/metrics"
	"opsboard/pkg/otel"
)

// Loader fetches and caches children for exactly the currently-expanded
// nodes: tasks keyed by project id, milestones keyed by task id. At most one
// fetch is ever in flight per parent, a collapsed parent keeps its cache for
// instant re-expand, and caches drop only on Reset (a fresh top-level
// reload). Fetch failures degrade to a cached empty list — the worst case is
// a sparser tree, never an error surfaced to the caller.
type Loader struct {
	src        Source
	rdb        *redis.Client // optional; bulk preload cache, fail-open
	preloadTTL time.Duration
	logger     *zap.Logger

	mu         sync.Mutex
	epoch      uint64
	tasks      map[int][]model.Task
	milestones map[int][]model.Milestone
	inflight   map[string]bool
}

func NewLoader(src Source, rdb *redis.Client, preloadTTL time.Duration, logger *zap.Logger) *Loader {
	return &Loader{
		src:        src,
		rdb:        rdb,
		preloadTTL: preloadTTL,
		logger:     logger,
		tasks:      make(map[int][]model.Task),
		milestones: make(map[int][]model.Milestone),
		inflight:   make(map[string]bool),
	}
}

// Reset invalidates everything. The epoch bump makes any in-flight fetch
// drop its result instead of seeding a stale cache.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	l.tasks = make(map[int][]model.Task)
	l.milestones = make(map[int][]model.Milestone)
	l.inflight = make(map[string]bool)
}

// Tasks returns the cached task list for a project, and whether the project
// has been loaded at all. Read path for the flattener.
func (l *Loader) Tasks(projectID int) ([]model.Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts, ok := l.tasks[projectID]
	return ts, ok
}

// Milestones returns the cached milestone list for a task.
func (l *Loader) Milestones(taskID int) ([]model.Milestone, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ms, ok := l.milestones[taskID]
	return ms, ok
}

// EnsureTasks loads a project's tasks on first expand. Cached lists are
// returned as-is; a parent already being fetched returns nil (the flattener
// treats not-yet-loaded as empty and the caller re-flattens on arrival).
func (l *Loader) EnsureTasks(ctx context.Context, projectID int) []model.Task {
	key := fmt.Sprintf("tasks:%d", projectID)

	l.mu.Lock()
	if ts, ok := l.tasks[projectID]; ok {
		l.mu.Unlock()
		metrics.LoaderCacheHits.WithLabelValues("task").Inc()
		return ts
	}
	if l.inflight[key] {
		l.mu.Unlock()
		return nil
	}
	l.inflight[key] = true
	epoch := l.epoch
	l.mu.Unlock()

	metrics.LoaderCacheMisses.WithLabelValues("task").Inc()
	ctx, span := otel.ChildFetchSpan(ctx, "task", projectID)
	defer span.End()

	recs := l.fetchWithFallback(ctx, "task", projectID,
		l.src.ListTasks, l.src.ListTasksNested)

	tasks := make([]model.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, model.TaskFromRaw(rec, projectID))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, key)
	if l.epoch != epoch {
		// View was torn down or reloaded while the fetch was in flight.
		l.logger.Debug("Dropping stale task fetch result",
			zap.Int("project_id", projectID))
		return nil
	}
	l.tasks[projectID] = tasks
	return tasks
}

// EnsureMilestones loads a task's milestones on first expand, primary
// endpoint first, query fallback second. Both failing caches an empty list;
// no automatic retry.
func (l *Loader) EnsureMilestones(ctx context.Context, taskID int) []model.Milestone {
	key := fmt.Sprintf("milestones:%d", taskID)

	l.mu.Lock()
	if ms, ok := l.milestones[taskID]; ok {
		l.mu.Unlock()
		metrics.LoaderCacheHits.WithLabelValues("milestone").Inc()
		return ms
	}
	if l.inflight[key] {
		l.mu.Unlock()
		return nil
	}
	l.inflight[key] = true
	epoch := l.epoch
	l.mu.Unlock()

	metrics.LoaderCacheMisses.WithLabelValues("milestone").Inc()
	ctx, span := otel.ChildFetchSpan(ctx, "milestone", taskID)
	defer span.End()

	recs := l.fetchWithFallback(ctx, "milestone", taskID,
		l.src.ListMilestonesByTask, l.src.ListMilestonesByQuery)

	milestones := make([]model.Milestone, 0, len(recs))
	for _, rec := range recs {
		milestones = append(milestones, model.MilestoneFromRaw(rec, taskID))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, key)
	if l.epoch != epoch {
		l.logger.Debug("Dropping stale milestone fetch result",
			zap.Int("task_id", taskID))
		return nil
	}
	l.milestones[taskID] = milestones
	return milestones
}

// PreloadProject bulk-fetches every milestone of a focused project in one
// call and seeds the per-task cache, so the per-task endpoints are skipped
// for any task covered by the bulk result. Redis spares repeated bulk
// fetches across views; Redis being down only costs the shortcut.
func (l *Loader) PreloadProject(ctx context.Context, projectID int, taskIDs []int) {
	l.mu.Lock()
	epoch := l.epoch
	l.mu.Unlock()

	milestones, ok := l.preloadFromRedis(ctx, projectID)
	if !ok {
		start := time.Now()
		recs, err := l.src.ListMilestonesByProject(ctx, projectID)
		if err != nil {
			metrics.RecordChildFetchLatency("milestone", "bulk", "error", time.Since(start))
			l.logger.Warn("Bulk milestone preload failed, falling back to per-task loads",
				zap.Int("project_id", projectID),
				zap.Error(err),
			)
			return
		}
		metrics.RecordChildFetchLatency("milestone", "bulk", "ok", time.Since(start))
		milestones = make([]model.Milestone, 0, len(recs))
		for _, rec := range recs {
			milestones = append(milestones, model.MilestoneFromRaw(rec, 0))
		}
		l.preloadToRedis(ctx, projectID, milestones)
	}

	byTask := make(map[int][]model.Milestone)
	for _, m := range milestones {
		byTask[m.TaskID] = append(byTask[m.TaskID], m)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.epoch != epoch {
		return
	}
	for taskID, ms := range byTask {
		l.milestones[taskID] = ms
	}
	// Tasks the bulk result knows nothing about are still settled: caching
	// the empty list keeps the per-task endpoints quiet for them too.
	for _, taskID := range taskIDs {
		if _, ok := l.milestones[taskID]; !ok {
			l.milestones[taskID] = []model.Milestone{}
		}
	}
	l.logger.Info("Project milestones preloaded",
		zap.Int("project_id", projectID),
		zap.Int("milestone_count", len(milestones)),
		zap.Int("task_count", len(byTask)),
	)
}

type listFunc func(ctx context.Context, parentID int) ([]model.RawRecord, error)

// fetchWithFallback runs the primary endpoint, then the fallback, and
// settles on an empty list when both fail. Errors are logged, never
// propagated.
func (l *Loader) fetchWithFallback(ctx context.Context, entity string, parentID int, primary, fallback listFunc) []model.RawRecord {
	start := time.Now()
	recs, err := primary(ctx, parentID)
	if err == nil {
		metrics.RecordChildFetchLatency(entity, "primary", "ok", time.Since(start))
		return recs
	}
	metrics.RecordChildFetchLatency(entity, "primary", "error", time.Since(start))
	l.logger.Warn("Primary child fetch failed, trying fallback endpoint",
		zap.String("entity", entity),
		zap.Int("parent_id", parentID),
		zap.Error(err),
	)

	start = time.Now()
	recs, err = fallback(ctx, parentID)
	if err == nil {
		metrics.RecordChildFetchLatency(entity, "fallback", "ok", time.Since(start))
		return recs
	}
	metrics.RecordChildFetchLatency(entity, "fallback", "error", time.Since(start))
	l.logger.Warn("Fallback child fetch failed, caching empty list",
		zap.String("entity", entity),
		zap.Int("parent_id", parentID),
		zap.Error(err),
	)
	return nil
}

func preloadKey(projectID int) string {
	return fmt.Sprintf("timeline:preload:%d", projectID)
}

func (l *Loader) preloadFromRedis(ctx context.Context, projectID int) ([]model.Milestone, bool) {
	if l.rdb == nil {
		return nil, false
	}
	data, err := l.rdb.Get(ctx, preloadKey(projectID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			l.logger.Warn("Redis preload read failed, fetching from source",
				zap.Int("project_id", projectID),
				zap.Error(err),
			)
		}
		return nil, false
	}
	var milestones []model.Milestone
	if err := json.Unmarshal(data, &milestones); err != nil {
		l.logger.Warn("Redis preload entry corrupt, fetching from source",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
		return nil, false
	}
	return milestones, true
}

func (l *Loader) preloadToRedis(ctx context.Context, projectID int, milestones []model.Milestone) {
	if l.rdb == nil {
		return
	}
	data, err := json.Marshal(milestones)
	if err != nil {
		return
	}
	if err := l.rdb.Set(ctx, preloadKey(projectID), data, l.preloadTTL).Err(); err != nil {
		l.logger.Warn("Redis preload write failed",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
	}
}
