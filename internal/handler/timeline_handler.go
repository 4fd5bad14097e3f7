package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"opsboard/internal/model"
	"opsboard/internal/timeline"
)

type TimelineHandler struct {
	src        timeline.Source
	bus        *timeline.FilterBus
	rdb        *redis.Client
	preloadTTL time.Duration
	cellWidth  int
	logger     *zap.Logger
}

func NewTimelineHandler(src timeline.Source, bus *timeline.FilterBus, rdb *redis.Client, preloadTTL time.Duration, cellWidth int, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{
		src:        src,
		bus:        bus,
		rdb:        rdb,
		preloadTTL: preloadTTL,
		cellWidth:  cellWidth,
		logger:     logger,
	}
}

// GetLayout builds one full timeline render. Query params override the filter
// currently held by the bus; open_projects/open_tasks restore an expand state
// so a reload lands on the same rows the client was looking at.
func (h *TimelineHandler) GetLayout(c *gin.Context) {
	h.logger.Info("GetLayout request received",
		zap.String("query", c.Request.URL.RawQuery),
		zap.String("client_ip", c.ClientIP()),
	)

	f := h.bus.Filters()
	if raw := c.Query("from"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			h.logger.Warn("GetLayout: invalid from date", zap.String("from", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, want YYYY-MM-DD"})
			return
		}
		f.DateRange.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			h.logger.Warn("GetLayout: invalid to date", zap.String("to", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, want YYYY-MM-DD"})
			return
		}
		f.DateRange.To = &t
	}
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			h.logger.Warn("GetLayout: invalid project_id", zap.String("project_id", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
			return
		}
		f.FocusedProjectID = &id
	}

	openProjects, err := parseIDList(c.Query("open_projects"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid open_projects"})
		return
	}
	openTasks, err := parseIDList(c.Query("open_tasks"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid open_tasks"})
		return
	}

	ctx := c.Request.Context()
	loader := timeline.NewLoader(h.src, h.rdb, h.preloadTTL, h.logger)
	view := timeline.NewView(h.src, staticFilter{f}, loader, h.cellWidth, h.logger)

	view.Reload(ctx)
	for _, id := range openProjects {
		view.ExpandProject(ctx, id)
	}
	for _, id := range openTasks {
		view.ExpandTask(ctx, id)
	}
	layout := view.Layout(ctx)

	h.logger.Info("GetLayout: success",
		zap.Int("row_count", len(layout.Rows)),
		zap.Int("edge_count", len(layout.Edges)),
	)
	c.JSON(http.StatusOK, layout)
}

// GetProjectMilestones is the bulk passthrough used by project-detail pages
// to warm their own caches.
func (h *TimelineHandler) GetProjectMilestones(c *gin.Context) {
	idStr := c.Param("id")
	projectID, err := strconv.Atoi(idStr)
	if err != nil {
		h.logger.Warn("GetProjectMilestones: invalid project id",
			zap.String("project_id", idStr),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	recs, err := h.src.ListMilestonesByProject(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("GetProjectMilestones: fetch failed",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch milestones"})
		return
	}
	if recs == nil {
		recs = []model.RawRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"milestones": recs,
	})
}

// staticFilter pins a request's filter for the lifetime of the view it feeds.
type staticFilter struct {
	f timeline.Filter
}

func (s staticFilter) Filters() timeline.Filter { return s.f }

func parseIDList(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
