package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"opsboard/internal/model"
	"opsboard/internal/timeline"
)

type stubSource struct {
	projects      []model.RawRecord
	tasks         map[int][]model.RawRecord
	milestones    map[int][]model.RawRecord
	byProject     map[int][]model.RawRecord
	byProjectErr  error
	taskCallCount int
}

func (s *stubSource) ListProjects(ctx context.Context, f timeline.Filter) ([]model.RawRecord, error) {
	if f.FocusedProjectID != nil {
		for _, rec := range s.projects {
			if id, ok := rec["id"].(int); ok && id == *f.FocusedProjectID {
				return []model.RawRecord{rec}, nil
			}
		}
		return nil, nil
	}
	return s.projects, nil
}

func (s *stubSource) ListTasks(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	s.taskCallCount++
	return s.tasks[projectID], nil
}

func (s *stubSource) ListTasksNested(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	return s.tasks[projectID], nil
}

func (s *stubSource) ListMilestonesByTask(ctx context.Context, taskID int) ([]model.RawRecord, error) {
	return s.milestones[taskID], nil
}

func (s *stubSource) ListMilestonesByQuery(ctx context.Context, taskID int) ([]model.RawRecord, error) {
	return s.milestones[taskID], nil
}

func (s *stubSource) ListMilestonesByProject(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	if s.byProjectErr != nil {
		return nil, s.byProjectErr
	}
	return s.byProject[projectID], nil
}

func newTestRouter(src timeline.Source) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTimelineHandler(src, timeline.NewFilterBus(), nil, time.Minute, 38, zap.NewNop())
	r := gin.New()
	r.GET("/timeline/layout", h.GetLayout)
	r.GET("/projects/:id/milestones", h.GetProjectMilestones)
	return r
}

func fixtureSource() *stubSource {
	return &stubSource{
		projects: []model.RawRecord{
			{"id": 1, "name": "Harbor upgrade", "status": "active",
				"startPlanned": "2024-01-01", "endPlanned": "2024-02-01"},
			{"id": 2, "name": "Backlog sweep", "status": "pending"},
		},
		tasks: map[int][]model.RawRecord{
			1: {
				{"id": 11, "title": "Dredging", "status": "active",
					"startAt": "2024-01-02", "dueAt": "2024-01-20"},
			},
		},
		milestones: map[int][]model.RawRecord{
			11: {
				{"id": 101, "title": "Permit", "status": "finished",
					"completedAt": "2024-01-05T00:00:00Z"},
			},
		},
		byProject: map[int][]model.RawRecord{
			1: {
				{"id": 101, "taskId": 11, "title": "Permit", "status": "finished"},
			},
		},
	}
}

func TestGetLayoutCollapsed(t *testing.T) {
	r := newTestRouter(fixtureSource())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/timeline/layout", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var layout timeline.Layout
	if err := json.Unmarshal(w.Body.Bytes(), &layout); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if len(layout.Rows) != 2 {
		t.Fatalf("expected 2 project rows, got %d", len(layout.Rows))
	}
	if layout.CellWidth != 38 {
		t.Errorf("expected cell width 38, got %d", layout.CellWidth)
	}
	if len(layout.Domain.Days) == 0 {
		t.Error("expected a non-empty day grid")
	}
}

func TestGetLayoutExpandState(t *testing.T) {
	src := fixtureSource()
	r := newTestRouter(src)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/timeline/layout?open_projects=1&open_tasks=11", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var layout timeline.Layout
	if err := json.Unmarshal(w.Body.Bytes(), &layout); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	// project 1, task 11, milestone 101, project 2
	if len(layout.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(layout.Rows))
	}
	if layout.Rows[1].Type != model.RowTask {
		t.Errorf("expected task row at index 1, got %q", layout.Rows[1].Type)
	}
	if layout.Rows[2].Type != model.RowMilestone {
		t.Errorf("expected milestone row at index 2, got %q", layout.Rows[2].Type)
	}
	if src.taskCallCount != 1 {
		t.Errorf("expected 1 task fetch, got %d", src.taskCallCount)
	}
}

func TestGetLayoutRejectsBadDates(t *testing.T) {
	r := newTestRouter(fixtureSource())

	for _, q := range []string{"from=notadate", "to=2024-13-99", "project_id=abc", "open_projects=1,x"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/timeline/layout?"+q, nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", q, w.Code)
		}
	}
}

func TestGetLayoutFocusedProject(t *testing.T) {
	r := newTestRouter(fixtureSource())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/timeline/layout?project_id=1", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var layout timeline.Layout
	if err := json.Unmarshal(w.Body.Bytes(), &layout); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if len(layout.Rows) != 1 || layout.Rows[0].ID != 1 {
		t.Fatalf("expected only project 1, got %d rows", len(layout.Rows))
	}
}

func TestGetProjectMilestones(t *testing.T) {
	r := newTestRouter(fixtureSource())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/1/milestones", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Milestones []model.RawRecord `json:"milestones"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Milestones) != 1 {
		t.Fatalf("expected 1 milestone, got %d", len(body.Milestones))
	}
}

func TestGetProjectMilestonesErrors(t *testing.T) {
	src := fixtureSource()
	src.byProjectErr = errors.New("upstream down")
	r := newTestRouter(src)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/1/milestones", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/projects/nope/milestones", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
