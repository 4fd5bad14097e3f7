package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"opsboard/internal/model"
	"opsboard/internal/timeline"
	"opsboard/pkg/config"
)

// HTTPSource lists raw records from the ops API. A configured fallback base
// URL is tried when the primary is unreachable or answers non-2xx; decoding
// tolerates both enveloped ({"tasks": [...]}) and bare-array payloads.
type HTTPSource struct {
	baseURL     string
	fallbackURL string
	client      *http.Client
	logger      *zap.Logger
}

func NewHTTPSource(cfg config.UpstreamConfig, logger *zap.Logger) *HTTPSource {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		baseURL:     cfg.BaseURL,
		fallbackURL: cfg.FallbackBaseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (s *HTTPSource) ListProjects(ctx context.Context, f timeline.Filter) ([]model.RawRecord, error) {
	path := "/projects"
	sep := "?"
	if f.DateRange.From != nil {
		path += sep + "from=" + f.DateRange.From.Format("2006-01-02")
		sep = "&"
	}
	if f.DateRange.To != nil {
		path += sep + "to=" + f.DateRange.To.Format("2006-01-02")
		sep = "&"
	}
	if f.FocusedProjectID != nil {
		path += sep + fmt.Sprintf("project_id=%d", *f.FocusedProjectID)
	}
	return s.getList(ctx, path, "projects")
}

func (s *HTTPSource) ListTasks(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	return s.getList(ctx, fmt.Sprintf("/tasks?project_id=%d", projectID), "tasks")
}

func (s *HTTPSource) ListTasksNested(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	return s.getList(ctx, fmt.Sprintf("/projects/%d/tasks", projectID), "tasks")
}

func (s *HTTPSource) ListMilestonesByTask(ctx context.Context, taskID int) ([]model.RawRecord, error) {
	return s.getList(ctx, fmt.Sprintf("/tasks/%d/milestones", taskID), "milestones")
}

func (s *HTTPSource) ListMilestonesByQuery(ctx context.Context, taskID int) ([]model.RawRecord, error) {
	return s.getList(ctx, fmt.Sprintf("/milestones?task_id=%d", taskID), "milestones")
}

func (s *HTTPSource) ListMilestonesByProject(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	return s.getList(ctx, fmt.Sprintf("/projects/%d/milestones", projectID), "milestones")
}

func (s *HTTPSource) getList(ctx context.Context, path, key string) ([]model.RawRecord, error) {
	body, err := s.get(ctx, s.baseURL+path)
	if err != nil && s.fallbackURL != "" {
		s.logger.Warn("Upstream request failed, trying fallback base URL",
			zap.String("path", path),
			zap.Error(err),
		)
		body, err = s.get(ctx, s.fallbackURL+path)
	}
	if err != nil {
		return nil, err
	}
	return decodeList(body, key)
}

func (s *HTTPSource) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	return body, nil
}

func decodeList(body []byte, key string) ([]model.RawRecord, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		if raw, ok := envelope[key]; ok {
			var records []model.RawRecord
			if err := json.Unmarshal(raw, &records); err != nil {
				return nil, fmt.Errorf("failed to decode %s list: %w", key, err)
			}
			return records, nil
		}
	}

	var records []model.RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", key, err)
	}
	return records, nil
}
