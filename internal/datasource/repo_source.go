package datasource

import (
	"context"

	"opsboard/internal/model"
	"opsboard/internal/repository"
	"opsboard/internal/timeline"
)

// RepoSource serves raw records straight from the database. Used when no
// upstream base URL is configured.
type RepoSource struct {
	projects   *repository.ProjectRepository
	tasks      *repository.TaskRepository
	milestones *repository.MilestoneRepository
}

func NewRepoSource(p *repository.ProjectRepository, t *repository.TaskRepository, m *repository.MilestoneRepository) *RepoSource {
	return &RepoSource{projects: p, tasks: t, milestones: m}
}

func (s *RepoSource) ListProjects(ctx context.Context, f timeline.Filter) ([]model.RawRecord, error) {
	if f.FocusedProjectID != nil {
		return s.projects.FindByID(ctx, *f.FocusedProjectID)
	}
	return s.projects.FindAll(ctx)
}

func (s *RepoSource) ListTasks(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	return s.tasks.FindByProjectID(ctx, projectID)
}

// ListTasksNested exists for API symmetry; the repository has a single query.
func (s *RepoSource) ListTasksNested(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	return s.tasks.FindByProjectID(ctx, projectID)
}

func (s *RepoSource) ListMilestonesByTask(ctx context.Context, taskID int) ([]model.RawRecord, error) {
	return s.milestones.FindByTaskID(ctx, taskID)
}

func (s *RepoSource) ListMilestonesByQuery(ctx context.Context, taskID int) ([]model.RawRecord, error) {
	return s.milestones.FindByTaskID(ctx, taskID)
}

func (s *RepoSource) ListMilestonesByProject(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	return s.milestones.FindByProjectID(ctx, projectID)
}
