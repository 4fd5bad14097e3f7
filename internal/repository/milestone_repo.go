package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"opsboard/internal/model"
)

type MilestoneRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{
		db:     db,
		logger: logger,
	}
}

const milestoneColumns = `
        SELECT id, task_id, project_id, title, status, completed,
               kind, is_roadblock, depends_on, blocked_by,
               start_at, due_at, due_date, end_planned, actual_end_at, completed_at,
               created_at
        FROM milestones
`

func (r *MilestoneRepository) FindByTaskID(ctx context.Context, taskID int) ([]model.RawRecord, error) {
	rows, err := r.db.Query(ctx, milestoneColumns+` WHERE task_id = $1 ORDER BY position ASC, id ASC`, taskID)
	if err != nil {
		r.logger.Error("Failed to find milestones",
			zap.Int("task_id", taskID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows.Next, rows.Scan, rows.Err)
}

// FindByProjectID is the bulk preload path used when the view is scoped to a
// single project.
func (r *MilestoneRepository) FindByProjectID(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	rows, err := r.db.Query(ctx, milestoneColumns+` WHERE project_id = $1 ORDER BY task_id ASC, position ASC, id ASC`, projectID)
	if err != nil {
		r.logger.Error("Failed to find project milestones",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows.Next, rows.Scan, rows.Err)
}

func (r *MilestoneRepository) collect(next func() bool, scan func(...any) error, rowsErr func() error) ([]model.RawRecord, error) {
	var records []model.RawRecord
	for next() {
		var (
			id          int
			taskID      *int
			projectID   *int
			title       *string
			status      *string
			completed   *bool
			kind        *string
			isRoadblock *bool
			dependsOn   []int32
			blockedBy   []int32
			startAt     *time.Time
			dueAt       *time.Time
			dueDate     *time.Time
			endPlanned  *time.Time
			actualEndAt *time.Time
			completedAt *time.Time
			createdAt   *time.Time
		)
		if err := scan(&id, &taskID, &projectID, &title, &status, &completed,
			&kind, &isRoadblock, &dependsOn, &blockedBy,
			&startAt, &dueAt, &dueDate, &endPlanned, &actualEndAt, &completedAt,
			&createdAt); err != nil {
			r.logger.Error("Failed to scan milestone", zap.Error(err))
			return nil, err
		}

		rec := model.RawRecord{"id": id}
		if taskID != nil {
			rec["taskId"] = *taskID
		}
		if projectID != nil {
			rec["projectId"] = *projectID
		}
		putString(rec, "title", title)
		putString(rec, "status", status)
		putBool(rec, "completed", completed)
		putString(rec, "kind", kind)
		putBool(rec, "isRoadblock", isRoadblock)
		putIntList(rec, "dependsOn", dependsOn)
		putIntList(rec, "blockedBy", blockedBy)
		putTime(rec, "startAt", startAt)
		putTime(rec, "dueAt", dueAt)
		putTime(rec, "dueDate", dueDate)
		putTime(rec, "endPlanned", endPlanned)
		putTime(rec, "actualEndAt", actualEndAt)
		putTime(rec, "completedAt", completedAt)
		putTime(rec, "createdAt", createdAt)
		records = append(records, rec)
	}
	return records, rowsErr()
}

func putIntList(rec model.RawRecord, key string, v []int32) {
	if len(v) == 0 {
		return
	}
	out := make([]int, len(v))
	for i, n := range v {
		out[i] = int(n)
	}
	rec[key] = out
}
