package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"opsboard/internal/model"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TaskRepository) FindByProjectID(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	query := `
        SELECT id, project_id, title, status, completed,
               start_at, start_date, due_at, due_date, created_at
        FROM tasks
        WHERE project_id = $1
        ORDER BY position ASC, id ASC
    `

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to find tasks",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var records []model.RawRecord
	for rows.Next() {
		var (
			id        int
			pid       int
			title     *string
			status    *string
			completed *bool
			startAt   *time.Time
			startDate *time.Time
			dueAt     *time.Time
			dueDate   *time.Time
			createdAt *time.Time
		)
		if err := rows.Scan(&id, &pid, &title, &status, &completed,
			&startAt, &startDate, &dueAt, &dueDate, &createdAt); err != nil {
			r.logger.Error("Failed to scan task", zap.Error(err))
			return nil, err
		}

		rec := model.RawRecord{"id": id, "projectId": pid}
		putString(rec, "title", title)
		putString(rec, "status", status)
		putBool(rec, "completed", completed)
		putTime(rec, "startAt", startAt)
		putTime(rec, "startDate", startDate)
		putTime(rec, "dueAt", dueAt)
		putTime(rec, "dueDate", dueDate)
		putTime(rec, "createdAt", createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}
