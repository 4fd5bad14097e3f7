package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"opsboard/internal/model"
)

// ProjectRepository reads projects out of the legacy ops schema. The schema
// carries several generations of date columns; rows come back as raw records
// keyed by the field names the resolver chains expect, with null columns
// simply absent.
type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

const projectColumns = `
        SELECT id, name, status, completed,
               start_planned, start_at, end_planned, due_date, target_date,
               created_at, owner_tag, group_tag
        FROM projects
`

func (r *ProjectRepository) FindAll(ctx context.Context) ([]model.RawRecord, error) {
	rows, err := r.db.Query(ctx, projectColumns+` ORDER BY position ASC, id ASC`)
	if err != nil {
		r.logger.Error("Failed to find projects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var records []model.RawRecord
	for rows.Next() {
		rec, err := scanProject(rows.Scan)
		if err != nil {
			r.logger.Error("Failed to scan project", zap.Error(err))
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *ProjectRepository) FindByID(ctx context.Context, projectID int) ([]model.RawRecord, error) {
	rows, err := r.db.Query(ctx, projectColumns+` WHERE id = $1`, projectID)
	if err != nil {
		r.logger.Error("Failed to find project",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var records []model.RawRecord
	for rows.Next() {
		rec, err := scanProject(rows.Scan)
		if err != nil {
			r.logger.Error("Failed to scan project", zap.Error(err))
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanProject(scan func(...any) error) (model.RawRecord, error) {
	var (
		id           int
		name         *string
		status       *string
		completed    *bool
		startPlanned *time.Time
		startAt      *time.Time
		endPlanned   *time.Time
		dueDate      *time.Time
		targetDate   *time.Time
		createdAt    *time.Time
		ownerTag     *string
		groupTag     *string
	)
	if err := scan(&id, &name, &status, &completed,
		&startPlanned, &startAt, &endPlanned, &dueDate, &targetDate,
		&createdAt, &ownerTag, &groupTag); err != nil {
		return nil, err
	}

	rec := model.RawRecord{"id": id}
	putString(rec, "name", name)
	putString(rec, "status", status)
	putBool(rec, "completed", completed)
	putTime(rec, "startPlanned", startPlanned)
	putTime(rec, "startAt", startAt)
	putTime(rec, "endPlanned", endPlanned)
	putTime(rec, "dueDate", dueDate)
	putTime(rec, "targetDate", targetDate)
	putTime(rec, "createdAt", createdAt)
	putString(rec, "owner", ownerTag)
	putString(rec, "group", groupTag)
	return rec, nil
}

func putString(rec model.RawRecord, key string, v *string) {
	if v != nil && *v != "" {
		rec[key] = *v
	}
}

func putBool(rec model.RawRecord, key string, v *bool) {
	if v != nil {
		rec[key] = *v
	}
}

func putTime(rec model.RawRecord, key string, v *time.Time) {
	if v != nil && !v.IsZero() {
		rec[key] = *v
	}
}
