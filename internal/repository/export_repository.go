package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wavenote-dev/community-api/internal/models"
)

// ExportRepository persists nomination ledger export jobs.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs the repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts a new export job row.
func (r *ExportRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportJobPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO export_jobs (id, set_id, format, status, file_path, error, requested_by, created_at, completed_at)
        VALUES (:id, :set_id, :format, :status, :file_path, :error, :requested_by, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID fetches an export job.
func (r *ExportRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT id, set_id, format, status, file_path, error, requested_by, created_at, completed_at
        FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkCompleted records the stored file path for a finished job.
func (r *ExportRepository) MarkCompleted(ctx context.Context, id, filePath string, completedAt time.Time) error {
	const query = `UPDATE export_jobs SET status = $1, file_path = $2, completed_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, models.ExportJobCompleted, filePath, completedAt, id); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	return nil
}

// MarkFailed records a terminal failure for the job.
func (r *ExportRepository) MarkFailed(ctx context.Context, id, reason string, failedAt time.Time) error {
	const query = `UPDATE export_jobs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, models.ExportJobFailed, reason, failedAt, id); err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return nil
}
