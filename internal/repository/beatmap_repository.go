package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wavenote-dev/community-api/internal/models"
)

// BeatmapRepository persists individual difficulties.
type BeatmapRepository struct {
	db *sqlx.DB
}

// NewBeatmapRepository constructs the repository.
func NewBeatmapRepository(db *sqlx.DB) *BeatmapRepository {
	return &BeatmapRepository{db: db}
}

func (r *BeatmapRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpdateStatus writes one difficulty's status. The set id guard keeps a
// malformed request from touching difficulties outside the submission.
func (r *BeatmapRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, beatmapID, setID int, status models.Status) error {
	const query = `UPDATE beatmaps SET status = $1 WHERE id = $2 AND set_id = $3`
	if _, err := r.exec(exec).ExecContext(ctx, query, status, beatmapID, setID); err != nil {
		return fmt.Errorf("update beatmap status: %w", err)
	}
	return nil
}

// UpdateStatusBySet writes the same status onto every difficulty of a set.
func (r *BeatmapRepository) UpdateStatusBySet(ctx context.Context, exec sqlx.ExtContext, setID int, status models.Status) error {
	const query = `UPDATE beatmaps SET status = $1 WHERE set_id = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, status, setID); err != nil {
		return fmt.Errorf("update beatmaps by set: %w", err)
	}
	return nil
}
