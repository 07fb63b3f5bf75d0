package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ScoreRepository persists player scores.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs the repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteByBeatmap removes every score on one difficulty. Used when a promoted
// set is demoted back to Pending; there is no undo.
func (r *ScoreRepository) DeleteByBeatmap(ctx context.Context, exec sqlx.ExtContext, beatmapID int) error {
	const query = `DELETE FROM scores WHERE beatmap_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, beatmapID); err != nil {
		return fmt.Errorf("delete scores by beatmap: %w", err)
	}
	return nil
}

// CountByBeatmap returns the number of scores stored for a difficulty.
func (r *ScoreRepository) CountByBeatmap(ctx context.Context, beatmapID int) (int, error) {
	const query = `SELECT COUNT(*) FROM scores WHERE beatmap_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, beatmapID); err != nil {
		return 0, fmt.Errorf("count scores by beatmap: %w", err)
	}
	return count, nil
}
