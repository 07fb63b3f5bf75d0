package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wavenote-dev/community-api/internal/models"
)

// BeatmapsetRepository persists beatmapset rows.
type BeatmapsetRepository struct {
	db *sqlx.DB
}

// NewBeatmapsetRepository constructs the repository.
func NewBeatmapsetRepository(db *sqlx.DB) *BeatmapsetRepository {
	return &BeatmapsetRepository{db: db}
}

func (r *BeatmapsetRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const beatmapsetColumns = `id, creator_id, artist, title, status, topic_id, approved_at, approved_by, created_at`

// GetByID fetches a beatmapset with its difficulties.
func (r *BeatmapsetRepository) GetByID(ctx context.Context, id int) (*models.Beatmapset, error) {
	query := fmt.Sprintf(`SELECT %s FROM beatmapsets WHERE id = $1`, beatmapsetColumns)
	var set models.Beatmapset
	if err := r.db.GetContext(ctx, &set, query, id); err != nil {
		return nil, err
	}
	if err := r.attachBeatmaps(ctx, r.db, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// GetForUpdate locks the beatmapset row for the lifetime of the transaction.
// Transitions on the same set serialize here, closing the read-modify-write
// race on concurrent requests.
func (r *BeatmapsetRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int) (*models.Beatmapset, error) {
	query := fmt.Sprintf(`SELECT %s FROM beatmapsets WHERE id = $1 FOR UPDATE`, beatmapsetColumns)
	var set models.Beatmapset
	if err := tx.GetContext(ctx, &set, query, id); err != nil {
		return nil, err
	}
	if err := r.attachBeatmaps(ctx, tx, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// UpdateStatus writes the aggregate status together with approval metadata.
func (r *BeatmapsetRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int, status models.Status, approvedAt *time.Time, approvedBy *int) error {
	const query = `UPDATE beatmapsets SET status = $1, approved_at = $2, approved_by = $3 WHERE id = $4`
	if _, err := r.exec(exec).ExecContext(ctx, query, status, approvedAt, approvedBy, id); err != nil {
		return fmt.Errorf("update beatmapset status: %w", err)
	}
	return nil
}

// FetchByCreator lists all sets uploaded by the given user, newest first.
func (r *BeatmapsetRepository) FetchByCreator(ctx context.Context, creatorID int) ([]models.Beatmapset, error) {
	query := fmt.Sprintf(`SELECT %s FROM beatmapsets WHERE creator_id = $1 ORDER BY created_at DESC`, beatmapsetColumns)
	var sets []models.Beatmapset
	if err := r.db.SelectContext(ctx, &sets, query, creatorID); err != nil {
		return nil, fmt.Errorf("fetch beatmapsets by creator: %w", err)
	}
	return sets, nil
}

func (r *BeatmapsetRepository) attachBeatmaps(ctx context.Context, exec sqlx.ExtContext, set *models.Beatmapset) error {
	const query = `SELECT id, set_id, version, status, created_at FROM beatmaps WHERE set_id = $1 ORDER BY id`
	rows, err := exec.QueryxContext(ctx, query, set.ID)
	if err != nil {
		return fmt.Errorf("fetch beatmaps for set: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var beatmap models.Beatmap
		if err := rows.StructScan(&beatmap); err != nil {
			return fmt.Errorf("scan beatmap: %w", err)
		}
		set.Beatmaps = append(set.Beatmaps, beatmap)
	}
	return rows.Err()
}
