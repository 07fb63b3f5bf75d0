package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wavenote-dev/community-api/internal/models"
)

// NominationRepository persists the nomination ledger.
type NominationRepository struct {
	db *sqlx.DB
}

// NewNominationRepository constructs the repository.
func NewNominationRepository(db *sqlx.DB) *NominationRepository {
	return &NominationRepository{db: db}
}

func (r *NominationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Count returns the number of nominations a set holds across all servers.
// With distinctActors each nominating user counts once regardless of how many
// rows they produced.
func (r *NominationRepository) Count(ctx context.Context, exec sqlx.ExtContext, setID int, distinctActors bool) (int, error) {
	query := `SELECT COUNT(*) FROM nominations WHERE set_id = $1`
	if distinctActors {
		query = `SELECT COUNT(DISTINCT user_id) FROM nominations WHERE set_id = $1`
	}
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, setID); err != nil {
		return 0, fmt.Errorf("count nominations: %w", err)
	}
	return count, nil
}

// CountByServer returns the per-server nomination count, for display only.
func (r *NominationRepository) CountByServer(ctx context.Context, setID, server int) (int, error) {
	const query = `SELECT COUNT(*) FROM nominations WHERE set_id = $1 AND server = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, setID, server); err != nil {
		return 0, fmt.Errorf("count nominations by server: %w", err)
	}
	return count, nil
}

// DeleteBySet purges every nomination the set holds.
func (r *NominationRepository) DeleteBySet(ctx context.Context, exec sqlx.ExtContext, setID int) error {
	const query = `DELETE FROM nominations WHERE set_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, setID); err != nil {
		return fmt.Errorf("delete nominations: %w", err)
	}
	return nil
}

// FetchByUserAndServer lists a user's nominations on one server, with the
// nominated set's title attached, newest first.
func (r *NominationRepository) FetchByUserAndServer(ctx context.Context, userID, server int) ([]models.Nomination, error) {
	const query = `SELECT n.id, n.set_id, n.user_id, n.server, n.created_at, s.title AS set_title
        FROM nominations n
        JOIN beatmapsets s ON s.id = n.set_id
        WHERE n.user_id = $1 AND n.server = $2
        ORDER BY n.created_at DESC`
	var nominations []models.Nomination
	if err := r.db.SelectContext(ctx, &nominations, query, userID, server); err != nil {
		return nil, fmt.Errorf("fetch nominations by user: %w", err)
	}
	return nominations, nil
}

// FetchBySet lists the full ledger of a set with nominator names, oldest
// first, for audit exports.
func (r *NominationRepository) FetchBySet(ctx context.Context, setID int) ([]models.Nomination, error) {
	const query = `SELECT n.id, n.set_id, n.user_id, n.server, n.created_at, u.name AS user_name
        FROM nominations n
        JOIN users u ON u.id = n.user_id
        WHERE n.set_id = $1
        ORDER BY n.created_at ASC`
	var nominations []models.Nomination
	if err := r.db.SelectContext(ctx, &nominations, query, setID); err != nil {
		return nil, fmt.Errorf("fetch nominations by set: %w", err)
	}
	return nominations, nil
}
