package repository

import (
	"context"
	"time"

	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wavenote-dev/community-api/internal/models"
)

// UserRepository persists user accounts and audit trail records.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, country, activated, restricted, is_bat, created_at`

// FindByID fetches a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByName fetches a user by their login name.
func (r *UserRepository) FindByName(ctx context.Context, name string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE name = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, name); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAuditLog inserts an audit trail record.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, new_values, ip_address, user_agent, created_at)
        VALUES (:id, :user_id, :action, :resource, :resource_id, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
