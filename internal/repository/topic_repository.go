package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wavenote-dev/community-api/internal/models"
)

// TopicRepository persists forum topics.
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository constructs the repository.
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

func (r *TopicRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// GetByID fetches a topic.
func (r *TopicRepository) GetByID(ctx context.Context, id int) (*models.Topic, error) {
	const query = `SELECT id, forum_id, creator_id, title, icon_id, status_text, locked_at, created_at FROM topics WHERE id = $1`
	var topic models.Topic
	if err := r.db.GetContext(ctx, &topic, query, id); err != nil {
		return nil, err
	}
	return &topic, nil
}

// UpdateForum moves the topic into another forum.
func (r *TopicRepository) UpdateForum(ctx context.Context, exec sqlx.ExtContext, topicID, forumID int) error {
	const query = `UPDATE topics SET forum_id = $1 WHERE id = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, forumID, topicID); err != nil {
		return fmt.Errorf("update topic forum: %w", err)
	}
	return nil
}

// UpdateIcon sets or clears the topic icon.
func (r *TopicRepository) UpdateIcon(ctx context.Context, exec sqlx.ExtContext, topicID int, iconID *int) error {
	const query = `UPDATE topics SET icon_id = $1 WHERE id = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, iconID, topicID); err != nil {
		return fmt.Errorf("update topic icon: %w", err)
	}
	return nil
}

// UpdateStatusText sets or clears the review-state label of the topic.
func (r *TopicRepository) UpdateStatusText(ctx context.Context, exec sqlx.ExtContext, topicID int, text *string) error {
	const query = `UPDATE topics SET status_text = $1 WHERE id = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, text, topicID); err != nil {
		return fmt.Errorf("update topic status text: %w", err)
	}
	return nil
}
