package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wavenote-dev/community-api/internal/models"
)

// PostRepository persists forum posts.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository constructs the repository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const postColumns = `p.id, p.topic_id, p.forum_id, p.user_id, p.content, p.created_at`

// UpdateForumByTopic keeps the denormalized forum id on posts in sync with a
// relocated topic.
func (r *PostRepository) UpdateForumByTopic(ctx context.Context, exec sqlx.ExtContext, topicID, forumID int) error {
	const query = `UPDATE posts SET forum_id = $1 WHERE topic_id = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, forumID, topicID); err != nil {
		return fmt.Errorf("update posts forum: %w", err)
	}
	return nil
}

// FetchLastReviewerPost returns the most recent post on the topic written by
// a user carrying the reviewer capability, or nil when no such post exists.
func (r *PostRepository) FetchLastReviewerPost(ctx context.Context, exec sqlx.ExtContext, topicID int) (*models.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts p
        JOIN users u ON u.id = p.user_id
        WHERE p.topic_id = $1 AND u.is_bat = TRUE
        ORDER BY p.id DESC LIMIT 1`, postColumns)
	var post models.Post
	if err := sqlx.GetContext(ctx, r.exec(exec), &post, query, topicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch last reviewer post: %w", err)
	}
	return &post, nil
}

// FetchLastByUser returns the user's most recent post on the topic, or nil.
func (r *PostRepository) FetchLastByUser(ctx context.Context, exec sqlx.ExtContext, topicID, userID int) (*models.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts p
        WHERE p.topic_id = $1 AND p.user_id = $2
        ORDER BY p.id DESC LIMIT 1`, postColumns)
	var post models.Post
	if err := sqlx.GetContext(ctx, r.exec(exec), &post, query, topicID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch last post by user: %w", err)
	}
	return &post, nil
}

// CountByUser returns the user's total forum post count.
func (r *PostRepository) CountByUser(ctx context.Context, userID int) (int, error) {
	const query = `SELECT COUNT(*) FROM posts WHERE user_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count posts by user: %w", err)
	}
	return count, nil
}
