package models

import "time"

// Topic is the discussion thread attached to a beatmapset.
type Topic struct {
	ID         int        `db:"id" json:"id"`
	ForumID    int        `db:"forum_id" json:"forumId"`
	CreatorID  int        `db:"creator_id" json:"creatorId"`
	Title      string     `db:"title" json:"title"`
	IconID     *int       `db:"icon_id" json:"iconId,omitempty"`
	StatusText *string    `db:"status_text" json:"statusText,omitempty"`
	LockedAt   *time.Time `db:"locked_at" json:"lockedAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// Post is a single reply in a topic. The forum id is denormalized onto every
// post and has to follow the topic when it is relocated.
type Post struct {
	ID        int       `db:"id" json:"id"`
	TopicID   int       `db:"topic_id" json:"topicId"`
	ForumID   int       `db:"forum_id" json:"forumId"`
	UserID    int       `db:"user_id" json:"userId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
