package models

import (
	"fmt"
	"time"
)

// Beatmapset is a bundle of difficulties submitted for community review.
type Beatmapset struct {
	ID         int        `db:"id" json:"id"`
	CreatorID  int        `db:"creator_id" json:"creatorId"`
	Artist     string     `db:"artist" json:"artist"`
	Title      string     `db:"title" json:"title"`
	Status     Status     `db:"status" json:"status"`
	TopicID    *int       `db:"topic_id" json:"topicId,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovedBy *int       `db:"approved_by" json:"approvedBy,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`

	Beatmaps []Beatmap `db:"-" json:"beatmaps,omitempty"`
}

// FullName renders the display name used in logs and webhook embeds.
func (s *Beatmapset) FullName() string {
	return fmt.Sprintf("%s - %s", s.Artist, s.Title)
}

// Beatmap is one playable difficulty within a set. Its status mirrors the
// set's aggregate status but can diverge during a per-difficulty update.
type Beatmap struct {
	ID        int       `db:"id" json:"id"`
	SetID     int       `db:"set_id" json:"setId"`
	Version   string    `db:"version" json:"version"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
