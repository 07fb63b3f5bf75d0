package models

import "time"

// Nomination servers distinguish which authority domain a vote came from.
const (
	NominationServerGlobal = 0
	NominationServerLocal  = 1
)

// Nomination is a reviewer's vote of confidence toward promoting a set.
type Nomination struct {
	ID        int       `db:"id" json:"id"`
	SetID     int       `db:"set_id" json:"setId"`
	UserID    int       `db:"user_id" json:"userId"`
	Server    int       `db:"server" json:"server"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	UserName string `db:"user_name" json:"userName,omitempty"`
	SetTitle string `db:"set_title" json:"setTitle,omitempty"`
}

// Score is a player result on a single difficulty. Scores are purged in bulk
// when a promoted set is demoted back to Pending.
type Score struct {
	ID        int64     `db:"id" json:"id"`
	BeatmapID int       `db:"beatmap_id" json:"beatmapId"`
	UserID    int       `db:"user_id" json:"userId"`
	Total     int64     `db:"total" json:"total"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
