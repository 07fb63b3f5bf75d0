package models

import "time"

// BeatmapPack is a curated bundle of beatmapsets offered for download.
type BeatmapPack struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Category     string    `db:"category" json:"category"`
	Creator      string    `db:"creator" json:"creator"`
	DownloadLink string    `db:"download_link" json:"downloadLink"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
