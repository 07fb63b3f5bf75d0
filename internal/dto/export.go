package dto

import "time"

// CreateExportRequest asks for an async nomination ledger export.
type CreateExportRequest struct {
	Format string `json:"format" binding:"required,oneof=csv pdf"`
}

// ExportJobResponse reports job state and, once completed, a signed download.
type ExportJobResponse struct {
	ID          string     `json:"id"`
	SetID       int        `json:"setId"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// PackListing groups packs under their category for the listing page.
type PackListing struct {
	Categories []string      `json:"categories"`
	Category   string        `json:"category"`
	Packs      []PackSummary `json:"packs"`
}

// PackSummary is the listing row for one beatmap pack.
type PackSummary struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Creator      string `json:"creator"`
	DownloadLink string `json:"downloadLink"`
}
