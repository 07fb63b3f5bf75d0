package models

import "time"

// ExportFormat selects the rendering backend for a ledger export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportJobStatus tracks the async export lifecycle.
type ExportJobStatus string

const (
	ExportJobPending   ExportJobStatus = "PENDING"
	ExportJobCompleted ExportJobStatus = "COMPLETED"
	ExportJobFailed    ExportJobStatus = "FAILED"
)

// ExportJob records a reviewer's request for a nomination ledger export.
type ExportJob struct {
	ID          string          `db:"id" json:"id"`
	SetID       int             `db:"set_id" json:"setId"`
	Format      ExportFormat    `db:"format" json:"format"`
	Status      ExportJobStatus `db:"status" json:"status"`
	FilePath    *string         `db:"file_path" json:"-"`
	Error       *string         `db:"error" json:"error,omitempty"`
	RequestedBy int             `db:"requested_by" json:"requestedBy"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	CompletedAt *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
}
