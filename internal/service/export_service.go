package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wavenote-dev/community-api/internal/dto"
	"github.com/wavenote-dev/community-api/internal/models"
	"github.com/wavenote-dev/community-api/pkg/config"
	appErrors "github.com/wavenote-dev/community-api/pkg/errors"
	"github.com/wavenote-dev/community-api/pkg/export"
	"github.com/wavenote-dev/community-api/pkg/jobs"
	"github.com/wavenote-dev/community-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkCompleted(ctx context.Context, id, filePath string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id, reason string, failedAt time.Time) error
}

type exportLedgerStore interface {
	FetchBySet(ctx context.Context, setID int) ([]models.Nomination, error)
}

type exportSetStore interface {
	GetByID(ctx context.Context, id int) (*models.Beatmapset, error)
}

type exportFileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type exportAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ExportService renders nomination ledgers to CSV or PDF files off the request
// path. Jobs are queued, rendered by workers, and downloaded through signed
// single-purpose tokens.
type ExportService struct {
	cfg    config.ExportConfig
	jobs   exportJobStore
	ledger exportLedgerStore
	sets   exportSetStore
	files  exportFileStore
	signer *storage.SignedURLSigner
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	audit  exportAuditLogger
	logger *zap.Logger

	queue       *jobs.Queue
	cleanupStop chan struct{}
}

// NewExportService constructs the service and its worker queue.
func NewExportService(cfg config.ExportConfig, jobStore exportJobStore, ledger exportLedgerStore, sets exportSetStore, files exportFileStore, audit exportAuditLogger, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		cfg:         cfg,
		jobs:        jobStore,
		ledger:      ledger,
		sets:        sets,
		files:       files,
		signer:      storage.NewSignedURLSigner(cfg.SignedURLSecret, cfg.SignedURLTTL),
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		audit:       audit,
		logger:      logger,
		cleanupStop: make(chan struct{}),
	}
	s.queue = jobs.NewQueue("ledger-exports", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the render workers and the file cleanup loop.
func (s *ExportService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	s.queue.Start(ctx)
	go s.cleanupLoop(ctx)
}

// Stop drains the workers and halts cleanup.
func (s *ExportService) Stop() {
	if !s.cfg.Enabled {
		return
	}
	close(s.cleanupStop)
	s.queue.Stop()
}

// RequestExport queues a ledger export for the set. Reviewer only.
func (s *ExportService) RequestExport(ctx context.Context, setID int, format string, actor *models.JWTClaims) (*dto.ExportJobResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ledger exports are disabled")
	}
	if actor == nil || !actor.CanReview {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only reviewers may export the nomination ledger")
	}

	exportFormat := models.ExportFormat(format)
	if exportFormat != models.ExportFormatCSV && exportFormat != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	if _, err := s.sets.GetByID(ctx, setID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "beatmapset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load beatmapset")
	}

	job := &models.ExportJob{
		SetID:       setID,
		Format:      exportFormat,
		RequestedBy: actor.UserID,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "ledger_export", Payload: job.ID}); err != nil {
		now := time.Now().UTC()
		if markErr := s.jobs.MarkFailed(ctx, job.ID, "export queue unavailable", now); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	s.logger.Info("ledger export queued",
		zap.String("job_id", job.ID),
		zap.Int("set_id", setID),
		zap.String("format", format),
		zap.Int("requested_by", actor.UserID),
	)

	return s.jobResponse(job), nil
}

// GetJob reports job state. Completed jobs carry a signed download URL.
func (s *ExportService) GetJob(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ExportJobResponse, error) {
	if actor == nil || !actor.CanReview {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only reviewers may inspect export jobs")
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return s.jobResponse(job), nil
}

// Download validates a signed token and opens the rendered file.
func (s *ExportService) Download(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportJobCompleted || job.FilePath == nil || *job.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not available")
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not available")
	}
	name := fmt.Sprintf("nomination-ledger-%d.%s", job.SetID, job.Format)
	return file, name, nil
}

func (s *ExportService) jobResponse(job *models.ExportJob) *dto.ExportJobResponse {
	resp := &dto.ExportJobResponse{
		ID:     job.ID,
		SetID:  job.SetID,
		Format: string(job.Format),
		Status: string(job.Status),
	}
	if job.Error != nil {
		resp.Error = *job.Error
	}
	if job.Status == models.ExportJobCompleted && job.FilePath != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign export download", zap.String("job_id", job.ID), zap.Error(err))
			return resp
		}
		resp.DownloadURL = fmt.Sprintf("/exports/download?token=%s", token)
		resp.ExpiresAt = &expiresAt
	}
	return resp
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected export payload type %T", job.Payload)
	}

	record, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", jobID, err)
	}

	filePath, err := s.render(ctx, record)
	if err != nil {
		now := time.Now().UTC()
		if markErr := s.jobs.MarkFailed(ctx, record.ID, err.Error(), now); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", record.ID), zap.Error(markErr))
		}
		return err
	}

	now := time.Now().UTC()
	if err := s.jobs.MarkCompleted(ctx, record.ID, filePath, now); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &record.RequestedBy,
			Action:     models.AuditActionLedgerExport,
			Resource:   "beatmapset",
			ResourceID: &record.ID,
			IPAddress:  "system",
			UserAgent:  "export-worker",
		}); err != nil {
			s.logger.Warn("failed to persist export audit log", zap.String("job_id", record.ID), zap.Error(err))
		}
	}

	s.logger.Info("ledger export rendered",
		zap.String("job_id", record.ID),
		zap.Int("set_id", record.SetID),
		zap.String("file", filePath),
	)
	return nil
}

func (s *ExportService) render(ctx context.Context, record *models.ExportJob) (string, error) {
	set, err := s.sets.GetByID(ctx, record.SetID)
	if err != nil {
		return "", fmt.Errorf("load beatmapset %d: %w", record.SetID, err)
	}

	nominations, err := s.ledger.FetchBySet(ctx, record.SetID)
	if err != nil {
		return "", fmt.Errorf("load nomination ledger: %w", err)
	}

	dataset := ledgerDataset(nominations)

	var content []byte
	switch record.Format {
	case models.ExportFormatCSV:
		content, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		content, err = s.pdf.Render(dataset, fmt.Sprintf("Nomination ledger: %s", set.FullName()))
	default:
		return "", fmt.Errorf("unsupported export format %q", record.Format)
	}
	if err != nil {
		return "", fmt.Errorf("render %s export: %w", record.Format, err)
	}

	filename := fmt.Sprintf("ledger/%s.%s", record.ID, record.Format)
	stored, err := s.files.Save(filename, content)
	if err != nil {
		return "", fmt.Errorf("store export file: %w", err)
	}
	return stored, nil
}

func ledgerDataset(nominations []models.Nomination) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Nominator", "Server", "Nominated At"},
	}
	for _, nomination := range nominations {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Nominator":    nomination.UserName,
			"Server":       serverLabel(nomination.Server),
			"Nominated At": nomination.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return dataset
}

func serverLabel(server int) string {
	if server == models.NominationServerLocal {
		return "local"
	}
	return "global"
}

func (s *ExportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.cleanupStop:
			return
		case <-ticker.C:
			deleted, err := s.files.CleanupOlderThan(s.cfg.SignedURLTTL)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("expired export files removed", zap.Int("count", len(deleted)))
			}
		}
	}
}
