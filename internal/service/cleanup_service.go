package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/wavenote-dev/community-api/internal/models"
)

type cleanupScoreStore interface {
	DeleteByBeatmap(ctx context.Context, exec sqlx.ExtContext, beatmapID int) error
}

// CleanupService destroys the community signal of a demoted set: every
// nomination and every score on its difficulties. Invoked inside the caller's
// transaction; nothing here is reversible once that commits.
type CleanupService struct {
	ledger *NominationLedger
	scores cleanupScoreStore
	logger *zap.Logger
}

// NewCleanupService constructs the service.
func NewCleanupService(ledger *NominationLedger, scores cleanupScoreStore, logger *zap.Logger) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupService{ledger: ledger, scores: scores, logger: logger}
}

// PurgeOnDemotion deletes the set's nominations and all scores on its
// difficulties.
func (s *CleanupService) PurgeOnDemotion(ctx context.Context, exec sqlx.ExtContext, set *models.Beatmapset) error {
	if err := s.ledger.DeleteAll(ctx, exec, set.ID); err != nil {
		return fmt.Errorf("purge nominations: %w", err)
	}
	for _, beatmap := range set.Beatmaps {
		if err := s.scores.DeleteByBeatmap(ctx, exec, beatmap.ID); err != nil {
			return fmt.Errorf("purge scores for beatmap %d: %w", beatmap.ID, err)
		}
	}
	s.logger.Info("purged nominations and scores on demotion",
		zap.Int("set_id", set.ID),
		zap.Int("beatmaps", len(set.Beatmaps)),
	)
	return nil
}
