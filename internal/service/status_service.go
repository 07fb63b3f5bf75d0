package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/wavenote-dev/community-api/internal/dto"
	"github.com/wavenote-dev/community-api/internal/models"
	appErrors "github.com/wavenote-dev/community-api/pkg/errors"
)

type engineBeatmapsetStore interface {
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int) (*models.Beatmapset, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int, status models.Status, approvedAt *time.Time, approvedBy *int) error
}

type engineBeatmapStore interface {
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, beatmapID, setID int, status models.Status) error
	UpdateStatusBySet(ctx context.Context, exec sqlx.ExtContext, setID int, status models.Status) error
}

// StatusNotifier receives the structured payload of a committed transition.
// Delivery is best-effort and must never influence the transaction outcome.
type StatusNotifier interface {
	NotifyStatusChange(event dto.StatusChangeEvent)
}

type engineAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type profileCacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// StatusOption configures optional engine collaborators.
type StatusOption func(*StatusService)

// WithProfileCacheInvalidation drops the creator's cached profile page after
// a committed transition so it regroups under the new status.
func WithProfileCacheInvalidation(cache profileCacheInvalidator) StatusOption {
	return func(s *StatusService) {
		s.profileCache = cache
	}
}

// StatusService orchestrates beatmapset status transitions. Every transition
// runs as one transaction: the set row is locked first, gate checks happen
// before any write, and the set, its difficulties, its topic and its ledger
// either all move together or not at all.
type StatusService struct {
	db       *sqlx.DB
	sets     engineBeatmapsetStore
	beatmaps engineBeatmapStore
	topics   *TopicService
	ledger   *NominationLedger
	cleanup  *CleanupService
	notifier StatusNotifier
	audit    engineAuditLogger
	logger   *zap.Logger

	profileCache profileCacheInvalidator
}

// NewStatusService constructs the engine. Notifier and audit are optional.
func NewStatusService(
	db *sqlx.DB,
	sets engineBeatmapsetStore,
	beatmaps engineBeatmapStore,
	topics *TopicService,
	ledger *NominationLedger,
	cleanup *CleanupService,
	notifier StatusNotifier,
	audit engineAuditLogger,
	logger *zap.Logger,
	opts ...StatusOption,
) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StatusService{
		db:       db,
		sets:     sets,
		beatmaps: beatmaps,
		topics:   topics,
		ledger:   ledger,
		cleanup:  cleanup,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateDifficultyStatuses applies a per-difficulty status map to a set. The
// aggregate set status becomes the highest requested status; Ranked can only
// be reaffirmed, never originated here, and Approved/Qualified are gated on
// the nomination threshold.
func (s *StatusService) UpdateDifficultyStatuses(ctx context.Context, setID int, requested map[int]models.Status, actor *models.JWTClaims) (result *dto.StatusChangeResult, err error) {
	if actor == nil || !actor.CanReview {
		return nil, appErrors.ErrUnauthorized
	}

	filtered := make(map[int]models.Status, len(requested))
	for beatmapID, status := range requested {
		if status == models.StatusIgnored {
			continue
		}
		if !status.Known() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status code %d", status))
		}
		filtered[beatmapID] = status
	}
	if len(filtered) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no difficulty statuses provided")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	set, err := s.sets.GetForUpdate(ctx, tx, setID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = tx.Rollback()
			return &dto.StatusChangeResult{SetID: setID, Location: setLocation(setID)}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load beatmapset")
	}

	previous := set.Status
	values := make([]models.Status, 0, len(filtered))
	for _, status := range filtered {
		values = append(values, status)
	}
	target := models.MaxStatus(values)

	if containsStatus(filtered, models.StatusRanked) {
		if previous != models.StatusRanked && previous != models.StatusApproved {
			err = appErrors.Clone(appErrors.ErrGateNotSatisfied, "this beatmap is not yet ranked, try to qualify it first")
			return nil, err
		}
		target = models.StatusRanked
	}

	// Approved takes precedence over Qualified when both appear.
	if containsStatus(filtered, models.StatusApproved) || containsStatus(filtered, models.StatusQualified) {
		var enough bool
		enough, err = s.ledger.HasEnough(ctx, tx, set)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check nominations")
		}
		if !enough {
			err = appErrors.Clone(appErrors.ErrGateNotSatisfied, "this beatmap does not have enough nominations")
			return nil, err
		}
		if containsStatus(filtered, models.StatusApproved) {
			target = models.StatusApproved
		} else {
			target = models.StatusQualified
		}
	}

	for beatmapID, status := range filtered {
		if err = s.beatmaps.UpdateStatus(ctx, tx, beatmapID, set.ID, status); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update difficulty status")
		}
	}

	if err = s.writeAggregateStatus(ctx, tx, set, target, actor); err != nil {
		return nil, err
	}
	for i := range set.Beatmaps {
		if status, ok := filtered[set.Beatmaps[i].ID]; ok {
			set.Beatmaps[i].Status = status
		}
	}

	if err = s.applyTopicState(ctx, tx, set, target, previous); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit status change")
	}

	s.afterCommit(ctx, set, actor)
	s.logger.Info("difficulty statuses updated",
		zap.Int("set_id", set.ID),
		zap.String("set", set.FullName()),
		zap.String("status", target.String()),
		zap.String("actor", actor.Name),
	)

	return &dto.StatusChangeResult{SetID: set.ID, Status: target, Location: setLocation(set.ID), Changed: true}, nil
}

// UpdateBeatmapsetStatus moves a whole set to the target status. Pending
// demotes and purges accumulated signal, Approved/Qualified are threshold
// gated, Loved is unconditional. Ranked is deliberately not settable here.
func (s *StatusService) UpdateBeatmapsetStatus(ctx context.Context, setID int, target models.Status, actor *models.JWTClaims) (result *dto.StatusChangeResult, err error) {
	if actor == nil || !actor.CanReview {
		return nil, appErrors.ErrUnauthorized
	}

	switch target {
	case models.StatusPending, models.StatusApproved, models.StatusQualified, models.StatusLoved:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported target status %d", target))
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	set, err := s.sets.GetForUpdate(ctx, tx, setID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = tx.Rollback()
			return &dto.StatusChangeResult{SetID: setID, Location: setLocation(setID)}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load beatmapset")
	}

	previous := set.Status

	switch target {
	case models.StatusPending:
		if previous.Promoted() {
			if err = s.cleanup.PurgeOnDemotion(ctx, tx, set); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge demoted set")
			}
		}
	case models.StatusApproved, models.StatusQualified:
		var enough bool
		enough, err = s.ledger.HasEnough(ctx, tx, set)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check nominations")
		}
		if !enough {
			err = appErrors.Clone(appErrors.ErrGateNotSatisfied, "this beatmap does not have enough nominations")
			return nil, err
		}
	case models.StatusLoved:
		// No gate: Loved is a curatorial branch outside the nomination flow.
	}

	if err = s.writeAggregateStatus(ctx, tx, set, target, actor); err != nil {
		return nil, err
	}
	if err = s.beatmaps.UpdateStatusBySet(ctx, tx, set.ID, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update difficulty statuses")
	}
	for i := range set.Beatmaps {
		set.Beatmaps[i].Status = target
	}

	if err = s.applyTopicState(ctx, tx, set, target, previous); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit status change")
	}

	s.afterCommit(ctx, set, actor)
	s.logger.Info("beatmapset status updated",
		zap.Int("set_id", set.ID),
		zap.String("set", set.FullName()),
		zap.String("status", target.String()),
		zap.String("actor", actor.Name),
	)

	return &dto.StatusChangeResult{SetID: set.ID, Status: target, Location: setLocation(set.ID), Changed: true}, nil
}

// writeAggregateStatus persists the set status with approval metadata and
// mirrors both onto the in-memory set so topic bookkeeping sees the new state.
func (s *StatusService) writeAggregateStatus(ctx context.Context, tx *sqlx.Tx, set *models.Beatmapset, target models.Status, actor *models.JWTClaims) error {
	var approvedAt *time.Time
	var approvedBy *int
	if target.Promoted() {
		now := time.Now().UTC()
		approvedAt = &now
		approvedBy = &actor.UserID
	}
	if err := s.sets.UpdateStatus(ctx, tx, set.ID, target, approvedAt, approvedBy); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update beatmapset status")
	}
	set.Status = target
	set.ApprovedAt = approvedAt
	set.ApprovedBy = approvedBy
	return nil
}

// applyTopicState performs the thread bookkeeping after the authoritative
// status write: forum placement, icon, then the derived status text.
func (s *StatusService) applyTopicState(ctx context.Context, tx *sqlx.Tx, set *models.Beatmapset, target, previous models.Status) error {
	if err := s.topics.Relocate(ctx, tx, set, target); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to relocate topic")
	}
	if err := s.topics.UpdateIcon(ctx, tx, set, target, previous); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update topic icon")
	}
	if err := s.topics.ApplyStatusText(ctx, tx, set, target); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update topic status text")
	}
	return nil
}

// afterCommit emits the notification and audit trail for a committed
// transition. Both are best-effort.
func (s *StatusService) afterCommit(ctx context.Context, set *models.Beatmapset, actor *models.JWTClaims) {
	event := dto.StatusChangeEvent{
		SetID:     set.ID,
		SetTitle:  set.FullName(),
		ActorID:   actor.UserID,
		ActorName: actor.Name,
	}
	for _, beatmap := range set.Beatmaps {
		event.Difficulties = append(event.Difficulties, dto.DifficultyOutcome{
			Name:   beatmap.Version,
			Status: beatmap.Status.String(),
		})
	}
	if s.profileCache != nil {
		s.profileCache.Invalidate(ctx, profileCacheKey(set.CreatorID))
	}
	if s.notifier != nil {
		s.notifier.NotifyStatusChange(event)
	}
	if s.audit != nil {
		resourceID := fmt.Sprintf("%d", set.ID)
		payload, _ := json.Marshal(event)
		log := &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionStatusChange,
			Resource:   "beatmapset",
			ResourceID: &resourceID,
			NewValues:  payload,
			IPAddress:  "system",
			UserAgent:  "status-service",
		}
		if err := s.audit.CreateAuditLog(ctx, log); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}
}

func containsStatus(statuses map[int]models.Status, wanted models.Status) bool {
	for _, status := range statuses {
		if status == wanted {
			return true
		}
	}
	return false
}

func setLocation(setID int) string {
	return fmt.Sprintf("/s/%d", setID)
}
