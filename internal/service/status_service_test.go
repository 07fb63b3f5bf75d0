package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavenote-dev/community-api/internal/dto"
	"github.com/wavenote-dev/community-api/internal/models"
	"github.com/wavenote-dev/community-api/pkg/config"
	appErrors "github.com/wavenote-dev/community-api/pkg/errors"
)

type aggregateWrite struct {
	status     models.Status
	approvedAt *time.Time
	approvedBy *int
}

type stubEngineSetStore struct {
	set    *models.Beatmapset
	getErr error
	writes []aggregateWrite
}

func (s *stubEngineSetStore) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id int) (*models.Beatmapset, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.set, nil
}

func (s *stubEngineSetStore) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int, status models.Status, approvedAt *time.Time, approvedBy *int) error {
	s.writes = append(s.writes, aggregateWrite{status: status, approvedAt: approvedAt, approvedBy: approvedBy})
	return nil
}

type stubEngineBeatmapStore struct {
	perDiff map[int]models.Status
	bySet   []models.Status
}

func (s *stubEngineBeatmapStore) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, beatmapID, setID int, status models.Status) error {
	if s.perDiff == nil {
		s.perDiff = make(map[int]models.Status)
	}
	s.perDiff[beatmapID] = status
	return nil
}

func (s *stubEngineBeatmapStore) UpdateStatusBySet(ctx context.Context, exec sqlx.ExtContext, setID int, status models.Status) error {
	s.bySet = append(s.bySet, status)
	return nil
}

type stubScoreStore struct {
	deleted []int
}

func (s *stubScoreStore) DeleteByBeatmap(ctx context.Context, exec sqlx.ExtContext, beatmapID int) error {
	s.deleted = append(s.deleted, beatmapID)
	return nil
}

type stubNotifier struct {
	events []dto.StatusChangeEvent
}

func (s *stubNotifier) NotifyStatusChange(event dto.StatusChangeEvent) {
	s.events = append(s.events, event)
}

type stubAuditLogger struct {
	logs []*models.AuditLog
}

func (s *stubAuditLogger) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type stubCacheInvalidator struct {
	keys []string
}

func (s *stubCacheInvalidator) Invalidate(ctx context.Context, keys ...string) {
	s.keys = append(s.keys, keys...)
}

type engineFixture struct {
	mock        sqlmock.Sqlmock
	sets        *stubEngineSetStore
	beatmaps    *stubEngineBeatmapStore
	topics      *stubTopicStore
	posts       *stubTopicPostStore
	ledgerStore *stubLedgerStore
	scores      *stubScoreStore
	notifier    *stubNotifier
	audit       *stubAuditLogger
	invalidator *stubCacheInvalidator
	svc         *StatusService
}

func newEngineFixture(t *testing.T, set *models.Beatmapset, nominations int) *engineFixture {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	db := sqlx.NewDb(mockDB, "sqlmock")

	f := &engineFixture{
		mock:        mock,
		sets:        &stubEngineSetStore{set: set},
		beatmaps:    &stubEngineBeatmapStore{},
		topics:      &stubTopicStore{},
		posts:       &stubTopicPostStore{},
		ledgerStore: &stubLedgerStore{count: nominations},
		scores:      &stubScoreStore{},
		notifier:    &stubNotifier{},
		audit:       &stubAuditLogger{},
		invalidator: &stubCacheInvalidator{},
	}

	ledger := NewNominationLedger(f.ledgerStore, config.NominationConfig{RequiredDefault: 2}, nil)
	topicSvc := NewTopicService(f.topics, f.posts, ledger, testForums, testIcons, nil)
	cleanup := NewCleanupService(ledger, f.scores, nil)
	f.svc = NewStatusService(db, f.sets, f.beatmaps, topicSvc, ledger, cleanup, f.notifier, f.audit, nil,
		WithProfileCacheInvalidation(f.invalidator))
	return f
}

func reviewer() *models.JWTClaims {
	return &models.JWTClaims{UserID: 5, Name: "reviewer", CanReview: true}
}

func pendingSet() *models.Beatmapset {
	topicID := 55
	return &models.Beatmapset{
		ID:        100,
		CreatorID: 7,
		Artist:    "Artist",
		Title:     "Title",
		Status:    models.StatusPending,
		TopicID:   &topicID,
		Beatmaps: []models.Beatmap{
			{ID: 1, SetID: 100, Version: "Easy", Status: models.StatusPending},
			{ID: 2, SetID: 100, Version: "Hard", Status: models.StatusPending},
		},
	}
}

func TestDifficultyStatusesRequiresReviewer(t *testing.T) {
	f := newEngineFixture(t, pendingSet(), 2)

	_, err := f.svc.UpdateDifficultyStatuses(context.Background(), 100, map[int]models.Status{1: models.StatusPending}, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	_, err = f.svc.UpdateDifficultyStatuses(context.Background(), 100, map[int]models.Status{1: models.StatusPending}, &models.JWTClaims{UserID: 9})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	assert.Empty(t, f.sets.writes)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDifficultyStatusesIgnoreSentinelOnly(t *testing.T) {
	f := newEngineFixture(t, pendingSet(), 2)

	_, err := f.svc.UpdateDifficultyStatuses(context.Background(), 100, map[int]models.Status{1: models.StatusIgnored, 2: models.StatusIgnored}, reviewer())
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDifficultyStatusesRejectsUnknownCode(t *testing.T) {
	f := newEngineFixture(t, pendingSet(), 2)

	_, err := f.svc.UpdateDifficultyStatuses(context.Background(), 100, map[int]models.Status{1: models.Status(9)}, reviewer())
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDifficultyStatusesMissingSetRedirects(t *testing.T) {
	f := newEngineFixture(t, nil, 2)
	f.sets.getErr = sql.ErrNoRows
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	res, err := f.svc.UpdateDifficultyStatuses(context.Background(), 100, map[int]models.Status{1: models.StatusPending}, reviewer())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "/s/100", res.Location)
	assert.Empty(t, f.sets.writes)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDifficultyStatusesRankedOriginationBlocked(t *testing.T) {
	f := newEngineFixture(t, pendingSet(), 2)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.UpdateDifficultyStatuses(context.Background(), 100, map[int]models.Status{1: models.StatusRanked}, reviewer())
	assert.True(t, appErrors.Is(err, appErrors.ErrGateNotSatisfied))
	assert.Empty(t, f.sets.writes)
	assert.Empty(t, f.beatmaps.perDiff)
	assert.Empty(t, f.notifier.events)
	assert.Empty(t, f.invalidator.keys)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDifficultyStatusesRankedReaffirmAllowed(t *testing.T) {
	set := pendingSet()
	set.Status = models.StatusApproved
	f := newEngineFixture(t, set, 2)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.UpdateDifficultyStatuses(context.Background(), 100, map[int]models.Status{1: models.StatusRanked}, reviewer())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, models.StatusRanked, res.Status)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDifficultyStatusesQualifyBelowThreshold(t *testing.T) {
	f := newEngineFixture(t, pendingSet(), 1)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.UpdateDifficultyStatuses(context.Background(), 100, map[int]models.Status{1: models.StatusQualified}, reviewer())
	assert.True(t, appErrors.Is(err, appErrors.ErrGateNotSatisfied))
	assert.Empty(t, f.sets.writes)
	assert.Empty(t, f.beatmaps.perDiff)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDifficultyStatusesApproveHappyPath(t *testing.T) {
	f := newEngineFixture(t, pendingSet(), 2)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.UpdateDifficultyStatuses(context.Background(), 100, map[int]models.Status{
		1: models.StatusApproved,
		2: models.StatusApproved,
	}, reviewer())
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, models.StatusApproved, res.Status)
	assert.Equal(t, "/s/100", res.Location)

	require.Len(t, f.sets.writes, 1)
	write := f.sets.writes[0]
	assert.Equal(t, models.StatusApproved, write.status)
	require.NotNil(t, write.approvedAt)
	require.NotNil(t, write.approvedBy)
	assert.Equal(t, 5, *write.approvedBy)

	assert.Equal(t, models.StatusApproved, f.beatmaps.perDiff[1])
	assert.Equal(t, models.StatusApproved, f.beatmaps.perDiff[2])

	require.NotNil(t, f.topics.forumID)
	assert.Equal(t, testForums.RankedID, *f.topics.forumID)
	require.NotNil(t, f.topics.iconID)
	assert.Equal(t, testIcons.FlameID, *f.topics.iconID)
	assert.True(t, f.topics.textSet)
	assert.Nil(t, f.topics.statusText)

	require.Len(t, f.notifier.events, 1)
	event := f.notifier.events[0]
	assert.Equal(t, "Artist - Title", event.SetTitle)
	assert.Len(t, event.Difficulties, 2)

	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionStatusChange, f.audit.logs[0].Action)

	assert.Equal(t, []string{"profile:7"}, f.invalidator.keys)

	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDifficultyStatusesAggregateIsHighest(t *testing.T) {
	set := pendingSet()
	set.Status = models.StatusGraveyard
	f := newEngineFixture(t, set, 0)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.UpdateDifficultyStatuses(context.Background(), 100, map[int]models.Status{
		1: models.StatusWIP,
		2: models.StatusPending,
	}, reviewer())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, res.Status)

	require.Len(t, f.sets.writes, 1)
	assert.Equal(t, models.StatusPending, f.sets.writes[0].status)
	assert.Nil(t, f.sets.writes[0].approvedAt)
	assert.Nil(t, f.sets.writes[0].approvedBy)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusRequiresReviewer(t *testing.T) {
	f := newEngineFixture(t, pendingSet(), 2)

	_, err := f.svc.UpdateBeatmapsetStatus(context.Background(), 100, models.StatusLoved, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusUnsupportedTarget(t *testing.T) {
	f := newEngineFixture(t, pendingSet(), 2)

	_, err := f.svc.UpdateBeatmapsetStatus(context.Background(), 100, models.StatusRanked, reviewer())
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.UpdateBeatmapsetStatus(context.Background(), 100, models.StatusGraveyard, reviewer())
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusQualifyBelowThreshold(t *testing.T) {
	f := newEngineFixture(t, pendingSet(), 1)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.UpdateBeatmapsetStatus(context.Background(), 100, models.StatusQualified, reviewer())
	assert.True(t, appErrors.Is(err, appErrors.ErrGateNotSatisfied))
	assert.Empty(t, f.sets.writes)
	assert.Empty(t, f.beatmaps.bySet)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusLovedIsUnconditional(t *testing.T) {
	f := newEngineFixture(t, pendingSet(), 0)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.UpdateBeatmapsetStatus(context.Background(), 100, models.StatusLoved, reviewer())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, models.StatusLoved, res.Status)

	require.Len(t, f.sets.writes, 1)
	assert.NotNil(t, f.sets.writes[0].approvedAt)
	require.NotNil(t, f.topics.iconID)
	assert.Equal(t, testIcons.HeartID, *f.topics.iconID)
	assert.Equal(t, []models.Status{models.StatusLoved}, f.beatmaps.bySet)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusRepeatedTargetIsIdempotent(t *testing.T) {
	set := pendingSet()
	set.Status = models.StatusLoved
	for i := range set.Beatmaps {
		set.Beatmaps[i].Status = models.StatusLoved
	}
	f := newEngineFixture(t, set, 0)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.UpdateBeatmapsetStatus(context.Background(), 100, models.StatusLoved, reviewer())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, models.StatusLoved, res.Status)

	require.Len(t, f.sets.writes, 1)
	assert.Equal(t, models.StatusLoved, f.sets.writes[0].status)
	require.NotNil(t, f.topics.forumID)
	assert.Equal(t, testForums.RankedID, *f.topics.forumID)
	assert.Empty(t, f.ledgerStore.deleted)
	assert.Empty(t, f.scores.deleted)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusDemotionPurgesSignal(t *testing.T) {
	set := pendingSet()
	set.Status = models.StatusQualified
	f := newEngineFixture(t, set, 2)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	res, err := f.svc.UpdateBeatmapsetStatus(context.Background(), 100, models.StatusPending, reviewer())
	require.NoError(t, err)
	assert.True(t, res.Changed)

	assert.Equal(t, []int{100}, f.ledgerStore.deleted)
	assert.ElementsMatch(t, []int{1, 2}, f.scores.deleted)

	require.Len(t, f.sets.writes, 1)
	assert.Equal(t, models.StatusPending, f.sets.writes[0].status)
	assert.Nil(t, f.sets.writes[0].approvedAt)
	assert.Nil(t, f.sets.writes[0].approvedBy)

	require.NotNil(t, f.topics.forumID)
	assert.Equal(t, testForums.PendingID, *f.topics.forumID)
	assert.True(t, f.topics.iconSet)
	assert.Nil(t, f.topics.iconID)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSetStatusDemotionFromPendingSkipsPurge(t *testing.T) {
	set := pendingSet()
	set.Status = models.StatusWIP
	f := newEngineFixture(t, set, 0)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.UpdateBeatmapsetStatus(context.Background(), 100, models.StatusPending, reviewer())
	require.NoError(t, err)
	assert.Empty(t, f.ledgerStore.deleted)
	assert.Empty(t, f.scores.deleted)
	require.NoError(t, f.mock.ExpectationsWereMet())
}
