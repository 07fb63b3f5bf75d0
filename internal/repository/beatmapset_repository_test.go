package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavenote-dev/community-api/internal/models"
)

func newBeatmapsetRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func beatmapsetRows() *sqlmock.Rows {
	topicID := 55
	return sqlmock.NewRows([]string{"id", "creator_id", "artist", "title", "status", "topic_id", "approved_at", "approved_by", "created_at"}).
		AddRow(100, 7, "Artist", "Title", 0, topicID, nil, nil, time.Now())
}

func beatmapRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "set_id", "version", "status", "created_at"}).
		AddRow(1, 100, "Easy", 0, time.Now()).
		AddRow(2, 100, "Hard", 0, time.Now())
}

func TestBeatmapsetGetByID(t *testing.T) {
	db, mock, cleanup := newBeatmapsetRepoMock(t)
	defer cleanup()
	repo := NewBeatmapsetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, creator_id, artist, title, status, topic_id, approved_at, approved_by, created_at FROM beatmapsets WHERE id = $1")).
		WithArgs(100).
		WillReturnRows(beatmapsetRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, set_id, version, status, created_at FROM beatmaps WHERE set_id = $1 ORDER BY id")).
		WithArgs(100).
		WillReturnRows(beatmapRows())

	set, err := repo.GetByID(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "Artist - Title", set.FullName())
	assert.Len(t, set.Beatmaps, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeatmapsetGetForUpdateLocksRow(t *testing.T) {
	db, mock, cleanup := newBeatmapsetRepoMock(t)
	defer cleanup()
	repo := NewBeatmapsetRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, creator_id, artist, title, status, topic_id, approved_at, approved_by, created_at FROM beatmapsets WHERE id = $1 FOR UPDATE")).
		WithArgs(100).
		WillReturnRows(beatmapsetRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, set_id, version, status, created_at FROM beatmaps WHERE set_id = $1 ORDER BY id")).
		WithArgs(100).
		WillReturnRows(beatmapRows())
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	set, err := repo.GetForUpdate(context.Background(), tx, 100)
	require.NoError(t, err)
	require.NotNil(t, set.TopicID)
	assert.Equal(t, 55, *set.TopicID)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeatmapsetUpdateStatus(t *testing.T) {
	db, mock, cleanup := newBeatmapsetRepoMock(t)
	defer cleanup()
	repo := NewBeatmapsetRepository(db)

	now := time.Now().UTC()
	actor := 5
	mock.ExpectExec(regexp.QuoteMeta("UPDATE beatmapsets SET status = $1, approved_at = $2, approved_by = $3 WHERE id = $4")).
		WithArgs(models.StatusApproved, now, actor, 100).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), nil, 100, models.StatusApproved, &now, &actor))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeatmapsetUpdateStatusClearsApproval(t *testing.T) {
	db, mock, cleanup := newBeatmapsetRepoMock(t)
	defer cleanup()
	repo := NewBeatmapsetRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE beatmapsets SET status = $1, approved_at = $2, approved_by = $3 WHERE id = $4")).
		WithArgs(models.StatusPending, nil, nil, 100).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), nil, 100, models.StatusPending, nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeatmapsetFetchByCreator(t *testing.T) {
	db, mock, cleanup := newBeatmapsetRepoMock(t)
	defer cleanup()
	repo := NewBeatmapsetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, creator_id, artist, title, status, topic_id, approved_at, approved_by, created_at FROM beatmapsets WHERE creator_id = $1 ORDER BY created_at DESC")).
		WithArgs(7).
		WillReturnRows(beatmapsetRows())

	sets, err := repo.FetchByCreator(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, sets, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
