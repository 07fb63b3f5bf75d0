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
)

func newNominationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestNominationCount(t *testing.T) {
	db, mock, cleanup := newNominationRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM nominations WHERE set_id = $1")).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.Count(context.Background(), nil, 100, false)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNominationCountDistinctActors(t *testing.T) {
	db, mock, cleanup := newNominationRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT user_id) FROM nominations WHERE set_id = $1")).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.Count(context.Background(), nil, 100, true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNominationCountInsideTransaction(t *testing.T) {
	db, mock, cleanup := newNominationRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM nominations WHERE set_id = $1")).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	count, err := repo.Count(context.Background(), tx, 100, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNominationDeleteBySet(t *testing.T) {
	db, mock, cleanup := newNominationRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM nominations WHERE set_id = $1")).
		WithArgs(100).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteBySet(context.Background(), nil, 100))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNominationFetchBySet(t *testing.T) {
	db, mock, cleanup := newNominationRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "set_id", "user_id", "server", "created_at", "user_name"}).
		AddRow(1, 100, 5, 0, time.Now(), "first").
		AddRow(2, 100, 6, 1, time.Now(), "second")
	mock.ExpectQuery("SELECT n.id, n.set_id, n.user_id, n.server, n.created_at, u.name AS user_name").
		WithArgs(100).
		WillReturnRows(rows)

	nominations, err := repo.FetchBySet(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, nominations, 2)
	assert.Equal(t, "first", nominations[0].UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNominationFetchByUserAndServer(t *testing.T) {
	db, mock, cleanup := newNominationRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "set_id", "user_id", "server", "created_at", "set_title"}).
		AddRow(1, 100, 5, 0, time.Now(), "Title")
	mock.ExpectQuery("SELECT n.id, n.set_id, n.user_id, n.server, n.created_at, s.title AS set_title").
		WithArgs(5, 0).
		WillReturnRows(rows)

	nominations, err := repo.FetchByUserAndServer(context.Background(), 5, 0)
	require.NoError(t, err)
	require.Len(t, nominations, 1)
	assert.Equal(t, "Title", nominations[0].SetTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}
