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

func newPostRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func postRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "topic_id", "forum_id", "user_id", "content", "created_at"}).
		AddRow(20, 55, 9, 5, "mod post", time.Now())
}

func TestPostUpdateForumByTopic(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET forum_id = $1 WHERE topic_id = $2")).
		WithArgs(8, 55).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.UpdateForumByTopic(context.Background(), nil, 55, 8))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostFetchLastReviewerPost(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	mock.ExpectQuery("JOIN users u ON u.id = p.user_id").
		WithArgs(55).
		WillReturnRows(postRows())

	post, err := repo.FetchLastReviewerPost(context.Background(), nil, 55)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, 20, post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostFetchLastReviewerPostAbsent(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	mock.ExpectQuery("JOIN users u ON u.id = p.user_id").
		WithArgs(55).
		WillReturnRows(sqlmock.NewRows([]string{"id", "topic_id", "forum_id", "user_id", "content", "created_at"}))

	post, err := repo.FetchLastReviewerPost(context.Background(), nil, 55)
	require.NoError(t, err)
	assert.Nil(t, post)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostFetchLastByUserAbsent(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.topic_id = $1 AND p.user_id = $2")).
		WithArgs(55, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "topic_id", "forum_id", "user_id", "content", "created_at"}))

	post, err := repo.FetchLastByUser(context.Background(), nil, 55, 7)
	require.NoError(t, err)
	assert.Nil(t, post)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostCountByUser(t *testing.T) {
	db, mock, cleanup := newPostRepoMock(t)
	defer cleanup()
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts WHERE user_id = $1")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
