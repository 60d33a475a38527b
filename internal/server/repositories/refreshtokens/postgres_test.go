package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ  = `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\s*\(token_hash,\s*user_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
	consumeQ = `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1\s+RETURNING\s+user_id,\s*expires_at\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).
		WithArgs("hash", "u-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), "u-1", "hash", time.Hour))
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).
		WithArgs("hash", "u-1", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	require.ErrorContains(t, repo.Create(context.Background(), "u-1", "hash", time.Hour), "db error")
}

func TestPostgresConsume(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(consumeQ).WithArgs("hash").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).AddRow("u-1", exp))

	got, err := repo.Consume(context.Background(), "hash")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "hash", got.TokenHash)
	assert.Equal(t, exp, got.Expires)
}

func TestPostgresConsume_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(consumeQ).WithArgs("hash").WillReturnError(sql.ErrNoRows)

	_, err := repo.Consume(context.Background(), "hash")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresConsume_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(consumeQ).WithArgs("hash").WillReturnError(errors.New("db down"))

	_, err := repo.Consume(context.Background(), "hash")
	require.ErrorContains(t, err, "db error")
}
