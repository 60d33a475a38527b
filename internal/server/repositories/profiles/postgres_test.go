package profiles

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/medkeeper/internal/common"
	"github.com/dmitrijs2005/medkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+profiles\s*\(id,\s*encryption_salt\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+created_at,\s*updated_at\s*$`
	selectQ = `(?s)^SELECT\s+id,\s*encryption_salt,\s*encrypted_user_master_key,\s*created_at,\s*updated_at\s+FROM\s+profiles\s+WHERE\s+id\s*=\s*\$1\s*$`
	updateQ = `(?s)^UPDATE\s+profiles\s+SET\s+encrypted_user_master_key\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+AND\s+encrypted_user_master_key\s+IS\s+NULL\s*$`
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

func profileRow(key any) *sqlmock.Rows {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "encryption_salt", "encrypted_user_master_key", "created_at", "updated_at"}).
		AddRow("p1", "salt", key, ts, ts)
}

func TestPostgresCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(insertQ).
		WithArgs("p1", "salt").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, ts))

	got, err := repo.Create(context.Background(), &models.Profile{ID: "p1", EncryptionSalt: "salt"})
	require.NoError(t, err)
	assert.Equal(t, ts, got.CreatedAt)
	assert.False(t, got.HasMasterKey())
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs("p1", "salt").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Profile{ID: "p1", EncryptionSalt: "salt"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQ).WithArgs("p1").WillReturnRows(profileRow(nil))
	got, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "salt", got.EncryptionSalt)
	assert.Nil(t, got.EncryptedUserMasterKey)

	mock.ExpectQuery(selectQ).WithArgs("p1").WillReturnRows(profileRow("blob"))
	got, err = repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, got.EncryptedUserMasterKey)
	assert.Equal(t, "blob", *got.EncryptedUserMasterKey)
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQ).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresSetEncryptedMasterKey_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WithArgs("p1", "blob").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetEncryptedMasterKey(context.Background(), "p1", "blob"))
}

func TestPostgresSetEncryptedMasterKey_AlreadySet(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WithArgs("p1", "blob2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectQ).WithArgs("p1").WillReturnRows(profileRow("blob1"))

	err := repo.SetEncryptedMasterKey(context.Background(), "p1", "blob2")
	require.ErrorIs(t, err, common.ErrMasterKeyAlreadySet)
}

func TestPostgresSetEncryptedMasterKey_UnknownProfile(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WithArgs("nope", "blob").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectQ).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	err := repo.SetEncryptedMasterKey(context.Background(), "nope", "blob")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresSetEncryptedMasterKey_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WithArgs("p1", "blob").WillReturnError(errors.New("db down"))

	err := repo.SetEncryptedMasterKey(context.Background(), "p1", "blob")
	require.ErrorContains(t, err, "db error")
}
