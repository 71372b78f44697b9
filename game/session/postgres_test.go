package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomida/gamebot/game/profile"
)

var sessionCols = []string{"chat_id", "identity_id", "profile", "confirmed", "leaderboard_page", "updated_at"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresLoad(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(qLoad).WithArgs(int64(42)).WillReturnRows(
		sqlmock.NewRows(sessionCols).AddRow(int64(42), int64(42),
			[]byte(`{"id":42,"username":"abebe","phone":"+251911000000","score":70}`), true, 2, at),
	)

	sess, found, err := store.Load(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, sess.Unlocked())
	assert.True(t, sess.Confirmed)
	assert.Equal(t, 2, sess.LeaderboardPage)
	assert.Equal(t, int64(70), sess.Profile.Score)
	assert.Equal(t, 1, sess.Profile.MapsLevel, "missing levels default to 1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadMissingAndEmptyProfile(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(qLoad).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows(sessionCols))
	mock.ExpectQuery(qLoad).WithArgs(int64(2)).WillReturnRows(
		sqlmock.NewRows(sessionCols).AddRow(int64(2), int64(2), nil, false, 1, time.Now()),
	)

	_, found, err := store.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, found)

	sess, found, err := store.Load(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, sess.Profile)
	assert.Equal(t, StateNew, sess.State())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return at }

	sess := New(42, 42)
	require.NoError(t, sess.SetProfile(profile.Profile{ID: 42, Username: "abebe"}, false))
	sess.LeaderboardPage = 3

	mock.ExpectExec(qSave).
		WithArgs(int64(42), int64(42), sqlmock.AnyArg(), false, 3, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), sess))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClearAndPrune(t *testing.T) {
	store, mock := newMockStore(t)
	cutoff := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(qClear).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qPrune).WithArgs(cutoff).WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, store.Clear(context.Background(), 5))
	n, err := store.Prune(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveWrapsErrors(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(qSave).WillReturnError(errors.New("connection reset"))

	err := store.Save(context.Background(), New(9, 9))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session: save 9")
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := Migrations.ReadDir(MigrationsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
