package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/dbsandbot/pkg/configstore"
)

const (
	testGuildID  = "guild-1"
	testActive   = "cat-active"
	testArchive  = "cat-archive"
	testTTL      = 30 * time.Minute
	testTimeout  = 10 * time.Second
	testDBErrMsg = "connection refused"
)

func testConfig() configstore.GuildConfig {
	return configstore.GuildConfig{
		GuildID:         testGuildID,
		ActiveCategory:  testActive,
		ArchiveCategory: testArchive,
		TTL:             testTTL,
		Timeout:         testTimeout,
		Pretty:          true,
		Structured:      false,
	}
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestGet_ReturnsConfig(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows(guildColumns).
		AddRow(testGuildID, testActive, testArchive,
			int64(testTTL/time.Second), int64(testTimeout/time.Second), true, false)
	mock.ExpectQuery("SELECT .+ FROM guild_configs").
		WithArgs(testGuildID).
		WillReturnRows(rows)

	got, err := store.Get(context.Background(), testGuildID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testConfig(), *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFoundReturnsNil(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM guild_configs").
		WithArgs(testGuildID).
		WillReturnRows(sqlmock.NewRows(guildColumns))

	got, err := store.Get(context.Background(), testGuildID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGet_DatabaseError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM guild_configs").
		WillReturnError(errors.New(testDBErrMsg))

	_, err := store.Get(context.Background(), testGuildID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), testDBErrMsg)
}

func TestPut_Upserts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO guild_configs").
		WithArgs(testGuildID, testActive, testArchive,
			int64(testTTL/time.Second), int64(testTimeout/time.Second), true, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Put(context.Background(), testConfig()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPut_DatabaseError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO guild_configs").
		WillReturnError(errors.New(testDBErrMsg))

	err := store.Put(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), testDBErrMsg)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
