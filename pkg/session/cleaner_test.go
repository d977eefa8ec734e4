package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/dbsandbot/pkg/configstore"
)

const (
	clnTestConv    = "channel-9"
	clnTestGuild   = "guild-9"
	clnTestArchive = "cat-archive"
)

func seededSession(t *testing.T, kind Kind) Session {
	t.Helper()
	inst := newMemoryInstance(t)
	_, err := inst.Execute(context.Background(), `
		CREATE TABLE person (id INTEGER PRIMARY KEY, name TEXT);
		INSERT INTO person (name) VALUES ('tobie');
	`, nil)
	require.NoError(t, err)
	return Session{DB: inst, TTL: time.Hour, Kind: kind}
}

func testCleaner(fc *fakeChat, ceiling int) *ChannelCleaner {
	configs := configstore.NewMemoryStore()
	_ = configs.Put(context.Background(), configstore.GuildConfig{
		GuildID:         clnTestGuild,
		ArchiveCategory: clnTestArchive,
		TTL:             time.Hour,
		Timeout:         time.Second,
	})
	return &ChannelCleaner{Chat: fc, Configs: configs, ExportCeiling: ceiling}
}

func TestClean_ExportsNotifiesAndArchives(t *testing.T) {
	fc := newFakeChat()
	fc.guilds[clnTestConv] = clnTestGuild
	cleaner := testCleaner(fc, 1<<20)
	s := seededSession(t, KindChannel)

	cleaner.Clean(context.Background(), clnTestConv, s)

	export, ok := fc.findByTitle(clnTestConv, "Session data exported")
	require.True(t, ok, "export attachment message must be sent")
	require.Len(t, export.Files, 1)
	assert.Equal(t, "export.sql", export.Files[0].Name)
	assert.Contains(t, string(export.Files[0].Data), "CREATE TABLE person")

	var noticed bool
	for _, m := range fc.messages(clnTestConv) {
		if m.Body == "This database instance has expired and is no longer functional" {
			noticed = true
		}
	}
	assert.True(t, noticed, "expiry notice must be sent")

	assert.Equal(t, clnTestArchive, fc.moves[clnTestConv], "channel must be archived")
}

func TestClean_ClosesDatabase(t *testing.T) {
	fc := newFakeChat()
	fc.guilds[clnTestConv] = clnTestGuild
	s := seededSession(t, KindChannel)

	testCleaner(fc, 1<<20).Clean(context.Background(), clnTestConv, s)

	assertInstanceClosed(t, s)
}

func TestClean_ExportTooLargeIsDiscarded(t *testing.T) {
	fc := newFakeChat()
	fc.guilds[clnTestConv] = clnTestGuild
	cleaner := testCleaner(fc, 10) // everything exceeds 10 bytes
	s := seededSession(t, KindChannel)

	cleaner.Clean(context.Background(), clnTestConv, s)

	_, exported := fc.findByTitle(clnTestConv, "Session data exported")
	assert.False(t, exported, "no partial export may be sent")

	tooLarge, ok := fc.findByTitle(clnTestConv, "Export too large")
	require.True(t, ok)
	assert.Empty(t, tooLarge.Files)
}

func TestClean_ThreadsAreNotArchived(t *testing.T) {
	fc := newFakeChat()
	fc.guilds[clnTestConv] = clnTestGuild
	cleaner := testCleaner(fc, 1<<20)

	cleaner.Clean(context.Background(), clnTestConv, seededSession(t, KindThread))

	assert.Empty(t, fc.moves)
}

func TestClean_UnresolvableConversationSkipsArchiveQuietly(t *testing.T) {
	fc := newFakeChat() // no guild mapping: GuildOf fails
	cleaner := testCleaner(fc, 1<<20)
	s := seededSession(t, KindChannel)

	cleaner.Clean(context.Background(), clnTestConv, s)

	assert.Empty(t, fc.moves)
	_, exported := fc.findByTitle(clnTestConv, "Session data exported")
	assert.True(t, exported, "earlier steps still run when archive resolution fails")
}

func TestClean_ChatFailureDoesNotStopCleanup(t *testing.T) {
	fc := newFakeChat()
	fc.sendErr = assert.AnError
	cleaner := testCleaner(fc, 1<<20)
	s := seededSession(t, KindChannel)

	cleaner.Clean(context.Background(), clnTestConv, s)

	assertInstanceClosed(t, s)
}

// assertInstanceClosed verifies the session's database rejects
// statements. Statement failures surface per-outcome.
func assertInstanceClosed(t *testing.T, s Session) {
	t.Helper()
	res, err := s.DB.Execute(context.Background(), "SELECT 1", nil)
	if err == nil {
		require.Len(t, res, 1)
		err = res[0].Err
	}
	assert.Error(t, err, "database must be unusable after cleanup")
}
