package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shutTestSmallConv = "channel-small"
	shutTestBigConv   = "channel-big"
)

func TestExportAll_MixedOutcomes(t *testing.T) {
	reg := NewRegistry(CleanerFunc(func(context.Context, string, Session) {}))
	defer reg.Close(context.Background())

	small := newMemoryInstance(t)
	_, err := small.Execute(context.Background(),
		"CREATE TABLE note (body TEXT); INSERT INTO note VALUES ('hi');", nil)
	require.NoError(t, err)
	require.NoError(t, reg.Insert(shutTestSmallConv, Session{DB: small, TTL: time.Hour}))

	big := newMemoryInstance(t)
	_, err = big.Execute(context.Background(),
		"CREATE TABLE blob_store (v TEXT); INSERT INTO blob_store SELECT hex(randomblob(2048));", nil)
	require.NoError(t, err)
	require.NoError(t, reg.Insert(shutTestBigConv, Session{DB: big, TTL: time.Hour}))

	fc := newFakeChat()
	exp := &Exporter{Registry: reg, Chat: fc, Ceiling: 1024}
	exp.ExportAll(context.Background())

	msg, ok := fc.findByTitle(shutTestSmallConv, "Session exported before shutdown")
	require.True(t, ok, "small session must be exported")
	require.Len(t, msg.Files, 1)
	assert.Equal(t, "export.sql", msg.Files[0].Name)
	assert.Contains(t, string(msg.Files[0].Data), "CREATE TABLE note")

	tooBig, ok := fc.findByTitle(shutTestBigConv, "Export too large")
	require.True(t, ok, "oversized session must get a notice, not an attachment")
	assert.Empty(t, tooBig.Files)

	assert.Zero(t, reg.Len(), "registry must be empty after shutdown export")

	assertInstanceClosed(t, Session{DB: small})
}

func TestExportAll_CanceledContextStillClearsRegistry(t *testing.T) {
	reg := NewRegistry(CleanerFunc(func(context.Context, string, Session) {}))
	defer reg.Close(context.Background())

	inst := newMemoryInstance(t)
	require.NoError(t, reg.Insert("channel-1", Session{DB: inst, TTL: time.Hour}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fc := newFakeChat()
	(&Exporter{Registry: reg, Chat: fc, Ceiling: 1 << 20}).ExportAll(ctx)

	assert.Empty(t, fc.messages("channel-1"), "no chatter once shutdown deadline passed")
	assert.Zero(t, reg.Len())
}

func TestExportAll_EmptyRegistryIsNoop(t *testing.T) {
	reg := NewRegistry(CleanerFunc(func(context.Context, string, Session) {}))
	defer reg.Close(context.Background())

	fc := newFakeChat()
	(&Exporter{Registry: reg, Chat: fc, Ceiling: 1 << 20}).ExportAll(context.Background())

	assert.Empty(t, fc.sent)
}
