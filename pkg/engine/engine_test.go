package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const engTestTimeout = 5 * time.Second

func newTestInstance(t *testing.T) *Instance {
	t.Helper()
	inst, err := Factory{Timeout: engTestTimeout}.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = inst.Close() })
	return inst
}

func TestExecute_SingleStatement(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()

	res, err := inst.Execute(ctx, `SELECT 1 AS one, 'a' AS letter`, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.NoError(t, res[0].Err)

	rows := res[0].Rows
	require.NotNil(t, rows)
	assert.Equal(t, []string{"one", "letter"}, rows.Columns)
	require.Equal(t, 1, rows.Count)
	assert.Equal(t, int64(1), rows.Rows[0][0])
	assert.Equal(t, "a", rows.Rows[0][1])
}

func TestExecute_TrailingCommentIsNotAStatement(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()

	res, err := inst.Execute(ctx, "SELECT 1 AS one; -- bye", nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.NoError(t, res[0].Err)
	assert.Equal(t, 1, res[0].Rows.Count)
}

func TestExecute_MultiStatementOrder(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()

	res, err := inst.Execute(ctx, `
		CREATE TABLE person (id INTEGER PRIMARY KEY, name TEXT);
		INSERT INTO person (name) VALUES ('tobie'), ('jaime');
		SELECT name FROM person ORDER BY id;
	`, nil)
	require.NoError(t, err)
	require.Len(t, res, 3)

	for k, o := range res {
		require.NoError(t, o.Err, "statement %d", k)
	}
	assert.Equal(t, 0, res[0].Rows.Count)
	assert.Equal(t, 0, res[1].Rows.Count)
	require.Equal(t, 2, res[2].Rows.Count)
	assert.Equal(t, "tobie", res[2].Rows.Rows[0][0])
	assert.Equal(t, "jaime", res[2].Rows.Rows[1][0])
}

func TestExecute_StatementErrorDoesNotStopLaterStatements(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()

	res, err := inst.Execute(ctx, `
		SELECT 1;
		SELECT * FROM missing_table;
		SELECT 2;
	`, nil)
	require.NoError(t, err)
	require.Len(t, res, 3)

	assert.NoError(t, res[0].Err)
	assert.Error(t, res[1].Err)
	assert.NoError(t, res[2].Err)
	assert.Equal(t, int64(2), res[2].Rows.Rows[0][0])
}

func TestExecute_EmptyQuery(t *testing.T) {
	inst := newTestInstance(t)

	_, err := inst.Execute(context.Background(), "  ;; -- nothing\n", nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestExecute_NamedVariables(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()

	_, err := inst.Execute(ctx, `CREATE TABLE t (v TEXT)`, nil)
	require.NoError(t, err)

	res, err := inst.Execute(ctx, `
		INSERT INTO t (v) VALUES (:val);
		SELECT v FROM t;
	`, map[string]any{"val": "bound"})
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.NoError(t, res[0].Err)
	require.NoError(t, res[1].Err)
	assert.Equal(t, "bound", res[1].Rows.Rows[0][0])
}

func TestInstances_AreIsolated(t *testing.T) {
	a := newTestInstance(t)
	b := newTestInstance(t)
	ctx := context.Background()

	_, err := a.Execute(ctx, `CREATE TABLE only_in_a (id INTEGER)`, nil)
	require.NoError(t, err)

	res, err := b.Execute(ctx, `SELECT * FROM only_in_a`, nil)
	require.NoError(t, err)
	assert.Error(t, res[0].Err, "table from instance a must not exist in instance b")
}

func TestExport_RoundTrip(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()

	_, err := inst.Execute(ctx, `
		CREATE TABLE person (id INTEGER PRIMARY KEY, name TEXT, score REAL);
		INSERT INTO person (name, score) VALUES ('a''b', 1.5), (NULL, 2);
	`, nil)
	require.NoError(t, err)

	dump, err := inst.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(dump), "CREATE TABLE person")
	assert.Contains(t, string(dump), "'a''b'")

	// Importing the dump into a fresh instance reproduces the data.
	fresh := newTestInstance(t)
	_, err = fresh.Execute(ctx, string(dump), nil)
	require.NoError(t, err)

	res, err := fresh.Execute(ctx, `SELECT count(*) FROM person`, nil)
	require.NoError(t, err)
	require.NoError(t, res[0].Err)
	assert.Equal(t, int64(2), res[0].Rows.Rows[0][0])
}

func TestExport_Deterministic(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()

	_, err := inst.Execute(ctx, `
		CREATE TABLE b (v TEXT);
		CREATE TABLE a (v TEXT);
		INSERT INTO a (v) VALUES ('x');
	`, nil)
	require.NoError(t, err)

	first, err := inst.Export(ctx)
	require.NoError(t, err)
	second, err := inst.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
