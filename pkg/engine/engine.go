package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Extension is the file extension for native engine artifacts (exports
// and raw query responses).
const Extension = "sql"

// ErrEmptyQuery is returned when the query text contains no statements.
var ErrEmptyQuery = errors.New("query contains no statements")

// Factory creates isolated in-memory database instances. The zero value
// is usable; Timeout bounds every statement executed by instances it
// creates.
type Factory struct {
	// Timeout is the per-statement execution deadline. Zero means no
	// deadline beyond the caller's context.
	Timeout time.Duration
}

// Instance is one conversation's database sandbox. It is internally
// synchronized: concurrent callers are serialized on a single
// connection, never interleaved mid-statement.
type Instance struct {
	db      *sql.DB
	timeout time.Duration
}

// Open creates a fresh, empty in-memory instance. Instances are fully
// isolated from each other; Close releases the underlying memory.
func (f Factory) Open(ctx context.Context) (*Instance, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// A pooled second connection would see its own empty memory
	// database, so the pool is pinned to one connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing in-memory database: %w", err)
	}
	return &Instance{db: db, timeout: f.Timeout}, nil
}

// Execute runs the query text statement by statement and returns the
// ordered per-statement outcomes. A statement failure is recorded in
// its outcome and does not stop later statements. Only a top-level
// failure (no statements, context cancelled before work started)
// returns an error.
func (i *Instance) Execute(ctx context.Context, query string, vars map[string]any) (Result, error) {
	stmts := Split(query)
	if len(stmts) == 0 {
		return nil, ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make(Result, 0, len(stmts))
	for _, stmt := range stmts {
		rows, err := i.executeOne(ctx, stmt, vars)
		result = append(result, Outcome{Rows: rows, Err: err})
	}
	return result, nil
}

func (i *Instance) executeOne(ctx context.Context, stmt string, vars map[string]any) (*Rows, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	rows, err := i.db.QueryContext(ctx, stmt, bindVars(stmt, vars)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := &Rows{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for idx := range values {
			ptrs[idx] = &values[idx]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for idx, v := range values {
			if b, ok := v.([]byte); ok {
				values[idx] = string(b)
			}
		}
		out.Rows = append(out.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.Count = len(out.Rows)
	return out, nil
}

// bindVars returns named arguments for the variables the statement
// actually references. SQLite rejects arguments a statement does not
// consume, so unreferenced variables are filtered out.
func bindVars(stmt string, vars map[string]any) []any {
	if len(vars) == 0 {
		return nil
	}
	args := make([]any, 0, len(vars))
	for name, value := range vars {
		if strings.Contains(stmt, ":"+name) || strings.Contains(stmt, "@"+name) || strings.Contains(stmt, "$"+name) {
			args = append(args, sql.Named(name, value))
		}
	}
	return args
}

// Close releases the instance. The in-memory database is destroyed.
func (i *Instance) Close() error {
	return i.db.Close()
}
