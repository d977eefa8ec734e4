// Package engine provides the embedded per-conversation database sandbox.
// A Factory creates isolated in-memory SQLite instances; each instance
// executes multi-statement query text and can export its full contents.
package engine

// Rows holds the result set of a single statement.
type Rows struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Count   int      `json:"count"`
}

// Outcome is the result of one statement: a result set or an error.
type Outcome struct {
	Rows *Rows
	Err  error
}

// Result is the ordered per-statement outcomes of one Execute call.
type Result []Outcome
