package engine

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Export serializes the full contents of the instance as SQL text:
// table DDL followed by INSERT statements, then views, indexes, and
// triggers. Object order is deterministic (by name), so exporting the
// same database twice yields identical bytes.
func (i *Instance) Export(ctx context.Context) ([]byte, error) {
	var buf strings.Builder

	tables, err := i.schemaObjects(ctx, "table")
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		buf.WriteString(t.ddl)
		buf.WriteString(";\n")
		if err := i.dumpTable(ctx, &buf, t.name); err != nil {
			return nil, fmt.Errorf("dumping table %s: %w", t.name, err)
		}
	}

	for _, kind := range []string{"view", "index", "trigger"} {
		objects, err := i.schemaObjects(ctx, kind)
		if err != nil {
			return nil, err
		}
		for _, o := range objects {
			buf.WriteString(o.ddl)
			buf.WriteString(";\n")
		}
	}

	return []byte(buf.String()), nil
}

type schemaObject struct {
	name string
	ddl  string
}

func (i *Instance) schemaObjects(ctx context.Context, kind string) ([]schemaObject, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT name, sql FROM sqlite_master
		 WHERE type = ? AND sql IS NOT NULL AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`, kind)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var objects []schemaObject
	for rows.Next() {
		var o schemaObject
		if err := rows.Scan(&o.name, &o.ddl); err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

func (i *Instance) dumpTable(ctx context.Context, buf *strings.Builder, table string) error {
	rows, err := i.db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(table))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	quoted := make([]string, len(cols))
	for idx, c := range cols {
		quoted[idx] = quoteIdent(c)
	}
	header := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quoteIdent(table), strings.Join(quoted, ", "))

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for idx := range values {
			ptrs[idx] = &values[idx]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		literals := make([]string, len(values))
		for idx, v := range values {
			literals[idx] = sqlLiteral(v)
		}
		buf.WriteString(header)
		buf.WriteString("(" + strings.Join(literals, ", ") + ");\n")
	}
	return rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sqlLiteral renders a driver value as a SQL literal.
func sqlLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case []byte:
		return "X'" + hex.EncodeToString(t) + "'"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(t), "'", "''") + "'"
	}
}
