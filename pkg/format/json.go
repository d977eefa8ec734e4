package format

import (
	"encoding/json"
	"strings"

	"github.com/txn2/dbsandbot/pkg/engine"
)

// renderJSON serializes a render value as JSON. Row objects keep their
// column order, which encoding/json cannot do for maps, so objects are
// written by hand; scalar cells go through json.Marshal. Pretty output
// is indented with tabs, matching json.MarshalIndent(v, "", "\t").
func renderJSON(value any, pretty bool) string {
	var buf strings.Builder
	writeJSON(&buf, value, pretty, 0)
	return buf.String()
}

func writeJSON(buf *strings.Builder, value any, pretty bool, depth int) {
	switch v := value.(type) {
	case []any:
		writeJSONSeq(buf, len(v), pretty, depth, func(i int) {
			writeJSON(buf, v[i], pretty, depth+1)
		})
	case *engine.Rows:
		writeJSONRows(buf, v, pretty, depth)
	default:
		writeJSONScalar(buf, v)
	}
}

func writeJSONRows(buf *strings.Builder, rows *engine.Rows, pretty bool, depth int) {
	writeJSONSeq(buf, len(rows.Rows), pretty, depth, func(i int) {
		writeJSONObject(buf, rows.Columns, rows.Rows[i], pretty, depth+1)
	})
}

// writeJSONSeq writes an n-element JSON array, delegating each element
// to elem.
func writeJSONSeq(buf *strings.Builder, n int, pretty bool, depth int, elem func(int)) {
	if n == 0 {
		buf.WriteString("[]")
		return
	}
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if pretty {
			buf.WriteByte('\n')
			writeIndent(buf, depth+1)
		}
		elem(i)
	}
	if pretty {
		buf.WriteByte('\n')
		writeIndent(buf, depth)
	}
	buf.WriteByte(']')
}

func writeJSONObject(buf *strings.Builder, keys []string, values []any, pretty bool, depth int) {
	if len(keys) == 0 {
		buf.WriteString("{}")
		return
	}
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if pretty {
			buf.WriteByte('\n')
			writeIndent(buf, depth+1)
		}
		writeJSONScalar(buf, key)
		buf.WriteByte(':')
		if pretty {
			buf.WriteByte(' ')
		}
		writeJSONScalar(buf, values[i])
	}
	if pretty {
		buf.WriteByte('\n')
		writeIndent(buf, depth)
	}
	buf.WriteByte('}')
}

func writeJSONScalar(buf *strings.Builder, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(err.Error())
	}
	buf.Write(b)
}

func writeIndent(buf *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteByte('\t')
	}
}
