package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/txn2/dbsandbot/pkg/engine"
)

// renderNative serializes a render value in the engine's literal form:
// rows as an array of records, record keys bare when they are plain
// identifiers, strings single-quoted. Compact output keeps everything
// on one line; pretty output indents with tabs.
func renderNative(value any, pretty bool) string {
	var buf strings.Builder
	writeNative(&buf, value, pretty, 0)
	return buf.String()
}

func writeNative(buf *strings.Builder, value any, pretty bool, depth int) {
	switch v := value.(type) {
	case []any:
		writeNativeSeq(buf, len(v), pretty, depth, func(i int) {
			writeNative(buf, v[i], pretty, depth+1)
		})
	case *engine.Rows:
		writeNativeSeq(buf, len(v.Rows), pretty, depth, func(i int) {
			writeNativeRecord(buf, v.Columns, v.Rows[i], pretty, depth+1)
		})
	default:
		buf.WriteString(nativeScalar(v))
	}
}

func writeNativeSeq(buf *strings.Builder, n int, pretty bool, depth int, elem func(int)) {
	if n == 0 {
		buf.WriteString("[]")
		return
	}
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
			if !pretty {
				buf.WriteByte(' ')
			}
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

func writeNativeRecord(buf *strings.Builder, keys []string, values []any, pretty bool, depth int) {
	if len(keys) == 0 {
		buf.WriteString("{}")
		return
	}
	if pretty {
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
			writeIndent(buf, depth+1)
			buf.WriteString(recordKey(key))
			buf.WriteString(": ")
			buf.WriteString(nativeScalar(values[i]))
		}
		buf.WriteByte('\n')
		writeIndent(buf, depth)
		buf.WriteByte('}')
		return
	}
	buf.WriteString("{ ")
	for i, key := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(recordKey(key))
		buf.WriteString(": ")
		buf.WriteString(nativeScalar(values[i]))
	}
	buf.WriteString(" }")
}

// recordKey renders a record key, quoting it unless it is a plain
// identifier.
func recordKey(key string) string {
	if isIdent(key) {
		return key
	}
	return quoteString(key)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func nativeScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return quoteString(t)
	case []byte:
		return quoteString(string(t))
	default:
		return quoteString(fmt.Sprint(t))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
