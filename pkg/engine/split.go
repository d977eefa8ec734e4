package engine

import "strings"

// Split divides query text into individual statements on unquoted
// semicolons. It understands single- and double-quoted strings
// (including doubled-quote escapes), line comments (-- ...), and block
// comments. Segments that are empty or contain only comments are
// dropped.
func Split(query string) []string {
	var stmts []string
	var cur strings.Builder

	flush := func() {
		s := strings.TrimSpace(cur.String())
		if strings.TrimSpace(stripComments(s)) != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	const (
		stateNormal = iota
		stateSingle
		stateDouble
		stateLineComment
		stateBlockComment
	)
	state := stateNormal

	runes := []rune(query)
	for pos := 0; pos < len(runes); pos++ {
		c := runes[pos]
		var next rune
		if pos+1 < len(runes) {
			next = runes[pos+1]
		}

		switch state {
		case stateNormal:
			switch {
			case c == ';':
				flush()
				continue
			case c == '\'':
				state = stateSingle
			case c == '"':
				state = stateDouble
			case c == '-' && next == '-':
				state = stateLineComment
			case c == '/' && next == '*':
				state = stateBlockComment
			}
		case stateSingle:
			if c == '\'' {
				if next == '\'' {
					cur.WriteRune(c)
					pos++
					c = next
				} else {
					state = stateNormal
				}
			}
		case stateDouble:
			if c == '"' {
				if next == '"' {
					cur.WriteRune(c)
					pos++
					c = next
				} else {
					state = stateNormal
				}
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				cur.WriteRune(c)
				pos++
				c = next
				state = stateNormal
			}
		}
		cur.WriteRune(c)
	}
	flush()
	return stmts
}

// stripComments removes line and block comments, leaving quoted
// strings intact, so a comment-only segment reduces to whitespace.
func stripComments(s string) string {
	const (
		stateNormal = iota
		stateSingle
		stateDouble
		stateLineComment
		stateBlockComment
	)
	state := stateNormal

	var out strings.Builder
	runes := []rune(s)
	for pos := 0; pos < len(runes); pos++ {
		c := runes[pos]
		var next rune
		if pos+1 < len(runes) {
			next = runes[pos+1]
		}

		switch state {
		case stateNormal:
			switch {
			case c == '\'':
				state = stateSingle
			case c == '"':
				state = stateDouble
			case c == '-' && next == '-':
				state = stateLineComment
				pos++
				continue
			case c == '/' && next == '*':
				state = stateBlockComment
				pos++
				continue
			}
		case stateSingle:
			if c == '\'' {
				if next == '\'' {
					out.WriteRune(c)
					pos++
				} else {
					state = stateNormal
				}
			}
		case stateDouble:
			if c == '"' {
				if next == '"' {
					out.WriteRune(c)
					pos++
				} else {
					state = stateNormal
				}
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteRune(c)
			}
			continue
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				pos++
			}
			continue
		}
		out.WriteRune(c)
	}
	return out.String()
}
