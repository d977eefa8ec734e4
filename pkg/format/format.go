// Package format renders query results as display text. Rendering is
// pure: the same result and preferences always produce the same string.
//
// Two axes are supported. The structured axis picks JSON output over the
// engine's native literal form; the pretty axis picks indented output
// over compact output.
package format

import (
	"github.com/txn2/dbsandbot/pkg/engine"
)

// Format renders a query result. A top-level execution error, or the
// error of a lone statement, is propagated. A multi-statement result is
// always rendered as a collection; a failed statement's element is its
// error text as a string value, in original position.
func Format(pretty, structured bool, res engine.Result, err error) (string, error) {
	if err != nil {
		return "", err
	}

	var value any
	if len(res) == 1 {
		if res[0].Err != nil {
			return "", res[0].Err
		}
		value = res[0].Rows
	} else {
		list := make([]any, 0, len(res))
		for _, outcome := range res {
			if outcome.Err != nil {
				list = append(list, outcome.Err.Error())
			} else {
				list = append(list, outcome.Rows)
			}
		}
		value = list
	}

	if structured {
		return renderJSON(value, pretty), nil
	}
	return renderNative(value, pretty), nil
}

// Render is Format with the error case collapsed to its message, which
// is what every chat-facing caller does: engine errors are data shown
// to the user, not control flow.
func Render(pretty, structured bool, res engine.Result, err error) string {
	out, ferr := Format(pretty, structured, res, err)
	if ferr != nil {
		return ferr.Error()
	}
	return out
}

// Lang returns the code-block language tag for a render mode, used for
// syntax highlighting and attachment extensions.
func Lang(structured bool) string {
	if structured {
		return "json"
	}
	return engine.Extension
}
