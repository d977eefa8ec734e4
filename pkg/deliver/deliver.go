// Package deliver decides how a rendered query response reaches the
// conversation: inline as a code block when it fits the platform's
// message limit, otherwise as a file attachment, truncated at a hard
// byte ceiling.
package deliver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/txn2/dbsandbot/pkg/chat"
	"github.com/txn2/dbsandbot/pkg/format"
)

const (
	// DefaultInlineLimit is the character count below which a response
	// is sent inline. Embed descriptions cap at 4096 characters; 4000
	// leaves room for the code fence.
	DefaultInlineLimit = 4000

	// DefaultCeiling is the hard byte ceiling for any attached payload,
	// aligned with the platform's attachment size cap.
	DefaultCeiling = 24 * 1024 * 1024
)

// Delivery is a planned response: either an inline code block or a
// file attachment, possibly truncated.
type Delivery struct {
	Inline    bool
	Body      string
	Lang      string
	Filename  string
	Data      []byte
	Truncated bool
}

// Strategy plans and sends responses. The zero value uses the default
// limits.
type Strategy struct {
	InlineLimit int
	Ceiling     int
}

func (s Strategy) inlineLimit() int {
	if s.InlineLimit > 0 {
		return s.InlineLimit
	}
	return DefaultInlineLimit
}

func (s Strategy) ceiling() int {
	if s.Ceiling > 0 {
		return s.Ceiling
	}
	return DefaultCeiling
}

// Plan decides delivery for a rendered response. Below the inline
// limit the response goes out as a code block tagged with the render
// mode's language. At or above it, the response becomes an attachment
// named response.<ext>; past the byte ceiling the data is cut at
// exactly the ceiling and flagged truncated.
func (s Strategy) Plan(rendered string, structured bool) Delivery {
	lang := format.Lang(structured)
	if len(rendered) < s.inlineLimit() {
		return Delivery{Inline: true, Body: rendered, Lang: lang}
	}

	data := []byte(rendered)
	truncated := false
	if len(data) > s.ceiling() {
		data = data[:s.ceiling()]
		truncated = true
	}
	return Delivery{
		Lang:      lang,
		Filename:  "response." + lang,
		Data:      data,
		Truncated: truncated,
	}
}

// Send posts a planned delivery as a reply to the originating query
// message. Failures are logged and reported; they are never retried.
func (s Strategy) Send(ctx context.Context, client chat.Client, channelID, replyTo string, d Delivery, elapsed time.Duration) error {
	msg := chat.Message{
		Title: "Query result",
		Fields: []chat.Field{
			{Name: "Query took", Value: elapsed.Round(time.Microsecond).String(), Inline: true},
		},
	}
	if d.Inline {
		msg.Code = d.Body
		msg.Lang = d.Lang
	} else {
		msg.Files = []chat.File{{Name: d.Filename, Data: d.Data}}
		if d.Truncated {
			msg.Body = "Response was too long and has been truncated"
		}
	}

	if _, err := client.Reply(ctx, channelID, replyTo, msg); err != nil {
		slog.Error("delivering query response failed",
			"channel", channelID, "inline", d.Inline, "error", err)
		return fmt.Errorf("delivering response: %w", err)
	}
	return nil
}
