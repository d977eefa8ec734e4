package commands

import (
	"context"
	"strings"
	"time"

	"github.com/txn2/dbsandbot/pkg/chat"
	"github.com/txn2/dbsandbot/pkg/format"
	"github.com/txn2/dbsandbot/pkg/session"
)

// QueryArgs are the parsed options of /query and /q.
type QueryArgs struct {
	Query string
}

// Query runs a query against the conversation's session and delivers
// the rendered result. The query text is echoed first so the channel
// keeps a record of what was asked.
func (h *Handler) Query(ctx context.Context, channelID string, args QueryArgs, r chat.Responder) error {
	s, ok := h.Registry.GetAndTouch(channelID)
	if !ok {
		return replyErr(ctx, r, errNoSession)
	}

	if err := r.Reply(ctx, chat.Message{
		Title: "Query sent",
		Code:  args.Query,
		Lang:  "sql",
	}); err != nil {
		return err
	}

	return h.runQuery(ctx, channelID, "", s, args.Query)
}

// PlainMessage treats a plain channel message as a query when the
// conversation has a session that accepts them. It reports whether the
// message was handled.
func (h *Handler) PlainMessage(ctx context.Context, channelID, messageID, content string) (bool, error) {
	switch {
	case content == "",
		strings.HasPrefix(content, "#"),
		strings.HasPrefix(content, "/"),
		strings.HasPrefix(content, "-"):
		return false, nil
	}

	s, ok := h.Registry.GetAndTouch(channelID)
	if !ok || s.RequireQuery {
		return false, nil
	}

	return true, h.runQuery(ctx, channelID, messageID, s, content)
}

func (h *Handler) runQuery(ctx context.Context, channelID, replyTo string, s session.Session, query string) error {
	start := time.Now()
	res, err := s.DB.Execute(ctx, query, nil)
	elapsed := time.Since(start)

	rendered := format.Render(s.Pretty, s.Structured, res, err)
	plan := h.Deliver.Plan(rendered, s.Structured)
	return h.Deliver.Send(ctx, h.Chat, channelID, replyTo, plan, elapsed)
}
