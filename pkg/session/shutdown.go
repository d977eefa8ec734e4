package session

import (
	"context"
	"log/slog"

	"github.com/txn2/dbsandbot/pkg/chat"
	"github.com/txn2/dbsandbot/pkg/engine"
)

// Exporter posts every live session's data back to its conversation as
// part of graceful shutdown, then clears the registry. Individual
// failures are logged and never retried; the registry ends empty
// regardless of outcomes.
type Exporter struct {
	Registry *Registry
	Chat     chat.Client

	// Ceiling is the hard byte ceiling for export attachments.
	Ceiling int
}

// ExportAll exports all live sessions. Effort is bounded by ctx: once
// it is done, remaining sessions are closed without export.
func (e *Exporter) ExportAll(ctx context.Context) {
	for id, s := range e.Registry.List() {
		if ctx.Err() == nil {
			e.exportOne(ctx, id, s)
		}
		if removed, ok := e.Registry.Remove(id); ok {
			_ = removed.DB.Close()
		}
	}
}

func (e *Exporter) exportOne(ctx context.Context, id string, s Session) {
	log := slog.With("conversation", id)

	data, err := s.DB.Export(ctx)
	if err != nil {
		log.Error("pre-shutdown export failed", "error", err)
		return
	}

	if e.Ceiling > 0 && len(data) > e.Ceiling {
		log.Warn("pre-shutdown export too large", "size", len(data), "ceiling", e.Ceiling)
		_, err = e.Chat.Send(ctx, id, chat.Message{
			Title: "Export too large",
			Body:  "The bot is going offline and your session's export exceeds the attachment size limit, so it could not be saved.",
			Color: chat.ColorError,
		})
		if err != nil {
			log.Warn("sending export-too-large notice failed", "error", err)
		}
		return
	}

	_, err = e.Chat.Send(ctx, id, chat.Message{
		Title: "Session exported before shutdown",
		Body:  "The bot had to go offline for maintenance; your session has been exported. Load the attached file into a new session when the bot is back online.",
		Color: chat.ColorSuccess,
		Files: []chat.File{{Name: "export." + engine.Extension, Data: data}},
	})
	if err != nil {
		log.Warn("sending pre-shutdown export failed", "error", err)
	}
}
