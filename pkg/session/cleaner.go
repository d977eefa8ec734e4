package session

import (
	"context"
	"log/slog"

	"github.com/txn2/dbsandbot/pkg/chat"
	"github.com/txn2/dbsandbot/pkg/configstore"
	"github.com/txn2/dbsandbot/pkg/engine"
)

// ChannelCleaner is the production Cleaner: it exports the session's
// data back to the conversation, posts the end-of-session notice, and
// archives the channel. Every step is best-effort and independent; a
// failed step is logged and the remaining steps still run.
type ChannelCleaner struct {
	Chat    chat.Client
	Configs configstore.Store

	// ExportCeiling is the hard byte ceiling for the export
	// attachment. Exports past it are discarded, never sent partially.
	ExportCeiling int
}

// Clean runs the cleanup sequence for a session that has been (or is
// being) removed from the registry.
func (c *ChannelCleaner) Clean(ctx context.Context, id string, s Session) {
	log := slog.With("conversation", id, "kind", s.Kind.String())

	c.exportStep(ctx, log, id, s)
	c.notifyStep(ctx, log, id, s)
	c.archiveStep(ctx, log, id, s)

	if err := s.DB.Close(); err != nil {
		log.Warn("closing database instance failed", "error", err)
	}
}

func (c *ChannelCleaner) exportStep(ctx context.Context, log *slog.Logger, id string, s Session) {
	data, err := s.DB.Export(ctx)
	if err != nil {
		log.Error("session export failed", "error", err)
		return
	}

	if c.ExportCeiling > 0 && len(data) > c.ExportCeiling {
		log.Warn("session export exceeds ceiling, discarding",
			"size", len(data), "ceiling", c.ExportCeiling)
		_, err = c.Chat.Send(ctx, id, chat.Message{
			Title: "Export too large",
			Body:  "The session's data could not be attached because the export exceeds the attachment size limit.",
			Color: chat.ColorError,
		})
		if err != nil {
			log.Warn("sending export-too-large notice failed", "error", err)
		}
		return
	}

	_, err = c.Chat.Send(ctx, id, chat.Message{
		Title: "Session data exported",
		Body:  "Your session has ended; its contents are attached. Load the file into a new session to continue where you left off.",
		Color: chat.ColorSuccess,
		Files: []chat.File{{Name: "export." + engine.Extension, Data: data}},
	})
	if err != nil {
		log.Warn("sending export attachment failed", "error", err)
	}
}

func (c *ChannelCleaner) notifyStep(ctx context.Context, log *slog.Logger, id string, s Session) {
	body := "This database instance has expired and is no longer functional"
	if s.Kind == KindThread {
		body = "This thread's database instance has expired and is no longer functional"
	}
	if _, err := c.Chat.Send(ctx, id, chat.Message{Body: body}); err != nil {
		log.Warn("sending session-ended notice failed", "error", err)
	}
}

func (c *ChannelCleaner) archiveStep(ctx context.Context, log *slog.Logger, id string, s Session) {
	if !s.Kind.Archivable() {
		return
	}

	guildID, err := c.Chat.GuildOf(ctx, id)
	if err != nil {
		// Conversation no longer resolvable; nothing left to archive
		// and no user-facing error wanted.
		log.Warn("resolving guild for archive failed", "error", err)
		return
	}

	cfg, err := c.Configs.Get(ctx, guildID)
	if err != nil {
		log.Warn("loading guild config for archive failed", "error", err)
		return
	}
	if cfg == nil || cfg.ArchiveCategory == "" {
		return
	}

	if err := c.Chat.MoveChannel(ctx, id, cfg.ArchiveCategory); err != nil {
		log.Warn("archiving channel failed", "error", err)
	}
}
