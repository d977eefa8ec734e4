package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/txn2/dbsandbot/pkg/chat"
	"github.com/txn2/dbsandbot/pkg/configstore"
	"github.com/txn2/dbsandbot/pkg/session"
)

// Clean stops the current conversation's session: export, notice,
// archive, close. The session is removed before cleanup so its watcher
// exits silently.
func (h *Handler) Clean(ctx context.Context, channelID string, r chat.Responder) error {
	s, ok := h.Registry.Remove(channelID)
	if !ok {
		return replyErr(ctx, r, errNoSession)
	}

	if err := r.Ephemeral(ctx, chat.Message{
		Title: "Cleaned channel",
		Body:  "This channel should now be cleaned.",
		Color: chat.ColorSuccess,
	}); err != nil {
		return err
	}

	h.Cleaner.Clean(ctx, channelID, s)
	return nil
}

// CleanAll stops every live session. Intended for use right before the
// bot is shut down.
func (h *Handler) CleanAll(ctx context.Context, r chat.Responder) error {
	sessions := h.Registry.List()
	for id := range sessions {
		if s, ok := h.Registry.Remove(id); ok {
			h.Cleaner.Clean(ctx, id, s)
		}
	}

	return r.Ephemeral(ctx, chat.Message{
		Title: "Channels cleaned",
		Body:  fmt.Sprintf("%d session(s) should now be cleaned.", len(sessions)),
		Color: chat.ColorSuccess,
	})
}

// ConfigArgs are the parsed options of /configure and /config_update.
// Zero values mean "not provided" and, for updates, leave the stored
// value unchanged.
type ConfigArgs struct {
	ActiveCategory  string
	ArchiveCategory string
	TTL             time.Duration
	Timeout         time.Duration
	Pretty          *bool
	Structured      *bool
}

// Configure creates the guild's configuration. It refuses to overwrite
// an existing one; /config_update does that.
func (h *Handler) Configure(ctx context.Context, guildID string, args ConfigArgs, r chat.Responder) error {
	if guildID == "" {
		return replyErr(ctx, r, errGuildOnly)
	}

	existing, err := h.Configs.Get(ctx, guildID)
	if err != nil {
		return replyErr(ctx, r, errConfigLookup(err))
	}
	if existing != nil {
		return replyErr(ctx, r, &CommandError{
			Title:       "Already configured",
			Description: "This server already has a configuration. Use /config_update to change it.",
		})
	}

	cfg := configstore.GuildConfig{
		GuildID:         guildID,
		ActiveCategory:  args.ActiveCategory,
		ArchiveCategory: args.ArchiveCategory,
		TTL:             args.TTL,
		Timeout:         args.Timeout,
	}
	if args.Pretty != nil {
		cfg.Pretty = *args.Pretty
	}
	if args.Structured != nil {
		cfg.Structured = *args.Structured
	}
	cfg.ApplyDefaults()

	if err := h.Configs.Put(ctx, cfg); err != nil {
		return replyErr(ctx, r, &CommandError{
			Title:       "Config not saved",
			Description: fmt.Sprintf("Error saving configuration: %s", err),
		})
	}

	return r.Ephemeral(ctx, configSummary("Config added", cfg))
}

// ConfigUpdate merges the provided options into the guild's existing
// configuration.
func (h *Handler) ConfigUpdate(ctx context.Context, guildID string, args ConfigArgs, r chat.Responder) error {
	if guildID == "" {
		return replyErr(ctx, r, errGuildOnly)
	}

	cfg, err := h.Configs.Get(ctx, guildID)
	if err != nil {
		return replyErr(ctx, r, errConfigLookup(err))
	}
	if cfg == nil {
		return replyErr(ctx, r, errNoConfig)
	}

	if args.ActiveCategory != "" {
		cfg.ActiveCategory = args.ActiveCategory
	}
	if args.ArchiveCategory != "" {
		cfg.ArchiveCategory = args.ArchiveCategory
	}
	if args.TTL > 0 {
		cfg.TTL = args.TTL
	}
	if args.Timeout > 0 {
		cfg.Timeout = args.Timeout
	}
	if args.Pretty != nil {
		cfg.Pretty = *args.Pretty
	}
	if args.Structured != nil {
		cfg.Structured = *args.Structured
	}

	if err := h.Configs.Put(ctx, *cfg); err != nil {
		return replyErr(ctx, r, &CommandError{
			Title:       "Config not updated",
			Description: fmt.Sprintf("Error updating configuration: %s", err),
		})
	}

	return r.Ephemeral(ctx, configSummary("Config updated", *cfg))
}

func configSummary(title string, cfg configstore.GuildConfig) chat.Message {
	return chat.Message{
		Title: title,
		Color: chat.ColorSuccess,
		Fields: []chat.Field{
			{Name: "Active category", Value: orNone(cfg.ActiveCategory), Inline: true},
			{Name: "Archive category", Value: orNone(cfg.ArchiveCategory), Inline: true},
			{Name: "TTL", Value: cfg.TTL.String(), Inline: true},
			{Name: "Query timeout", Value: cfg.Timeout.String(), Inline: true},
			{Name: "Pretty", Value: fmt.Sprintf("%t", cfg.Pretty), Inline: true},
			{Name: "Structured", Value: fmt.Sprintf("%t", cfg.Structured), Inline: true},
		},
	}
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

// PrefArgs are per-session preference changes. Nil fields are left
// unchanged.
type PrefArgs struct {
	Pretty       *bool
	Structured   *bool
	RequireQuery *bool
	TTL          *time.Duration
}

// UpdatePrefs mutates the conversation's session preferences in place.
func (h *Handler) UpdatePrefs(ctx context.Context, channelID string, args PrefArgs, r chat.Responder) error {
	err := h.Registry.Mutate(channelID, func(s *session.Session) {
		if args.Pretty != nil {
			s.Pretty = *args.Pretty
		}
		if args.Structured != nil {
			s.Structured = *args.Structured
		}
		if args.RequireQuery != nil {
			s.RequireQuery = *args.RequireQuery
		}
		if args.TTL != nil {
			s.TTL = *args.TTL
		}
	})
	if err != nil {
		return replyErr(ctx, r, errNoSession)
	}

	return r.Ephemeral(ctx, chat.Message{
		Title: "Session updated",
		Body:  "Your session preferences have been updated.",
		Color: chat.ColorSuccess,
	})
}
