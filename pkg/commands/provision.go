package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/txn2/dbsandbot/pkg/chat"
	"github.com/txn2/dbsandbot/pkg/configstore"
	"github.com/txn2/dbsandbot/pkg/session"
)

// ConnectArgs are the parsed options of /connect. At most one of
// Dataset and FileURL is set.
type ConnectArgs struct {
	// Dataset names a premade dataset to load after provisioning.
	Dataset string

	// FileURL and FileName describe a user attachment to load after
	// provisioning.
	FileURL  string
	FileName string
}

// Connect binds the current channel to a fresh database instance.
func (h *Handler) Connect(ctx context.Context, guildID, channelID string, args ConnectArgs, r chat.Responder) error {
	if guildID == "" {
		return replyErr(ctx, r, errGuildOnly)
	}
	if _, ok := h.Registry.Get(channelID); ok {
		return replyErr(ctx, r, errSessionExists)
	}

	cfg, err := h.Configs.Get(ctx, guildID)
	if err != nil {
		return replyErr(ctx, r, errConfigLookup(err))
	}
	if cfg == nil {
		return replyErr(ctx, r, errNoConfig)
	}

	s, err := h.provision(ctx, channelID, session.KindChannel, cfg)
	if err != nil {
		return err
	}

	switch {
	case args.Dataset != "":
		return h.loadDataset(ctx, s, args.Dataset, r)
	case args.FileURL != "":
		return h.loadFile(ctx, s, args.FileURL, args.FileName, r)
	default:
		return r.Ephemeral(ctx, chat.Message{
			Title: "Session created",
			Body:  "Your session is now available!",
			Color: chat.ColorSuccess,
		})
	}
}

// Create provisions a fresh ephemeral text channel with its own
// database instance under the guild's active category.
func (h *Handler) Create(ctx context.Context, guildID string, r chat.Responder) error {
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

	channelID, err := h.Chat.CreateChannel(ctx, guildID, sandboxName(), cfg.ActiveCategory)
	if err != nil {
		return fmt.Errorf("creating sandbox channel: %w", err)
	}

	if _, err := h.provision(ctx, channelID, session.KindEphemeralChannel, cfg); err != nil {
		return err
	}

	return r.Ephemeral(ctx, chat.Message{
		Title: "Channel created",
		Body:  fmt.Sprintf("You now have your own database instance! Head over to <#%s> to start writing SQL!", channelID),
		Color: chat.ColorSuccess,
	})
}

// CreateThread provisions a database instance in a new public thread
// started on the given message.
func (h *Handler) CreateThread(ctx context.Context, guildID, channelID, messageID string, r chat.Responder) error {
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

	threadID, err := h.Chat.CreateThread(ctx, channelID, messageID, sandboxName())
	if err != nil {
		return fmt.Errorf("creating sandbox thread: %w", err)
	}

	if _, err := h.provision(ctx, threadID, session.KindThread, cfg); err != nil {
		return err
	}

	return r.Ephemeral(ctx, chat.Message{
		Title: "Thread created",
		Body:  fmt.Sprintf("You now have your own database instance! Head over to <#%s> to start writing SQL!", threadID),
		Color: chat.ColorSuccess,
	})
}

// provision opens an instance, registers the session, and posts the
// welcome message to the bound conversation.
func (h *Handler) provision(ctx context.Context, id string, kind session.Kind, cfg *configstore.GuildConfig) (session.Session, error) {
	f := h.Factory
	if cfg.Timeout > 0 {
		f.Timeout = cfg.Timeout
	}

	inst, err := f.Open(ctx)
	if err != nil {
		return session.Session{}, fmt.Errorf("opening database instance: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = h.defaultTTL()
	}

	s := session.Session{
		DB:         inst,
		TTL:        ttl,
		Kind:       kind,
		Pretty:     cfg.Pretty,
		Structured: cfg.Structured,
	}
	if err := h.Registry.Insert(id, s); err != nil {
		_ = inst.Close()
		if errors.Is(err, session.ErrSessionExists) {
			return session.Session{}, errSessionExists
		}
		return session.Session{}, fmt.Errorf("registering session: %w", err)
	}

	noun := "channel"
	if kind == session.KindThread {
		noun = "thread"
	}
	_, err = h.Chat.Send(ctx, id, chat.Message{
		Body: fmt.Sprintf("This %s is now connected to a database instance, try writing some SQL!\n(note this will expire in %s)", noun, ttl),
	})
	if err != nil {
		return s, fmt.Errorf("sending welcome message: %w", err)
	}
	return s, nil
}

func sandboxName() string {
	return "db-" + uuid.NewString()[:8]
}
