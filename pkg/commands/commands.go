// Package commands implements the bot's slash commands. Handlers are
// platform-neutral: the gateway parses platform events into the typed
// argument structs defined here and replies through chat.Responder.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/txn2/dbsandbot/pkg/chat"
	"github.com/txn2/dbsandbot/pkg/configstore"
	"github.com/txn2/dbsandbot/pkg/deliver"
	"github.com/txn2/dbsandbot/pkg/engine"
	"github.com/txn2/dbsandbot/pkg/session"
)

// DefaultMaxLoadBytes caps the size of user-supplied files loaded into
// a session with /load or /connect.
const DefaultMaxLoadBytes = 24 * 1024 * 1024

// Handler holds the collaborators every command needs. All fields are
// required except MaxLoadBytes and DefaultTTL, which fall back to
// DefaultMaxLoadBytes and configstore.DefaultTTL when zero.
type Handler struct {
	Registry *session.Registry
	Factory  engine.Factory
	Chat     chat.Client
	Configs  configstore.Store
	Cleaner  session.Cleaner
	Deliver  deliver.Strategy

	MaxLoadBytes int

	// DefaultTTL is the session time-to-live used when the guild
	// configuration does not carry one.
	DefaultTTL time.Duration
}

func (h *Handler) maxLoadBytes() int {
	if h.MaxLoadBytes > 0 {
		return h.MaxLoadBytes
	}
	return DefaultMaxLoadBytes
}

func (h *Handler) defaultTTL() time.Duration {
	if h.DefaultTTL > 0 {
		return h.DefaultTTL
	}
	return configstore.DefaultTTL
}

func (h *Handler) exportCeiling() int {
	if h.Deliver.Ceiling > 0 {
		return h.Deliver.Ceiling
	}
	return deliver.DefaultCeiling
}

// CommandError is a user-facing command failure: a short title and a
// longer description, delivered as an ephemeral error embed. Handlers
// never surface raw internal errors to users.
type CommandError struct {
	Title       string
	Description string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Description)
}

var (
	errNoSession = &CommandError{
		Title:       "No session",
		Description: "No database instance found for this conversation. Use /connect or /create to start one.",
	}
	errSessionExists = &CommandError{
		Title:       "Session already exists",
		Description: "This conversation already has a database instance. Use /clean to remove it first.",
	}
	errNoConfig = &CommandError{
		Title:       "Server not configured",
		Description: "This server has no configuration yet. Ask an admin to run /configure first.",
	}
	errGuildOnly = &CommandError{
		Title:       "Direct messages not supported",
		Description: "This command only works inside a server.",
	}
)

func errConfigLookup(err error) *CommandError {
	return &CommandError{
		Title:       "Configuration lookup failed",
		Description: fmt.Sprintf("Could not load the server configuration: %s", err),
	}
}

func errUnknownDataset(name string) *CommandError {
	return &CommandError{
		Title:       "Unknown dataset",
		Description: fmt.Sprintf("No premade dataset named %q. Available: %s.", name, datasetNames()),
	}
}

func replyErr(ctx context.Context, r chat.Responder, e *CommandError) error {
	return r.Ephemeral(ctx, chat.Message{
		Title: e.Title,
		Body:  e.Description,
		Color: chat.ColorError,
	})
}
