// Package chat defines the chat-platform capabilities the bot consumes.
// The core never talks to a platform SDK directly; it goes through the
// Client interface so tests can substitute a fake and the platform
// adapter stays in one place (see the discord subpackage).
package chat

import "context"

// Standard embed colors.
const (
	ColorSuccess = 0x00ff00
	ColorError   = 0xff0000
	ColorInfo    = 0x009dd9
)

// Message is a platform-neutral rich message: an optional titled body,
// an optional code block, short fields, and file attachments.
type Message struct {
	Title  string
	Body   string
	Code   string
	Lang   string
	Fields []Field
	Files  []File
	Color  int
}

// Field is a short labeled value displayed with the message.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// File is an attachment uploaded with a message.
type File struct {
	Name string
	Data []byte
}

// Client is the chat platform capability surface. All operations are
// fallible and asynchronous on the platform side; callers treat
// failures as logged, non-fatal events.
type Client interface {
	// Send posts a message to a channel and returns its message ID.
	Send(ctx context.Context, channelID string, msg Message) (string, error)

	// Reply posts a message as a reply to an existing message.
	Reply(ctx context.Context, channelID, replyToID string, msg Message) (string, error)

	// Edit replaces the content of a previously sent message.
	Edit(ctx context.Context, channelID, messageID string, msg Message) error

	// CreateChannel creates a text channel in a guild, optionally under
	// a category, and returns the new channel ID.
	CreateChannel(ctx context.Context, guildID, name, categoryID string) (string, error)

	// CreateThread starts a public thread on a message and returns the
	// thread's channel ID.
	CreateThread(ctx context.Context, channelID, messageID, name string) (string, error)

	// MoveChannel moves a channel under another category.
	MoveChannel(ctx context.Context, channelID, categoryID string) error

	// GuildOf resolves the guild owning a channel.
	GuildOf(ctx context.Context, channelID string) (string, error)

	// Download fetches a user-supplied attachment by URL.
	Download(ctx context.Context, url string) ([]byte, error)
}

// Responder replies to a single command invocation. Implementations
// are bound to one interaction; Edit rewrites the original reply and
// Followup posts an additional message.
type Responder interface {
	Reply(ctx context.Context, msg Message) error
	Ephemeral(ctx context.Context, msg Message) error
	Edit(ctx context.Context, msg Message) error
	Followup(ctx context.Context, msg Message) error
}
