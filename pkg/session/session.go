// Package session tracks one ephemeral database sandbox per
// conversation. The Registry is the single source of truth for whether
// a conversation has a session; it owns the per-session expiry watcher
// goroutines and drives cleanup when a session's inactivity TTL lapses.
package session

import (
	"errors"
	"time"

	"github.com/txn2/dbsandbot/pkg/engine"
)

var (
	// ErrSessionExists is returned when provisioning a conversation
	// that already has a session.
	ErrSessionExists = errors.New("a session already exists for this conversation")

	// ErrNoSession is returned when an operation references a
	// conversation with no registered session.
	ErrNoSession = errors.New("no session exists for this conversation")
)

// Kind distinguishes how a session's conversation was provisioned. It
// affects user-facing messaging and archival, not registry mechanics.
type Kind int

const (
	// KindChannel is an existing channel bound with /connect.
	KindChannel Kind = iota
	// KindEphemeralChannel is a channel created for the session.
	KindEphemeralChannel
	// KindThread is a thread created for the session.
	KindThread
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindChannel:
		return "channel"
	case KindEphemeralChannel:
		return "ephemeral-channel"
	case KindThread:
		return "thread"
	default:
		return "unknown"
	}
}

// Archivable reports whether the conversation can be moved to the
// archive category when the session ends. Threads live inside their
// parent channel and cannot be re-parented.
func (k Kind) Archivable() bool {
	return k != KindThread
}

// Session is one conversation's database sandbox and its preferences.
// Values handed out by the Registry are snapshots; the DB handle is
// shared and internally synchronized by the engine.
type Session struct {
	// DB is the conversation's database instance. Never shared across
	// conversations.
	DB *engine.Instance

	// LastUsed is bumped on every successful query or explicit touch.
	// Monotonically non-decreasing for the session's lifetime.
	LastUsed time.Time

	// TTL is the permitted inactivity duration before expiry.
	TTL time.Duration

	Kind Kind

	// Pretty selects indented over compact output.
	Pretty bool

	// Structured selects JSON over native literal output.
	Structured bool

	// RequireQuery, when set, makes plain chat messages inert: only
	// explicit query commands reach the database.
	RequireQuery bool
}
