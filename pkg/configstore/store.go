// Package configstore provides storage backends for per-guild bot
// configuration. Three modes are supported: memory (tests and
// single-guild development), file (read-only, config from YAML), and
// postgres (read-write, production).
package configstore

import (
	"context"
	"errors"
	"time"
)

// ErrReadOnly is returned when a write is attempted on a read-only store.
var ErrReadOnly = errors.New("config store is read-only")

// Default settings applied by guild config creation when a field is
// unset.
const (
	DefaultTTL     = time.Hour
	DefaultTimeout = 10 * time.Second
)

// GuildConfig holds one guild's settings: the channel categories used
// for session channels, and the defaults new sessions inherit.
type GuildConfig struct {
	GuildID string `yaml:"guild_id" json:"guild_id"`

	// ActiveCategory is the category new session channels are created
	// under; ArchiveCategory receives expired session channels. Either
	// may be empty to disable the corresponding move.
	ActiveCategory  string `yaml:"active_category" json:"active_category"`
	ArchiveCategory string `yaml:"archive_category" json:"archive_category"`

	// TTL is the default session inactivity time-to-live.
	TTL time.Duration `yaml:"ttl" json:"ttl"`

	// Timeout bounds each query's execution time.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Pretty and Structured are the output-format defaults new
	// sessions start with.
	Pretty     bool `yaml:"pretty" json:"pretty"`
	Structured bool `yaml:"structured" json:"structured"`
}

// ApplyDefaults fills unset duration fields with the package defaults.
func (c *GuildConfig) ApplyDefaults() {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Store provides guild configuration storage and retrieval.
type Store interface {
	// Get returns the guild's configuration, or nil, nil if the guild
	// has never been configured.
	Get(ctx context.Context, guildID string) (*GuildConfig, error)

	// Put creates or replaces the guild's configuration.
	Put(ctx context.Context, cfg GuildConfig) error

	// Close releases resources.
	Close() error
}
