package server

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/txn2/dbsandbot/pkg/commands"
	"github.com/txn2/dbsandbot/pkg/configstore"
	"github.com/txn2/dbsandbot/pkg/deliver"
)

// Config holds the complete bot configuration.
type Config struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Log      LogConfig      `yaml:"log"`
	Configs  StoreConfig    `yaml:"configstore"`
	Engine   EngineConfig   `yaml:"engine"`
	Session  SessionConfig  `yaml:"session"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// DiscordConfig configures the gateway connection.
type DiscordConfig struct {
	Token string `yaml:"token"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// SlogLevel maps the configured level name to a slog level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StoreConfig selects and configures the guild config backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "memory", "file", "postgres"
	Path    string `yaml:"path"`    // file backend
	DSN     string `yaml:"dsn"`     // postgres backend
}

// EngineConfig configures database instances.
type EngineConfig struct {
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// SessionConfig configures session defaults.
type SessionConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// DeliveryConfig configures response delivery limits.
type DeliveryConfig struct {
	InlineLimit  int `yaml:"inline_limit"`
	Ceiling      int `yaml:"ceiling"`
	MaxLoadBytes int `yaml:"max_load_bytes"`
}

// ShutdownConfig bounds graceful-shutdown work.
type ShutdownConfig struct {
	ExportTimeout time.Duration `yaml:"export_timeout"`
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the operator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns a config built entirely from defaults and the
// environment, for running without a config file.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Discord.Token == "" {
		cfg.Discord.Token = os.Getenv("DISCORD_TOKEN")
	}
	if cfg.Configs.Backend == "" {
		cfg.Configs.Backend = "memory"
	}
	if cfg.Engine.QueryTimeout == 0 {
		cfg.Engine.QueryTimeout = configstore.DefaultTimeout
	}
	if cfg.Session.DefaultTTL == 0 {
		cfg.Session.DefaultTTL = configstore.DefaultTTL
	}
	if cfg.Delivery.InlineLimit == 0 {
		cfg.Delivery.InlineLimit = deliver.DefaultInlineLimit
	}
	if cfg.Delivery.Ceiling == 0 {
		cfg.Delivery.Ceiling = deliver.DefaultCeiling
	}
	if cfg.Delivery.MaxLoadBytes == 0 {
		cfg.Delivery.MaxLoadBytes = commands.DefaultMaxLoadBytes
	}
	if cfg.Shutdown.ExportTimeout == 0 {
		cfg.Shutdown.ExportTimeout = 30 * time.Second
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Discord.Token == "" {
		errs = append(errs, "discord.token is required (or set DISCORD_TOKEN)")
	}
	switch c.Configs.Backend {
	case "memory":
	case "file":
		if c.Configs.Path == "" {
			errs = append(errs, "configstore.path is required for the file backend")
		}
	case "postgres":
		if c.Configs.DSN == "" {
			errs = append(errs, "configstore.dsn is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown configstore.backend %q", c.Configs.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
