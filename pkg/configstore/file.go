package configstore

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileStore serves guild configurations from a YAML file. It is
// read-only: Put always returns ErrReadOnly. Intended for deployments
// where configuration is managed alongside the bot's own config file
// rather than through chat commands.
type FileStore struct {
	configs map[string]GuildConfig
}

// fileDoc is the YAML document shape: a list of guild configs.
type fileDoc struct {
	Guilds []GuildConfig `yaml:"guilds"`
}

// NewFileStore loads guild configurations from a YAML file.
func NewFileStore(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading guild config file: %w", err)
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing guild config file: %w", err)
	}

	configs := make(map[string]GuildConfig, len(doc.Guilds))
	for _, cfg := range doc.Guilds {
		cfg.ApplyDefaults()
		configs[cfg.GuildID] = cfg
	}
	return &FileStore{configs: configs}, nil
}

// Get returns the guild's configuration, or nil, nil when absent.
func (s *FileStore) Get(_ context.Context, guildID string) (*GuildConfig, error) {
	cfg, ok := s.configs[guildID]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return &cfg, nil
}

// Put returns ErrReadOnly because file-based config is immutable.
func (*FileStore) Put(_ context.Context, _ GuildConfig) error {
	return ErrReadOnly
}

// Close is a no-op.
func (*FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
