package configstore

import (
	"context"
	"sync"
)

// MemoryStore implements Store with a mutex-guarded map.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]GuildConfig
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: make(map[string]GuildConfig)}
}

// Get returns the guild's configuration, or nil, nil when absent.
func (s *MemoryStore) Get(_ context.Context, guildID string) (*GuildConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[guildID]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return &cfg, nil
}

// Put creates or replaces the guild's configuration.
func (s *MemoryStore) Put(_ context.Context, cfg GuildConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[cfg.GuildID] = cfg
	return nil
}

// Close is a no-op.
func (*MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
