// Package server wires the bot's components together and manages
// their lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bwmarrin/discordgo"

	"github.com/txn2/dbsandbot/pkg/chat/discord"
	"github.com/txn2/dbsandbot/pkg/commands"
	"github.com/txn2/dbsandbot/pkg/configstore"
	"github.com/txn2/dbsandbot/pkg/configstore/postgres"
	"github.com/txn2/dbsandbot/pkg/deliver"
	"github.com/txn2/dbsandbot/pkg/engine"
	"github.com/txn2/dbsandbot/pkg/session"
)

// Version is set at build time.
var Version = "dev"

// gateway is the chat connection lifecycle, satisfied by
// discord.Gateway.
type gateway interface {
	Start(ctx context.Context) error
	Stop() error
}

// Server is the assembled bot: registry, config store, gateway, and
// the shutdown exporter.
type Server struct {
	cfg      *Config
	registry *session.Registry
	configs  configstore.Store
	gateway  gateway
	exporter *session.Exporter
}

// New builds a Server from the validated configuration. Nothing
// touches the network until Start.
func New(cfg *Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})))

	configs, err := openStore(cfg.Configs)
	if err != nil {
		return nil, err
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		_ = configs.Close()
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	client := &discord.Client{Session: dg}

	cleaner := &session.ChannelCleaner{
		Chat:          client,
		Configs:       configs,
		ExportCeiling: cfg.Delivery.Ceiling,
	}
	registry := session.NewRegistry(cleaner)

	handler := &commands.Handler{
		Registry: registry,
		Factory:  engine.Factory{Timeout: cfg.Engine.QueryTimeout},
		Chat:     client,
		Configs:  configs,
		Cleaner:  cleaner,
		Deliver: deliver.Strategy{
			InlineLimit: cfg.Delivery.InlineLimit,
			Ceiling:     cfg.Delivery.Ceiling,
		},
		MaxLoadBytes: cfg.Delivery.MaxLoadBytes,
		DefaultTTL:   cfg.Session.DefaultTTL,
	}

	return &Server{
		cfg:      cfg,
		registry: registry,
		configs:  configs,
		gateway:  &discord.Gateway{Session: dg, Handler: handler},
		exporter: &session.Exporter{
			Registry: registry,
			Chat:     client,
			Ceiling:  cfg.Delivery.Ceiling,
		},
	}, nil
}

func openStore(cfg StoreConfig) (configstore.Store, error) {
	switch cfg.Backend {
	case "memory":
		return configstore.NewMemoryStore(), nil
	case "file":
		st, err := configstore.NewFileStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening file config store: %w", err)
		}
		return st, nil
	case "postgres":
		st, err := postgres.Open(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres config store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown configstore backend %q", cfg.Backend)
	}
}

// Start opens the gateway connection and begins serving events.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("starting", "version", Version, "configstore", s.cfg.Configs.Backend)
	return s.gateway.Start(ctx)
}

// Stop closes the gateway, exports every live session, and stops the
// watchers and stores. The gateway goes down first so no new session
// can be registered after the export sweep starts. Export effort is
// bounded by the configured shutdown timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Shutdown.ExportTimeout)
	defer cancel()

	if err := s.gateway.Stop(); err != nil {
		slog.Warn("gateway close", "error", err)
	}

	slog.Info("shutting down", "sessions", s.registry.Len())
	s.exporter.ExportAll(ctx)

	if err := s.registry.Close(ctx); err != nil {
		slog.Warn("registry close", "error", err)
	}
	if err := s.configs.Close(); err != nil {
		slog.Warn("config store close", "error", err)
	}
	return nil
}
