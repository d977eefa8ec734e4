// Package postgres provides a PostgreSQL-backed guild config store.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // registers the "postgres" driver

	"github.com/txn2/dbsandbot/pkg/configstore"
)

//go:embed migrations/*.sql
var migrations embed.FS

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var guildColumns = []string{
	"guild_id", "active_category", "archive_category",
	"ttl_seconds", "timeout_seconds", "pretty", "structured",
}

// Store persists guild configurations in PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL, runs pending migrations, and returns a
// ready store.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an existing database handle. Callers are responsible for
// running Migrate.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies all pending schema migrations. It is idempotent.
func Migrate(db *sql.DB) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("creating postgres driver: %w", err)
	}
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Get returns the guild's configuration, or nil, nil when absent.
func (s *Store) Get(ctx context.Context, guildID string) (*configstore.GuildConfig, error) {
	query, args, err := psq.Select(guildColumns...).
		From("guild_configs").
		Where(sq.Eq{"guild_id": guildID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building guild config query: %w", err)
	}

	var (
		cfg            configstore.GuildConfig
		ttlSeconds     int64
		timeoutSeconds int64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&cfg.GuildID, &cfg.ActiveCategory, &cfg.ArchiveCategory,
		&ttlSeconds, &timeoutSeconds, &cfg.Pretty, &cfg.Structured,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("loading guild config: %w", err)
	}

	cfg.TTL = time.Duration(ttlSeconds) * time.Second
	cfg.Timeout = time.Duration(timeoutSeconds) * time.Second
	return &cfg, nil
}

// Put creates or replaces the guild's configuration.
func (s *Store) Put(ctx context.Context, cfg configstore.GuildConfig) error {
	query, args, err := psq.Insert("guild_configs").
		Columns(guildColumns...).
		Values(
			cfg.GuildID, cfg.ActiveCategory, cfg.ArchiveCategory,
			int64(cfg.TTL/time.Second), int64(cfg.Timeout/time.Second),
			cfg.Pretty, cfg.Structured,
		).
		Suffix(`ON CONFLICT (guild_id) DO UPDATE SET
			active_category = EXCLUDED.active_category,
			archive_category = EXCLUDED.archive_category,
			ttl_seconds = EXCLUDED.ttl_seconds,
			timeout_seconds = EXCLUDED.timeout_seconds,
			pretty = EXCLUDED.pretty,
			structured = EXCLUDED.structured,
			updated_at = now()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("building guild config upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving guild config: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ configstore.Store = (*Store)(nil)
