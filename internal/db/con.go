package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/shyamsivadas/event-lens/internal/db/queries"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Options selects the SQL backend.
type Options struct {
	Driver string
	Path   string
	URL    string
}

// Database wraps sqlc queries with the shared connection.
type Database struct {
	*queries.Queries
	db      *sql.DB
	dialect Dialect
	tracker *queryLatencyTracker
}

// New opens the SQLite database at the provided path.
func New(path string, openParams ...string) (*Database, error) {
	if path == "" {
		path = "data/eventlens"
	}
	return open(DialectSQLite, sqliteDSN(path, openParams...))
}

// Open opens the database selected by opts and applies migrations.
func Open(opts Options) (*Database, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "sqlite":
		return New(opts.Path)
	case "postgres", "postgresql":
		if strings.TrimSpace(opts.URL) == "" {
			return nil, fmt.Errorf("postgres url is required")
		}
		return open(DialectPostgres, opts.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

func open(dialect Dialect, dsn string) (*Database, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	tracker := newQueryLatencyTracker()
	wrapped := newInstrumentedDBTX(db, dialect, tracker)

	return &Database{db: db, Queries: queries.New(wrapped), dialect: dialect, tracker: tracker}, nil
}

func migrate(db *sql.DB, dialect Dialect) error {
	fsys, err := fs.Sub(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("failed to locate migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect.gooseDialect(), db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func sqliteDSN(path string, openParams ...string) string {
	values := url.Values{}
	values.Set("_txlock", "immediate")

	values.Add("_pragma", "foreign_keys(ON)")
	values.Add("_pragma", "journal_mode(WAL)")
	values.Add("_pragma", "synchronous(NORMAL)")
	values.Add("_pragma", "busy_timeout(10000)")
	values.Add("_pragma", "temp_store(MEMORY)")

	for _, param := range openParams {
		part := strings.TrimSpace(strings.TrimPrefix(param, "&"))
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		values.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	return fmt.Sprintf("file:%s.sqlite?%s", path, values.Encode())
}

// Dialect reports the SQL backend in use.
func (c *Database) Dialect() Dialect {
	return c.dialect
}

// Close closes the underlying database connection.
func (c *Database) Close() error {
	return c.db.Close()
}
