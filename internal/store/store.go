package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/roach88/eventchain/internal/schema"
)

// Store persists projected fields of event records into SQLite.
//
// Store serializes all of its operations with one mutex: a resynchronization
// never runs while an insert is in flight, so an insert always sees the
// column set of one complete Registry.
type Store struct {
	mu    sync.Mutex
	db    *sql.DB
	owned bool // db was opened by Open and is closed by Close
	reg   *schema.Registry
	now   func() time.Time
}

type options struct {
	driver string
	now    func() time.Time
}

// Option configures Open and New.
type Option func(*options)

// WithDriver selects the database/sql driver name.
// Default: DriverCGO.
func WithDriver(name string) Option {
	return func(o *options) {
		o.driver = name
	}
}

// WithClock overrides the source of ingestion timestamps.
// Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{driver: DriverCGO, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open creates or opens the SQLite database at path and synchronizes its
// tables with p. Parent directories are created as needed.
//
// The projection is validated before the file is touched. Any failure closes
// the handle; configuration and schema errors are returned unwrapped so
// callers can match them with schema.IsConfigurationError and
// schema.IsSchemaError.
//
// The database is configured with:
//   - WAL mode for concurrent readers
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - a single connection (one writer)
func Open(path string, p schema.Projection, opts ...Option) (*Store, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(o.driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	reg, err := schema.NewSynchronizer(db).Sync(context.Background(), p)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, owned: true, reg: reg, now: o.now}, nil
}

// New synchronizes p over a handle owned by the caller and returns a Store
// that writes through it. Close does not close a borrowed handle.
func New(ctx context.Context, db *sql.DB, p schema.Projection, opts ...Option) (*Store, error) {
	o := buildOptions(opts)

	reg, err := schema.NewSynchronizer(db).Sync(ctx, p)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, reg: reg, now: o.now}, nil
}

// Close closes the database connection if the Store opened it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}

// Registry returns the column registry currently used for writes.
func (s *Store) Registry() *schema.Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg
}

// Resync synchronizes the tables with p and swaps in the resulting Registry.
// It waits for any in-flight Write to finish. On failure the previous
// Registry stays in use.
func (s *Store) Resync(ctx context.Context, p schema.Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := schema.NewSynchronizer(s.db).Sync(ctx, p)
	if err != nil {
		return err
	}
	s.reg = reg
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
