// Package store is the relational store adapter. It opens a file-backed
// SQLite database (or a Postgres database), ensures a schema exists, and
// exposes transactional execute and read-only query primitives.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/formulary/pkg/types"
)

const (
	sqliteDriver   = "sqlite"
	postgresDriver = "pgx"

	// Applied to every new SQLite connection.
	sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
)

var sqlOpen = sql.Open

// ErrClosed is returned by every primitive called after Close.
var ErrClosed = fmt.Errorf("%w: store is closed", types.ErrStoreUnavailable)

// Store wraps a database handle. Every transaction acquires and releases its
// own connection; nothing is held between calls.
type Store struct {
	mu      sync.RWMutex
	closed  bool
	db      *sql.DB
	dialect dialect
	schema  Schema
	path    string
}

// Open validates cfg, opens the backing database, and applies schema.
// Any failure to reach the database or create the schema is reported as
// types.ErrStoreUnavailable.
func Open(ctx context.Context, cfg types.Config, schema Schema) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrStoreUnavailable, err)
	}

	s := &Store{schema: schema}
	var driverName, dsn string
	switch cfg.Backend {
	case types.BackendPostgres:
		driverName, dsn = postgresDriver, cfg.DSN
		s.dialect = dialectPostgres
	default:
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data dir: %v", types.ErrStoreUnavailable, err)
		}
		s.path = filepath.Join(dataDir, types.DatabaseFile)
		driverName, dsn = sqliteDriver, s.path+sqlitePragmas
		s.dialect = dialectSQLite
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", types.ErrStoreUnavailable, s.dialect, err)
	}
	s.db = db

	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the store's tables and indexes if they are absent.
// It is idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping %s: %v", types.ErrStoreUnavailable, s.dialect, err)
	}
	stmts := append(append([]string{}, s.schema.Tables...), s.schema.Indexes...)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure %s schema: %v", types.ErrStoreUnavailable, s.schema.Name, err)
		}
	}
	return nil
}

// RunTransaction runs fn inside a transaction on a dedicated connection.
// The transaction commits if fn returns nil and rolls back otherwise; the
// connection is released in both cases.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	sqlTx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query runs a read-only query outside any write transaction.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

// QueryRow runs a read-only query expected to return at most one row. After
// Close the returned row's Scan reports the closed database.
func (s *Store) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// handle returns the database handle, or ErrClosed after Close.
func (s *Store) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.db, nil
}

// Path returns the SQLite database file, or "" for Postgres.
func (s *Store) Path() string { return s.path }

// Close releases the database handle. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Tx is a transactional handle passed to RunTransaction callbacks.
type Tx struct {
	tx      *sql.Tx
	dialect dialect
}

// Exec executes a statement inside the transaction.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.rebind(query), args...)
}

// Prepare prepares a statement bound to the transaction.
func (t *Tx) Prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	return t.tx.PrepareContext(ctx, t.dialect.rebind(query))
}

// Query runs a query inside the transaction.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.dialect.rebind(query), args...)
}
