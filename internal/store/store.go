package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// pragmas are applied to every connection, in order. want is the value
// SQLite reports back once the setting is active.
var pragmas = []struct {
	name, value, want string
}{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// migrations run in order against databases whose user_version is below
// their position + 1. Append only.
var migrations = []string{
	// 1: replay of one program walks its runs in seq order.
	`CREATE INDEX IF NOT EXISTS idx_runs_program_hash ON runs(program_hash, seq)`,
}

// Store provides durable storage for programs, compilations and runs.
type Store struct {
	db    *sql.DB
	idGen IDGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUIDv7 run ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		s.idGen = g
	}
}

// Open creates or opens the SQLite database at path and brings its schema
// up to date. Opening an existing database is safe.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: SQLite serializes writers anyway, and pragmas such as
	// foreign_keys are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, idGen: UUIDGenerator{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func prepare(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply %q: %w", stmt, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return migrate(db)
}

// migrate runs the migrations newer than the database's user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for i := version; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migrate to v%d: %w", i+1, err)
		}
	}
	if version >= len(migrations) {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// nextSeq returns the next logical sequence number for table.
func nextSeq(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var seq int64
	query := "SELECT COALESCE(MAX(seq), 0) + 1 FROM " + table
	if err := tx.QueryRowContext(ctx, query).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq for %s: %w", table, err)
	}
	return seq, nil
}

// checkPragmas reports every connection setting that differs from what
// Open applied, plus the schema version.
func (s *Store) checkPragmas() error {
	var bad []string
	read := func(name, want string) {
		var got string
		if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", name, err))
			return
		}
		if !strings.EqualFold(got, want) {
			bad = append(bad, fmt.Sprintf("%s = %q, expected %q", name, got, want))
		}
	}
	for _, p := range pragmas {
		read(p.name, p.want)
	}
	read("user_version", fmt.Sprint(len(migrations)))
	if len(bad) > 0 {
		return errors.New(strings.Join(bad, "; "))
	}
	return nil
}
