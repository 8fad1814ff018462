// Package storage persists observability data alongside the in-memory
// protocol state: the registry of issued client identities and an audit
// log of authentication events. The in-memory token table remains
// authoritative for the protocol; this store is a best-effort mirror read
// by the CLI.
package storage

import (
	"database/sql"
	"log"
	"sync"

	// Pure-Go SQLite driver; registers itself with database/sql and
	// needs no CGO, which keeps cross-compilation and testing easy.
	_ "modernc.org/sqlite"

	apperrors "github.com/telecoder/host/internal/errors"
)

// Store wraps a SQLite database holding the client registry and audit log.
// It creates the tables on first use and supports concurrent access
// through internal locking.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates a SQLite database at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(path string) (*Store, error) {
	log.Printf("storage: opening database at %s", path)

	// busy_timeout handles concurrent access from the CLI while the
	// host is running.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageOpenFailed, "open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.CodeStorageOpenFailed, "ping database", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	log.Printf("storage: closing database")
	return s.db.Close()
}

// initSchema creates the tables if they don't exist.
func (s *Store) initSchema() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS clients (
			id         TEXT PRIMARY KEY,
			token_hash TEXT NOT NULL,
			remote_addr TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			last_seen  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS auth_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			event       TEXT NOT NULL,
			client_id   TEXT NOT NULL DEFAULT '',
			remote_addr TEXT NOT NULL DEFAULT '',
			detail      TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_auth_events_client
			ON auth_events(client_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageOpenFailed, "create tables", err)
	}
	return nil
}
