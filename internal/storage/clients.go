package storage

import (
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/telecoder/host/internal/errors"
)

// Client is one issued client identity as recorded in the registry.
type Client struct {
	ID         string
	TokenHash  string
	RemoteAddr string
	CreatedAt  time.Time
	LastSeen   time.Time
}

// SaveClient persists a newly issued client identity.
// Uses INSERT OR REPLACE so a re-issue for the same identity updates the
// existing row.
func (s *Store) SaveClient(c *Client) error {
	if c == nil {
		return errors.New("client cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	const query = `
		INSERT OR REPLACE INTO clients
			(id, token_hash, remote_addr, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		c.ID,
		c.TokenHash,
		c.RemoteAddr,
		c.CreatedAt.Format(time.RFC3339Nano),
		c.LastSeen.Format(time.RFC3339Nano),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageSaveFailed, "save client", err)
	}

	return nil
}

// TouchClient updates a client's last_seen timestamp and remote address.
// A missing row is not an error; the registry is a best-effort mirror.
func (s *Store) TouchClient(id, remoteAddr string, seen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const query = `
		UPDATE clients SET last_seen = ?, remote_addr = ? WHERE id = ?
	`

	if _, err := s.db.Exec(query, seen.Format(time.RFC3339Nano), remoteAddr, id); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageSaveFailed, "touch client", err)
	}
	return nil
}

// ListClients returns every issued client identity, oldest first.
func (s *Store) ListClients() ([]*Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const query = `
		SELECT id, token_hash, remote_addr, created_at, last_seen
		FROM clients
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageQueryFailed, "query clients", err)
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageQueryFailed, "iterate clients", err)
	}

	return clients, nil
}

// scanClient reads one clients row.
func scanClient(row interface{ Scan(...any) error }) (*Client, error) {
	var c Client
	var createdAt, lastSeen string

	if err := row.Scan(&c.ID, &c.TokenHash, &c.RemoteAddr, &createdAt, &lastSeen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.CodeStorageQueryFailed, "scan client", err)
	}

	var err error
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageQueryFailed, "parse created_at", err)
	}
	if c.LastSeen, err = time.Parse(time.RFC3339Nano, lastSeen); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageQueryFailed, "parse last_seen", err)
	}

	return &c, nil
}
