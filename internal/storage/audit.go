package storage

import (
	"time"

	apperrors "github.com/telecoder/host/internal/errors"
)

// Auth event names recorded in the audit log.
const (
	EventAuthSuccess   = "auth_success"
	EventAuthReconnect = "auth_reconnect"
	EventAuthFailed    = "auth_failed"
	EventAuthTimeout   = "auth_timeout"
	EventDisconnect    = "disconnect"
)

// AuthEvent is one audit log row.
type AuthEvent struct {
	ID         int64
	Event      string
	ClientID   string
	RemoteAddr string
	Detail     string
	CreatedAt  time.Time
}

// RecordAuthEvent appends an authentication event to the audit log.
func (s *Store) RecordAuthEvent(event, clientID, remoteAddr, detail string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const query = `
		INSERT INTO auth_events (event, client_id, remote_addr, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, event, clientID, remoteAddr, detail, at.Format(time.RFC3339Nano))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageSaveFailed, "record auth event", err)
	}
	return nil
}

// ListAuthEvents returns the most recent audit entries, newest first,
// capped at limit. limit <= 0 means no cap.
func (s *Store) ListAuthEvents(limit int) ([]*AuthEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, event, client_id, remote_addr, detail, created_at
		FROM auth_events
		ORDER BY id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageQueryFailed, "query auth events", err)
	}
	defer rows.Close()

	var events []*AuthEvent
	for rows.Next() {
		var e AuthEvent
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Event, &e.ClientID, &e.RemoteAddr, &e.Detail, &createdAt); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageQueryFailed, "scan auth event", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageQueryFailed, "parse created_at", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageQueryFailed, "iterate auth events", err)
	}

	return events, nil
}
