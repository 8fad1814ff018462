package storage

import (
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/telecoder/host/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndListClients(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	first := &Client{
		ID:         "client-a",
		TokenHash:  "$2a$10$hash-a",
		RemoteAddr: "127.0.0.1:50001",
		CreatedAt:  base,
		LastSeen:   base,
	}
	second := &Client{
		ID:         "client-b",
		TokenHash:  "$2a$10$hash-b",
		RemoteAddr: "127.0.0.1:50002",
		CreatedAt:  base.Add(time.Minute),
		LastSeen:   base.Add(time.Minute),
	}
	// Insert out of order; listing sorts by created_at.
	if err := store.SaveClient(second); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveClient(first); err != nil {
		t.Fatal(err)
	}

	clients, err := store.ListClients()
	if err != nil {
		t.Fatal(err)
	}
	if len(clients) != 2 {
		t.Fatalf("listed %d clients, want 2", len(clients))
	}
	if clients[0].ID != "client-a" || clients[1].ID != "client-b" {
		t.Errorf("order = %q, %q", clients[0].ID, clients[1].ID)
	}
	if !clients[0].CreatedAt.Equal(base) {
		t.Errorf("created_at round trip = %v, want %v", clients[0].CreatedAt, base)
	}
}

func TestSaveClientReplacesExisting(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC()
	c := &Client{ID: "client-a", TokenHash: "hash-1", RemoteAddr: "1.2.3.4:1", CreatedAt: now, LastSeen: now}
	if err := store.SaveClient(c); err != nil {
		t.Fatal(err)
	}
	c.TokenHash = "hash-2"
	if err := store.SaveClient(c); err != nil {
		t.Fatal(err)
	}

	clients, err := store.ListClients()
	if err != nil {
		t.Fatal(err)
	}
	if len(clients) != 1 {
		t.Fatalf("listed %d clients, want 1", len(clients))
	}
	if clients[0].TokenHash != "hash-2" {
		t.Errorf("token hash = %q, want replacement", clients[0].TokenHash)
	}
}

func TestSaveClientNil(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveClient(nil); err == nil {
		t.Fatal("SaveClient(nil) succeeded")
	}
}

func TestTouchClient(t *testing.T) {
	store := newTestStore(t)

	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	c := &Client{ID: "client-a", TokenHash: "h", RemoteAddr: "1.2.3.4:1", CreatedAt: created, LastSeen: created}
	if err := store.SaveClient(c); err != nil {
		t.Fatal(err)
	}

	seen := created.Add(2 * time.Hour)
	if err := store.TouchClient("client-a", "5.6.7.8:2", seen); err != nil {
		t.Fatal(err)
	}

	clients, err := store.ListClients()
	if err != nil {
		t.Fatal(err)
	}
	if !clients[0].LastSeen.Equal(seen) {
		t.Errorf("last_seen = %v, want %v", clients[0].LastSeen, seen)
	}
	if clients[0].RemoteAddr != "5.6.7.8:2" {
		t.Errorf("remote_addr = %q", clients[0].RemoteAddr)
	}
	if !clients[0].CreatedAt.Equal(created) {
		t.Errorf("created_at changed to %v", clients[0].CreatedAt)
	}

	// Touching an unknown client is a no-op, not an error.
	if err := store.TouchClient("nobody", "9.9.9.9:9", seen); err != nil {
		t.Errorf("TouchClient on missing row: %v", err)
	}
}

func TestAuthEventsOrderAndLimit(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	events := []string{EventAuthSuccess, EventAuthReconnect, EventAuthFailed, EventDisconnect}
	for i, event := range events {
		err := store.RecordAuthEvent(event, "client-a", "1.2.3.4:1", "", base.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ListAuthEvents(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(events) {
		t.Fatalf("listed %d events, want %d", len(got), len(events))
	}
	// Newest first.
	if got[0].Event != EventDisconnect || got[3].Event != EventAuthSuccess {
		t.Errorf("order = %q ... %q", got[0].Event, got[3].Event)
	}

	capped, err := store.ListAuthEvents(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(capped) != 2 {
		t.Fatalf("listed %d capped events, want 2", len(capped))
	}
	if capped[0].Event != EventDisconnect || capped[1].Event != EventAuthFailed {
		t.Errorf("capped order = %q, %q", capped[0].Event, capped[1].Event)
	}
}

func TestOpenCreatesParentlessFile(t *testing.T) {
	// Open expects the parent directory to exist; the caller creates it.
	path := filepath.Join(t.TempDir(), "missing", "test.db")
	_, err := Open(path)
	if err == nil {
		t.Fatal("Open with a missing parent directory succeeded")
	}
	if !apperrors.IsCode(err, apperrors.CodeStorageOpenFailed) {
		t.Errorf("open failure code = %q, want %q", apperrors.GetCode(err), apperrors.CodeStorageOpenFailed)
	}
}
