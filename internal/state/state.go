// Package state holds the shared server state every session works against:
// the singleton connected-client slot, the reconnection token table, the
// repository catalog, and the current repository selection. Each piece is
// independently lockable; sessions receive the state by handle rather than
// through globals.
package state

import (
	"errors"
	"io"
	"sync"

	"github.com/telecoder/host/internal/auth"
	"github.com/telecoder/host/internal/repository"
)

// ErrSlotBusy is returned when admission is refused because a different
// client identity already holds the connection slot.
var ErrSlotBusy = errors.New("another client is already connected")

// ClientInfo identifies the currently admitted session.
type ClientInfo struct {
	// SessionID is unique per connection. It distinguishes two sessions of
	// the same client identity so a lingering disconnect can never clear a
	// slot a faster reconnect already repopulated.
	SessionID string

	// RemoteAddr is the connection endpoint.
	RemoteAddr string

	// ClientID is the client identity minted at first authentication.
	ClientID string

	// Token is the reconnection token bound to this session.
	Token string
}

// ClientSlot is the singleton connected-client slot. At most one non-empty
// occupant exists across the whole server; this is the central correctness
// property of the system.
//
// Admission is a single check-and-set critical section: the decision to
// admit and the write of the occupant happen under one lock acquisition,
// never as a read lock followed by a separate write lock.
type ClientSlot struct {
	mu       sync.Mutex
	occupant *ClientInfo
	closer   io.Closer
}

// NewClientSlot returns an empty slot.
func NewClientSlot() *ClientSlot {
	return &ClientSlot{}
}

// Acquire admits a session into the slot.
//
// The slot is granted when it is empty, or when the current occupant has
// the same client identity (idempotent re-entry by a reconnecting client).
// In the re-entry case the previous session is displaced and its closer is
// returned so the caller can shut the stale connection down. A different
// identity in the slot yields ErrSlotBusy.
//
// closer is retained while the session occupies the slot.
func (s *ClientSlot) Acquire(info ClientInfo, closer io.Closer) (displaced io.Closer, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.occupant != nil && s.occupant.ClientID != info.ClientID {
		return nil, ErrSlotBusy
	}

	if s.occupant != nil {
		displaced = s.closer
	}
	occ := info
	s.occupant = &occ
	s.closer = closer
	return displaced, nil
}

// Release clears the slot, but only if it is still held by the given
// session. Returns true if the slot was cleared.
func (s *ClientSlot) Release(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.occupant == nil || s.occupant.SessionID != sessionID {
		return false
	}
	s.occupant = nil
	s.closer = nil
	return true
}

// Current returns a snapshot of the occupant, if any.
func (s *ClientSlot) Current() (ClientInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.occupant == nil {
		return ClientInfo{}, false
	}
	return *s.occupant, true
}

// Selection is the optional reference to the currently selected repository.
// It is set by an explicit selection and cleared only by a new selection,
// not by disconnect: a reconnecting client sees its previous choice.
type Selection struct {
	mu   sync.RWMutex
	repo *repository.Repository
}

// Set records the selected repository.
func (sel *Selection) Set(repo repository.Repository) {
	sel.mu.Lock()
	sel.repo = &repo
	sel.mu.Unlock()
}

// Get returns a snapshot of the selection, if one exists.
func (sel *Selection) Get() (repository.Repository, bool) {
	sel.mu.RLock()
	defer sel.mu.RUnlock()

	if sel.repo == nil {
		return repository.Repository{}, false
	}
	return *sel.repo, true
}

// Store aggregates the shared state handed to every session.
type Store struct {
	// Slot is the singleton connected-client slot.
	Slot *ClientSlot

	// Tokens maps reconnection tokens to client identities.
	Tokens *auth.TokenTable

	// Catalog is the repository catalog, populated once at startup and
	// read-only during operation.
	Catalog []repository.Repository

	// Selection is the currently selected repository.
	Selection *Selection
}

// NewStore builds a Store around a startup catalog.
func NewStore(catalog []repository.Repository, tokens *auth.TokenTable) *Store {
	return &Store{
		Slot:      NewClientSlot(),
		Tokens:    tokens,
		Catalog:   catalog,
		Selection: &Selection{},
	}
}

// FindRepository looks up a catalog entry by exact path match.
func (st *Store) FindRepository(path string) (repository.Repository, bool) {
	for _, repo := range st.Catalog {
		if repo.Path == path {
			return repo, true
		}
	}
	return repository.Repository{}, false
}
