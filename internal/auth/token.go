package auth

import (
	"crypto/rand"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// NewClientID mints a fresh client identity string.
func NewClientID() string {
	return uuid.New().String()
}

// NewToken generates a secure random reconnection token.
// Returns a hex-encoded string suitable for transport in a JSON frame.
func NewToken() string {
	// 32 bytes = 256 bits of entropy
	const tokenBytes = 32

	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		// This should never happen with crypto/rand
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}

	return fmt.Sprintf("%x", b)
}

// tokenEntry binds one issued token (stored as a bcrypt hash) to a client
// identity.
type tokenEntry struct {
	hash     string
	clientID string
}

// TokenTable maps reconnection tokens to client identities.
// Entries are created once, at first successful authentication with the
// initial secret, and are never removed for the lifetime of the process:
// tokens survive disconnects so the same client can resume.
//
// Tokens are stored as bcrypt hashes and resolved by comparing the
// presented token against each hash. For the single-client deployments
// this server targets, the table stays tiny and the linear scan is
// acceptable.
type TokenTable struct {
	mu      sync.RWMutex
	entries []tokenEntry
	cost    int
}

// NewTokenTable creates an empty token table.
// cost is the bcrypt cost used when hashing new tokens; pass 0 for the
// bcrypt default. Tests use bcrypt.MinCost to stay fast.
func NewTokenTable(cost int) *TokenTable {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &TokenTable{cost: cost}
}

// Insert records a newly issued token for the given client identity.
// Returns the stored hash so callers can mirror it to persistent audit
// storage.
func (tt *TokenTable) Insert(token, clientID string) (hash string, err error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), tt.cost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}

	tt.mu.Lock()
	tt.entries = append(tt.entries, tokenEntry{hash: string(h), clientID: clientID})
	tt.mu.Unlock()

	log.Printf("auth: issued reconnection token for client %s", clientID)
	return string(h), nil
}

// Resolve looks up the client identity bound to the presented token.
// Returns ok=false if the token was never issued by this process.
func (tt *TokenTable) Resolve(token string) (clientID string, ok bool) {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	for _, e := range tt.entries {
		// bcrypt.CompareHashAndPassword handles timing-safe comparison
		if bcrypt.CompareHashAndPassword([]byte(e.hash), []byte(token)) == nil {
			return e.clientID, true
		}
	}
	return "", false
}

// Len returns the number of issued tokens.
func (tt *TokenTable) Len() int {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return len(tt.entries)
}
