// Package session holds the credential state of a storefront user and the
// stores that persist it.
//
// The core never reads credentials from ambient state: every operation that
// needs one takes a Session explicitly. Stores exist only at the edges (CLI,
// gateway) to persist the triple between invocations, keyed by the fixed
// names token, username and balance.
package session

import (
	"context"
	"sync"

	"storefront/internal/model"
)

// Session is the credential state passed explicitly into core operations.
// A zero-value Session is anonymous: all cart-mutating operations are gated
// locally without a network call.
type Session struct {
	Token        string
	Username     string
	BalanceCents int64
}

// Anonymous reports whether the session carries no credential.
func (s Session) Anonymous() bool {
	return s.Token == ""
}

// FromCredentials builds a session from a successful login response.
func FromCredentials(c model.Credentials) Session {
	return Session{
		Token:        c.Token,
		Username:     c.Username,
		BalanceCents: c.BalanceCents,
	}
}

// Store persists a session between invocations.
// Load on a store with no saved session returns a zero (anonymous) session
// and no error.
type Store interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process memory. Used by tests and by the
// gateway, which holds exactly one user session per process.
type MemoryStore struct {
	mu sync.Mutex
	s  Session
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = Session{}
	return nil
}
