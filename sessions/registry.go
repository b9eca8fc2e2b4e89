// Package sessions tracks the single refresh token each user currently holds.
// A newer login overwrites the previous entry, so at most one refresh token per
// user is accepted at a time.
package sessions

import (
	"context"
	"crypto/subtle"
	"sync"
)

// Registry is the server side record of refresh tokens, keyed by user id.
// Implementations may be in-memory or shared between server processes.
type Registry interface {
	// Put overwrites any existing entry for userID
	Put(ctx context.Context, userID int64, refreshToken string) error
	// Get returns the stored token and whether one exists
	Get(ctx context.Context, userID int64) (string, bool, error)
	// Remove clears the entry. Removing an absent entry is not an error.
	Remove(ctx context.Context, userID int64) error
	// CompareAndSwap replaces the entry with next only if it currently equals current.
	// It reports whether the swap happened.
	CompareAndSwap(ctx context.Context, userID int64, current, next string) (bool, error)
}

// MemoryRegistry keeps entries in process memory
type MemoryRegistry struct {
	tokens map[int64]string
	lock   sync.RWMutex
}

var _ Registry = (*MemoryRegistry)(nil)

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		tokens: make(map[int64]string),
	}
}

func (m *MemoryRegistry) Put(_ context.Context, userID int64, refreshToken string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.tokens[userID] = refreshToken
	return nil
}

func (m *MemoryRegistry) Get(_ context.Context, userID int64) (string, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	t, ok := m.tokens[userID]
	return t, ok, nil
}

func (m *MemoryRegistry) Remove(_ context.Context, userID int64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.tokens, userID)
	return nil
}

func (m *MemoryRegistry) CompareAndSwap(_ context.Context, userID int64, current, next string) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	stored, ok := m.tokens[userID]
	if !ok || !TokensEqual(stored, current) {
		return false, nil
	}
	m.tokens[userID] = next
	return true, nil
}

// TokensEqual compares two tokens in constant time
func TokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
