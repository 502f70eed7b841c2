package staterepo

import (
	"errors"
	"sync"
	"time"
)

// ErrStateNotFound is returned when no live entry matches a lookup.
var ErrStateNotFound = errors.New("state not found")

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface. Entries older than the TTL are evicted lazily, so abandoned
// login attempts do not accumulate for the lifetime of the process.
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*LoginState
	ttl    time.Duration
}

// NewInMemoryRepo creates a new in-memory login state repository. A zero TTL
// disables eviction.
func NewInMemoryRepo(ttl time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]*LoginState),
		ttl:    ttl,
	}
}

// Upsert stores or updates a login state keyed by session identifier.
func (r *InMemoryRepo) Upsert(sessionID string, state *LoginState) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}
	if state == nil {
		return errors.New("state cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictExpired()

	// Create a copy to prevent external modifications
	r.states[sessionID] = &LoginState{
		State:     state.State,
		CreatedAt: state.CreatedAt,
	}

	return nil
}

// Get retrieves a login state by session identifier.
func (r *InMemoryRepo) Get(sessionID string) (*LoginState, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.states[sessionID]
	if !exists || r.expired(state) {
		return nil, ErrStateNotFound
	}

	// Return a copy to prevent external modifications
	return &LoginState{
		State:     state.State,
		CreatedAt: state.CreatedAt,
	}, nil
}

// FindByState scans all live entries for a matching CSRF value and returns
// the owning session identifier.
func (r *InMemoryRepo) FindByState(state string) (string, error) {
	if state == "" {
		return "", errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for sessionID, entry := range r.states {
		if entry.State == state && !r.expired(entry) {
			return sessionID, nil
		}
	}
	return "", ErrStateNotFound
}

// Delete removes a login state. Absence is not an error.
func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, sessionID)
	return nil
}

func (r *InMemoryRepo) expired(state *LoginState) bool {
	return r.ttl > 0 && time.Since(state.CreatedAt) > r.ttl
}

// evictExpired must be called with the write lock held.
func (r *InMemoryRepo) evictExpired() {
	if r.ttl <= 0 {
		return
	}
	for sessionID, state := range r.states {
		if time.Since(state.CreatedAt) > r.ttl {
			delete(r.states, sessionID)
		}
	}
}
