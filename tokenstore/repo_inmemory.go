package tokenstore

import (
	"errors"
	"sync"
)

// ErrTokenNotFound is returned when a session holds no token.
var ErrTokenNotFound = errors.New("token not found")

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface. Tokens are keyed by session identifier so concurrent logins for
// different sessions do not overwrite each other; a restart loses everything.
type InMemoryRepo struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewInMemoryRepo creates a new in-memory token repository.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		tokens: make(map[string]string),
	}
}

// Upsert stores or replaces the token for a session. A later login for the
// same session overwrites the earlier token.
func (r *InMemoryRepo) Upsert(sessionID, token string) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[sessionID] = token
	return nil
}

// Get retrieves the token for a session.
func (r *InMemoryRepo) Get(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("sessionID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	token, exists := r.tokens[sessionID]
	if !exists {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// Delete removes a session's token. Absence is not an error.
func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, sessionID)
	return nil
}

// Count reports the number of sessions currently holding a token.
func (r *InMemoryRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tokens)
}
