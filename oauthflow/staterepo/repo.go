package staterepo

import "time"

// LoginState is the CSRF state recorded when a login is initiated, consumed
// exactly once by the matching callback.
type LoginState struct {
	State     string
	CreatedAt time.Time
}

type Repo interface {
	Upsert(sessionID string, state *LoginState) error
	Get(sessionID string) (*LoginState, error)
	// FindByState scans for a session holding the given CSRF value. Needed
	// for callbacks carrying the legacy bare-state format.
	FindByState(state string) (string, error)
	// Delete removes a state entry. Deleting an absent entry is not an error.
	Delete(sessionID string) error
}
