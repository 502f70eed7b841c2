package tokenstore

// Repo holds bearer tokens keyed by session identifier. Tokens are opaque
// credentials issued by the platform; the store never inspects them.
type Repo interface {
	Upsert(sessionID, token string) error
	Get(sessionID string) (string, error)
	Delete(sessionID string) error
	// Count reports the number of sessions currently holding a token.
	Count() int
}
