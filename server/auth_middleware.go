package server

import (
	"context"
	"net/http"
)

const (
	// sessionCookieName is the cookie carrying the session identifier the
	// token store is keyed by.
	sessionCookieName = "shelf_session_id"
	// sessionCookieMaxAge keeps the session cookie for a day; the upstream
	// token inside the store may expire sooner.
	sessionCookieMaxAge = 24 * 3600
)

type contextKey string

const tokenContextKey contextKey = "bearer-token"

// RequireAuth rejects requests whose session holds no bearer token and puts
// the token on the request context for downstream handlers.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := s.sessionToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			ctx := context.WithValue(r.Context(), tokenContextKey, token)
			next(w, r.WithContext(ctx))
		}
	}
}

// sessionToken resolves the bearer token for the request's session cookie.
func (s *Server) sessionToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	token, err := s.tokens.Get(cookie.Value)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// requestToken returns the bearer token RequireAuth stored on the context.
func requestToken(r *http.Request) string {
	token, _ := r.Context().Value(tokenContextKey).(string)
	return token
}

// SetSessionCookie binds the browser to its server-side session entry.
func (s *Server) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionCookieMaxAge,
	})
}
