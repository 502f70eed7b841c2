package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// LoginHandler initiates the authorization flow: it registers a fresh CSRF
// state and redirects the browser to the platform's authorization endpoint.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		login, err := s.flow.BeginLogin()
		if err != nil {
			log.Error().Err(err).Msg("failed to initiate login")
			writeError(w, http.StatusInternalServerError, "failed to initiate login")
			return
		}

		// Bind the browser to the session before the round trip so the
		// callback and the session cookie agree on the identifier.
		s.SetSessionCookie(w, r, login.SessionID)
		http.Redirect(w, r, login.AuthorizeURL, http.StatusFound)
	}
}
