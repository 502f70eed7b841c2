package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/shelfsync/go-shelf-sync/internal/errors"
)

// OAuthCallbackHandler completes the authorization flow: it validates the
// echoed state against the registry, exchanges the code for a token, and
// sends the authenticated browser to the dashboard.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.FormValue("code")
		state := r.FormValue("state")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		sessionID, err := s.flow.HandleCallback(r.Context(), code, state, errorParam, errorDesc)
		if err != nil {
			status, detail := callbackFailure(err)
			log.Error().Err(err).Msg("OAuth callback failed")
			writeError(w, status, detail)
			return
		}

		s.SetSessionCookie(w, r, sessionID)
		http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
	}
}

// callbackFailure maps a callback error onto the inbound status and detail.
// Client-input and provider failures are 400s; anything else is internal.
func callbackFailure(err error) (int, string) {
	var providerErr *errors.ProviderError
	if errors.As(err, &providerErr) {
		return http.StatusBadRequest, providerErr.Error()
	}

	var upstreamErr *errors.UpstreamError
	if errors.As(err, &upstreamErr) {
		return http.StatusBadRequest, "failed to get access token: " + upstreamErr.Body
	}

	switch {
	case errors.Is(err, errors.ErrMissingCode),
		errors.Is(err, errors.ErrMissingState),
		errors.Is(err, errors.ErrUnknownSession),
		errors.Is(err, errors.ErrInvalidState),
		errors.Is(err, errors.ErrStateMismatch),
		errors.Is(err, errors.ErrNoAccessToken):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
