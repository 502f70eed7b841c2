package server

import (
	"encoding/json"
	"net/http"
)

const contentTypeJSON = "application/json; charset=utf-8"

// IndexHandler acknowledges the root page. HTML rendering is served by the
// front-end layer; unauthenticated browsers should start at the login route.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, authenticated := s.sessionToken(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"app":           s.config.GetAppName(),
			"authenticated": authenticated,
			"login_url":     RouteAuthLogin,
		})
	}
}

// DashboardHandler is the post-login landing target.
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, authenticated := s.sessionToken(r)
		if !authenticated {
			http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"app":           s.config.GetAppName(),
			"authenticated": true,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError reports a failure the way the API's consumers expect it: a JSON
// object with a detail field.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeUpstream passes an upstream response through verbatim.
func writeUpstream(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
