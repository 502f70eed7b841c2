package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shelfsync/go-shelf-sync/internal/errors"
)

// AuthStatusHandler reports whether the caller's session holds a token.
func (s *Server) AuthStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, authenticated := s.sessionToken(r)
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
	}
}

// HealthHandler reports process liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":                 "healthy",
			"server_time":            time.Now().UTC().Format(time.RFC3339),
			"authenticated_sessions": s.tokens.Count(),
		})
	}
}

// DebugTokenHandler exposes token presence without exposing the token.
func (s *Server) DebugTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _ := s.sessionToken(r)

		prefix := token
		if len(token) > 50 {
			prefix = token[:50] + "..."
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"has_token":        token != "",
			"token_length":     len(token),
			"token_prefix":     prefix,
			"all_tokens_count": s.tokens.Count(),
		})
	}
}

// UserInfoHandler proxies the authenticated user's profile.
func (s *Server) UserInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.client.Get(r.Context(), requestToken(r), "/v3/users/me")
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		if !resp.OK() {
			writeError(w, resp.Status, "Failed to get user info")
			return
		}
		writeUpstream(w, http.StatusOK, resp.Body)
	}
}

// DebugUserInfoHandler exposes the raw profile structure for diagnosing
// vendor-id extraction problems.
func (s *Server) DebugUserInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, resp, err := s.client.Me(r.Context(), requestToken(r))
		if err != nil {
			var upstreamErr *errors.UpstreamError
			if errors.As(err, &upstreamErr) {
				writeJSON(w, http.StatusOK, map[string]any{
					"error":         "Failed to get user info",
					"status_code":   upstreamErr.Status,
					"response_text": upstreamErr.Body,
				})
				return
			}
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":       profile.ID,
			"user_name":     profile.Name,
			"vendor_object": profile.Vendor,
			"full_response": json.RawMessage(resp.Body),
		})
	}
}

// ShelvesHandler lists the vendor's shelves. When identity resolution comes
// back degraded the fallback payload is returned as-is, flagged by header so
// the degraded path stays separately observable.
func (s *Server) ShelvesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(r)

		resolution, err := s.resolver.ResolveVendor(r.Context(), token)
		if err != nil {
			var resolutionErr *errors.VendorResolutionError
			if errors.As(err, &resolutionErr) {
				writeError(w, http.StatusBadRequest, resolutionErr.Error())
				return
			}
			var upstreamErr *errors.UpstreamError
			if errors.As(err, &upstreamErr) {
				writeError(w, upstreamErr.Status, "Failed to get user info")
				return
			}
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		if resolution.Degraded {
			w.Header().Set("X-Resolution-Degraded", "user-id-fallback")
			writeUpstream(w, http.StatusOK, resolution.Fallback)
			return
		}

		resp, err := s.client.ListShelves(r.Context(), token, resolution.VendorID)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		if !resp.OK() {
			writeError(w, resp.Status, "Failed to get shelves: "+string(resp.Body))
			return
		}
		writeUpstream(w, http.StatusOK, resp.Body)
	}
}

// ShelfProductsHandler lists the products on a shelf, normalized to a single
// array shape. Unknown upstream shapes pass through unchanged.
func (s *Server) ShelfProductsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shelfID, err := shelfIDFromPath(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid shelf id")
			return
		}

		products, resp, err := s.client.ShelfProducts(r.Context(), requestToken(r), shelfID)
		if err != nil {
			if errors.Is(err, errors.ErrUnexpectedShape) {
				writeUpstream(w, http.StatusOK, resp.Body)
				return
			}
			var upstreamErr *errors.UpstreamError
			if errors.As(err, &upstreamErr) {
				writeError(w, upstreamErr.Status, "Failed to get shelf products")
				return
			}
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

// DebugShelfProductsHandler exposes both the raw and the normalized product
// payload for a shelf.
func (s *Server) DebugShelfProductsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shelfID, err := shelfIDFromPath(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid shelf id")
			return
		}

		products, resp, err := s.client.ShelfProducts(r.Context(), requestToken(r), shelfID)
		if err != nil && !errors.Is(err, errors.ErrUnexpectedShape) {
			var upstreamErr *errors.UpstreamError
			if errors.As(err, &upstreamErr) {
				writeJSON(w, http.StatusOK, map[string]any{
					"error":         "Failed to get shelf products",
					"status_code":   upstreamErr.Status,
					"response_text": upstreamErr.Body,
				})
				return
			}
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		payload := map[string]any{
			"raw_response":       json.RawMessage(resp.Body),
			"processed_response": products,
			"length":             len(products),
		}
		if len(products) > 0 {
			payload["first_product"] = products[0]
			payload["photo_structure"] = products[0].Photo
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func shelfIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("shelf_id"), 10, 64)
}
