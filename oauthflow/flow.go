package oauthflow

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shelfsync/go-shelf-sync/internal/config"
	"github.com/shelfsync/go-shelf-sync/internal/errors"
	"github.com/shelfsync/go-shelf-sync/oauthflow/staterepo"
	"github.com/shelfsync/go-shelf-sync/tokenstore"
)

// stateSeparator joins the session identifier and the CSRF value in the
// composite state parameter ("<session_id>:<csrf>").
const stateSeparator = ":"

// Doer is the HTTP transport capability used for the token exchange.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Login is the result of initiating an authorization flow.
type Login struct {
	SessionID    string
	AuthorizeURL string
}

// Service drives the authorization-code flow against the platform: it builds
// authorization URLs, validates returned state, and exchanges codes for
// bearer tokens.
type Service struct {
	cfg    config.OAuthConfig
	states staterepo.Repo
	tokens tokenstore.Repo
	http   Doer
}

// NewService creates an OAuth flow service.
func NewService(cfg config.OAuthConfig, states staterepo.Repo, tokens tokenstore.Repo, doer Doer) *Service {
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{
		cfg:    cfg,
		states: states,
		tokens: tokens,
		http:   doer,
	}
}

// BeginLogin generates a session identifier and CSRF state, records them in
// the state registry, and returns the authorization URL to redirect to.
func (s *Service) BeginLogin() (Login, error) {
	sessionID := uuid.New().String()
	state := generateRandomString(24)

	if err := s.states.Upsert(sessionID, &staterepo.LoginState{
		State:     state,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return Login{}, errors.Wrapf(err, "[BeginLogin] store state")
	}

	authorizeURL := s.authorizeURL(sessionID, state)
	log.Info().Str("session_id", sessionID).Msg("generated OAuth URL")

	return Login{SessionID: sessionID, AuthorizeURL: authorizeURL}, nil
}

// HandleCallback validates the authorization callback, exchanges the code for
// a token, and stores it under the resolved session identifier.
func (s *Service) HandleCallback(ctx context.Context, code, state, errorParam, errorDesc string) (string, error) {
	if errorParam != "" {
		return "", &errors.ProviderError{Code: errorParam, Description: errorDesc}
	}
	if code == "" {
		return "", errors.ErrMissingCode
	}
	if state == "" {
		return "", errors.ErrMissingState
	}

	sessionID, expected, err := s.lookupState(state)
	if err != nil {
		return "", err
	}

	received := state
	if idx := strings.Index(state, stateSeparator); idx != -1 {
		received = state[idx+1:]
	}
	if subtle.ConstantTimeCompare([]byte(received), []byte(expected)) != 1 {
		log.Error().Str("session_id", sessionID).Msg("state mismatch")
		return "", errors.ErrStateMismatch
	}

	token, err := s.exchangeCode(ctx, code)
	if err != nil {
		return "", err
	}

	if err := s.tokens.Upsert(sessionID, token); err != nil {
		return "", errors.Wrapf(err, "[HandleCallback] store token")
	}

	// Consume the state entry. Deletion is idempotent; a re-delete of an
	// already absent entry must not fail the flow.
	if err := s.states.Delete(sessionID); err != nil {
		return "", errors.Wrapf(err, "[HandleCallback] delete state")
	}

	log.Info().Str("session_id", sessionID).Msg("OAuth authentication successful - token obtained and stored")
	return sessionID, nil
}

// lookupState resolves the registered CSRF value for a callback state
// parameter. The composite format carries the session identifier; the legacy
// bare format requires scanning the registry for a matching value.
func (s *Service) lookupState(state string) (sessionID, expected string, err error) {
	if idx := strings.Index(state, stateSeparator); idx != -1 {
		sessionID = state[:idx]
		entry, err := s.states.Get(sessionID)
		if err != nil {
			log.Error().Str("session_id", sessionID).Msg("session not found for callback state")
			return "", "", errors.ErrUnknownSession
		}
		return sessionID, entry.State, nil
	}

	sessionID, err = s.states.FindByState(state)
	if err != nil {
		log.Error().Msg("state not found in any session")
		return "", "", errors.ErrInvalidState
	}
	return sessionID, state, nil
}

// exchangeCode swaps the authorization code for an access token. The token
// endpoint takes its parameters as a JSON body.
func (s *Service) exchangeCode(ctx context.Context, code string) (string, error) {
	payload := map[string]string{
		"grant_type":    "authorization_code",
		"code":          code,
		"client_id":     s.cfg.GetClientID(),
		"client_secret": s.cfg.GetClientSecret(),
		"redirect_uri":  s.cfg.GetRedirectURI(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrapf(err, "[exchangeCode] marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GetTokenURL(), bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrapf(err, "[exchangeCode] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "[exchangeCode] token request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "[exchangeCode] read response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", &errors.UpstreamError{Operation: "token exchange", Status: resp.StatusCode, Body: string(respBody)}
	}

	var tokenInfo struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(respBody, &tokenInfo); err != nil {
		return "", errors.Wrapf(err, "[exchangeCode] decode response")
	}
	if tokenInfo.AccessToken == "" {
		return "", errors.ErrNoAccessToken
	}

	return tokenInfo.AccessToken, nil
}

// authorizeURL composes the authorization redirect with the composite state.
func (s *Service) authorizeURL(sessionID, state string) string {
	params := url.Values{}
	params.Set("client_id", s.cfg.GetClientID())
	params.Set("scope", NormalizeScope(s.cfg.GetScope()))
	params.Set("redirect_uri", s.cfg.GetRedirectURI())
	params.Set("state", sessionID+stateSeparator+state)

	// The provider rejects '+'-encoded spaces in the scope parameter.
	query := strings.ReplaceAll(params.Encode(), "+", "%20")
	return s.cfg.GetAuthURL() + "?" + query
}

// NormalizeScope collapses comma and plus separators into single spaces.
func NormalizeScope(scope string) string {
	scope = strings.ReplaceAll(scope, ",", " ")
	scope = strings.ReplaceAll(scope, "+", " ")
	return strings.Join(strings.Fields(scope), " ")
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
