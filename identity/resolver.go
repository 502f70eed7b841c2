package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/shelfsync/go-shelf-sync/basalam"
	"github.com/shelfsync/go-shelf-sync/internal/errors"
)

// Client is the slice of the platform API the resolver depends on.
type Client interface {
	Me(ctx context.Context, token string) (*basalam.UserProfile, basalam.Response, error)
	ListShelves(ctx context.Context, token string, ownerID int64) (basalam.Response, error)
}

// Resolution is the outcome of resolving a vendor identity. It is derived per
// request, never stored.
//
// Degraded marks the fallback path: the profile carried no vendor identifier
// but the shelf-list request keyed by the *user* identifier succeeded. The
// fallback payload is kept separate from normal resolution so callers can
// observe which path produced their data.
type Resolution struct {
	UserID      int64
	UserName    string
	VendorID    int64
	VendorTitle string
	Degraded    bool
	Fallback    json.RawMessage
}

// Resolver extracts a vendor identifier from the authenticated user profile.
type Resolver struct {
	client Client
}

// NewResolver creates a vendor identity resolver.
func NewResolver(client Client) *Resolver {
	return &Resolver{client: client}
}

// ResolveVendor fetches the user profile and extracts the vendor identifier.
// When the profile has no vendor identifier it attempts the shelf-list call
// with the user identifier instead; a 200 there is surfaced as a degraded
// resolution, anything else as a VendorResolutionError with full diagnostics.
func (r *Resolver) ResolveVendor(ctx context.Context, token string) (Resolution, error) {
	profile, resp, err := r.client.Me(ctx, token)
	if err != nil {
		return Resolution{}, err
	}

	resolution := Resolution{
		UserID:   profile.ID,
		UserName: profile.Name,
	}
	if profile.Vendor != nil {
		resolution.VendorID = profile.Vendor.ID
		resolution.VendorTitle = profile.Vendor.Title
	}

	if resolution.VendorID == 0 {
		return r.resolveFallback(ctx, token, resolution, resp.Body)
	}

	if resolution.VendorID == resolution.UserID {
		// Not treated as an error; downstream calls proceed with whichever
		// identifier was resolved.
		log.Warn().
			Int64("vendor_id", resolution.VendorID).
			Int64("user_id", resolution.UserID).
			Msg("vendor ID equals user ID - this might be the issue")
	}

	log.Info().
		Int64("vendor_id", resolution.VendorID).
		Int64("user_id", resolution.UserID).
		Msg("using vendor ID for shelves API")
	return resolution, nil
}

func (r *Resolver) resolveFallback(ctx context.Context, token string, resolution Resolution, profileBody []byte) (Resolution, error) {
	log.Warn().Int64("user_id", resolution.UserID).Msg("no vendor ID found in user data, trying fallback with user ID")

	fallback, err := r.client.ListShelves(ctx, token, resolution.UserID)
	if err != nil {
		return Resolution{}, errors.Wrapf(err, "[ResolveVendor] fallback shelf list")
	}

	if fallback.Status == http.StatusOK {
		// The user may lack vendor privileges, or the vendor field structure
		// changed upstream. Hand the fallback payload back as-is.
		log.Warn().Int64("user_id", resolution.UserID).Msg("fallback with user ID worked, returning degraded resolution")
		resolution.Degraded = true
		resolution.Fallback = append(json.RawMessage(nil), fallback.Body...)
		return resolution, nil
	}

	return Resolution{}, &errors.VendorResolutionError{
		UserID:         resolution.UserID,
		ProfileKeys:    profileKeys(profileBody),
		FallbackStatus: fallback.Status,
		FallbackBody:   string(fallback.Body),
	}
}

// profileKeys lists the top-level keys present on the profile payload, for
// the diagnostic context of a failed resolution.
func profileKeys(body []byte) []string {
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil
	}
	keys := make([]string, 0, len(decoded))
	for k := range decoded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
