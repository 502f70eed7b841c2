package basalam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/shelfsync/go-shelf-sync/internal/errors"
)

// Doer is the HTTP transport capability the client is built on: perform a
// request, receive status and body.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response carries an upstream status and body without interpreting either.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the upstream accepted the request.
func (r Response) OK() bool {
	return r.Status == http.StatusOK
}

// JSON decodes the response body into v.
func (r Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Client talks to the Basalam core API with a bearer token per call.
type Client struct {
	baseURL string
	http    Doer
}

// Option configures a Client.
type Option func(*Client)

// WithDoer swaps the HTTP transport, mainly for tests.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// NewClient creates a Basalam API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an authenticated GET against path.
func (c *Client) Get(ctx context.Context, token, path string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return Response{}, errors.Wrapf(err, "[Client Get] build request %s", path)
	}
	c.setAuthHeaders(req, token)
	return c.do(req)
}

// PatchJSON performs an authenticated PATCH with a JSON body against path.
func (c *Client) PatchJSON(ctx context.Context, token, path string, payload any) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, errors.Wrapf(err, "[Client PatchJSON] marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Response{}, errors.Wrapf(err, "[Client PatchJSON] build request %s", path)
	}
	c.setAuthHeaders(req, token)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// PatchMultipart performs an authenticated PATCH carrying raw bytes as a
// multipart form file. No content type is forced beyond the multipart
// boundary; the part's own content type is set from the upload.
func (c *Client) PatchMultipart(ctx context.Context, token, path, field, filename, contentType string, data []byte) (Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)}
	if contentType != "" {
		header["Content-Type"] = []string{contentType}
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return Response{}, errors.Wrapf(err, "[Client PatchMultipart] create part")
	}
	if _, err := part.Write(data); err != nil {
		return Response{}, errors.Wrapf(err, "[Client PatchMultipart] write part")
	}
	if err := writer.Close(); err != nil {
		return Response{}, errors.Wrapf(err, "[Client PatchMultipart] close writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, &buf)
	if err != nil {
		return Response{}, errors.Wrapf(err, "[Client PatchMultipart] build request %s", path)
	}
	c.setAuthHeaders(req, token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req)
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context, token string) (*UserProfile, Response, error) {
	resp, err := c.Get(ctx, token, "/v3/users/me")
	if err != nil {
		return nil, resp, err
	}
	if !resp.OK() {
		return nil, resp, &errors.UpstreamError{Operation: "get user info", Status: resp.Status, Body: string(resp.Body)}
	}

	var profile UserProfile
	if err := resp.JSON(&profile); err != nil {
		return nil, resp, errors.Wrapf(err, "[Client Me] decode profile")
	}
	return &profile, resp, nil
}

// ListShelves fetches the shelf list for a vendor (or, on the degraded
// fallback path, a user) identifier. The body is passed through undecoded
// because the shelf list is read-only from this service's perspective.
func (c *Client) ListShelves(ctx context.Context, token string, ownerID int64) (Response, error) {
	return c.Get(ctx, token, fmt.Sprintf("/api_v2/shelve/list/%d", ownerID))
}

// ShelfProducts fetches and normalizes the products on a shelf. The raw
// response is returned alongside so callers can pass unknown shapes through.
func (c *Client) ShelfProducts(ctx context.Context, token string, shelfID int64) ([]Product, Response, error) {
	resp, err := c.Get(ctx, token, fmt.Sprintf("/api_v2/shelve/%d/products", shelfID))
	if err != nil {
		return nil, resp, err
	}
	if !resp.OK() {
		return nil, resp, &errors.UpstreamError{Operation: "get shelf products", Status: resp.Status, Body: string(resp.Body)}
	}

	products, err := NormalizeProducts(resp.Body)
	if err != nil {
		return nil, resp, err
	}
	return products, resp, nil
}

// PatchProduct applies a JSON mutation to a single product.
func (c *Client) PatchProduct(ctx context.Context, token string, productID int64, payload any) (Response, error) {
	return c.PatchJSON(ctx, token, fmt.Sprintf("/v4/products/%d", productID), payload)
}

// PatchProductMultipart applies a multipart mutation to a single product.
func (c *Client) PatchProductMultipart(ctx context.Context, token string, productID int64, field, filename, contentType string, data []byte) (Response, error) {
	return c.PatchMultipart(ctx, token, fmt.Sprintf("/v4/products/%d", productID), field, filename, contentType, data)
}

func (c *Client) setAuthHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) do(req *http.Request) (Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, errors.Wrapf(err, "[Client do] %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, errors.Wrapf(err, "[Client do] read body")
	}
	return Response{Status: resp.StatusCode, Body: body}, nil
}
