package basalam_test

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfsync/go-shelf-sync/basalam"
	"github.com/shelfsync/go-shelf-sync/internal/errors"
)

func TestMe(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/users/me", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"id": 100, "name": "seller", "vendor": {"id": 555, "title": "pottery"}}`))
	}))
	defer upstream.Close()

	profile, resp, err := basalam.NewClient(upstream.URL).Me(context.Background(), "token-1")
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Equal(t, int64(100), profile.ID)
	require.Equal(t, int64(555), profile.Vendor.ID)
}

func TestMeUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "token expired"}`))
	}))
	defer upstream.Close()

	_, _, err := basalam.NewClient(upstream.URL).Me(context.Background(), "token-1")

	var upstreamErr *errors.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, http.StatusUnauthorized, upstreamErr.Status)
	require.Contains(t, upstreamErr.Body, "token expired")
}

func TestShelfProducts(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api_v2/shelve/10/products", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": [{"id": 1, "title": "mug"}]}`))
	}))
	defer upstream.Close()

	products, resp, err := basalam.NewClient(upstream.URL).ShelfProducts(context.Background(), "token-1", 10)
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Len(t, products, 1)
	require.Equal(t, int64(1), products[0].ID)
}

func TestPatchProduct(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/v4/products/7", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"description": "text"}`, string(body))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	resp, err := basalam.NewClient(upstream.URL).PatchProduct(context.Background(), "token-1", 7, map[string]string{"description": "text"})
	require.NoError(t, err)
	require.True(t, resp.OK())
}

func TestPatchProductMultipart(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		reader := multipart.NewReader(r.Body, params["boundary"])
		part, err := reader.NextPart()
		require.NoError(t, err)
		require.Equal(t, "image", part.FormName())
		require.Equal(t, "cover.png", part.FileName())
		require.Equal(t, "image/png", part.Header.Get("Content-Type"))

		data, err := io.ReadAll(part)
		require.NoError(t, err)
		require.Equal(t, []byte("png-bytes"), data)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	resp, err := basalam.NewClient(upstream.URL).PatchProductMultipart(
		context.Background(), "token-1", 7, "image", "cover.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	require.True(t, resp.OK())
}
