package bulk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfsync/go-shelf-sync/basalam"
	"github.com/shelfsync/go-shelf-sync/bulk"
	"github.com/shelfsync/go-shelf-sync/internal/errors"
)

// fakeAPI scripts the product listing and per-product mutation responses.
type fakeAPI struct {
	mu sync.Mutex

	productsBody []byte
	fetchErr     error

	patchJSON      func(productID int64, payload any) (basalam.Response, error)
	patchMultipart func(productID int64) (basalam.Response, error)

	jsonCalls      []int64
	multipartCalls []int64
}

func (f *fakeAPI) ShelfProducts(ctx context.Context, token string, shelfID int64) ([]basalam.Product, basalam.Response, error) {
	if f.fetchErr != nil {
		return nil, basalam.Response{}, f.fetchErr
	}
	products, err := basalam.NormalizeProducts(f.productsBody)
	if err != nil {
		return nil, basalam.Response{Status: http.StatusOK, Body: f.productsBody}, err
	}
	return products, basalam.Response{Status: http.StatusOK, Body: f.productsBody}, nil
}

func (f *fakeAPI) PatchProduct(ctx context.Context, token string, productID int64, payload any) (basalam.Response, error) {
	f.mu.Lock()
	f.jsonCalls = append(f.jsonCalls, productID)
	f.mu.Unlock()
	return f.patchJSON(productID, payload)
}

func (f *fakeAPI) PatchProductMultipart(ctx context.Context, token string, productID int64, field, filename, contentType string, data []byte) (basalam.Response, error) {
	f.mu.Lock()
	f.multipartCalls = append(f.multipartCalls, productID)
	f.mu.Unlock()
	return f.patchMultipart(productID)
}

func respond(status int, body string) (basalam.Response, error) {
	return basalam.Response{Status: status, Body: []byte(body)}, nil
}

func newOrchestrator(api *fakeAPI) *bulk.Orchestrator {
	return bulk.NewOrchestrator(api, 2, time.Second)
}

func productIDs(products []basalam.Product) []int64 {
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestUpdateDescriptions(t *testing.T) {
	api := &fakeAPI{
		productsBody: []byte(`[{"id": 1}, {"id": 2}, {"title": "no id"}, {"id": 3}]`),
		patchJSON: func(productID int64, payload any) (basalam.Response, error) {
			if productID == 2 {
				return respond(http.StatusUnprocessableEntity, `{"detail": "rejected"}`)
			}
			return respond(http.StatusOK, `{}`)
		},
	}

	result, err := newOrchestrator(api).UpdateDescriptions(context.Background(), "token", 10, "new text")
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Equal(t, 2, result.UpdatedCount)
	require.Equal(t, 1, result.FailedCount)
	// The product without an id is skipped, counted nowhere
	require.LessOrEqual(t, result.UpdatedCount+result.FailedCount, 4)

	require.Equal(t, []int64{1, 3}, productIDs(result.UpdatedProducts))
	require.Len(t, result.FailedProducts, 1)
	require.Equal(t, int64(2), result.FailedProducts[0].Product.ID)
	require.Contains(t, result.FailedProducts[0].Error, "rejected")
}

func TestUpdateDescriptionsPayload(t *testing.T) {
	var captured any
	api := &fakeAPI{
		productsBody: []byte(`[{"id": 1}]`),
		patchJSON: func(productID int64, payload any) (basalam.Response, error) {
			captured = payload
			return respond(http.StatusOK, `{}`)
		},
	}

	_, err := newOrchestrator(api).UpdateDescriptions(context.Background(), "token", 10, "fresh description")
	require.NoError(t, err)

	body, err := json.Marshal(captured)
	require.NoError(t, err)
	require.JSONEq(t, `{"description": "fresh description"}`, string(body))
}

func TestUpdateDescriptionsNoDuplicates(t *testing.T) {
	api := &fakeAPI{
		productsBody: []byte(`{"data": [{"id": 1}, {"id": 2}, {"id": 3}, {"id": 4}, {"id": 5}]}`),
		patchJSON: func(productID int64, payload any) (basalam.Response, error) {
			if productID%2 == 0 {
				return respond(http.StatusBadRequest, "no")
			}
			return respond(http.StatusOK, `{}`)
		},
	}

	result, err := newOrchestrator(api).UpdateDescriptions(context.Background(), "token", 10, "text")
	require.NoError(t, err)
	require.Equal(t, 5, result.UpdatedCount+result.FailedCount)

	// Every product appears in at most one of the two output sequences
	seen := map[int64]int{}
	for _, id := range productIDs(result.UpdatedProducts) {
		seen[id]++
	}
	for _, failed := range result.FailedProducts {
		seen[failed.Product.ID]++
	}
	for id, count := range seen {
		require.Equal(t, 1, count, "product %d classified more than once", id)
	}
}

func TestUpdateDescriptionsTransportFailureIsolated(t *testing.T) {
	api := &fakeAPI{
		productsBody: []byte(`[{"id": 1}, {"id": 2}, {"id": 3}]`),
		patchJSON: func(productID int64, payload any) (basalam.Response, error) {
			if productID == 2 {
				return basalam.Response{}, context.DeadlineExceeded
			}
			return respond(http.StatusOK, `{}`)
		},
	}

	result, err := newOrchestrator(api).UpdateDescriptions(context.Background(), "token", 10, "text")
	require.NoError(t, err)

	// One product's transport failure never aborts the loop over the rest
	require.Equal(t, 2, result.UpdatedCount)
	require.Equal(t, 1, result.FailedCount)
	require.Equal(t, int64(2), result.FailedProducts[0].Product.ID)
}

func TestUpdateDescriptionsFetchFailureAborts(t *testing.T) {
	api := &fakeAPI{
		fetchErr: &errors.UpstreamError{Operation: "get shelf products", Status: http.StatusForbidden, Body: "denied"},
	}

	_, err := newOrchestrator(api).UpdateDescriptions(context.Background(), "token", 10, "text")

	var upstreamErr *errors.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, http.StatusForbidden, upstreamErr.Status)
	require.Empty(t, api.jsonCalls)
}

func TestUpdateDescriptionsUnknownShapeIsEmptyBatch(t *testing.T) {
	api := &fakeAPI{
		productsBody: []byte(`{"message": "nothing here"}`),
		patchJSON: func(productID int64, payload any) (basalam.Response, error) {
			return respond(http.StatusOK, `{}`)
		},
	}

	result, err := newOrchestrator(api).UpdateDescriptions(context.Background(), "token", 10, "text")
	require.NoError(t, err)
	require.Zero(t, result.UpdatedCount)
	require.Zero(t, result.FailedCount)
	require.Empty(t, api.jsonCalls)
}
