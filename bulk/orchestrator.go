package bulk

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/shelfsync/go-shelf-sync/basalam"
	"github.com/shelfsync/go-shelf-sync/internal/errors"
)

// ProductAPI is the slice of the platform API the orchestrator depends on.
type ProductAPI interface {
	ShelfProducts(ctx context.Context, token string, shelfID int64) ([]basalam.Product, basalam.Response, error)
	Patcher
}

// FailedProduct pairs a product snapshot with the upstream error detail.
type FailedProduct struct {
	Product basalam.Product `json:"product"`
	Error   string          `json:"error"`
}

// Result aggregates one bulk invocation. Every product with an identifier
// lands in exactly one of the two sequences; products without identifiers are
// skipped and counted nowhere.
type Result struct {
	Success         bool              `json:"success"`
	UpdatedCount    int               `json:"updated_count"`
	FailedCount     int               `json:"failed_count"`
	UpdatedProducts []basalam.Product `json:"updated_products"`
	FailedProducts  []FailedProduct   `json:"failed_products"`
}

// Orchestrator applies one mutation to every product on a shelf, isolating
// per-product failures so one bad product never aborts the batch.
type Orchestrator struct {
	api            ProductAPI
	workers        int
	productTimeout time.Duration
	strategies     []ImageStrategy
}

// NewOrchestrator creates a bulk mutation orchestrator. Workers bounds the
// concurrent upstream load from a single batch; productTimeout caps each
// product's mutation, strategy chain included.
func NewOrchestrator(api ProductAPI, workers int, productTimeout time.Duration) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		api:            api,
		workers:        workers,
		productTimeout: productTimeout,
		strategies:     ImageStrategies(api),
	}
}

// UpdateDescriptions replaces the description of every product on the shelf.
func (o *Orchestrator) UpdateDescriptions(ctx context.Context, token string, shelfID int64, description string) (Result, error) {
	return o.run(ctx, token, shelfID, func(ctx context.Context, product basalam.Product) Attempt {
		payload := map[string]string{"description": description}
		attempt, err := toAttempt(o.api.PatchProduct(ctx, token, product.ID, payload))
		if err != nil {
			// A transport failure degrades this product, not the batch.
			log.Error().Err(err).Int64("product_id", product.ID).Msg("failed to update product")
			return Attempt{Status: 500, Body: err.Error()}
		}
		if attempt.OK() {
			log.Info().Int64("product_id", product.ID).Msg("description updated successfully")
		} else {
			log.Error().Int("status", attempt.Status).Int64("product_id", product.ID).Msg("failed to update product")
		}
		return attempt
	})
}

// UpdateImages replaces the image of every product on the shelf, delegating
// each product to the strategy chain.
func (o *Orchestrator) UpdateImages(ctx context.Context, token string, shelfID int64, img Image) (Result, error) {
	return o.run(ctx, token, shelfID, func(ctx context.Context, product basalam.Product) Attempt {
		return applyChain(ctx, token, product.ID, img, o.strategies)
	})
}

// run fetches the shelf's products and applies mutate to each one through a
// bounded worker pool. A failed sibling never cancels the others; results are
// reported in shelf order regardless of completion order.
func (o *Orchestrator) run(ctx context.Context, token string, shelfID int64, mutate func(context.Context, basalam.Product) Attempt) (Result, error) {
	products, _, err := o.api.ShelfProducts(ctx, token, shelfID)
	if err != nil {
		if errors.Is(err, errors.ErrUnexpectedShape) {
			// Nothing iterable came back; an empty batch, not a failure.
			products = nil
		} else {
			return Result{}, err
		}
	}

	attempts := make([]*Attempt, len(products))

	var group errgroup.Group
	group.SetLimit(o.workers)
	for i, product := range products {
		if product.ID == 0 {
			// No identifier to PATCH against; not a success, not a failure.
			continue
		}
		group.Go(func() error {
			productCtx := ctx
			if o.productTimeout > 0 {
				var cancel context.CancelFunc
				productCtx, cancel = context.WithTimeout(ctx, o.productTimeout)
				defer cancel()
			}
			attempt := mutate(productCtx, product)
			attempts[i] = &attempt
			return nil
		})
	}
	_ = group.Wait()

	result := Result{
		Success:         true,
		UpdatedProducts: []basalam.Product{},
		FailedProducts:  []FailedProduct{},
	}
	for i, attempt := range attempts {
		if attempt == nil {
			continue // skipped
		}
		if attempt.OK() {
			result.UpdatedProducts = append(result.UpdatedProducts, products[i])
		} else {
			result.FailedProducts = append(result.FailedProducts, FailedProduct{
				Product: products[i],
				Error:   attempt.Body,
			})
		}
	}
	result.UpdatedCount = len(result.UpdatedProducts)
	result.FailedCount = len(result.FailedProducts)
	return result, nil
}
