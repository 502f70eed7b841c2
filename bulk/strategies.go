package bulk

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/shelfsync/go-shelf-sync/basalam"
)

// Image is the upload applied to every product in an image batch.
type Image struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Attempt is the observable outcome of one mutation attempt: upstream status
// and body, nothing more.
type Attempt struct {
	Status int
	Body   string
}

// OK reports whether the upstream accepted the mutation.
func (a Attempt) OK() bool {
	return a.Status == http.StatusOK
}

// Patcher is the single mutation capability the strategies are built over.
type Patcher interface {
	PatchProduct(ctx context.Context, token string, productID int64, payload any) (basalam.Response, error)
	PatchProductMultipart(ctx context.Context, token string, productID int64, field, filename, contentType string, data []byte) (basalam.Response, error)
}

// ImageStrategy is one encoding of an image mutation. Strategies are tried in
// order until one reports success.
type ImageStrategy struct {
	Name  string
	Apply func(ctx context.Context, token string, productID int64, img Image) (Attempt, error)
}

// ImageStrategies returns the ordered strategy chain for image uploads.
//
// The platform's accepted image-submission shape is not consistent across
// product types, so the chain trades request volume for success probability,
// cheapest encoding first:
//  1. flat field carrying a data-URI image and filename
//  2. the same data-URI nested under a "photo" object
//  3. multipart upload of the raw bytes
func ImageStrategies(p Patcher) []ImageStrategy {
	return []ImageStrategy{
		{
			Name: "data-uri",
			Apply: func(ctx context.Context, token string, productID int64, img Image) (Attempt, error) {
				payload := map[string]string{
					"image":    dataURI(img),
					"filename": img.Filename,
				}
				return toAttempt(p.PatchProduct(ctx, token, productID, payload))
			},
		},
		{
			Name: "photo-object",
			Apply: func(ctx context.Context, token string, productID int64, img Image) (Attempt, error) {
				payload := map[string]any{
					"photo": map[string]string{
						"data":     dataURI(img),
						"filename": img.Filename,
					},
				}
				return toAttempt(p.PatchProduct(ctx, token, productID, payload))
			},
		},
		{
			Name: "multipart",
			Apply: func(ctx context.Context, token string, productID int64, img Image) (Attempt, error) {
				return toAttempt(p.PatchProductMultipart(ctx, token, productID, "image", img.Filename, img.ContentType, img.Data))
			},
		},
	}
}

// applyChain tries each strategy in order, stopping at the first success.
// The product is classified by the last attempted response. Errors from a
// strategy are downgraded to a synthetic 500 attempt so one product's failure
// never escapes the chain.
func applyChain(ctx context.Context, token string, productID int64, img Image, strategies []ImageStrategy) Attempt {
	var last Attempt
	for _, strategy := range strategies {
		attempt, err := strategy.Apply(ctx, token, productID, img)
		if err != nil {
			log.Error().Err(err).Int64("product_id", productID).Str("strategy", strategy.Name).Msg("error during image upload")
			last = Attempt{Status: http.StatusInternalServerError, Body: err.Error()}
			continue
		}
		last = attempt
		if attempt.OK() {
			log.Info().Int64("product_id", productID).Str("strategy", strategy.Name).Msg("image uploaded successfully")
			return last
		}
	}
	log.Error().Int64("product_id", productID).Msg("image upload failed: " + last.Body)
	return last
}

func toAttempt(resp basalam.Response, err error) (Attempt, error) {
	if err != nil {
		return Attempt{}, err
	}
	return Attempt{Status: resp.Status, Body: string(resp.Body)}, nil
}

func dataURI(img Image) string {
	encoded := base64.StdEncoding.EncodeToString(img.Data)
	return fmt.Sprintf("data:%s;base64,%s", img.ContentType, encoded)
}
