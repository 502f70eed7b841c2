package basalam

import (
	"bytes"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/shelfsync/go-shelf-sync/internal/errors"
)

// UserProfile is the authenticated user as returned by /v3/users/me.
type UserProfile struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Vendor *Vendor `json:"vendor"`
}

// Vendor is the nested vendor object on a user profile. The vendor ID is
// distinct from the user's own ID and is what the shelf APIs are keyed by.
type Vendor struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Shelf is a vendor-defined named collection of products.
type Shelf struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Photo is the resolution-keyed image representation on a product.
type Photo struct {
	ExtraSmall string `json:"extra_small,omitempty"`
	Small      string `json:"small,omitempty"`
	Medium     string `json:"medium,omitempty"`
	Large      string `json:"large,omitempty"`
}

// Product is a single product on a shelf. The raw upstream JSON is retained
// so bulk results can return the full product snapshot verbatim.
type Product struct {
	ID          int64  `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Photo       *Photo `json:"photo,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the known fields and keeps the original payload.
func (p *Product) UnmarshalJSON(data []byte) error {
	type product Product
	var decoded product
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Product(decoded)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON round-trips the original upstream payload when present, so a
// snapshot in a bulk result is exactly what the platform returned.
func (p Product) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	type product Product
	return json.Marshal(product(p))
}

// NormalizeProducts turns the heterogeneous shelf-products response shapes
// into a single ordered product list. The upstream returns either a bare
// array or an object with the array nested under a "data" key; anything else
// is logged and reported as ErrUnexpectedShape with the raw body preserved
// by the caller.
func NormalizeProducts(raw []byte) ([]Product, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.ErrUnexpectedShape
	}

	switch trimmed[0] {
	case '[':
		var products []Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, errors.Wrapf(err, "[NormalizeProducts] decode array")
		}
		return products, nil
	case '{':
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, errors.Wrapf(err, "[NormalizeProducts] decode object")
		}
		if wrapped.Data == nil {
			log.Warn().Msg("unexpected products data structure: object without data key")
			return nil, errors.ErrUnexpectedShape
		}
		var products []Product
		if err := json.Unmarshal(wrapped.Data, &products); err != nil {
			return nil, errors.Wrapf(err, "[NormalizeProducts] decode data array")
		}
		return products, nil
	default:
		log.Warn().Msg("unexpected products data structure")
		return nil, errors.ErrUnexpectedShape
	}
}
