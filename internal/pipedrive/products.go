package pipedrive

import (
	"context"
	"fmt"
	"net/url"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/internal/normalize"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// productData is the wire shape of a catalog product. Search results omit
// active_flag, so it defaults to active when absent.
type productData struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	ActiveFlag *bool          `json:"active_flag,omitempty"`
	AddTime    string         `json:"add_time,omitempty"`
	Prices     []productPrice `json:"prices,omitempty"`
}

type productPrice struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
}

func (p productData) toProduct() types.Product {
	out := types.Product{
		ID:        p.ID,
		Name:      p.Name,
		IsActive:  p.ActiveFlag == nil || *p.ActiveFlag,
		CreatedAt: parseAddTime(p.AddTime),
	}
	if len(p.Prices) > 0 {
		out.UnitPrice = p.Prices[0].Price
	}
	return out
}

// searchData wraps product search results.
type searchData struct {
	Items []struct {
		Item productData `json:"item"`
	} `json:"items"`
}

// FindProduct searches the catalog for an active product matching the
// normalized name. Exact matching requires the normalized catalog name to
// equal the search name; fuzzy matching accepts the best candidate above
// the similarity threshold, preferring the most recently created on ties.
// Returns (nil, nil) when nothing matches.
func (c *Client) FindProduct(ctx context.Context, normalizedName string, strategy types.MatchStrategy) (*types.Product, error) {
	query := url.Values{}
	query.Set("term", normalizedName)
	if strategy == types.MatchExact {
		query.Set("exact_match", "1")
	} else {
		query.Set("exact_match", "0")
	}

	var data searchData
	if err := c.do(ctx, "GET", "/products/search", query, nil, &data); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}

	candidates := make([]types.Product, 0, len(data.Items))
	for _, item := range data.Items {
		p := item.Item.toProduct()
		if !p.IsActive {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if strategy == types.MatchFuzzy {
		return normalize.BestMatch(normalizedName, candidates, c.fuzzyThreshold), nil
	}

	for _, p := range candidates {
		if normalize.Name(p.Name) == normalizedName {
			match := p
			return &match, nil
		}
	}
	return nil, nil
}

// createProductRequest is the creation payload. visible_to 3 shares the
// product with the whole company.
type createProductRequest struct {
	Name       string         `json:"name"`
	ActiveFlag bool           `json:"active_flag"`
	VisibleTo  int            `json:"visible_to"`
	Prices     []productPrice `json:"prices,omitempty"`
}

// CreateProduct adds a product to the catalog at the given per-unit price.
func (c *Client) CreateProduct(ctx context.Context, name string, unitPrice float64) (*types.Product, error) {
	// Pipedrive caps product names at 255 characters. Cut on a rune
	// boundary so multi-byte names stay valid UTF-8.
	if runes := []rune(name); len(runes) > 255 {
		name = string(runes[:255])
	}
	reqBody := createProductRequest{
		Name:       name,
		ActiveFlag: true,
		VisibleTo:  3,
		Prices:     []productPrice{{Price: unitPrice, Currency: "USD"}},
	}

	var data productData
	if err := c.do(ctx, "POST", "/products", nil, reqBody, &data); err != nil {
		return nil, err
	}

	product := data.toProduct()
	if product.UnitPrice == 0 {
		product.UnitPrice = unitPrice
	}
	if product.ID == 0 {
		return nil, fmt.Errorf("pipedrive: product %q created without an ID", name)
	}
	return &product, nil
}
