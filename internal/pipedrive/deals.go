package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// dealData is the wire shape of a deal. Value arrives as a number or a
// numeric string depending on account settings.
type dealData struct {
	ID    int             `json:"id"`
	Value json.RawMessage `json:"value"`
}

func (d dealData) value() float64 {
	if len(d.Value) == 0 {
		return 0
	}
	var f float64
	if json.Unmarshal(d.Value, &f) == nil {
		return f
	}
	var s string
	if json.Unmarshal(d.Value, &s) == nil {
		fmt.Sscanf(s, "%f", &f) //nolint:errcheck // unparseable value reads as 0
	}
	return f
}

// attachmentData is the wire shape of a deal product attachment.
type attachmentData struct {
	ID          int     `json:"id"`
	ProductID   int     `json:"product_id"`
	ItemPrice   float64 `json:"item_price"`
	Quantity    int     `json:"quantity"`
	EnabledFlag *bool   `json:"enabled_flag,omitempty"`
}

func (a attachmentData) toLineItem() types.DealLineItem {
	return types.DealLineItem{
		ID:        a.ID,
		ProductID: a.ProductID,
		Quantity:  a.Quantity,
		Price:     a.ItemPrice,
	}
}

// GetDeal fetches a deal and its product line items. Returns (nil, nil)
// when the deal does not exist; orphan policy is the caller's decision.
func (c *Client) GetDeal(ctx context.Context, dealID int) (*types.Deal, error) {
	var data dealData
	err := c.do(ctx, "GET", fmt.Sprintf("/deals/%d", dealID), nil, nil, &data)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	deal := &types.Deal{ID: data.ID, Value: data.value()}

	var attachments []attachmentData
	err = c.do(ctx, "GET", fmt.Sprintf("/deals/%d/products", dealID), nil, nil, &attachments)
	if err != nil && err != errNotFound {
		return nil, err
	}
	for _, a := range attachments {
		if a.EnabledFlag != nil && !*a.EnabledFlag {
			continue
		}
		deal.LineItems = append(deal.LineItems, a.toLineItem())
	}
	return deal, nil
}

// attachProductRequest is the line item creation payload.
type attachProductRequest struct {
	ProductID   int     `json:"product_id"`
	ItemPrice   float64 `json:"item_price"`
	Quantity    int     `json:"quantity"`
	Discount    float64 `json:"discount"`
	EnabledFlag bool    `json:"enabled_flag"`
}

// CreateLineItem attaches a product to a deal at the given quantity and
// per-unit price.
func (c *Client) CreateLineItem(ctx context.Context, dealID, productID, quantity int, price float64) (*types.DealLineItem, error) {
	reqBody := attachProductRequest{
		ProductID:   productID,
		ItemPrice:   price,
		Quantity:    quantity,
		EnabledFlag: true,
	}

	var data attachmentData
	path := fmt.Sprintf("/deals/%d/products", dealID)
	if err := c.do(ctx, "POST", path, nil, reqBody, &data); err != nil {
		return nil, err
	}
	li := data.toLineItem()
	return &li, nil
}

// UpdateLineItem changes the quantity of an existing deal product
// attachment. Price is left untouched.
func (c *Client) UpdateLineItem(ctx context.Context, dealID, lineItemID, quantity int) error {
	path := fmt.Sprintf("/deals/%d/products/%d", dealID, lineItemID)
	return c.do(ctx, "PUT", path, nil, map[string]any{"quantity": quantity}, nil)
}

// UpdateDealValue writes the deal's total value.
func (c *Client) UpdateDealValue(ctx context.Context, dealID int, value float64) error {
	path := fmt.Sprintf("/deals/%d", dealID)
	return c.do(ctx, "PUT", path, nil, map[string]any{"value": value}, nil)
}
