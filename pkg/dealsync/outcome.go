package dealsync

import (
	"fmt"
	"strings"
)

// Item is a desired line: this product at this quantity. Price travels with
// the product so newly created line items carry the catalog rate.
type Item struct {
	ProductID   int
	ProductName string
	Quantity    int
	Price       float64
}

// Discrepancy records a quantity decrease the active profile refused to
// apply. Non-fatal: the rest of the deal still synchronizes.
type Discrepancy struct {
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	CurrentQty  int     `json:"current_quantity"`
	DesiredQty  int     `json:"desired_quantity"`
	Price       float64 `json:"price"`
}

// String renders the discrepancy for logs and reports.
func (d Discrepancy) String() string {
	name := d.ProductName
	if name == "" {
		name = fmt.Sprintf("product %d", d.ProductID)
	}
	return fmt.Sprintf("%s: quantity %d exceeds desired %d (decrease not allowed)",
		name, d.CurrentQty, d.DesiredQty)
}

// Outcome represents the complete result of synchronizing one deal.
type Outcome struct {
	ItemsCreated int // Line items created on the deal
	ItemsUpdated int // Existing line items whose quantity changed

	ValueBefore float64 // Deal value as stored before the sync
	ValueAfter  float64 // Deal value after line items settled

	// Discrepancies lists desired decreases the profile blocked.
	Discrepancies []Discrepancy

	DryRun bool // Whether writes were simulated
}

// HasChanges returns true if the outcome contains any line item changes or
// a deal value correction.
func (o *Outcome) HasChanges() bool {
	return o.ItemsCreated > 0 || o.ItemsUpdated > 0 || o.ValueBefore != o.ValueAfter
}

// ValueAdded returns the net change in deal value.
func (o *Outcome) ValueAdded() float64 {
	return o.ValueAfter - o.ValueBefore
}

// Summary returns a human-readable summary of the outcome.
func (o *Outcome) Summary() string {
	if !o.HasChanges() && len(o.Discrepancies) == 0 {
		return "No changes"
	}

	parts := []string{
		fmt.Sprintf("%d created, %d updated, value %.2f -> %.2f",
			o.ItemsCreated, o.ItemsUpdated, o.ValueBefore, o.ValueAfter),
	}
	if len(o.Discrepancies) > 0 {
		parts = append(parts, fmt.Sprintf("%d discrepancies", len(o.Discrepancies)))
	}
	if o.DryRun {
		parts = append(parts, "(dry run)")
	}
	return strings.Join(parts, " ")
}
