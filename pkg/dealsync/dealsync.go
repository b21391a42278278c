// Package dealsync reconciles a deal's product line items against the
// desired companies of a submission. The synchronizer diffs desired
// quantities against what the deal already carries, applies only additive
// changes unless the profile allows decreases, and leaves the deal value
// equal to the sum of its line items. Line items are never deleted.
package dealsync

import (
	"context"
	"sort"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/logging"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/profile"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// CRM is the deal mutation surface the synchronizer needs.
type CRM interface {
	CreateLineItem(ctx context.Context, dealID int, productID int, quantity int, price float64) (*types.DealLineItem, error)
	UpdateLineItem(ctx context.Context, dealID int, lineItemID int, quantity int) error
	UpdateDealValue(ctx context.Context, dealID int, value float64) error
}

// Synchronizer applies desired line items to deals.
type Synchronizer struct {
	crm     CRM
	profile profile.Profile
}

// New creates a synchronizer bound to a CRM and an immutable profile.
func New(crm CRM, p profile.Profile) *Synchronizer {
	return &Synchronizer{crm: crm, profile: p}
}

// Synchronize diffs the desired items against the deal's current line items
// and applies the changes. Desired quantities aggregate by product ID before
// diffing, so one product referenced by several companies sums. In dry run
// mode the identical outcome is computed with zero writes.
func (s *Synchronizer) Synchronize(ctx context.Context, deal *types.Deal, desired []Item, dryRun bool) (*Outcome, error) {
	outcome := &Outcome{
		ValueBefore: deal.Value,
		DryRun:      dryRun,
	}

	wanted := aggregate(desired)

	// Line items the deal already carries, keyed by product. Quantities of
	// untouched items feed the final value either way.
	existing := make(map[int]types.DealLineItem, len(deal.LineItems))
	var valueAfter float64
	for _, li := range deal.LineItems {
		existing[li.ProductID] = li
		valueAfter += li.Sum()
	}

	for _, want := range wanted {
		have, ok := existing[want.ProductID]
		if !ok {
			if !dryRun {
				created, err := s.crm.CreateLineItem(ctx, deal.ID, want.ProductID, want.Quantity, want.Price)
				if err != nil {
					return nil, errors.NewSyncError(deal.ID, err)
				}
				logging.Debug().
					Int("deal_id", deal.ID).
					Int("line_item_id", created.ID).
					Int("product_id", want.ProductID).
					Int("quantity", want.Quantity).
					Msg("Created line item")
			}
			outcome.ItemsCreated++
			valueAfter += float64(want.Quantity) * want.Price
			continue
		}

		if want.Quantity == have.Quantity {
			continue
		}
		if want.Quantity < have.Quantity && !s.profile.AllowQuantityDecrease {
			outcome.Discrepancies = append(outcome.Discrepancies, Discrepancy{
				ProductID:   want.ProductID,
				ProductName: want.ProductName,
				CurrentQty:  have.Quantity,
				DesiredQty:  want.Quantity,
				Price:       have.Price,
			})
			logging.Warn().
				Int("deal_id", deal.ID).
				Int("product_id", want.ProductID).
				Int("current_quantity", have.Quantity).
				Int("desired_quantity", want.Quantity).
				Msg("Quantity decrease blocked by profile")
			continue
		}

		if !dryRun {
			if err := s.crm.UpdateLineItem(ctx, deal.ID, have.ID, want.Quantity); err != nil {
				return nil, errors.NewSyncError(deal.ID, err)
			}
			logging.Debug().
				Int("deal_id", deal.ID).
				Int("line_item_id", have.ID).
				Int("quantity_before", have.Quantity).
				Int("quantity_after", want.Quantity).
				Msg("Updated line item quantity")
		}
		outcome.ItemsUpdated++

		// Existing line items keep their stored price on update.
		valueAfter += float64(want.Quantity-have.Quantity) * have.Price
	}

	outcome.ValueAfter = valueAfter

	// The deal value is corrected whenever it disagrees with the line item
	// total, even when no line items changed this run.
	if !dryRun && valueAfter != deal.Value {
		if err := s.crm.UpdateDealValue(ctx, deal.ID, valueAfter); err != nil {
			return nil, errors.NewSyncError(deal.ID, err)
		}
		logging.Info().
			Int("deal_id", deal.ID).
			Float64("value_before", deal.Value).
			Float64("value_after", valueAfter).
			Msg("Updated deal value")
	}

	return outcome, nil
}

// aggregate collapses desired items by product ID, summing quantities.
// Output order follows ascending product ID so apply order is stable.
func aggregate(desired []Item) []Item {
	byProduct := make(map[int]Item, len(desired))
	for _, item := range desired {
		if agg, ok := byProduct[item.ProductID]; ok {
			agg.Quantity += item.Quantity
			byProduct[item.ProductID] = agg
			continue
		}
		byProduct[item.ProductID] = item
	}

	out := make([]Item, 0, len(byProduct))
	for _, item := range byProduct {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
