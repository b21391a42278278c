// Package catalog resolves company names to CRM catalog products. A
// resolver either finds an existing active product under the profile's match
// strategy or, when the profile allows it, creates one at the configured
// per-headcount rate. Found products are returned unchanged: the catalog is
// never silently rewritten.
package catalog

import (
	"context"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/internal/normalize"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/logging"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/profile"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// CRM is the product catalog surface the resolver needs. FindProduct looks
// up an active product by normalized name under the given strategy and
// returns nil without error when nothing matches.
type CRM interface {
	FindProduct(ctx context.Context, normalizedName string, strategy types.MatchStrategy) (*types.Product, error)
	CreateProduct(ctx context.Context, name string, unitPrice float64) (*types.Product, error)
}

// Resolver finds or creates catalog products for company names. It holds no
// cache: every Resolve call re-queries the CRM, so a product created earlier
// in a run is found (not re-created) by later calls, and external catalog
// edits mid-batch are observed rather than shadowed.
type Resolver struct {
	crm     CRM
	profile profile.Profile
}

// NewResolver creates a resolver bound to a CRM and an immutable profile.
func NewResolver(crm CRM, p profile.Profile) *Resolver {
	return &Resolver{crm: crm, profile: p}
}

// Resolve returns the catalog product for a company name. Product creation
// is the only mutation, performed solely when the profile enables it. In dry
// run mode a missing product is simulated (zero ID, profile unit price) so
// the preview matches what a live run would create, without issuing writes.
func (r *Resolver) Resolve(ctx context.Context, companyName string, dryRun bool) (*types.Product, error) {
	name := normalize.Name(companyName)
	if name == "" {
		return nil, errors.NewResolveError(companyName, errors.ErrInvalidName)
	}

	product, err := r.crm.FindProduct(ctx, name, r.profile.MatchStrategy)
	if err != nil {
		return nil, errors.NewResolveError(companyName, err)
	}
	if product != nil {
		logging.Debug().
			Str("company", companyName).
			Int("product_id", product.ID).
			Msg("Matched existing catalog product")
		return product, nil
	}

	if !r.profile.AutoCreateProducts {
		return nil, errors.NewResolveError(companyName, errors.ErrCreationDisabled)
	}

	if dryRun {
		logging.Debug().
			Str("company", companyName).
			Msg("Dry run: would create catalog product")
		return &types.Product{Name: name, UnitPrice: r.profile.UnitPrice, IsActive: true}, nil
	}

	product, err = r.crm.CreateProduct(ctx, name, r.profile.UnitPrice)
	if err != nil {
		return nil, errors.NewResolveError(companyName, err)
	}

	logging.Info().
		Str("company", companyName).
		Int("product_id", product.ID).
		Float64("unit_price", r.profile.UnitPrice).
		Msg("Created catalog product")

	return product, nil
}
