// Package linker reconciles company submissions against CRM deals. Each
// submission's companies are resolved to catalog products and attached to
// the submission's deal as line items, quantity equal to headcount, leaving
// the deal value equal to the sum of its line items. Behavior is governed by
// an immutable profile; a dry run computes identical outcomes with zero
// writes.
package linker

import (
	"context"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/catalog"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/dealsync"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/profile"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// Store is the submission source. FetchSubmissions returns up to limit
// submissions in source order; limit <= 0 means no limit.
type Store interface {
	FetchSubmissions(ctx context.Context, limit int64) ([]types.Submission, error)
}

// CRM is the full CRM surface the linker needs: catalog search and
// creation, deal reads, and line item writes. The Pipedrive client
// implements all of it.
type CRM interface {
	catalog.CRM
	dealsync.CRM

	// GetDeal fetches a deal with its line items, (nil, nil) when absent.
	GetDeal(ctx context.Context, dealID int) (*types.Deal, error)
}

// Linker processes submissions against a CRM.
type Linker struct {
	store    Store
	crm      CRM
	profile  profile.Profile
	config   *config
	resolver *catalog.Resolver
	syncer   *dealsync.Synchronizer
}

// New creates a Linker bound to a submission store, a CRM, and a profile.
func New(store Store, crm CRM, p profile.Profile, opts ...Option) (*Linker, error) {
	if store == nil {
		return nil, errors.NewConfigError("linker", "submission store is required", nil)
	}
	if crm == nil {
		return nil, errors.NewConfigError("linker", "CRM client is required", nil)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	l := &Linker{
		store:    store,
		crm:      crm,
		profile:  p,
		config:   defaultConfig(),
		resolver: catalog.NewResolver(crm, p),
		syncer:   dealsync.New(crm, p),
	}
	if err := l.options(opts...); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Linker) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(l.config); err != nil {
			return err
		}
	}
	return nil
}

// Profile returns the policy the linker runs under.
func (l *Linker) Profile() profile.Profile {
	return l.profile
}

// DryRun reports whether the linker simulates writes.
func (l *Linker) DryRun() bool {
	return l.config.dryRun
}
