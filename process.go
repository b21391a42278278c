package linker

import (
	"context"
	"fmt"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/dealsync"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/logging"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// Process runs one submission to a terminal result. Transient failures are
// folded into an error result; Run wraps the same path in bounded retry
// before giving up.
func (l *Linker) Process(ctx context.Context, sub types.Submission, dryRun bool) types.ProcessingResult {
	res, err := l.process(ctx, sub, dryRun)
	if err != nil {
		return errorResult(sub, err)
	}
	return res
}

// process is the FETCH_DEAL -> RESOLVE_PRODUCTS -> SYNC_DEAL pipeline. A
// returned error is always transient and safe to retry; permanent failures
// come back as terminal results with a nil error.
func (l *Linker) process(ctx context.Context, sub types.Submission, dryRun bool) (types.ProcessingResult, error) {
	if !sub.HasDealID() {
		return errorResult(sub, errors.New("no deal id")), nil
	}

	companies := l.companies(sub)
	if len(companies) == 0 {
		return errorResult(sub, errors.New("no companies to process")), nil
	}

	deal, err := l.crm.GetDeal(ctx, sub.DealID)
	if err != nil {
		if errors.IsTransient(err) {
			return types.ProcessingResult{}, err
		}
		return errorResult(sub, err), nil
	}
	if deal == nil {
		if l.profile.SkipOrphanedDeals {
			logging.Warn().
				Str("submission_id", sub.ID).
				Int("deal_id", sub.DealID).
				Msg("Skipping submission for missing deal")
			return types.ProcessingResult{
				SubmissionID: sub.ID,
				DealID:       sub.DealID,
				Status:       types.StatusSkipped,
				ErrorReason:  fmt.Sprintf("deal %d not found", sub.DealID),
			}, nil
		}
		return errorResult(sub, errors.NewSyncError(sub.DealID, errors.ErrDealNotFound)), nil
	}

	items, res, err := l.resolveCompanies(ctx, sub, companies, dryRun)
	if err != nil || res != nil {
		if res != nil {
			return *res, nil
		}
		return types.ProcessingResult{}, err
	}

	outcome, err := l.syncer.Synchronize(ctx, deal, items, dryRun)
	if err != nil {
		if errors.IsTransient(err) {
			return types.ProcessingResult{}, err
		}
		return errorResult(sub, err), nil
	}

	for _, d := range outcome.Discrepancies {
		logging.Warn().
			Str("submission_id", sub.ID).
			Int("deal_id", sub.DealID).
			Msg(d.String())
	}

	return types.ProcessingResult{
		SubmissionID:       sub.ID,
		DealID:             sub.DealID,
		Status:             types.StatusSuccess,
		CompaniesProcessed: len(companies),
		ValueAdded:         outcome.ValueAdded(),
	}, nil
}

// resolveCompanies maps companies to desired line items. It returns either
// the items, a terminal result (permanent resolution failure), or a
// transient error.
func (l *Linker) resolveCompanies(ctx context.Context, sub types.Submission, companies []types.CompanyRef, dryRun bool) ([]dealsync.Item, *types.ProcessingResult, error) {
	items := make([]dealsync.Item, 0, len(companies))

	// Simulated products carry no CRM identity; distinct placeholder IDs
	// keep them from aggregating into one line during a dry run.
	placeholderID := 0

	for _, company := range companies {
		if !l.profile.HeadcountInRange(company.Headcount) {
			res := errorResult(sub, errors.NewResolveError(company.Name, errors.ErrHeadcountOutOfRange))
			return nil, &res, nil
		}

		product, err := l.resolver.Resolve(ctx, company.Name, dryRun)
		if err != nil {
			if errors.IsTransient(err) {
				return nil, nil, err
			}
			res := errorResult(sub, err)
			return nil, &res, nil
		}

		productID := product.ID
		if productID == 0 {
			placeholderID--
			productID = placeholderID
		}

		price := product.UnitPrice
		if price <= 0 {
			price = l.profile.UnitPrice
		}

		quantity := company.Headcount
		if quantity <= 0 {
			quantity = 1
		}

		items = append(items, dealsync.Item{
			ProductID:   productID,
			ProductName: product.Name,
			Quantity:    quantity,
			Price:       price,
		})
	}
	return items, nil, nil
}

// companies returns the submission's companies under the profile's scope:
// additional companies always, the primary company only when included.
func (l *Linker) companies(sub types.Submission) []types.CompanyRef {
	companies := make([]types.CompanyRef, 0, len(sub.AdditionalCompanies)+1)
	if l.profile.IncludePrimaryCompany && sub.PrimaryCompany != nil {
		companies = append(companies, *sub.PrimaryCompany)
	}
	companies = append(companies, sub.AdditionalCompanies...)
	return companies
}

func errorResult(sub types.Submission, err error) types.ProcessingResult {
	return types.ProcessingResult{
		SubmissionID: sub.ID,
		DealID:       sub.DealID,
		Status:       types.StatusError,
		ErrorReason:  err.Error(),
	}
}
