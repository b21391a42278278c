// Package types defines the core domain types shared across the linker:
// submissions pulled from the source store, CRM catalog products, deals with
// their product line items, and the per-submission processing results the
// batch runner accumulates.
package types

import "time"

// CompanyRef references a company and its headcount within a submission.
type CompanyRef struct {
	Name      string `json:"name"`
	Headcount int    `json:"headcount"`
}

// Submission is a source record describing one deal's primary and additional
// companies. Submissions are read-only views; the store owns the records.
type Submission struct {
	ID                  string       `json:"id"`
	DealID              int          `json:"deal_id"`
	PrimaryCompany      *CompanyRef  `json:"primary_company,omitempty"`
	AdditionalCompanies []CompanyRef `json:"additional_companies"`
}

// HasDealID reports whether the submission references a deal at all.
// A zero DealID means the source record never linked one.
func (s *Submission) HasDealID() bool {
	return s.DealID > 0
}

// Product is a CRM catalog entry. Identity for matching purposes is the
// normalized name; the catalog may hold historical near-duplicates that only
// the fuzzy strategy absorbs.
type Product struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DealLineItem is a quantity/price pairing of a product attached to a deal.
// Line items are only ever created or updated by this engine, never removed.
type DealLineItem struct {
	ID        int     `json:"id"`
	ProductID int     `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Sum returns the line item's contribution to the deal value.
func (li DealLineItem) Sum() float64 {
	return float64(li.Quantity) * li.Price
}

// Deal is a CRM deal with its attached line items. Value is derived: after a
// successful sync it equals the sum of Quantity*Price over LineItems.
type Deal struct {
	ID        int            `json:"id"`
	Value     float64        `json:"value"`
	LineItems []DealLineItem `json:"line_items"`
}

// LineItemTotal computes the value the deal should carry from its line items.
func (d *Deal) LineItemTotal() float64 {
	var total float64
	for _, li := range d.LineItems {
		total += li.Sum()
	}
	return total
}

// Status is the terminal outcome of processing one submission.
type Status string

// Possible processing outcomes.
const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// MatchStrategy controls how company names are matched against the catalog.
type MatchStrategy string

// Supported match strategies.
const (
	// MatchExact accepts only an exact normalized-name match.
	MatchExact MatchStrategy = "exact"

	// MatchFuzzy additionally accepts near-duplicate names above a
	// similarity threshold, preferring the most recently created candidate.
	MatchFuzzy MatchStrategy = "fuzzy"
)

// ProcessingResult records the outcome of one submission. It is constructed
// once and never mutated; the batch runner owns the aggregate sequence.
type ProcessingResult struct {
	SubmissionID       string  `json:"submission_id"`
	DealID             int     `json:"deal_id"`
	Status             Status  `json:"status"`
	CompaniesProcessed int     `json:"companies_processed"`
	ValueAdded         float64 `json:"value_added"`
	ErrorReason        string  `json:"error_reason,omitempty"`
}
