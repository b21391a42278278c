// Package normalize provides company-name normalization and similarity
// scoring. Normalized names are the identity used for catalog matching:
// Unicode NFKC form, case-folded, whitespace collapsed, trailing periods
// stripped.
package normalize

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// DefaultFuzzyThreshold is the minimum similarity ratio for a fuzzy match.
// Chosen to absorb historical near-duplicates ("Acme Inc" vs "Acme Inc.")
// without conflating distinct companies.
const DefaultFuzzyThreshold = 0.85

var folder = cases.Fold()

// Name normalizes a company name for matching: NFKC normalization, case
// fold, whitespace collapse, trailing periods removed. Returns the empty
// string for names with no matchable content.
func Name(raw string) string {
	s := norm.NFKC.String(raw)
	s = folder.String(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, ".")
	return strings.TrimSpace(s)
}

// Similarity returns the edit-distance ratio between two normalized names,
// in [0, 1]. Identical strings score 1; strings sharing no structure score
// near 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// BestMatch selects the best fuzzy candidate for a normalized name from a
// set of products. Candidates below the threshold are ignored; among ties on
// similarity the most recently created product wins, so newer canonical
// entries shadow stale historical ones. Returns nil when nothing qualifies.
func BestMatch(name string, candidates []types.Product, threshold float64) *types.Product {
	var best *types.Product
	var bestScore float64

	for i := range candidates {
		c := &candidates[i]
		score := Similarity(name, Name(c.Name))
		if score < threshold {
			continue
		}
		if best == nil || score > bestScore ||
			(score == bestScore && c.CreatedAt.After(best.CreatedAt)) {
			best = c
			bestScore = score
		}
	}

	return best
}
