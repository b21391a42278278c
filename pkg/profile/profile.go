// Package profile defines the named policy bundles that control linker
// behavior: whether missing catalog products are created, how names are
// matched, whether orphaned deals are skipped, and whether line-item
// quantities may decrease. Profiles are immutable once loaded and shared
// read-only by every component.
package profile

import (
	"fmt"
	"os"
	"strconv"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// Profile is a named bundle of policy flags. Components receive it by value
// and never mutate it.
type Profile struct {
	Name                  string              `yaml:"name"`
	AutoCreateProducts    bool                `yaml:"auto_create_products"`
	MatchStrategy         types.MatchStrategy `yaml:"match_strategy"`
	RequireConfirmation   bool                `yaml:"require_confirmation"`
	SkipOrphanedDeals     bool                `yaml:"skip_orphaned_deals"`
	AllowQuantityDecrease bool                `yaml:"allow_quantity_decrease"`
	IncludePrimaryCompany bool                `yaml:"include_primary_company"`

	// UnitPrice is the per-headcount rate applied to newly created products.
	UnitPrice float64 `yaml:"unit_price"`

	// Headcount bounds. Companies outside [MinHeadcount, MaxHeadcount] fail
	// resolution for their submission. MaxHeadcount 0 means unbounded.
	MinHeadcount int `yaml:"min_headcount"`
	MaxHeadcount int `yaml:"max_headcount"`
}

// Standard returns the default profile: create missing products, exact
// matching, confirm before live runs, skip orphans, never shrink quantities.
func Standard() Profile {
	return Profile{
		Name:                "standard",
		AutoCreateProducts:  true,
		MatchStrategy:       types.MatchExact,
		RequireConfirmation: true,
		SkipOrphanedDeals:   true,
		UnitPrice:           1.0,
		MaxHeadcount:        10000,
	}
}

// Conservative returns a safer profile for manual-review workflows: no
// catalog writes at all beyond line items for products that already exist.
func Conservative() Profile {
	p := Standard()
	p.Name = "conservative"
	p.AutoCreateProducts = false
	return p
}

// Aggressive returns an auto-fix-everything profile: fuzzy matching to
// absorb near-duplicate catalog entries, primary companies included,
// decreases applied, no confirmation prompt.
func Aggressive() Profile {
	p := Standard()
	p.Name = "aggressive"
	p.MatchStrategy = types.MatchFuzzy
	p.RequireConfirmation = false
	p.AllowQuantityDecrease = true
	p.IncludePrimaryCompany = true
	return p
}

// Migration returns the profile used when reshaping historical data: fuzzy
// matching and decreases allowed, but confirmation still required.
func Migration() Profile {
	p := Standard()
	p.Name = "migration"
	p.MatchStrategy = types.MatchFuzzy
	p.AllowQuantityDecrease = true
	return p
}

// ByName resolves a named profile.
func ByName(name string) (Profile, error) {
	switch name {
	case "", "standard":
		return Standard(), nil
	case "conservative":
		return Conservative(), nil
	case "aggressive":
		return Aggressive(), nil
	case "migration":
		return Migration(), nil
	default:
		return Profile{}, errors.NewConfigError("profile",
			fmt.Sprintf("unknown profile %q (valid: standard, conservative, aggressive, migration)", name), nil)
	}
}

// Load resolves a named profile and applies environment overrides. The
// returned profile is the final, immutable policy for the run.
func Load(name string) (Profile, error) {
	p, err := ByName(name)
	if err != nil {
		return Profile{}, err
	}
	p.applyEnvOverrides()
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate reports configuration conflicts within the profile.
func (p Profile) Validate() error {
	if p.UnitPrice <= 0 {
		return errors.NewConfigError("profile", "unit price must be greater than zero", nil)
	}
	if p.MaxHeadcount > 0 && p.MaxHeadcount < p.MinHeadcount {
		return errors.NewConfigError("profile", "max headcount must be greater than min headcount", nil)
	}
	switch p.MatchStrategy {
	case types.MatchExact, types.MatchFuzzy:
	default:
		return errors.NewConfigError("profile",
			fmt.Sprintf("unknown match strategy %q", p.MatchStrategy), nil)
	}
	return nil
}

// HeadcountInRange reports whether a headcount satisfies the profile bounds.
func (p Profile) HeadcountInRange(headcount int) bool {
	if headcount < p.MinHeadcount {
		return false
	}
	if p.MaxHeadcount > 0 && headcount > p.MaxHeadcount {
		return false
	}
	return true
}

// applyEnvOverrides layers LINKER_* environment variables over the named
// profile's defaults.
func (p *Profile) applyEnvOverrides() {
	if v, ok := envBool("LINKER_AUTO_CREATE_PRODUCTS"); ok {
		p.AutoCreateProducts = v
	}
	if v, ok := envBool("LINKER_SKIP_ORPHANED_DEALS"); ok {
		p.SkipOrphanedDeals = v
	}
	if v, ok := envBool("LINKER_ALLOW_QUANTITY_DECREASE"); ok {
		p.AllowQuantityDecrease = v
	}
	if v, ok := envBool("LINKER_INCLUDE_PRIMARY"); ok {
		p.IncludePrimaryCompany = v
	}
	if v := os.Getenv("LINKER_UNIT_PRICE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			p.UnitPrice = f
		}
	}
	if v := os.Getenv("LINKER_MIN_HEADCOUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MinHeadcount = n
		}
	}
	if v := os.Getenv("LINKER_MAX_HEADCOUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxHeadcount = n
		}
	}
	if v := os.Getenv("LINKER_MATCH_STRATEGY"); v != "" {
		p.MatchStrategy = types.MatchStrategy(v)
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
