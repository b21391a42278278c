package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/profile"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

// fakeCRM records catalog calls and serves canned products keyed by
// normalized name.
type fakeCRM struct {
	products    map[string]*types.Product
	findErr     error
	createErr   error
	findCalls   []string
	createCalls []string
	nextID      int
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{products: map[string]*types.Product{}, nextID: 100}
}

func (f *fakeCRM) FindProduct(_ context.Context, normalizedName string, _ types.MatchStrategy) (*types.Product, error) {
	f.findCalls = append(f.findCalls, normalizedName)
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.products[normalizedName], nil
}

func (f *fakeCRM) CreateProduct(_ context.Context, name string, unitPrice float64) (*types.Product, error) {
	f.createCalls = append(f.createCalls, name)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	p := &types.Product{
		ID:        f.nextID,
		Name:      name,
		UnitPrice: unitPrice,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	f.products[name] = p
	return p, nil
}

func TestResolveExistingProduct(t *testing.T) {
	crm := newFakeCRM()
	existing := &types.Product{ID: 7, Name: "acme corp", UnitPrice: 2.5, IsActive: true}
	crm.products["acme corp"] = existing

	r := NewResolver(crm, profile.Standard())
	got, err := r.Resolve(context.Background(), "  Acme  Corp. ", false)
	require.NoError(t, err)

	// Found products come back untouched, including their catalog price.
	assert.Same(t, existing, got)
	assert.Empty(t, crm.createCalls)
	assert.Equal(t, []string{"acme corp"}, crm.findCalls)
}

func TestResolveInvalidName(t *testing.T) {
	crm := newFakeCRM()
	r := NewResolver(crm, profile.Standard())

	for _, name := range []string{"", "   ", "..."} {
		_, err := r.Resolve(context.Background(), name, false)
		require.Error(t, err, "name %q", name)
		assert.True(t, errors.IsInvalidName(err))
	}
	assert.Empty(t, crm.findCalls, "invalid names never reach the CRM")
}

func TestResolveCreationDisabled(t *testing.T) {
	crm := newFakeCRM()
	r := NewResolver(crm, profile.Conservative())

	_, err := r.Resolve(context.Background(), "Globex", false)
	require.Error(t, err)
	assert.True(t, errors.IsCreationDisabled(err))
	assert.Empty(t, crm.createCalls)
}

func TestResolveAutoCreate(t *testing.T) {
	crm := newFakeCRM()
	p := profile.Standard()
	p.UnitPrice = 3.0
	r := NewResolver(crm, p)

	got, err := r.Resolve(context.Background(), "Globex International", false)
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, "globex international", got.Name)
	assert.Equal(t, 3.0, got.UnitPrice)
	assert.Equal(t, []string{"globex international"}, crm.createCalls)
}

func TestResolveDryRunSimulatesCreation(t *testing.T) {
	crm := newFakeCRM()
	p := profile.Standard()
	p.UnitPrice = 2.0
	r := NewResolver(crm, p)

	got, err := r.Resolve(context.Background(), "Initech", true)
	require.NoError(t, err)

	// Simulated product: no CRM identity, but priced as a live run would.
	assert.Zero(t, got.ID)
	assert.Equal(t, "initech", got.Name)
	assert.Equal(t, 2.0, got.UnitPrice)
	assert.Empty(t, crm.createCalls, "dry run must not write to the catalog")
}

func TestResolveDryRunStillReportsDisabledCreation(t *testing.T) {
	crm := newFakeCRM()
	r := NewResolver(crm, profile.Conservative())

	_, err := r.Resolve(context.Background(), "Initech", true)
	require.Error(t, err)
	assert.True(t, errors.IsCreationDisabled(err))
}

func TestResolveFindFailurePropagates(t *testing.T) {
	crm := newFakeCRM()
	crm.findErr = errors.NewAPIError("/products/search", 503, "upstream down")
	r := NewResolver(crm, profile.Standard())

	_, err := r.Resolve(context.Background(), "Acme", false)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Empty(t, crm.createCalls)
}
