package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
)

func TestResolveError(t *testing.T) {
	t.Run("invalid name", func(t *testing.T) {
		err := pkgerrors.NewResolveError("  ", pkgerrors.ErrInvalidName)
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidName))
		assert.True(t, pkgerrors.IsInvalidName(err))
		assert.False(t, pkgerrors.IsTransient(err))
	})

	t.Run("creation disabled", func(t *testing.T) {
		err := pkgerrors.NewResolveError("Acme Sub A", pkgerrors.ErrCreationDisabled)
		assert.Equal(t, `cannot resolve company "Acme Sub A": product not found and creation disabled`, err.Error())
		assert.True(t, pkgerrors.IsCreationDisabled(err))
	})
}

func TestSyncError(t *testing.T) {
	t.Run("deal not found", func(t *testing.T) {
		err := pkgerrors.NewSyncError(42, pkgerrors.ErrDealNotFound)
		assert.True(t, pkgerrors.IsDealNotFound(err))
		assert.False(t, pkgerrors.IsTransient(err))
	})

	t.Run("write failed wraps transient cause", func(t *testing.T) {
		cause := pkgerrors.NewAPIError("deals/42/products", 503, "service unavailable")
		err := pkgerrors.NewSyncError(42, cause)
		assert.True(t, pkgerrors.IsTransient(err))
		assert.False(t, pkgerrors.IsDealNotFound(err))
	})
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{400, false},
		{404, false},
		{422, false},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := pkgerrors.NewAPIError("products", tt.status, "boom")
			assert.Equal(t, tt.transient, pkgerrors.IsTransient(err))
		})
	}

	t.Run("rate limited sentinel", func(t *testing.T) {
		err := pkgerrors.NewAPIError("products/search", 429, "too many requests")
		assert.True(t, errors.Is(err, pkgerrors.ErrRateLimited))
	})
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection refused")
	err := pkgerrors.NewStoreError("fetch submissions", cause)
	assert.Equal(t, "store error during fetch submissions: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("profile", "unknown profile: turbo", nil)
	assert.Equal(t, "configuration error in profile: unknown profile: turbo", err.Error())
}
