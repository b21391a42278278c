package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/types"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New("test-token",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c, srv
}

func writeEnvelope(w http.ResponseWriter, data any) {
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data}) //nolint:errcheck
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New("")
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFindProductExactMatch(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/search", r.URL.Path)
		assert.Equal(t, "test-token", r.URL.Query().Get("api_token"))
		assert.Equal(t, "1", r.URL.Query().Get("exact_match"))
		assert.Equal(t, "acme corp", r.URL.Query().Get("term"))

		writeEnvelope(w, map[string]any{
			"items": []map[string]any{
				{"item": map[string]any{"id": 7, "name": "Acme Corp.", "add_time": "2024-03-01 10:00:00"}},
			},
		})
	}))

	p, err := c.FindProduct(context.Background(), "acme corp", types.MatchExact)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 7, p.ID)
	assert.True(t, p.IsActive)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestFindProductExactRejectsDifferentName(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, map[string]any{
			"items": []map[string]any{
				{"item": map[string]any{"id": 7, "name": "Acme Corporation"}},
			},
		})
	}))

	p, err := c.FindProduct(context.Background(), "acme corp", types.MatchExact)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFindProductFuzzyPicksBestCandidate(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("exact_match"))
		writeEnvelope(w, map[string]any{
			"items": []map[string]any{
				{"item": map[string]any{"id": 1, "name": "Acme Corpz", "add_time": "2023-01-01 00:00:00"}},
				{"item": map[string]any{"id": 2, "name": "Totally Different Inc"}},
			},
		})
	}))

	p, err := c.FindProduct(context.Background(), "acme corp", types.MatchFuzzy)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.ID)
}

func TestFindProductSkipsInactive(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, map[string]any{
			"items": []map[string]any{
				{"item": map[string]any{"id": 7, "name": "acme corp", "active_flag": false}},
			},
		})
	}))

	p, err := c.FindProduct(context.Background(), "acme corp", types.MatchExact)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCreateProduct(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/products", r.URL.Path)

		var body createProductRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "globex", body.Name)
		assert.True(t, body.ActiveFlag)
		require.Len(t, body.Prices, 1)
		assert.Equal(t, 2.5, body.Prices[0].Price)

		writeEnvelope(w, map[string]any{"id": 33, "name": "globex", "active_flag": true})
	}))

	p, err := c.CreateProduct(context.Background(), "globex", 2.5)
	require.NoError(t, err)
	assert.Equal(t, 33, p.ID)
	assert.Equal(t, 2.5, p.UnitPrice, "falls back to requested price when the API omits prices")
}

func TestCreateProductTruncatesNameOnRuneBoundary(t *testing.T) {
	longName := strings.Repeat("é", 300)

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body createProductRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, utf8.ValidString(body.Name))
		assert.Equal(t, 255, utf8.RuneCountInString(body.Name))
		assert.Equal(t, strings.Repeat("é", 255), body.Name)

		writeEnvelope(w, map[string]any{"id": 34, "name": body.Name})
	}))

	_, err := c.CreateProduct(context.Background(), longName, 2.5)
	require.NoError(t, err)
}

func TestGetDealWithLineItems(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/deals/42":
			writeEnvelope(w, map[string]any{"id": 42, "value": "150.5"})
		case "/deals/42/products":
			writeEnvelope(w, []map[string]any{
				{"id": 9, "product_id": 1, "item_price": 1.5, "quantity": 100},
				{"id": 10, "product_id": 2, "item_price": 1.0, "quantity": 3, "enabled_flag": false},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	deal, err := c.GetDeal(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, deal)

	// String-encoded deal values parse; disabled attachments are ignored.
	assert.Equal(t, 150.5, deal.Value)
	require.Len(t, deal.LineItems, 1)
	assert.Equal(t, types.DealLineItem{ID: 9, ProductID: 1, Quantity: 100, Price: 1.5}, deal.LineItems[0])
}

func TestGetDealNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	deal, err := c.GetDeal(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, deal)
}

func TestCreateLineItem(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/deals/42/products", r.URL.Path)

		var body attachProductRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 7, body.ProductID)
		assert.Equal(t, 120, body.Quantity)
		assert.True(t, body.EnabledFlag)

		writeEnvelope(w, map[string]any{"id": 55, "product_id": 7, "item_price": 1.5, "quantity": 120})
	}))

	li, err := c.CreateLineItem(context.Background(), 42, 7, 120, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 55, li.ID)
	assert.Equal(t, 180.0, li.Sum())
}

func TestUpdateLineItemAndDealValue(t *testing.T) {
	var paths []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		paths = append(paths, r.URL.Path)
		writeEnvelope(w, map[string]any{"id": 1})
	}))

	require.NoError(t, c.UpdateLineItem(context.Background(), 42, 9, 80))
	require.NoError(t, c.UpdateDealValue(context.Background(), 42, 80.0))
	assert.Equal(t, []string{"/deals/42/products/9", "/deals/42"}, paths)
}

func TestServerErrorsAreTransient(t *testing.T) {
	// newTestClient installs a plain transport, so no retries slow this down;
	// classification of the final status is what matters here.
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"success":false,"error":"maintenance"}`)
	}))

	_, err := c.GetDeal(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))

	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "maintenance", apiErr.Message)
}

func TestClientErrorsArePermanent(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"success":false,"error":"bad input"}`)
	}))

	_, err := c.GetDeal(context.Background(), 42)
	require.Error(t, err)
	assert.False(t, errors.IsTransient(err))
}

func TestUnsuccessfulEnvelopeIsError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"success":false,"error":"scope denied"}`)
	}))

	_, err := c.CreateProduct(context.Background(), "globex", 1.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scope denied")
}
