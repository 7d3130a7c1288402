package ordercalc_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/openpos/totals-api/internal/ordercalc"
	"github.com/openpos/totals-api/internal/tax"
)

type calculateResponse struct {
	Data ordercalc.CalculateOutput `json:"data"`
}

type displayResponse struct {
	Data ordercalc.DisplayResponse `json:"data"`
}

type ratesResponse struct {
	Data []tax.Rate `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(svc *ordercalc.Service) http.Handler {
	h := &ordercalc.Handler{Svc: svc}
	r := chi.NewRouter()
	r.Post("/api/v1/orders/calculate", h.Calculate)
	r.Post("/api/v1/display-value", h.DisplayValue)
	r.Get("/api/v1/tax-rates", h.TaxRates)
	return r
}

func TestCalculateEndpoint(t *testing.T) {
	router := newRouter(newService(vatRates(), tax.Settings{Enabled: true}))

	body := `{
		"line_items": [{"product_id": 11, "quantity": 2, "price": "10.00"}],
		"shipping_lines": [{"method_title": "Courier", "total": "10.00"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/calculate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp calculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "20", resp.Data.LineItems[0].Total)
	require.Equal(t, "2", resp.Data.LineItems[0].TotalTax)
	require.Equal(t, "1", resp.Data.Totals.ShippingTax)
	require.Equal(t, "33", resp.Data.Totals.Total)
}

func TestCalculateEndpointEmptySubtotalSerialisation(t *testing.T) {
	router := newRouter(newService(vatRates(), tax.Settings{Enabled: true}))

	body := `{"fee_lines": [{"name": "Bag", "amount": "5.00"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/calculate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Data struct {
			FeeLines []struct {
				Taxes []struct {
					Subtotal string `json:"subtotal"`
					Total    string `json:"total"`
				} `json:"taxes"`
			} `json:"fee_lines"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw.Data.FeeLines, 1)
	require.Len(t, raw.Data.FeeLines[0].Taxes, 1)
	require.Equal(t, "", raw.Data.FeeLines[0].Taxes[0].Subtotal)
	require.Equal(t, "0.5", raw.Data.FeeLines[0].Taxes[0].Total)
}

func TestCalculateEndpointBadPayload(t *testing.T) {
	router := newRouter(newService(vatRates(), tax.Settings{Enabled: true}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/calculate", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "BAD_REQUEST", resp.Error.Code)
}

func TestDisplayValueEndpoint(t *testing.T) {
	router := newRouter(newService(vatRates(), tax.Settings{Enabled: true, DisplayShop: tax.ModeIncl}))

	body := `{"value": "100", "context": "shop"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/display-value", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp displayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "110", resp.Data.Value)
	require.Equal(t, "incl", resp.Data.Mode)
}

func TestTaxRatesEndpoint(t *testing.T) {
	list := []tax.Rate{
		{ID: 1, Label: "Standard", Rate: "10.0000", Priority: 1},
		{ID: 2, Label: "Reduced", Rate: "5.0000", Class: "reduced", Priority: 1},
	}
	router := newRouter(newService(list, tax.Settings{Enabled: true}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tax-rates?class=reduced", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ratesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, int64(2), resp.Data[0].ID)
}
