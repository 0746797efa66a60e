package quote_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arunika-studio/backend-arunika/internal/pricing"
	"github.com/arunika-studio/backend-arunika/internal/quote"
)

type staticCatalog struct {
	catalog pricing.Catalog
	rates   pricing.RateTable
}

func (s staticCatalog) Products(context.Context) (pricing.Catalog, error) { return s.catalog, nil }
func (s staticCatalog) Rates(context.Context) (pricing.RateTable, error)  { return s.rates, nil }

func newQuoteHandler() *quote.Handler {
	catalog := pricing.NewCatalog([]pricing.Product{
		{
			ID:              1,
			Name:            "Invitation Card",
			ConfigType:      pricing.TypeUnitQuantity,
			BasePrice:       100,
			Variants:        []string{"Classic", "Custom"},
			VariantRateKeys: map[string]string{"Custom": "custom_card"},
			SpecialLogic:    pricing.SpecialCustomVariantMinimum,
			Addons: []pricing.Addon{
				{ID: "foil", Name: "Gold Foil", Type: pricing.AddonCheckbox, RateKey: "gold_foil"},
			},
		},
		{ID: 2, Name: "Design Retainer", ConfigType: pricing.TypeFlatFee, BasePrice: 5000},
	})
	rates := pricing.RateTable{"custom_card": 180, "gold_foil": 25}
	return quote.NewHandler(quote.HandlerConfig{
		Catalog: staticCatalog{catalog: catalog, rates: rates},
		Logger:  zerolog.Nop(),
	})
}

type quotePayload struct {
	Data struct {
		Items    []pricing.BillableItem `json:"items"`
		Total    int64                  `json:"total"`
		Balance  int64                  `json:"balance"`
		Warnings map[string]string      `json:"warnings"`
	} `json:"data"`
}

func postQuote(t *testing.T, h *quote.Handler, body string) (*httptest.ResponseRecorder, quotePayload) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)
	var resp quotePayload
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestQuotePricesConfiguration(t *testing.T) {
	h := newQuoteHandler()
	rec, resp := postQuote(t, h, `{
		"deliverables": [
			{"id": "d1", "productId": 1, "variant": "Classic", "quantity": 5, "addons": [{"id": "foil", "enabled": true}]},
			{"id": "d2", "productId": 2}
		],
		"paymentReceived": 1000
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Data.Items, 2)
	// 5*100 base + 5*25 foil + 5000 retainer.
	require.Equal(t, int64(5625), resp.Data.Total)
	require.Equal(t, int64(4625), resp.Data.Balance)
	require.Empty(t, resp.Data.Warnings)
}

func TestQuoteReturnsWarnings(t *testing.T) {
	h := newQuoteHandler()
	rec, resp := postQuote(t, h, `{
		"deliverables": [
			{"id": "d1", "productId": 1, "variant": "Custom", "quantity": 10}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, resp.Data.Warnings["d1"], "minimum order of 25 pieces")
	// Warnings are advisory: the configuration still prices.
	require.Equal(t, int64(1800), resp.Data.Total)
}

func TestQuoteDropsUnknownProducts(t *testing.T) {
	h := newQuoteHandler()
	rec, resp := postQuote(t, h, `{
		"deliverables": [
			{"id": "stale", "productId": 42, "quantity": 3},
			{"id": "d1", "productId": 2}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Data.Items, 1)
	require.Equal(t, int64(5000), resp.Data.Total)
}

func TestQuoteValidation(t *testing.T) {
	h := newQuoteHandler()

	rec, _ := postQuote(t, h, `{"deliverables": []}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = postQuote(t, h, `{"deliverables": [{"quantity": 5}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = postQuote(t, h, `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
