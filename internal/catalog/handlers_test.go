package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arunika-studio/backend-arunika/internal/catalog"
	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

type productsResponse struct {
	Data []pricing.Product `json:"data"`
}

type productDetailResponse struct {
	Data pricing.Product `json:"data"`
}

type ratesResponse struct {
	Data map[string]int64 `json:"data"`
}

func newTestService(t *testing.T, store *fakeStore) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Store:  store,
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc
}

func TestCatalogHandlers(t *testing.T) {
	store := newFakeStore()
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: newTestService(t, store)})

	t.Run("products list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil)
		rec := httptest.NewRecorder()
		handler.Products(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		require.Equal(t, "Invitation Card", resp.Data[0].Name)
		require.Equal(t, pricing.TypeUnitQuantity, resp.Data[0].ConfigType)
	})

	t.Run("product detail", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/2", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", "2")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		handler.ProductDetail(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productDetailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Itinerary Booklet", resp.Data.Name)
		require.Equal(t, pricing.TypePageCount, resp.Data.ConfigType)
	})

	t.Run("product detail not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/99", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", "99")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		handler.ProductDetail(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/rates", nil)
		rec := httptest.NewRecorder()
		handler.Rates(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ratesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, int64(150), resp.Data["premium_card"])
	})
}

func TestUpdateRatesHandler(t *testing.T) {
	store := newFakeStore()
	repriced := 0
	handler := catalog.NewHandler(catalog.HandlerConfig{
		Service: newTestService(t, store),
		Reprice: func(*http.Request) error {
			repriced++
			return nil
		},
		Logger: zerolog.Nop(),
	})

	body := bytes.NewBufferString(`{"rates":{"premium_card":175,"gold_foil":30}}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/rates", body)
	rec := httptest.NewRecorder()
	handler.UpdateRates(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, pricing.Money(175), store.rates["premium_card"])
	require.Equal(t, pricing.Money(30), store.rates["gold_foil"])
	require.Equal(t, 1, repriced)

	t.Run("rejects negative rate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/rates", bytes.NewBufferString(`{"rates":{"premium_card":-1}}`))
		rec := httptest.NewRecorder()
		handler.UpdateRates(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects empty payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/rates", bytes.NewBufferString(`{"rates":{}}`))
		rec := httptest.NewRecorder()
		handler.UpdateRates(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestValidateRateKeysStrict(t *testing.T) {
	store := newFakeStore()
	store.products = append(store.products, pricing.Product{
		ID:         3,
		Name:       "Seating Chart",
		ConfigType: pricing.TypeFlatFee,
		BasePrice:  800,
		Addons:     []pricing.Addon{{ID: "easel", Name: "Easel Rental", Type: pricing.AddonCheckbox, RateKey: "easel_rental"}},
	})
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Store:          store,
		Logger:         zerolog.Nop(),
		StrictRateKeys: true,
	})
	require.NoError(t, err)
	err = svc.ValidateRateKeys(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "easel_rental")
}

func TestValidateAddonGraph(t *testing.T) {
	store := newFakeStore()
	store.products[0].Addons = []pricing.Addon{
		{ID: "foil", Name: "Foil Stamping", Type: pricing.AddonCheckbox, RateKey: "premium_card"},
		{ID: "wax", Name: "Wax Seal", Type: pricing.AddonCheckbox, RateKey: "premium_card", DependsOn: "foil"},
	}
	svc, err := catalog.NewService(catalog.ServiceConfig{Store: store, Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, svc.ValidateAddonGraph(context.Background()))

	t.Run("dangling reference", func(t *testing.T) {
		store.products[0].Addons[1].DependsOn = "ribbon"
		err := svc.ValidateAddonGraph(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "ribbon")
		store.products[0].Addons[1].DependsOn = "foil"
	})

	t.Run("self reference", func(t *testing.T) {
		store.products[0].Addons[0].DependsOn = "foil"
		err := svc.ValidateAddonGraph(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "depends on itself")
		store.products[0].Addons[0].DependsOn = ""
	})
}

type fakeStore struct {
	products []pricing.Product
	rates    map[string]pricing.Money
	fail     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: []pricing.Product{
			{
				ID:              1,
				Name:            "Invitation Card",
				ConfigType:      pricing.TypeUnitQuantity,
				BasePrice:       100,
				Variants:        []string{"Classic", "Premium"},
				VariantRateKeys: map[string]string{"Premium": "premium_card"},
			},
			{
				ID:         2,
				Name:       "Itinerary Booklet",
				ConfigType: pricing.TypePageCount,
				BasePrice:  250,
			},
		},
		rates: map[string]pricing.Money{"premium_card": 150},
	}
}

func (f *fakeStore) ListProducts(context.Context) ([]pricing.Product, error) {
	if f.fail {
		return nil, fmt.Errorf("store unavailable")
	}
	return append([]pricing.Product(nil), f.products...), nil
}

func (f *fakeStore) GetRates(context.Context) (pricing.RateTable, error) {
	if f.fail {
		return nil, fmt.Errorf("store unavailable")
	}
	rates := make(pricing.RateTable, len(f.rates))
	for k, v := range f.rates {
		rates[k] = v
	}
	return rates, nil
}

func (f *fakeStore) UpsertRates(_ context.Context, rates map[string]pricing.Money) error {
	if f.fail {
		return fmt.Errorf("store unavailable")
	}
	for k, v := range rates {
		f.rates[k] = v
	}
	return nil
}
