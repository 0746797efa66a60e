package order_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/arunika-studio/backend-arunika/internal/order"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	svc, _ := newTestService(t)
	handler := order.NewHandler(svc)
	r := chi.NewRouter()
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", handler.Create)
		r.Get("/", handler.List)
		r.Route("/{orderId}", func(r chi.Router) {
			r.Get("/", handler.Get)
			r.Patch("/", handler.Update)
			r.Delete("/", handler.Delete)
			r.Post("/deliverables", handler.AddDeliverable)
			r.Patch("/deliverables/{deliverableId}", handler.UpdateDeliverable)
			r.Delete("/deliverables/{deliverableId}", handler.RemoveDeliverable)
			r.Get("/billing", handler.Billing)
			r.Post("/activate", handler.Activate)
		})
	})
	return r
}

type orderEnvelope struct {
	Data order.Order `json:"data"`
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = bytes.NewBufferString("{}")
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/orders", `{"code":"ARN-001","eventName":"Maharani Wedding","customerName":"Ayu"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created orderEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Data.ID
	require.NotEmpty(t, id)

	rec = do(t, router, http.MethodPost, "/api/v1/orders", `{"code":"ARN-001","eventName":"Duplicate"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/orders/"+id+"/deliverables", `{"productId":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var withDeliverable orderEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &withDeliverable))
	require.Len(t, withDeliverable.Data.Deliverables, 1)

	rec = do(t, router, http.MethodGet, "/api/v1/orders/"+id+"/billing", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/orders/"+id+"/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/orders/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/v1/orders/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/v1/orders/"+id, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
