package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/arunika-studio/backend-arunika/internal/common"
	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

// Handler exposes public catalog endpoints and the admin rate endpoint.
type Handler struct {
	service *Service
	reprice func(r *http.Request) error
	logger  zerolog.Logger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
	// Reprice, when set, is invoked after a successful rate update to
	// schedule background repricing of open orders.
	Reprice func(r *http.Request) error
	Logger  zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, reprice: cfg.Reprice, logger: cfg.Logger}
}

// Products handles GET /api/v1/catalog/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	catalog, err := h.service.Products(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": catalog.Products()})
}

// ProductDetail handles GET /api/v1/catalog/products/{id}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "product id must be an integer", nil)
		return
	}
	product, ok, err := h.service.Product(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// Rates handles GET /api/v1/catalog/rates.
func (h *Handler) Rates(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rates, err := h.service.Rates(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rates})
}

type updateRatesRequest struct {
	Rates map[string]pricing.Money `json:"rates"`
}

// UpdateRates handles PUT /api/v1/admin/rates.
func (h *Handler) UpdateRates(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	var req updateRatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if len(req.Rates) == 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "rates must not be empty", nil)
		return
	}
	for key, amount := range req.Rates {
		if key == "" {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "rate key must not be empty", nil)
			return
		}
		if amount < 0 {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "rate amounts must not be negative", map[string]any{"key": key})
			return
		}
	}
	if err := h.service.UpdateRates(r.Context(), req.Rates); err != nil {
		h.writeError(w, err)
		return
	}
	if h.reprice != nil {
		if err := h.reprice(r); err != nil {
			h.logger.Error().Err(err).Msg("enqueue reprice after rate update")
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"updated": len(req.Rates)}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		common.JSONError(w, status, code, message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
