package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arunika-studio/backend-arunika/internal/common"
	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

// Handler exposes the order HTTP surface.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Code         string     `json:"code"`
	EventName    string     `json:"eventName"`
	EventDate    *time.Time `json:"eventDate"`
	CustomerName string     `json:"customerName"`
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	o, err := h.service.Create(r.Context(), CreateInput{
		Code:         req.Code,
		EventName:    req.EventName,
		EventDate:    req.EventDate,
		CustomerName: req.CustomerName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	orders, total, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/orders/{orderId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

type updateRequest struct {
	EventName       *string        `json:"eventName"`
	EventDate       *time.Time     `json:"eventDate"`
	CustomerName    *string        `json:"customerName"`
	PaymentReceived *pricing.Money `json:"paymentReceived"`
}

// Update handles PATCH /api/v1/orders/{orderId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	o, err := h.service.Update(r.Context(), chi.URLParam(r, "orderId"), UpdateInput{
		EventName:       req.EventName,
		EventDate:       req.EventDate,
		CustomerName:    req.CustomerName,
		PaymentReceived: req.PaymentReceived,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Delete handles DELETE /api/v1/orders/{orderId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "orderId")); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": true}})
}

type deliverableRequest struct {
	ProductID      int64                    `json:"productId"`
	Variant        string                   `json:"variant"`
	Quantity       int64                    `json:"quantity"`
	Pages          int64                    `json:"pages"`
	FieldValues    map[string]int64         `json:"fieldValues"`
	Addons         []pricing.SelectedAddon  `json:"addons"`
	Sizes          []pricing.SelectedSize   `json:"sizes"`
	SpecialRequest string                   `json:"specialRequest"`
	RateOverrides  map[string]pricing.Money `json:"rateOverrides"`
}

func (r deliverableRequest) toInput() DeliverableInput {
	return DeliverableInput{
		ProductID:      r.ProductID,
		Variant:        r.Variant,
		Quantity:       r.Quantity,
		Pages:          r.Pages,
		FieldValues:    r.FieldValues,
		Addons:         r.Addons,
		Sizes:          r.Sizes,
		SpecialRequest: r.SpecialRequest,
		RateOverrides:  r.RateOverrides,
	}
}

// AddDeliverable handles POST /api/v1/orders/{orderId}/deliverables.
func (h *Handler) AddDeliverable(w http.ResponseWriter, r *http.Request) {
	var req deliverableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	o, err := h.service.AddDeliverable(r.Context(), chi.URLParam(r, "orderId"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

// UpdateDeliverable handles PATCH /api/v1/orders/{orderId}/deliverables/{deliverableId}.
func (h *Handler) UpdateDeliverable(w http.ResponseWriter, r *http.Request) {
	var req deliverableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	o, err := h.service.UpdateDeliverable(r.Context(), chi.URLParam(r, "orderId"), chi.URLParam(r, "deliverableId"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// RemoveDeliverable handles DELETE /api/v1/orders/{orderId}/deliverables/{deliverableId}.
func (h *Handler) RemoveDeliverable(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.RemoveDeliverable(r.Context(), chi.URLParam(r, "orderId"), chi.URLParam(r, "deliverableId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Billing handles GET /api/v1/orders/{orderId}/billing.
func (h *Handler) Billing(w http.ResponseWriter, r *http.Request) {
	billing, err := h.service.Billing(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": billing})
}

// Activate handles POST /api/v1/orders/{orderId}/activate.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Activate(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
