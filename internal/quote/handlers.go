package quote

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/arunika-studio/backend-arunika/internal/common"
	"github.com/arunika-studio/backend-arunika/internal/obs"
	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

// CatalogProvider supplies the product catalog and rate table used to
// price a quote.
type CatalogProvider interface {
	Products(ctx context.Context) (pricing.Catalog, error)
	Rates(ctx context.Context) (pricing.RateTable, error)
}

// Handler prices ad-hoc configurations without touching order state.
type Handler struct {
	catalog  CatalogProvider
	validate *validator.Validate
	logger   zerolog.Logger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Catalog   CatalogProvider
	Validator *validator.Validate
	Logger    zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = validator.New()
	}
	return &Handler{catalog: cfg.Catalog, validate: v, logger: cfg.Logger}
}

type deliverableInput struct {
	ID            string                   `json:"id"`
	ProductID     int64                    `json:"productId" validate:"required,gt=0"`
	ProductName   string                   `json:"productName"`
	Variant       string                   `json:"variant"`
	Quantity      int64                    `json:"quantity" validate:"gte=0"`
	Pages         int64                    `json:"pages" validate:"gte=0"`
	FieldValues   map[string]int64         `json:"fieldValues"`
	Addons        []addonInput             `json:"addons" validate:"dive"`
	Sizes         []sizeInput              `json:"sizes" validate:"dive"`
	RateOverrides map[string]pricing.Money `json:"rateOverrides"`
}

type addonInput struct {
	ID      string `json:"id" validate:"required"`
	Enabled bool   `json:"enabled"`
	Amount  int64  `json:"amount" validate:"gte=0"`
}

type sizeInput struct {
	Name     string `json:"name" validate:"required"`
	Quantity int64  `json:"quantity" validate:"gte=0"`
}

type quoteRequest struct {
	Deliverables    []deliverableInput `json:"deliverables" validate:"required,min=1,dive"`
	PaymentReceived pricing.Money      `json:"paymentReceived" validate:"gte=0"`
}

type quoteResponse struct {
	Items    []pricing.BillableItem `json:"items"`
	Total    pricing.Money          `json:"total"`
	Balance  pricing.Money          `json:"balance"`
	Warnings map[string]string      `json:"warnings,omitempty"`
}

// Quote handles POST /api/v1/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		countQuote("invalid")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		countQuote("invalid")
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid quote payload", validationDetails(err))
		return
	}

	catalog, err := h.catalog.Products(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("load catalog for quote")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	rates, err := h.catalog.Rates(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("load rates for quote")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}

	deliverables := make([]pricing.ConfiguredProduct, 0, len(req.Deliverables))
	warnings := make(map[string]string)
	for i, in := range req.Deliverables {
		d := toConfigured(in, i)
		if product, ok := catalog.Product(d.ProductID); ok {
			if warning := pricing.Warning(d, product); warning != "" {
				warnings[d.ID] = warning
			}
		}
		deliverables = append(deliverables, d)
	}

	started := time.Now()
	items := pricing.PriceAll(deliverables, catalog, rates)
	if obs.PricingDuration != nil {
		obs.PricingDuration.Observe(obs.DurationMillis(time.Since(started)))
	}
	if obs.BillableComponentsTotal != nil {
		for _, item := range items {
			obs.BillableComponentsTotal.Add(float64(len(item.Components)))
		}
	}
	countQuote("ok")

	total := pricing.Total(items)
	resp := quoteResponse{Items: items, Total: total, Balance: pricing.Balance(total, req.PaymentReceived)}
	if len(warnings) > 0 {
		resp.Warnings = warnings
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}

func countQuote(result string) {
	if obs.QuotesTotal != nil {
		obs.QuotesTotal.WithLabelValues(result).Inc()
	}
}

func toConfigured(in deliverableInput, index int) pricing.ConfiguredProduct {
	id := in.ID
	if id == "" {
		id = "q" + strconv.Itoa(index+1)
	}
	d := pricing.ConfiguredProduct{
		ID:            id,
		ProductID:     in.ProductID,
		ProductName:   in.ProductName,
		Variant:       in.Variant,
		Quantity:      in.Quantity,
		Pages:         in.Pages,
		FieldValues:   in.FieldValues,
		RateOverrides: in.RateOverrides,
	}
	for _, a := range in.Addons {
		d.Addons = append(d.Addons, pricing.SelectedAddon{ID: a.ID, Enabled: a.Enabled, Amount: a.Amount})
	}
	for _, s := range in.Sizes {
		d.Sizes = append(d.Sizes, pricing.SelectedSize{Name: s.Name, Quantity: s.Quantity})
	}
	return d
}

func validationDetails(err error) any {
	var fieldErrs validator.ValidationErrors
	if !asValidationErrors(err, &fieldErrs) {
		return nil
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Namespace())
	}
	return map[string]any{"fields": fields}
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = ve
	return true
}
