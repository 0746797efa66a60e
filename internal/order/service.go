package order

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arunika-studio/backend-arunika/internal/common"
	"github.com/arunika-studio/backend-arunika/internal/obs"
	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

// CatalogProvider supplies reference data for pricing order deliverables.
type CatalogProvider interface {
	Products(ctx context.Context) (pricing.Catalog, error)
	Rates(ctx context.Context) (pricing.RateTable, error)
}

// Service orchestrates order lifecycle and deliverable management.
type Service struct {
	store   Store
	catalog CatalogProvider
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store   Store
	Catalog CatalogProvider
	Logger  zerolog.Logger
	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("order: store is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("order: catalog provider is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Service{
		store:   cfg.Store,
		catalog: cfg.Catalog,
		logger:  cfg.Logger,
		now:     now,
		newID:   newID,
	}, nil
}

// CreateInput captures the payload for creating an order.
type CreateInput struct {
	Code         string
	EventName    string
	EventDate    *time.Time
	CustomerName string
}

// Create opens a new draft order.
func (s *Service) Create(ctx context.Context, input CreateInput) (Order, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return Order{}, common.NewAppError("VALIDATION_ERROR", "code is required", http.StatusBadRequest, nil)
	}
	if strings.TrimSpace(input.EventName) == "" {
		return Order{}, common.NewAppError("VALIDATION_ERROR", "eventName is required", http.StatusBadRequest, nil)
	}
	o := Order{
		ID:           s.newID(),
		Code:         code,
		EventName:    strings.TrimSpace(input.EventName),
		EventDate:    input.EventDate,
		CustomerName: strings.TrimSpace(input.CustomerName),
		Status:       StatusDraft,
		Deliverables: []pricing.ConfiguredProduct{},
	}
	if err := s.store.Insert(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.store.Get(ctx, id)
}

// List returns a page of orders and the total count.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return s.store.List(ctx, perPage, (page-1)*perPage)
}

// UpdateInput captures mutable order header fields. Nil means unchanged.
type UpdateInput struct {
	EventName       *string
	EventDate       *time.Time
	CustomerName    *string
	PaymentReceived *pricing.Money
}

// Update patches event details and payment received.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if input.EventName != nil {
		name := strings.TrimSpace(*input.EventName)
		if name == "" {
			return Order{}, common.NewAppError("VALIDATION_ERROR", "eventName must not be empty", http.StatusBadRequest, nil)
		}
		o.EventName = name
	}
	if input.EventDate != nil {
		o.EventDate = input.EventDate
	}
	if input.CustomerName != nil {
		o.CustomerName = strings.TrimSpace(*input.CustomerName)
	}
	if input.PaymentReceived != nil {
		if *input.PaymentReceived < 0 {
			return Order{}, common.NewAppError("VALIDATION_ERROR", "paymentReceived must not be negative", http.StatusBadRequest, nil)
		}
		o.PaymentReceived = *input.PaymentReceived
	}
	if err := s.store.Update(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// DeliverableInput captures a configured product payload.
type DeliverableInput struct {
	ProductID      int64
	Variant        string
	Quantity       int64
	Pages          int64
	FieldValues    map[string]int64
	Addons         []pricing.SelectedAddon
	Sizes          []pricing.SelectedSize
	SpecialRequest string
	RateOverrides  map[string]pricing.Money
}

// AddDeliverable appends a configured product to the order. The display
// name takes a sequence suffix when the product already appears.
func (s *Service) AddDeliverable(ctx context.Context, orderID string, input DeliverableInput) (Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	catalog, err := s.catalog.Products(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("load catalog: %w", err)
	}
	product, ok := catalog.Product(input.ProductID)
	if !ok {
		return Order{}, common.NewAppError("VALIDATION_ERROR", "unknown product", http.StatusBadRequest, nil)
	}
	if len(product.Variants) > 0 && !containsVariant(product.Variants, input.Variant) {
		return Order{}, common.NewAppError("VALIDATION_ERROR", "a variant must be selected", http.StatusBadRequest, nil)
	}
	d := pricing.ConfiguredProduct{
		ID:             s.newID(),
		ProductID:      input.ProductID,
		ProductName:    suffixName(product.Name, o.Deliverables),
		Variant:        input.Variant,
		Quantity:       input.Quantity,
		Pages:          input.Pages,
		FieldValues:    input.FieldValues,
		Addons:         input.Addons,
		Sizes:          input.Sizes,
		SpecialRequest: input.SpecialRequest,
		RateOverrides:  input.RateOverrides,
	}
	d.Warning = pricing.Warning(d, product)
	o.Deliverables = append(o.Deliverables, d)
	if err := s.recomputeTotal(ctx, &o, catalog); err != nil {
		return Order{}, err
	}
	if err := s.store.Update(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// UpdateDeliverable replaces a deliverable's configuration in place.
func (s *Service) UpdateDeliverable(ctx context.Context, orderID, deliverableID string, input DeliverableInput) (Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	idx := -1
	for i, d := range o.Deliverables {
		if d.ID == deliverableID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Order{}, common.NewAppError("NOT_FOUND", "deliverable not found", http.StatusNotFound, nil)
	}
	catalog, err := s.catalog.Products(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("load catalog: %w", err)
	}
	product, ok := catalog.Product(input.ProductID)
	if !ok {
		return Order{}, common.NewAppError("VALIDATION_ERROR", "unknown product", http.StatusBadRequest, nil)
	}
	if len(product.Variants) > 0 && !containsVariant(product.Variants, input.Variant) {
		return Order{}, common.NewAppError("VALIDATION_ERROR", "a variant must be selected", http.StatusBadRequest, nil)
	}
	d := o.Deliverables[idx]
	keepName := d.ProductID == input.ProductID
	d.ProductID = input.ProductID
	if !keepName {
		d.ProductName = suffixName(product.Name, removeAt(o.Deliverables, idx))
	}
	d.Variant = input.Variant
	d.Quantity = input.Quantity
	d.Pages = input.Pages
	d.FieldValues = input.FieldValues
	d.Addons = input.Addons
	d.Sizes = input.Sizes
	d.SpecialRequest = input.SpecialRequest
	d.RateOverrides = input.RateOverrides
	d.Warning = pricing.Warning(d, product)
	o.Deliverables[idx] = d
	if err := s.recomputeTotal(ctx, &o, catalog); err != nil {
		return Order{}, err
	}
	if err := s.store.Update(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// RemoveDeliverable deletes a deliverable from the order.
func (s *Service) RemoveDeliverable(ctx context.Context, orderID, deliverableID string) (Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	kept := o.Deliverables[:0]
	found := false
	for _, d := range o.Deliverables {
		if d.ID == deliverableID {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return Order{}, common.NewAppError("NOT_FOUND", "deliverable not found", http.StatusNotFound, nil)
	}
	o.Deliverables = kept
	catalog, err := s.catalog.Products(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("load catalog: %w", err)
	}
	if err := s.recomputeTotal(ctx, &o, catalog); err != nil {
		return Order{}, err
	}
	if err := s.store.Update(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Billing prices the order's deliverables into the billable breakdown.
func (s *Service) Billing(ctx context.Context, id string) (Billing, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Billing{}, err
	}
	catalog, err := s.catalog.Products(ctx)
	if err != nil {
		return Billing{}, fmt.Errorf("load catalog: %w", err)
	}
	rates, err := s.catalog.Rates(ctx)
	if err != nil {
		return Billing{}, fmt.Errorf("load rates: %w", err)
	}
	items := pricing.PriceAll(o.Deliverables, catalog, rates)
	total := pricing.Total(items)
	billing := Billing{
		Items:           items,
		Total:           total,
		PaymentReceived: o.PaymentReceived,
		Balance:         pricing.Balance(total, o.PaymentReceived),
	}
	warnings := make(map[string]string)
	for _, d := range o.Deliverables {
		if d.Warning != "" {
			warnings[d.ID] = d.Warning
		}
	}
	if len(warnings) > 0 {
		billing.Warnings = warnings
	}
	return billing, nil
}

// Activate promotes a draft order that prices to at least one billable item.
func (s *Service) Activate(ctx context.Context, id string) (Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.Status == StatusActive {
		return Order{}, common.NewAppError("INVALID_STATE", "order is already active", http.StatusBadRequest, nil)
	}
	catalog, err := s.catalog.Products(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("load catalog: %w", err)
	}
	rates, err := s.catalog.Rates(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("load rates: %w", err)
	}
	items := pricing.PriceAll(o.Deliverables, catalog, rates)
	if len(items) == 0 {
		return Order{}, common.NewAppError("INVALID_STATE", "order has no billable items", http.StatusBadRequest, nil)
	}
	o.Status = StatusActive
	o.Total = pricing.Total(items)
	if err := s.store.Update(ctx, &o); err != nil {
		return Order{}, err
	}
	if obs.OrdersActivatedTotal != nil {
		obs.OrdersActivatedTotal.Inc()
	}
	return o, nil
}

// RepriceAll recomputes cached totals for every order against the current
// catalog and rate table. Run by the background worker after rate changes.
func (s *Service) RepriceAll(ctx context.Context) (int, error) {
	catalog, err := s.catalog.Products(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}
	rates, err := s.catalog.Rates(ctx)
	if err != nil {
		return 0, fmt.Errorf("load rates: %w", err)
	}
	orders, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	updated := 0
	for i := range orders {
		o := orders[i]
		total := pricing.Total(pricing.PriceAll(o.Deliverables, catalog, rates))
		if total == o.Total {
			continue
		}
		o.Total = total
		if err := s.store.Update(ctx, &o); err != nil {
			s.logger.Error().Err(err).Str("order_id", o.ID).Msg("reprice order")
			continue
		}
		updated++
	}
	if obs.OrdersRepricedTotal != nil && updated > 0 {
		obs.OrdersRepricedTotal.Add(float64(updated))
	}
	return updated, nil
}

func (s *Service) recomputeTotal(ctx context.Context, o *Order, catalog pricing.Catalog) error {
	rates, err := s.catalog.Rates(ctx)
	if err != nil {
		return fmt.Errorf("load rates: %w", err)
	}
	o.Total = pricing.Total(pricing.PriceAll(o.Deliverables, catalog, rates))
	return nil
}

func containsVariant(variants []string, v string) bool {
	for _, candidate := range variants {
		if candidate == v {
			return true
		}
	}
	return false
}

// suffixName appends " (n)" when the base product name is already used by
// another deliverable, so repeated products stay distinguishable.
func suffixName(base string, existing []pricing.ConfiguredProduct) string {
	count := 0
	for _, d := range existing {
		if d.ProductName == base || strings.HasPrefix(d.ProductName, base+" (") {
			count++
		}
	}
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s (%d)", base, count+1)
}

func removeAt(deliverables []pricing.ConfiguredProduct, idx int) []pricing.ConfiguredProduct {
	out := make([]pricing.ConfiguredProduct, 0, len(deliverables)-1)
	out = append(out, deliverables[:idx]...)
	return append(out, deliverables[idx+1:]...)
}
