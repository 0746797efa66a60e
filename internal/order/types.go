package order

import (
	"time"

	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

// Status enumerates the order lifecycle.
const (
	StatusDraft  = "DRAFT"
	StatusActive = "ACTIVE"
)

// Order aggregates an event's configured deliverables and payment state.
// Deliverables are stored as a JSONB document; pricing is recomputed on
// demand and the total cached for listings.
type Order struct {
	ID              string                      `json:"id"`
	Code            string                      `json:"code"`
	EventName       string                      `json:"eventName"`
	EventDate       *time.Time                  `json:"eventDate,omitempty"`
	CustomerName    string                      `json:"customerName"`
	Status          string                      `json:"status"`
	Deliverables    []pricing.ConfiguredProduct `json:"deliverables"`
	PaymentReceived pricing.Money               `json:"paymentReceived"`
	Total           pricing.Money               `json:"total"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// Billing is the priced view of an order.
type Billing struct {
	Items           []pricing.BillableItem `json:"items"`
	Total           pricing.Money          `json:"total"`
	PaymentReceived pricing.Money          `json:"paymentReceived"`
	Balance         pricing.Money          `json:"balance"`
	Warnings        map[string]string      `json:"warnings,omitempty"`
}
