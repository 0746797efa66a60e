package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts quote pricing requests by outcome.
	QuotesTotal *prometheus.CounterVec
	// BillableComponentsTotal counts billable components emitted by the engine.
	BillableComponentsTotal prometheus.Counter
	// MissingRateKeysTotal counts rate-key lookups that resolved to zero.
	MissingRateKeysTotal prometheus.Counter
	// OrdersActivatedTotal counts draft orders promoted to active.
	OrdersActivatedTotal prometheus.Counter
	// OrdersRepricedTotal counts orders whose cached total changed in a reprice pass.
	OrdersRepricedTotal prometheus.Counter
	// PricingDuration records engine pricing latency in milliseconds.
	PricingDuration prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of quote pricing requests by outcome.",
		}, []string{"result"})
		BillableComponentsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billable_components_total",
			Help:      "Total billable components emitted by the pricing engine.",
		})
		MissingRateKeysTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_rate_keys_total",
			Help:      "Rate-key lookups that resolved to zero because the key was absent.",
		})
		OrdersActivatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_activated_total",
			Help:      "Draft orders promoted to active.",
		})
		OrdersRepricedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_repriced_total",
			Help:      "Orders whose cached total changed during a reprice pass.",
		})
		PricingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_duration_ms",
			Help:      "Pricing engine latency in milliseconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		})

		mustRegisterCollector(reg, QuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuotesTotal = v
			}
		})
		mustRegisterCollector(reg, BillableComponentsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				BillableComponentsTotal = v
			}
		})
		mustRegisterCollector(reg, MissingRateKeysTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				MissingRateKeysTotal = v
			}
		})
		mustRegisterCollector(reg, OrdersActivatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersActivatedTotal = v
			}
		})
		mustRegisterCollector(reg, OrdersRepricedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersRepricedTotal = v
			}
		})
		mustRegisterCollector(reg, PricingDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				PricingDuration = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
