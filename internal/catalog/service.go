package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arunika-studio/backend-arunika/internal/obs"
	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

const (
	productsCacheKey = "catalog:products"
	ratesCacheKey    = "catalog:rates"
)

// Service loads the product catalog and rate table, with a Redis
// cache-aside layer in front of Postgres.
type Service struct {
	store          Store
	cache          *Cache
	logger         zerolog.Logger
	strictRateKeys bool
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  Store
	Cache  *Cache
	Logger zerolog.Logger
	// StrictRateKeys makes ValidateRateKeys return an error instead of
	// logging when a product references a rate key missing from the table.
	StrictRateKeys bool
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	return &Service{
		store:          cfg.Store,
		cache:          cfg.Cache,
		logger:         cfg.Logger,
		strictRateKeys: cfg.StrictRateKeys,
	}, nil
}

// Products returns the full catalog, from cache when possible.
func (s *Service) Products(ctx context.Context) (pricing.Catalog, error) {
	if s.cache != nil {
		var cached []pricing.Product
		ok, err := s.cache.GetJSON(ctx, productsCacheKey, &cached)
		if err == nil && ok {
			return pricing.NewCatalog(cached), nil
		}
	}
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return pricing.Catalog{}, fmt.Errorf("load products: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, productsCacheKey, products)
	}
	return pricing.NewCatalog(products), nil
}

// Product returns one product by ID.
func (s *Service) Product(ctx context.Context, id int64) (pricing.Product, bool, error) {
	catalog, err := s.Products(ctx)
	if err != nil {
		return pricing.Product{}, false, err
	}
	p, ok := catalog.Product(id)
	return p, ok, nil
}

// Rates returns the rate table, from cache when possible.
func (s *Service) Rates(ctx context.Context) (pricing.RateTable, error) {
	if s.cache != nil {
		var cached pricing.RateTable
		ok, err := s.cache.GetJSON(ctx, ratesCacheKey, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}
	rates, err := s.store.GetRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, ratesCacheKey, rates)
	}
	return rates, nil
}

// UpdateRates upserts rate entries and invalidates the rate cache.
func (s *Service) UpdateRates(ctx context.Context, rates map[string]pricing.Money) error {
	if len(rates) == 0 {
		return errors.New("catalog: no rates to update")
	}
	for key := range rates {
		if strings.TrimSpace(key) == "" {
			return errors.New("catalog: rate key must not be empty")
		}
	}
	if err := s.store.UpsertRates(ctx, rates); err != nil {
		return fmt.Errorf("update rates: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, ratesCacheKey)
	}
	return nil
}

// ValidateRateKeys cross-checks every rate key referenced by the catalog
// against the rate table. Missing keys price as zero at quote time, so a
// misconfiguration here is easy to miss without this startup check.
func (s *Service) ValidateRateKeys(ctx context.Context) error {
	catalog, err := s.Products(ctx)
	if err != nil {
		return err
	}
	rates, err := s.Rates(ctx)
	if err != nil {
		return err
	}
	var missing []string
	seen := make(map[string]struct{})
	record := func(key string) {
		if key == "" {
			return
		}
		if _, ok := rates[key]; ok {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		missing = append(missing, key)
	}
	for _, p := range catalog.Products() {
		for _, key := range p.VariantRateKeys {
			record(key)
		}
		for _, a := range p.Addons {
			record(a.RateKey)
		}
		for _, f := range p.CustomFields {
			record(f.RateKey)
		}
		for _, size := range p.Sizes {
			record(size.RateKey)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	if obs.MissingRateKeysTotal != nil {
		obs.MissingRateKeysTotal.Add(float64(len(missing)))
	}
	if s.strictRateKeys {
		return fmt.Errorf("catalog: rate keys missing from rate table: %s", strings.Join(missing, ", "))
	}
	s.logger.Warn().Strs("missing_rate_keys", missing).Msg("catalog references rate keys absent from rate table")
	return nil
}

// ValidateAddonGraph rejects add-on dependency references that point at
// themselves or at an add-on the product does not define. Pricing assumes a
// well-formed graph, so a bad reference is a hard configuration error.
func (s *Service) ValidateAddonGraph(ctx context.Context) error {
	catalog, err := s.Products(ctx)
	if err != nil {
		return err
	}
	for _, p := range catalog.Products() {
		ids := make(map[string]struct{}, len(p.Addons))
		for _, a := range p.Addons {
			ids[a.ID] = struct{}{}
		}
		for _, a := range p.Addons {
			if a.DependsOn == "" {
				continue
			}
			if a.DependsOn == a.ID {
				return fmt.Errorf("catalog: product %d add-on %q depends on itself", p.ID, a.ID)
			}
			if _, ok := ids[a.DependsOn]; !ok {
				return fmt.Errorf("catalog: product %d add-on %q depends on unknown add-on %q", p.ID, a.ID, a.DependsOn)
			}
		}
	}
	return nil
}
