package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

// Store abstracts catalog persistence so handlers and services can be
// exercised against fakes in tests.
type Store interface {
	ListProducts(ctx context.Context) ([]pricing.Product, error)
	GetRates(ctx context.Context) (pricing.RateTable, error)
	UpsertRates(ctx context.Context, rates map[string]pricing.Money) error
}

// PGStore persists the product catalog and rate table in Postgres.
// Product configuration (variants, add-ons, fields, sizes, constraints)
// is stored as JSONB alongside scalar columns.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore backed by the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

type productConfig struct {
	Variants        []string               `json:"variants,omitempty"`
	VariantRateKeys map[string]string      `json:"variantRateKeys,omitempty"`
	SoftConstraints []pricing.SoftConstraint `json:"softConstraints,omitempty"`
	Addons          []pricing.Addon        `json:"addons,omitempty"`
	CustomFields    []pricing.CustomField  `json:"customFields,omitempty"`
	Sizes           []pricing.SizeOption   `json:"sizes,omitempty"`
}

// ListProducts returns all products in display order.
func (s *PGStore) ListProducts(ctx context.Context) ([]pricing.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, config_type, base_price, special_logic, config
		FROM products
		ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []pricing.Product
	for rows.Next() {
		var (
			p          pricing.Product
			configType string
			rawConf    []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &configType, &p.BasePrice, &p.SpecialLogic, &rawConf); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.ConfigType = pricing.ConfigType(configType)
		if len(rawConf) > 0 {
			var conf productConfig
			if err := json.Unmarshal(rawConf, &conf); err != nil {
				return nil, fmt.Errorf("decode product %d config: %w", p.ID, err)
			}
			p.Variants = conf.Variants
			p.VariantRateKeys = conf.VariantRateKeys
			p.SoftConstraints = conf.SoftConstraints
			p.Addons = conf.Addons
			p.CustomFields = conf.CustomFields
			p.Sizes = conf.Sizes
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// GetRates returns the full rate table.
func (s *PGStore) GetRates(ctx context.Context) (pricing.RateTable, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, amount FROM rates`)
	if err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	rates := make(pricing.RateTable)
	for rows.Next() {
		var (
			key    string
			amount int64
		)
		if err := rows.Scan(&key, &amount); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		rates[key] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rates: %w", err)
	}
	return rates, nil
}

// UpsertRates inserts or updates rate entries inside a single transaction.
func (s *PGStore) UpsertRates(ctx context.Context, rates map[string]pricing.Money) error {
	if len(rates) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for key, amount := range rates {
			if _, err := tx.Exec(ctx, `
				INSERT INTO rates (key, amount, updated_at)
				VALUES ($1, $2, now())
				ON CONFLICT (key) DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()`,
				key, amount); err != nil {
				return fmt.Errorf("upsert rate %s: %w", key, err)
			}
		}
		return nil
	})
}

// InsertProduct stores a product definition. Used by the seeder.
func (s *PGStore) InsertProduct(ctx context.Context, p pricing.Product, position int) error {
	conf := productConfig{
		Variants:        p.Variants,
		VariantRateKeys: p.VariantRateKeys,
		SoftConstraints: p.SoftConstraints,
		Addons:          p.Addons,
		CustomFields:    p.CustomFields,
		Sizes:           p.Sizes,
	}
	rawConf, err := json.Marshal(conf)
	if err != nil {
		return fmt.Errorf("encode product %d config: %w", p.ID, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO products (id, name, config_type, base_price, special_logic, config, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			config_type = EXCLUDED.config_type,
			base_price = EXCLUDED.base_price,
			special_logic = EXCLUDED.special_logic,
			config = EXCLUDED.config,
			position = EXCLUDED.position`,
		p.ID, p.Name, string(p.ConfigType), p.BasePrice, p.SpecialLogic, rawConf, position)
	if err != nil {
		return fmt.Errorf("insert product %d: %w", p.ID, err)
	}
	return nil
}
