package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arunika-studio/backend-arunika/internal/common"
	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

// ErrNotFound is returned when the requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Store abstracts order persistence.
type Store interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, limit, offset int) ([]Order, int64, error)
	ListAll(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id string) error
}

// PGStore persists orders in Postgres with deliverables as JSONB.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore backed by the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const orderColumns = `id, code, event_name, event_date, customer_name, status, deliverables, payment_received, total, created_at, updated_at`

// Insert stores a new order. A duplicate code maps to a CONFLICT AppError.
func (s *PGStore) Insert(ctx context.Context, o *Order) error {
	deliverables, err := json.Marshal(o.Deliverables)
	if err != nil {
		return fmt.Errorf("encode deliverables: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO orders (id, code, event_name, event_date, customer_name, status, deliverables, payment_received, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		o.ID, o.Code, o.EventName, o.EventDate, o.CustomerName, o.Status, deliverables, o.PaymentReceived, o.Total)
	if err := row.Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.NewAppError("CONFLICT", "order code already exists", http.StatusConflict, err)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Get loads one order by ID.
func (s *PGStore) Get(ctx context.Context, id string) (Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// List returns a page of orders, newest first, with the total count.
func (s *PGStore) List(ctx context.Context, limit, offset int) ([]Order, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAll returns every order. Used by the background repricer.
func (s *PGStore) ListAll(ctx context.Context) ([]Order, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// Update rewrites the mutable order fields.
func (s *PGStore) Update(ctx context.Context, o *Order) error {
	deliverables, err := json.Marshal(o.Deliverables)
	if err != nil {
		return fmt.Errorf("encode deliverables: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET event_name = $2, event_date = $3, customer_name = $4, status = $5,
		    deliverables = $6, payment_received = $7, total = $8, updated_at = now()
		WHERE id = $1`,
		o.ID, o.EventName, o.EventDate, o.CustomerName, o.Status, deliverables, o.PaymentReceived, o.Total)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an order.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o            Order
		eventDate    *time.Time
		deliverables []byte
	)
	if err := row.Scan(&o.ID, &o.Code, &o.EventName, &eventDate, &o.CustomerName, &o.Status,
		&deliverables, &o.PaymentReceived, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	o.EventDate = eventDate
	if len(deliverables) > 0 {
		if err := json.Unmarshal(deliverables, &o.Deliverables); err != nil {
			return Order{}, fmt.Errorf("decode deliverables: %w", err)
		}
	}
	if o.Deliverables == nil {
		o.Deliverables = []pricing.ConfiguredProduct{}
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}
