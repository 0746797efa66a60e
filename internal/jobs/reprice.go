package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TypeRepriceOrders recomputes cached totals for every order. Enqueued
// after the rate table changes.
const TypeRepriceOrders = "order:reprice"

// Enqueuer schedules background tasks through asynq.
type Enqueuer struct {
	client *asynq.Client
	logger zerolog.Logger
}

// NewEnqueuer constructs an Enqueuer over an asynq client.
func NewEnqueuer(client *asynq.Client, logger zerolog.Logger) *Enqueuer {
	return &Enqueuer{client: client, logger: logger}
}

// EnqueueRepriceAll schedules a full reprice pass. Bursts of rate updates
// collapse into one task via asynq's uniqueness window.
func (e *Enqueuer) EnqueueRepriceAll(ctx context.Context) error {
	if e == nil || e.client == nil {
		return fmt.Errorf("jobs: enqueuer not configured")
	}
	task := asynq.NewTask(TypeRepriceOrders, nil)
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Unique(time.Minute),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", TypeRepriceOrders, err)
	}
	e.logger.Info().Str("task_id", info.ID).Str("queue", info.Queue).Msg("reprice task enqueued")
	return nil
}

// Repricer recomputes order totals against current reference data.
type Repricer interface {
	RepriceAll(ctx context.Context) (int, error)
}

// NewRepriceHandler returns the asynq handler for TypeRepriceOrders.
func NewRepriceHandler(repricer Repricer, logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		started := time.Now()
		updated, err := repricer.RepriceAll(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("reprice pass failed")
			return err
		}
		logger.Info().
			Int("orders_updated", updated).
			Dur("took", time.Since(started)).
			Msg("reprice pass complete")
		return nil
	}
}
