package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
)

const (
	defaultUnpaidOrderTTL   = 72 * time.Hour
	defaultUnpaidBatchLimit = 100
)

type unpaidOrderExpirer interface {
	ExpireUnpaid(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type UnpaidOrderExpiryJobParams struct {
	Logger    *logger.Logger
	Orders    unpaidOrderExpirer
	TTL       time.Duration
	BatchSize int
}

// NewUnpaidOrderExpiryJob cancels orders that are still unpaid once they are
// older than TTL. Cancellation goes through the order service so stock is
// returned and the status change event is emitted.
func NewUnpaidOrderExpiryJob(params UnpaidOrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultUnpaidOrderTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultUnpaidBatchLimit
	}
	return &unpaidOrderExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    ttl,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type unpaidOrderExpiryJob struct {
	logg   *logger.Logger
	orders unpaidOrderExpirer
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *unpaidOrderExpiryJob) Name() string { return "unpaid-order-expiry" }

func (j *unpaidOrderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.orders.ExpireUnpaid(ctx, cutoff, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": expired,
	})
	if err != nil {
		return fmt.Errorf("expire unpaid orders: %w", err)
	}
	if expired == j.batch {
		j.logg.Warn(logCtx, "cron.unpaid_order_batch_full")
		return nil
	}
	j.logg.Info(logCtx, "cron.unpaid_order_expiry_complete")
	return nil
}
