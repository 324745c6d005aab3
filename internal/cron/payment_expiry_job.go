package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

const expiryCancelReason = "payment not completed within the allowed window"

type stalePendingReader interface {
	FindStalePendingPayment(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderCanceller interface {
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
}

// PaymentExpiryJobParams configure the stale payment sweeper.
type PaymentExpiryJobParams struct {
	Logger    *logger.Logger
	Stale     stalePendingReader
	Orders    orderCanceller
	TTL       time.Duration
	BatchSize int
}

// NewPaymentExpiryJob builds the cron job that cancels online orders whose
// payment never arrived. Cancellation goes through the order service so the
// state machine records the transition and reserved stock is restored.
func NewPaymentExpiryJob(params PaymentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Stale == nil {
		return nil, fmt.Errorf("stale order reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order canceller required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("pending payment ttl must be positive")
	}
	return &paymentExpiryJob{
		logg:      params.Logger,
		stale:     params.Stale,
		orders:    params.Orders,
		ttl:       params.TTL,
		batchSize: params.BatchSize,
		now:       time.Now,
	}, nil
}

type paymentExpiryJob struct {
	logg      *logger.Logger
	stale     stalePendingReader
	orders    orderCanceller
	ttl       time.Duration
	batchSize int
	now       func() time.Time
}

func (j *paymentExpiryJob) Name() string { return "payment-expiry" }

func (j *paymentExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.stale.FindStalePendingPayment(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var errs []error
	cancelled := 0
	for _, order := range stale {
		orderCtx := j.logg.WithOrderNumber(ctx, order.OrderNumber)
		if _, err := j.orders.Cancel(ctx, order.ID, expiryCancelReason); err != nil {
			// a callback can land between the query and the cancel; a
			// state conflict means the order moved on and is not stale
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				j.logg.Info(orderCtx, "order advanced before expiry; skipping")
				continue
			}
			errs = append(errs, fmt.Errorf("cancel order %s: %w", order.OrderNumber, err))
			continue
		}
		j.logg.Info(orderCtx, "expired unpaid order cancelled")
		cancelled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"examined":  len(stale),
		"cancelled": cancelled,
	})
	j.logg.Info(logCtx, "payment expiry sweep complete")
	return multierr.Combine(errs...)
}
