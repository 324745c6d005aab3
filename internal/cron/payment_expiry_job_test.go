package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

type stubStaleReader struct {
	orders []models.Order
	err    error
	cutoff time.Time
	limit  int
}

func (s *stubStaleReader) FindStalePendingPayment(_ context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	s.cutoff = cutoff
	s.limit = limit
	return s.orders, s.err
}

type stubCanceller struct {
	cancelled []uuid.UUID
	reasons   []string
	errs      map[uuid.UUID]error
}

func (s *stubCanceller) Cancel(_ context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	if err := s.errs[orderID]; err != nil {
		return nil, err
	}
	s.cancelled = append(s.cancelled, orderID)
	s.reasons = append(s.reasons, reason)
	return &models.Order{ID: orderID}, nil
}

func staleOrder(number string) models.Order {
	return models.Order{ID: uuid.New(), OrderNumber: number}
}

func newExpiryJob(t *testing.T, reader *stubStaleReader, canceller *stubCanceller) *paymentExpiryJob {
	t.Helper()
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "cron-test"}),
		Stale:     reader,
		Orders:    canceller,
		TTL:       24 * time.Hour,
		BatchSize: 50,
	})
	require.NoError(t, err)
	return job.(*paymentExpiryJob)
}

func TestPaymentExpiryJobCancelsStaleOrders(t *testing.T) {
	first := staleOrder("TRV-20260101-0001")
	second := staleOrder("TRV-20260101-0002")
	reader := &stubStaleReader{orders: []models.Order{first, second}}
	canceller := &stubCanceller{}
	job := newExpiryJob(t, reader, canceller)
	fixed := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	require.NoError(t, job.Run(context.Background()))

	require.Equal(t, fixed.Add(-24*time.Hour), reader.cutoff)
	require.Equal(t, 50, reader.limit)
	require.Equal(t, []uuid.UUID{first.ID, second.ID}, canceller.cancelled)
	for _, reason := range canceller.reasons {
		require.Equal(t, expiryCancelReason, reason)
	}
}

func TestPaymentExpiryJobSkipsOrdersThatAdvanced(t *testing.T) {
	raced := staleOrder("TRV-20260101-0003")
	fresh := staleOrder("TRV-20260101-0004")
	reader := &stubStaleReader{orders: []models.Order{raced, fresh}}
	canceller := &stubCanceller{errs: map[uuid.UUID]error{
		raced.ID: pkgerrors.New(pkgerrors.CodeStateConflict, "order is confirmed"),
	}}
	job := newExpiryJob(t, reader, canceller)

	// the paid order is skipped without failing the sweep
	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, []uuid.UUID{fresh.ID}, canceller.cancelled)
}

func TestPaymentExpiryJobCollectsCancelErrors(t *testing.T) {
	broken := staleOrder("TRV-20260101-0005")
	fine := staleOrder("TRV-20260101-0006")
	reader := &stubStaleReader{orders: []models.Order{broken, fine}}
	canceller := &stubCanceller{errs: map[uuid.UUID]error{
		broken.ID: errors.New("db write failed"),
	}}
	job := newExpiryJob(t, reader, canceller)

	err := job.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), broken.OrderNumber)
	// one failure does not stop the rest of the batch
	require.Equal(t, []uuid.UUID{fine.ID}, canceller.cancelled)
}

func TestPaymentExpiryJobPropagatesReaderError(t *testing.T) {
	reader := &stubStaleReader{err: errors.New("connection reset")}
	job := newExpiryJob(t, reader, &stubCanceller{})

	err := job.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "query stale pending orders")
}

func TestNewPaymentExpiryJobValidatesParams(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	_, err := NewPaymentExpiryJob(PaymentExpiryJobParams{Stale: &stubStaleReader{}, Orders: &stubCanceller{}, TTL: time.Hour})
	require.Error(t, err)
	_, err = NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: logg, Orders: &stubCanceller{}, TTL: time.Hour})
	require.Error(t, err)
	_, err = NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: logg, Stale: &stubStaleReader{}, TTL: time.Hour})
	require.Error(t, err)
	_, err = NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: logg, Stale: &stubStaleReader{}, Orders: &stubCanceller{}})
	require.Error(t, err)
}
