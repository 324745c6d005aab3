package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trivenisilks/triveni-backend/internal/products"
	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
	"github.com/trivenisilks/triveni-backend/pkg/pagination"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PaymentResult is the outcome of an authenticated provider confirmation,
// already verified by the gateway adapter.
type PaymentResult struct {
	OrderNumber           string
	ProviderOrderID       string
	ProviderTransactionID string
	Success               bool
	Pending               bool
	FailureReason         string
}

// Service drives order lifecycle transitions.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, reason *string) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, target enums.PaymentStatus) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	Return(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	ApplyPaymentResult(ctx context.Context, result PaymentResult) (*models.Order, error)
}

type service struct {
	repo     Repository
	products products.Repository
	machine  *Machine
	tx       txRunner
	logger   *logger.Logger
}

// NewService builds the order service with its required dependencies.
func NewService(repo Repository, productsRepo products.Repository, machine *Machine, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("orders repository required")
	}
	if productsRepo == nil {
		return nil, errors.New("products repository required")
	}
	if machine == nil {
		return nil, errors.New("state machine required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &service{
		repo:     repo,
		products: productsRepo,
		machine:  machine,
		tx:       tx,
		logger:   logg,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err)
	}
	return order, nil
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, notFoundOrInternal(err)
	}
	return order, nil
}

// ListForUser pages through a customer's orders, newest first. The returned
// cursor is empty on the last page.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByUser(ctx, userID, limit+1, cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// UpdateStatus applies one state-machine transition inside a transaction.
// Cancellation and return demand a reason and stamp their timestamp
// columns; cancellation also puts the stock back.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, reason *string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if requiresReason(target) && (reason == nil || *reason == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a reason is required for "+target.String())
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOrInternal(err)
		}

		noop, err := s.applyStatus(ctx, order, target, reason, time.Now())
		if err != nil {
			return err
		}
		if noop {
			updated = order
			return nil
		}

		if target == enums.OrderStatusCancelled {
			if err := s.restoreStock(ctx, tx, order); err != nil {
				return err
			}
		}

		if err := saveOrder(ctx, repo, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_number": updated.OrderNumber,
		"status":       updated.Status.String(),
	}), "order status updated")
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	return s.UpdateStatus(ctx, orderID, enums.OrderStatusCancelled, &reason)
}

func (s *service) Return(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	return s.UpdateStatus(ctx, orderID, enums.OrderStatusReturned, &reason)
}

// UpdatePaymentStatus is the admin override path. Marking an order paid
// goes through the same auto-advance as a verified callback.
func (s *service) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, target enums.PaymentStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOrInternal(err)
		}

		if order.PaymentStatus == target {
			updated = order
			return nil
		}

		order.PaymentStatus = target
		if target == enums.PaymentStatusPaid {
			if err := s.advanceOnPayment(ctx, order, time.Now()); err != nil {
				return err
			}
		}

		if err := saveOrder(ctx, repo, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ApplyPaymentResult resolves the order behind a verified callback and
// records the outcome. Replays are no-ops: an order that is already paid
// with the same transaction id is returned unchanged.
func (s *service) ApplyPaymentResult(ctx context.Context, result PaymentResult) (*models.Order, error) {
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.resolve(ctx, repo, result)
		if err != nil {
			return err
		}

		if order.Status.IsTerminal() {
			// a callback for a cancelled order is an integrity signal, not a mutation
			s.logger.Warn(s.logger.WithOrderNumber(ctx, order.OrderNumber), "payment result for terminal order ignored")
			updated = order
			return nil
		}

		if result.Pending {
			// the provider has not decided; the order keeps waiting for
			// the decisive callback
			s.logger.Info(s.logger.WithOrderNumber(ctx, order.OrderNumber), "payment still pending at provider")
			updated = order
			return nil
		}

		if result.Success {
			if order.PaymentStatus == enums.PaymentStatusPaid {
				updated = order
				return nil
			}
			order.PaymentStatus = enums.PaymentStatusPaid
			if result.ProviderTransactionID != "" {
				order.ProviderTransactionID = &result.ProviderTransactionID
			}
			if err := s.advanceOnPayment(ctx, order, time.Now()); err != nil {
				return err
			}
		} else {
			if order.PaymentStatus == enums.PaymentStatusFailed {
				updated = order
				return nil
			}
			order.PaymentStatus = enums.PaymentStatusFailed
			if result.ProviderTransactionID != "" {
				order.ProviderTransactionID = &result.ProviderTransactionID
			}
			s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
				"order_number": order.OrderNumber,
				"reason":       result.FailureReason,
			}), "payment failed")
		}

		if err := saveOrder(ctx, repo, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) resolve(ctx context.Context, repo Repository, result PaymentResult) (*models.Order, error) {
	if result.OrderNumber != "" {
		order, err := repo.FindByOrderNumber(ctx, result.OrderNumber)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving order")
		}
	}
	if result.ProviderOrderID != "" {
		order, err := repo.FindByProviderOrderID(ctx, result.ProviderOrderID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving order")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "callback references an unknown order")
}

// applyStatus mutates the order for one validated transition.
func (s *service) applyStatus(ctx context.Context, order *models.Order, target enums.OrderStatus, reason *string, now time.Time) (noop bool, err error) {
	noop, err = s.machine.Validate(order.Status, target)
	if err != nil || noop {
		return noop, err
	}

	order.Status = target
	if order.StatusHistory == nil {
		order.StatusHistory = types.StatusHistory{}
	}
	order.StatusHistory.MarkOnce(target.String(), now)

	switch target {
	case enums.OrderStatusCancelled:
		order.CancelReason = reason
		at := now.UTC()
		order.CancelledAt = &at
	case enums.OrderStatusReturned:
		order.ReturnReason = reason
		at := now.UTC()
		order.ReturnedAt = &at
	}
	return false, nil
}

// advanceOnPayment moves a just-paid order from placed to confirmed.
// Later stages are left alone; a late callback must not rewind progress.
func (s *service) advanceOnPayment(ctx context.Context, order *models.Order, now time.Time) error {
	if order.Status != enums.OrderStatusPlaced {
		return nil
	}
	_, err := s.applyStatus(ctx, order, enums.OrderStatusConfirmed, nil, now)
	return err
}

func (s *service) restoreStock(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	repo := s.products.WithTx(tx)
	for _, item := range order.Items {
		if err := repo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func requiresReason(target enums.OrderStatus) bool {
	return target == enums.OrderStatusCancelled || target == enums.OrderStatusReturned
}

// saveOrder maps a stale write to a conflict the caller can retry; the
// competing transition already owns the row.
func saveOrder(ctx context.Context, repo Repository, order *models.Order) error {
	if err := repo.Save(ctx, order); err != nil {
		if errors.Is(err, ErrStaleOrder) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order changed concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving order")
	}
	return nil
}

func notFoundOrInternal(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
}
