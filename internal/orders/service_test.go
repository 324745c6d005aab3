package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/trivenisilks/triveni-backend/internal/products"
	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
	"github.com/trivenisilks/triveni-backend/pkg/pagination"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ordersSchema := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT,
  subtotal NUMERIC NOT NULL,
  discount NUMERIC NOT NULL DEFAULT 0,
  shipping NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  status TEXT NOT NULL DEFAULT 'placed',
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  provider_order_id TEXT,
  provider_transaction_id TEXT,
  version INTEGER NOT NULL DEFAULT 0,
  status_history TEXT,
  shipping_address TEXT,
  billing_address TEXT,
  cancel_reason TEXT,
  cancelled_at DATETIME,
  return_reason TEXT,
  returned_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	itemsSchema := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  selected_color TEXT,
  selected_size TEXT,
  blouse_option TEXT,
  created_at DATETIME
);`
	productsSchema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, schema := range []string{ordersSchema, itemsSchema, productsSchema} {
		require.NoError(t, db.Exec(schema).Error)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, allowSkip bool) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(db),
		products.NewRepository(db),
		NewMachine(allowSkip),
		&testTxRunner{db: db},
		logger.New(logger.Options{ServiceName: "test"}),
	)
	require.NoError(t, err)
	return svc
}

func seedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus) *models.Order {
	t.Helper()

	product := models.Product{
		ID:       uuid.New(),
		SKU:      "SAREE-" + uuid.NewString()[:8],
		Title:    "Banarasi Silk Saree",
		Price:    decimal.RequireFromString("2499.00"),
		Stock:    10,
		IsActive: true,
	}
	require.NoError(t, db.Create(&product).Error)

	order := models.Order{
		ID:            uuid.New(),
		OrderNumber:   NewOrderNumber(),
		Subtotal:      decimal.RequireFromString("4998.00"),
		Discount:      decimal.Zero,
		Shipping:      decimal.Zero,
		Tax:           decimal.Zero,
		Total:         decimal.RequireFromString("4998.00"),
		Currency:      enums.CurrencyINR,
		Status:        status,
		PaymentMethod: enums.PaymentMethodPhonePe,
		PaymentStatus: enums.PaymentStatusPending,
		StatusHistory: types.StatusHistory{},
	}
	require.NoError(t, db.Omit("Items").Create(&order).Error)

	item := models.OrderItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ProductID: product.ID,
		Name:      product.Title,
		Quantity:  2,
		Price:     product.Price,
	}
	require.NoError(t, db.Create(&item).Error)

	order.Items = []models.OrderItem{item}
	return &order
}

func TestUpdateStatusForwardStep(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusConfirmed, nil)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	require.True(t, updated.StatusHistory.Has("confirmed"))
}

func TestUpdateStatusRejectsSkip(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	_, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	// the order must be untouched
	reloaded, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPlaced, reloaded.Status)
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusPacked)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPacked, nil)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPacked, updated.Status)
}

func TestCancelRestoresStockAndStoresReason(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusConfirmed)

	updated, err := svc.Cancel(context.Background(), order.ID, "changed my mind")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, updated.Status)
	require.NotNil(t, updated.CancelReason)
	require.Equal(t, "changed my mind", *updated.CancelReason)
	require.NotNil(t, updated.CancelledAt)

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", order.Items[0].ProductID).Error)
	require.Equal(t, 12, product.Stock)
}

func TestCancelRequiresReason(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	_, err := svc.Cancel(context.Background(), order.ID, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeliveredOrderCanOnlyBeReturned(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusDelivered)

	_, err := svc.Cancel(context.Background(), order.ID, "too late")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	updated, err := svc.Return(context.Background(), order.ID, "color mismatch")
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusReturned, updated.Status)
	require.NotNil(t, updated.ReturnedAt)
}

func TestTerminalOrderIsFrozen(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusConfirmed)

	_, err := svc.Cancel(context.Background(), order.ID, "out of stock at vendor")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPacked, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestApplyPaymentResultAdvancesPlacedOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	updated, err := svc.ApplyPaymentResult(context.Background(), PaymentResult{
		OrderNumber:           order.OrderNumber,
		ProviderTransactionID: "T240913111",
		Success:               true,
	})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	require.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	require.NotNil(t, updated.ProviderTransactionID)
	require.Equal(t, "T240913111", *updated.ProviderTransactionID)
	require.True(t, updated.StatusHistory.Has("confirmed"))
}

func TestApplyPaymentResultReplayIsNoop(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	result := PaymentResult{
		OrderNumber:           order.OrderNumber,
		ProviderTransactionID: "T240913222",
		Success:               true,
	}

	first, err := svc.ApplyPaymentResult(context.Background(), result)
	require.NoError(t, err)
	confirmedAt := first.StatusHistory["confirmed"]

	replayed, err := svc.ApplyPaymentResult(context.Background(), result)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, replayed.PaymentStatus)
	require.Equal(t, enums.OrderStatusConfirmed, replayed.Status)
	require.True(t, confirmedAt.Equal(replayed.StatusHistory["confirmed"]), "replay must not rewrite history")
}

func TestApplyPaymentResultDoesNotRewindLaterStages(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusShipped)

	updated, err := svc.ApplyPaymentResult(context.Background(), PaymentResult{
		OrderNumber: order.OrderNumber,
		Success:     true,
	})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	require.Equal(t, enums.OrderStatusShipped, updated.Status)
}

func TestApplyPaymentResultFailure(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	updated, err := svc.ApplyPaymentResult(context.Background(), PaymentResult{
		OrderNumber:   order.OrderNumber,
		Success:       false,
		FailureReason: "PAYMENT_DECLINED",
	})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusFailed, updated.PaymentStatus)
	require.Equal(t, enums.OrderStatusPlaced, updated.Status)
}

func TestApplyPaymentResultUnknownOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)

	_, err := svc.ApplyPaymentResult(context.Background(), PaymentResult{
		OrderNumber: "TRV-DOESNOTEXIST",
		Success:     true,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestApplyPaymentResultResolvesByProviderOrderID(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	providerOrderID := "order_rzp_123"
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("provider_order_id", providerOrderID).Error)

	updated, err := svc.ApplyPaymentResult(context.Background(), PaymentResult{
		ProviderOrderID:       providerOrderID,
		ProviderTransactionID: "pay_rzp_456",
		Success:               true,
	})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
}

func TestApplyPaymentResultPendingLeavesOrderWaiting(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	// a status poll that catches the transaction mid-flight is not a verdict
	updated, err := svc.ApplyPaymentResult(context.Background(), PaymentResult{
		OrderNumber:           order.OrderNumber,
		ProviderTransactionID: "T-INFLIGHT",
		Pending:               true,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPlaced, updated.Status)
	require.Equal(t, enums.PaymentStatusPending, updated.PaymentStatus)
	require.Nil(t, updated.ProviderTransactionID)

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	require.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)
	require.NotContains(t, stored.StatusHistory, enums.OrderStatusConfirmed.String())
}

func TestUpdatePaymentStatusAdminOverride(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	updated, err := svc.UpdatePaymentStatus(context.Background(), order.ID, enums.PaymentStatusPaid)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, updated.PaymentStatus)
	require.Equal(t, enums.OrderStatusConfirmed, updated.Status)
}

func TestListForUser(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)

	userID := uuid.New()
	order := seedOrder(t, db, enums.OrderStatusPlaced)
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("user_id", userID).Error)
	seedOrder(t, db, enums.OrderStatusPlaced) // someone else's order

	rows, next, err := svc.ListForUser(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Empty(t, next)
	require.Equal(t, order.ID, rows[0].ID)
}

func TestListForUserPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)

	userID := uuid.New()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		order := seedOrder(t, db, enums.OrderStatusPlaced)
		require.NoError(t, db.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]any{
				"user_id":    userID,
				"created_at": base.Add(time.Duration(i) * time.Minute),
			}).Error)
	}

	first, next, err := svc.ListForUser(context.Background(), userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)
	// newest first
	require.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	rest, next, err := svc.ListForUser(context.Background(), userID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Empty(t, next)
	require.True(t, first[1].CreatedAt.After(rest[0].CreatedAt))
}

func TestListForUserRejectsBadCursor(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newTestService(t, db, false)

	_, _, err := svc.ListForUser(context.Background(), uuid.New(), pagination.Params{Cursor: "not-base64!!"})
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
