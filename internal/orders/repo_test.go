package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
)

func TestRepositoryCountItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	count, err := repo.CountItems(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	count, err = repo.CountItems(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestRepositoryFindByOrderNumberPreloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	found, err := repo.FindByOrderNumber(context.Background(), order.OrderNumber)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	require.Equal(t, order.Items[0].ID, found.Items[0].ID)
}

func TestRepositoryFindStalePendingPayment(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	stale := seedOrder(t, db, enums.OrderStatusPlaced)
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", stale.ID).
		Update("created_at", cutoff.Add(-time.Hour)).Error)

	// fresh order, paid order and COD order must all stay out
	fresh := seedOrder(t, db, enums.OrderStatusPlaced)
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", fresh.ID).
		Update("created_at", cutoff.Add(time.Hour)).Error)

	paid := seedOrder(t, db, enums.OrderStatusConfirmed)
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", paid.ID).
		Updates(map[string]any{
			"created_at":     cutoff.Add(-time.Hour),
			"payment_status": enums.PaymentStatusPaid,
		}).Error)

	cod := seedOrder(t, db, enums.OrderStatusPlaced)
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", cod.ID).
		Updates(map[string]any{
			"created_at":     cutoff.Add(-time.Hour),
			"payment_method": enums.PaymentMethodCOD,
		}).Error)

	rows, err := repo.FindStalePendingPayment(context.Background(), cutoff, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, stale.ID, rows[0].ID)
	require.Len(t, rows[0].Items, 1)

	rows, err = repo.FindStalePendingPayment(context.Background(), cutoff, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRepositorySaveRejectsStaleWrite(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, enums.OrderStatusPlaced)

	// two transactions read the same placed order
	cancelling, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	confirming, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)

	cancelling.Status = enums.OrderStatusCancelled
	require.NoError(t, repo.Save(context.Background(), cancelling))

	// the second write must not resurrect the order it read as placed
	confirming.Status = enums.OrderStatusConfirmed
	confirming.PaymentStatus = enums.PaymentStatusPaid
	err = repo.Save(context.Background(), confirming)
	require.ErrorIs(t, err, ErrStaleOrder)

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	require.Equal(t, enums.OrderStatusCancelled, stored.Status)
	require.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)
}

func TestNewOrderNumberShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		number := NewOrderNumber()
		require.Regexp(t, `^TRV-[0-9A-Z]+$`, number)
		require.False(t, seen[number], "order numbers should not collide in practice")
		seen[number] = true
	}
}
