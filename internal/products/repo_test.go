package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
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
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int, active bool) models.Product {
	t.Helper()
	row := models.Product{
		ID:       uuid.New(),
		SKU:      "SAREE-" + uuid.NewString()[:8],
		Title:    "Kanchipuram Silk Saree",
		Price:    decimal.RequireFromString("4999.00"),
		Stock:    stock,
		IsActive: active,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestFindActiveByIDsSkipsInactive(t *testing.T) {
	db := setupProductsTestDB(t)
	active := seedProduct(t, db, 5, true)
	inactive := seedProduct(t, db, 5, false)

	repo := NewRepository(db)
	found, err := repo.FindActiveByIDs(context.Background(), []uuid.UUID{active.ID, inactive.ID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Contains(t, found, active.ID)
}

func TestDecrementStock(t *testing.T) {
	db := setupProductsTestDB(t)
	row := seedProduct(t, db, 3, true)

	repo := NewRepository(db)
	require.NoError(t, repo.DecrementStock(context.Background(), row.ID, 2))

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", row.ID).Error)
	require.Equal(t, 1, got.Stock)
}

func TestDecrementStockGuardsAgainstOverselling(t *testing.T) {
	db := setupProductsTestDB(t)
	row := seedProduct(t, db, 1, true)

	repo := NewRepository(db)
	err := repo.DecrementStock(context.Background(), row.ID, 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStockConflict))

	// the failed decrement must leave the counter untouched
	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", row.ID).Error)
	require.Equal(t, 1, got.Stock)
}

func TestDecrementStockRejectsInactiveProduct(t *testing.T) {
	db := setupProductsTestDB(t)
	row := seedProduct(t, db, 10, false)

	repo := NewRepository(db)
	err := repo.DecrementStock(context.Background(), row.ID, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStockConflict))
}

func TestRestoreStock(t *testing.T) {
	db := setupProductsTestDB(t)
	row := seedProduct(t, db, 1, true)

	repo := NewRepository(db)
	require.NoError(t, repo.RestoreStock(context.Background(), row.ID, 2))

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", row.ID).Error)
	require.Equal(t, 3, got.Stock)
}

func TestStockQuantityValidation(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	err := repo.DecrementStock(context.Background(), uuid.New(), 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = repo.RestoreStock(context.Background(), uuid.New(), -1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
