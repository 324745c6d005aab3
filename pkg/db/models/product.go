package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the slice of the catalog the order core reads: authoritative
// price and the stock counter it decrements. Catalog CRUD lives elsewhere.
type Product struct {
	ID       uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU      string          `gorm:"column:sku;not null;uniqueIndex"`
	Title    string          `gorm:"column:title;not null"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock    int             `gorm:"column:stock;not null;default:0"`
	IsActive bool            `gorm:"column:is_active;not null;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
