package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is an immutable snapshot of a purchased line. Price is captured
// at order time and must not track later catalog changes.
type OrderItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`

	Name     string          `gorm:"column:name;not null"`
	Quantity int             `gorm:"column:quantity;not null"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`

	SelectedColor *string `gorm:"column:selected_color"`
	SelectedSize  *string `gorm:"column:selected_size"`
	BlouseOption  *string `gorm:"column:blouse_option"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
