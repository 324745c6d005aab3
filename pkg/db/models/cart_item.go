package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of an authenticated buyer's persistent cart. Guest
// carts never reach this table; guests submit their lines at checkout.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`

	SelectedColor *string `gorm:"column:selected_color"`
	SelectedSize  *string `gorm:"column:selected_size"`
	BlouseOption  *string `gorm:"column:blouse_option"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
