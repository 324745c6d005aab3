package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trivenisilks/triveni-backend/pkg/enums"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

// Order is one purchase transaction. It is created exactly once at checkout
// and afterwards mutated only through the state machine; rows are never
// hard-deleted, cancellation is a terminal status.
type Order struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string     `gorm:"column:order_number;not null;uniqueIndex"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid;index"`

	// total = subtotal - discount + shipping + tax, enforced at creation
	// and never silently recomputed afterwards.
	Subtotal decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	Shipping decimal.Decimal `gorm:"column:shipping;type:numeric(12,2);not null"`
	Tax      decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null"`
	Total    decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	Currency enums.Currency  `gorm:"column:currency;type:text;not null;default:'INR'"`

	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'placed'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`

	ProviderOrderID       *string `gorm:"column:provider_order_id;index"`
	ProviderTransactionID *string `gorm:"column:provider_transaction_id;index"`

	StatusHistory   types.StatusHistory `gorm:"column:status_history;type:jsonb;serializer:json"`
	ShippingAddress types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress  types.Address       `gorm:"column:billing_address;type:jsonb;serializer:json"`

	// Version guards concurrent transitions. Saving a row whose version
	// moved on since it was read fails instead of overwriting the newer
	// state.
	Version int `gorm:"column:version;not null;default:0"`

	CancelReason *string    `gorm:"column:cancel_reason"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at"`
	ReturnReason *string    `gorm:"column:return_reason"`
	ReturnedAt   *time.Time `gorm:"column:returned_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
