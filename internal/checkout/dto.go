package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trivenisilks/triveni-backend/internal/gateways"
	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

// ItemInput is one requested line. Authenticated checkouts may omit Items
// entirely and have the persistent cart loaded instead; guests always
// submit their lines.
type ItemInput struct {
	ProductID     uuid.UUID
	Quantity      int
	SelectedColor *string
	SelectedSize  *string
	BlouseOption  *string
}

// CreateOrderInput is the full checkout request.
type CreateOrderInput struct {
	UserID          *uuid.UUID
	Items           []ItemInput
	ShippingAddress types.Address
	BillingAddress  *types.Address
	PaymentMethod   enums.PaymentMethod
	CustomerPhone   string

	// ClientTotal is what the storefront believes the order costs. It is
	// never trusted; a divergence from the server-computed total is logged.
	ClientTotal *decimal.Decimal
}

// CreateOrderOutput pairs the persisted order with whatever the client
// needs to continue the payment flow.
type CreateOrderOutput struct {
	Order   *models.Order
	Payment *gateways.InitiateResult
}
