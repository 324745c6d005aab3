// Package checkout assembles orders: server-side pricing from catalog
// rows, guarded stock decrements, all-or-nothing persistence, and the
// hand-off to the selected payment gateway.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/trivenisilks/triveni-backend/internal/cart"
	"github.com/trivenisilks/triveni-backend/internal/gateways"
	"github.com/trivenisilks/triveni-backend/internal/orders"
	"github.com/trivenisilks/triveni-backend/internal/products"
	"github.com/trivenisilks/triveni-backend/pkg/config"
	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
	"github.com/trivenisilks/triveni-backend/pkg/metrics"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayConfigLoader interface {
	Load(ctx context.Context, method enums.PaymentMethod) (*gateways.Config, error)
}

// Service executes checkout orchestration.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderOutput, error)
}

type service struct {
	tx          txRunner
	cartRepo    cart.Repository
	ordersRepo  orders.Repository
	productRepo products.Repository
	registry    *gateways.Registry
	configs     gatewayConfigLoader
	pricing     config.CheckoutConfig
	logger      *logger.Logger
	metrics     *metrics.PaymentMetrics
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	productRepo products.Repository,
	registry *gateways.Registry,
	configs gatewayConfigLoader,
	pricing config.CheckoutConfig,
	logg *logger.Logger,
	payMetrics *metrics.PaymentMetrics,
) (Service, error) {
	if tx == nil {
		return nil, errors.New("tx runner required")
	}
	if cartRepo == nil {
		return nil, errors.New("cart repository required")
	}
	if ordersRepo == nil {
		return nil, errors.New("orders repository required")
	}
	if productRepo == nil {
		return nil, errors.New("products repository required")
	}
	if registry == nil {
		return nil, errors.New("gateway registry required")
	}
	if configs == nil {
		return nil, errors.New("gateway config loader required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &service{
		tx:          tx,
		cartRepo:    cartRepo,
		ordersRepo:  ordersRepo,
		productRepo: productRepo,
		registry:    registry,
		configs:     configs,
		pricing:     pricing,
		logger:      logg,
		metrics:     payMetrics,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderOutput, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if missing := input.ShippingAddress.Validate(); missing != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is missing "+missing)
	}

	// gateway must be usable before anything is written
	gatewayCfg, err := s.configs.Load(ctx, input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	adapter, err := s.registry.Get(input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	items, err := s.resolveItems(ctx, input)
	if err != nil {
		return nil, err
	}

	catalog, err := s.loadCatalog(ctx, items)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(ctx, input, items, catalog)
	ctx = s.logger.WithOrderNumber(ctx, order.OrderNumber)
	ctx = s.logger.WithGateway(ctx, input.PaymentMethod.String())

	initReq := gateways.InitiateRequest{
		OrderNumber:     order.OrderNumber,
		Amount:          order.Total,
		Currency:        order.Currency,
		CustomerID:      customerID(input.UserID),
		CustomerPhone:   input.CustomerPhone,
		ShippingPincode: input.ShippingAddress.Pincode,
	}

	// COD validates its business bounds before the order row exists
	if input.PaymentMethod == enums.PaymentMethodCOD {
		if _, err := adapter.Initiate(ctx, gatewayCfg, initReq); err != nil {
			return nil, err
		}
		order.Status = enums.OrderStatusConfirmed
		order.StatusHistory.MarkOnce(enums.OrderStatusConfirmed.String(), time.Now())
	}

	if err := s.persist(ctx, input, order, items, catalog); err != nil {
		return nil, err
	}
	s.metrics.IncOrderCreated(input.PaymentMethod.String())
	s.logger.Info(ctx, "order created")

	out := &CreateOrderOutput{Order: order}
	if input.PaymentMethod == enums.PaymentMethodCOD {
		return out, nil
	}

	// the outbound provider call happens after commit; a timeout here
	// leaves the order placed/pending for the status poll to pick up
	started := time.Now()
	payment, err := adapter.Initiate(ctx, gatewayCfg, initReq)
	s.metrics.ObserveInitiate(input.PaymentMethod.String(), time.Since(started))
	if err != nil {
		s.logger.Error(ctx, "payment initiation failed, order left pending", err)
		return nil, err
	}

	if payment.ProviderRef != "" {
		order.ProviderOrderID = &payment.ProviderRef
		if err := s.ordersRepo.Save(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving provider reference")
		}
	}

	out.Payment = payment
	return out, nil
}

// resolveItems returns the requested lines, falling back to the buyer's
// persistent cart for authenticated checkouts that submit none.
func (s *service) resolveItems(ctx context.Context, input CreateOrderInput) ([]ItemInput, error) {
	items := input.Items
	if len(items) == 0 && input.UserID != nil {
		stored, err := s.cartRepo.LoadItems(ctx, *input.UserID)
		if err != nil {
			return nil, err
		}
		for _, row := range stored {
			items = append(items, ItemInput{
				ProductID:     row.ProductID,
				Quantity:      row.Quantity,
				SelectedColor: row.SelectedColor,
				SelectedSize:  row.SelectedSize,
				BlouseOption:  row.BlouseOption,
			})
		}
	}

	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	return items, nil
}

func (s *service) loadCatalog(ctx context.Context, items []ItemInput) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	catalog, err := s.productRepo.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, ok := catalog[item.ProductID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is not available", item.ProductID))
		}
	}
	return catalog, nil
}

// buildOrder computes the authoritative pricing from catalog rows. The
// client-claimed total is only compared, never persisted.
func (s *service) buildOrder(ctx context.Context, input CreateOrderInput, items []ItemInput, catalog map[uuid.UUID]models.Product) *models.Order {
	subtotal := decimal.Zero
	for _, item := range items {
		price := catalog[item.ProductID].Price
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.Zero
	shipping := s.pricing.ShippingFlatRateAmount()
	if subtotal.GreaterThanOrEqual(s.pricing.FreeShippingThresholdAmount()) {
		shipping = decimal.Zero
	}
	tax := subtotal.Sub(discount).Mul(s.pricing.TaxRate()).Round(2)
	total := subtotal.Sub(discount).Add(shipping).Add(tax)

	if input.ClientTotal != nil && !input.ClientTotal.Equal(total) {
		s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
			"client_total": input.ClientTotal.String(),
			"server_total": total.String(),
		}), "client total diverges from server pricing")
	}

	now := time.Now()
	billing := input.ShippingAddress
	if input.BillingAddress != nil {
		billing = *input.BillingAddress
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     orders.NewOrderNumber(),
		UserID:          input.UserID,
		Subtotal:        subtotal,
		Discount:        discount,
		Shipping:        shipping,
		Tax:             tax,
		Total:           total,
		Currency:        enums.Currency(s.pricing.Currency),
		Status:          enums.OrderStatusPlaced,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusPending,
		StatusHistory:   types.StatusHistory{},
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  billing,
	}
	order.StatusHistory.MarkOnce(enums.OrderStatusPlaced.String(), now)
	return order
}

// persist writes the order atomically: header, guarded stock decrements,
// item snapshots, the item-count check, and the cart clear. Any failure
// rolls the whole thing back; an order with zero items must not survive.
func (s *service) persist(ctx context.Context, input CreateOrderInput, order *models.Order, items []ItemInput, catalog map[uuid.UUID]models.Product) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		if err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}

		rows := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			product := catalog[item.ProductID]
			if err := productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			rows = append(rows, models.OrderItem{
				ID:            uuid.New(),
				OrderID:       order.ID,
				ProductID:     item.ProductID,
				Name:          product.Title,
				Quantity:      item.Quantity,
				Price:         product.Price,
				SelectedColor: item.SelectedColor,
				SelectedSize:  item.SelectedSize,
				BlouseOption:  item.BlouseOption,
			})
		}

		if err := ordersRepo.CreateItems(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order items")
		}

		count, err := ordersRepo.CountItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying order items")
		}
		if count != int64(len(rows)) {
			return pkgerrors.New(pkgerrors.CodeInternal, "order items were not persisted")
		}

		// only clear the cart once the items are confirmed on disk
		if input.UserID != nil && len(input.Items) == 0 {
			if err := cartRepo.Clear(ctx, *input.UserID); err != nil {
				return err
			}
		}

		order.Items = rows
		return nil
	})
}

func customerID(userID *uuid.UUID) string {
	if userID == nil {
		return "guest"
	}
	return userID.String()
}
