// Package payments receives gateway confirmations: server-pushed webhooks,
// client-relayed verifications, and status polls. Every inbound path runs
// the same pipeline of config lookup, signature verification, replay guard,
// and state machine drive.
package payments

import (
	"context"
	"errors"
	"time"

	"github.com/trivenisilks/triveni-backend/internal/cart"
	"github.com/trivenisilks/triveni-backend/internal/gateways"
	"github.com/trivenisilks/triveni-backend/internal/orders"
	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
	"github.com/trivenisilks/triveni-backend/pkg/metrics"
	"github.com/trivenisilks/triveni-backend/pkg/redis"
)

type gatewayConfigLoader interface {
	Load(ctx context.Context, method enums.PaymentMethod) (*gateways.Config, error)
}

type orderApplier interface {
	ApplyPaymentResult(ctx context.Context, result orders.PaymentResult) (*models.Order, error)
}

type webhookVerifier interface {
	VerifyWebhook(ctx context.Context, cfg *gateways.Config, cb gateways.Callback) (*gateways.CallbackResult, error)
}

type statusChecker interface {
	Status(ctx context.Context, cfg *gateways.Config, merchantTransactionID string) (*gateways.CallbackResult, error)
}

// Service is the single entry point for payment confirmations.
type Service interface {
	// HandleCallback verifies a provider callback for the given gateway and
	// drives the order accordingly. Used for PhonePe server callbacks, Paytm
	// form posts, and the client-relayed Razorpay verification.
	HandleCallback(ctx context.Context, method enums.PaymentMethod, cb gateways.Callback) (*models.Order, error)

	// HandleRazorpayWebhook verifies a server-pushed Razorpay webhook by its
	// body signature and drives the order.
	HandleRazorpayWebhook(ctx context.Context, cb gateways.Callback) (*models.Order, error)

	// CheckPhonePeStatus polls PhonePe for the transaction behind the order
	// number and reconciles the order with the answer.
	CheckPhonePeStatus(ctx context.Context, orderNumber string) (*models.Order, error)
}

type service struct {
	registry  *gateways.Registry
	configs   gatewayConfigLoader
	orders    orderApplier
	cartRepo  cart.Repository
	idem      redis.IdempotencyStore
	replayTTL time.Duration
	logger    *logger.Logger
	metrics   *metrics.PaymentMetrics

	razorpayWebhooks webhookVerifier
	phonePeStatus    statusChecker
}

// NewService builds the payment confirmation service.
func NewService(
	registry *gateways.Registry,
	configs gatewayConfigLoader,
	orderSvc orderApplier,
	cartRepo cart.Repository,
	idem redis.IdempotencyStore,
	replayTTL time.Duration,
	logg *logger.Logger,
	payMetrics *metrics.PaymentMetrics,
) (Service, error) {
	if registry == nil {
		return nil, errors.New("gateway registry required")
	}
	if configs == nil {
		return nil, errors.New("gateway config loader required")
	}
	if orderSvc == nil {
		return nil, errors.New("order service required")
	}
	if cartRepo == nil {
		return nil, errors.New("cart repository required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}

	svc := &service{
		registry:  registry,
		configs:   configs,
		orders:    orderSvc,
		cartRepo:  cartRepo,
		idem:      idem,
		replayTTL: replayTTL,
		logger:    logg,
		metrics:   payMetrics,
	}
	if adapter, err := registry.Get(enums.PaymentMethodRazorpay); err == nil {
		if verifier, ok := adapter.(webhookVerifier); ok {
			svc.razorpayWebhooks = verifier
		}
	}
	if adapter, err := registry.Get(enums.PaymentMethodPhonePe); err == nil {
		if checker, ok := adapter.(statusChecker); ok {
			svc.phonePeStatus = checker
		}
	}
	return svc, nil
}

func (s *service) HandleCallback(ctx context.Context, method enums.PaymentMethod, cb gateways.Callback) (*models.Order, error) {
	ctx = s.logger.WithGateway(ctx, method.String())

	cfg, err := s.configs.Load(ctx, method)
	if err != nil {
		return nil, err
	}
	adapter, err := s.registry.Get(method)
	if err != nil {
		return nil, err
	}

	result, err := adapter.VerifyCallback(ctx, cfg, cb)
	if err != nil {
		s.metrics.IncCallback(method.String(), metrics.CallbackOutcomeRejected)
		s.logger.Warn(ctx, "callback verification failed")
		return nil, err
	}

	return s.apply(ctx, method, result)
}

func (s *service) HandleRazorpayWebhook(ctx context.Context, cb gateways.Callback) (*models.Order, error) {
	method := enums.PaymentMethodRazorpay
	ctx = s.logger.WithGateway(ctx, method.String())

	if s.razorpayWebhooks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "razorpay webhook handling is not available")
	}
	cfg, err := s.configs.Load(ctx, method)
	if err != nil {
		return nil, err
	}

	result, err := s.razorpayWebhooks.VerifyWebhook(ctx, cfg, cb)
	if err != nil {
		s.metrics.IncCallback(method.String(), metrics.CallbackOutcomeRejected)
		s.logger.Warn(ctx, "webhook verification failed")
		return nil, err
	}

	return s.apply(ctx, method, result)
}

func (s *service) CheckPhonePeStatus(ctx context.Context, orderNumber string) (*models.Order, error) {
	method := enums.PaymentMethodPhonePe
	ctx = s.logger.WithGateway(ctx, method.String())
	ctx = s.logger.WithOrderNumber(ctx, orderNumber)

	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if s.phonePeStatus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "phonepe status check is not available")
	}
	cfg, err := s.configs.Load(ctx, method)
	if err != nil {
		return nil, err
	}

	result, err := s.phonePeStatus.Status(ctx, cfg, orderNumber)
	if err != nil {
		return nil, err
	}
	if result.OrderNumber == "" {
		result.OrderNumber = orderNumber
	}

	return s.apply(ctx, method, result)
}

// apply runs the verified provider verdict through the order state machine
// and the replay guard, then clears the buyer's cart for successful payments
// of authenticated orders.
func (s *service) apply(ctx context.Context, method enums.PaymentMethod, result *gateways.CallbackResult) (*models.Order, error) {
	if result.OrderNumber != "" {
		ctx = s.logger.WithOrderNumber(ctx, result.OrderNumber)
	}

	order, err := s.orders.ApplyPaymentResult(ctx, orders.PaymentResult{
		OrderNumber:           result.OrderNumber,
		ProviderOrderID:       result.ProviderOrderID,
		ProviderTransactionID: result.ProviderTransactionID,
		Success:               result.Success,
		Pending:               result.Pending,
		FailureReason:         result.FailureReason,
	})
	if err != nil {
		s.metrics.IncCallback(method.String(), metrics.CallbackOutcomeRejected)
		return nil, err
	}

	if result.Pending {
		// the decisive delivery is still to come, so the replay guard
		// stays unarmed and the cart stays full
		s.metrics.IncCallback(method.String(), metrics.CallbackOutcomePending)
		s.logger.Info(ctx, "payment still pending at provider")
		return order, nil
	}

	// the guard is armed only after a successful apply; a provider retry
	// of a delivery that failed transiently counts as fresh, not replayed
	outcome := metrics.CallbackOutcomeVerified
	if !s.firstDelivery(ctx, method, result.ProviderTransactionID) {
		outcome = metrics.CallbackOutcomeReplayed
		s.logger.Info(ctx, "callback replay detected")
	}

	if result.Success && order.UserID != nil {
		if err := s.cartRepo.Clear(ctx, *order.UserID); err != nil {
			// the order is already paid; a stuck cart must not fail the callback
			s.logger.Error(ctx, "clearing cart after payment", err)
		}
	}

	s.metrics.IncCallback(method.String(), outcome)
	s.logger.Info(ctx, "payment result applied")
	return order, nil
}

// firstDelivery reports whether this transaction id has not been seen within
// the replay window. Redis being down degrades to treating the callback as
// fresh; ApplyPaymentResult stays a no-op for true replays regardless.
func (s *service) firstDelivery(ctx context.Context, method enums.PaymentMethod, transactionID string) bool {
	if s.idem == nil || transactionID == "" {
		return true
	}
	key := s.idem.IdempotencyKey("callback:"+method.String(), transactionID)
	fresh, err := s.idem.SetNX(ctx, key, time.Now().Unix(), s.replayTTL)
	if err != nil {
		s.logger.Warn(ctx, "callback replay guard unavailable")
		return true
	}
	return fresh
}
