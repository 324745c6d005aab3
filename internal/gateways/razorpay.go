package gateways

import (
	"context"
	"encoding/json"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/trivenisilks/triveni-backend/internal/checksum"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

// RazorpayAdapter opens provider orders through the official SDK and
// verifies client-relayed payment confirmations with the local signature
// engine (the constant-time compare lives there, not in the SDK).
type RazorpayAdapter struct {
	logger    *logger.Logger
	newClient func(keyID, keySecret string) razorpayOrderCreator
}

type razorpayOrderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

func NewRazorpayAdapter(logg *logger.Logger) *RazorpayAdapter {
	return &RazorpayAdapter{
		logger: logg,
		newClient: func(keyID, keySecret string) razorpayOrderCreator {
			return razorpay.NewClient(keyID, keySecret).Order
		},
	}
}

func (a *RazorpayAdapter) Name() enums.PaymentMethod {
	return enums.PaymentMethodRazorpay
}

func (a *RazorpayAdapter) Initiate(ctx context.Context, cfg *Config, req InitiateRequest) (*InitiateResult, error) {
	keyID := cfg.Value(cfgRazorpayKeyID)
	keySecret := cfg.Value(cfgRazorpayKeySecret)
	if keyID == "" || keySecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "razorpay credentials are not configured")
	}

	ctx = a.logger.WithGateway(ctx, a.Name().String())
	ctx = a.logger.WithOrderNumber(ctx, req.OrderNumber)

	data := map[string]interface{}{
		"amount":   toPaise(req.Amount),
		"currency": req.Currency.String(),
		"receipt":  req.OrderNumber,
	}

	order, err := a.newClient(keyID, keySecret).Create(data, nil)
	if err != nil {
		a.logger.Error(ctx, "razorpay order create failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating razorpay order")
	}

	providerOrderID, _ := order["id"].(string)
	if providerOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay order create returned no id")
	}

	a.logger.Info(a.logger.WithField(ctx, "provider_order_id", providerOrderID), "razorpay order created")

	return &InitiateResult{
		ProviderRef: providerOrderID,
		ClientParams: map[string]string{
			"key_id":            keyID,
			"provider_order_id": providerOrderID,
			"amount":            fmt.Sprintf("%d", toPaise(req.Amount)),
			"currency":          req.Currency.String(),
		},
	}, nil
}

// razorpayCallbackBody is the client-relayed confirmation: the browser
// posts these three fields after completing the payment sheet.
type razorpayCallbackBody struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

func (a *RazorpayAdapter) VerifyCallback(ctx context.Context, cfg *Config, cb Callback) (*CallbackResult, error) {
	keySecret := cfg.Value(cfgRazorpayKeySecret)
	if keySecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "razorpay credentials are not configured")
	}

	var body razorpayCallbackBody
	if err := json.Unmarshal(cb.Body, &body); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed razorpay verification body")
	}
	if body.PaymentID == "" || body.OrderID == "" || body.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "razorpay verification requires payment id, order id and signature")
	}

	ok, err := checksum.VerifyRazorpay(body.OrderID, body.PaymentID, body.Signature, keySecret)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "razorpay signature mismatch")
	}

	return &CallbackResult{
		Success:               true,
		ProviderOrderID:       body.OrderID,
		ProviderTransactionID: body.PaymentID,
	}, nil
}

// VerifyWebhook authenticates a server-pushed Razorpay webhook: HMAC-SHA256
// over the raw body against the X-Razorpay-Signature header.
func (a *RazorpayAdapter) VerifyWebhook(ctx context.Context, cfg *Config, cb Callback) (*CallbackResult, error) {
	secret := cfg.Value(cfgRazorpayWebhookSecret)
	if secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "razorpay webhook secret is not configured")
	}

	signature := cb.Header.Get("X-Razorpay-Signature")
	ok, err := checksum.VerifyRazorpayWebhook(cb.Body, signature, secret)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "razorpay webhook signature mismatch")
	}

	var event struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID      string `json:"id"`
					OrderID string `json:"order_id"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(cb.Body, &event); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed razorpay webhook body")
	}

	res := &CallbackResult{
		Success:               event.Event == "payment.captured" || event.Event == "order.paid",
		ProviderOrderID:       event.Payload.Payment.Entity.OrderID,
		ProviderTransactionID: event.Payload.Payment.Entity.ID,
	}
	if !res.Success {
		res.FailureReason = event.Event
	}
	return res, nil
}
