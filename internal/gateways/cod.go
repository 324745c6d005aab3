package gateways

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/trivenisilks/triveni-backend/pkg/config"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

// CODAdapter settles offline. Initiate only enforces the business bounds;
// there is no provider transaction and no callback.
type CODAdapter struct {
	logger *logger.Logger
	cfg    config.CODConfig
}

func NewCODAdapter(logg *logger.Logger, cfg config.CODConfig) *CODAdapter {
	return &CODAdapter{logger: logg, cfg: cfg}
}

func (a *CODAdapter) Name() enums.PaymentMethod {
	return enums.PaymentMethodCOD
}

// Initiate validates the COD business rules. This runs before the order
// row exists; a rejected COD attempt must leave nothing behind.
func (a *CODAdapter) Initiate(ctx context.Context, _ *Config, req InitiateRequest) (*InitiateResult, error) {
	if a.cfg.MinAmount > 0 && req.Amount.LessThan(decimal.NewFromInt(int64(a.cfg.MinAmount))) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cash on delivery requires a minimum order of %d", a.cfg.MinAmount))
	}
	if a.cfg.MaxAmount > 0 && req.Amount.GreaterThan(decimal.NewFromInt(int64(a.cfg.MaxAmount))) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cash on delivery is limited to orders up to %d", a.cfg.MaxAmount))
	}
	for _, pincode := range a.cfg.BlockedPincodes {
		if pincode == req.ShippingPincode {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery is not available for this pincode")
		}
	}

	a.logger.Info(a.logger.WithOrderNumber(a.logger.WithGateway(ctx, a.Name().String()), req.OrderNumber), "cod order accepted")
	return &InitiateResult{}, nil
}

func (a *CODAdapter) VerifyCallback(ctx context.Context, _ *Config, _ Callback) (*CallbackResult, error) {
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery has no payment callback")
}
