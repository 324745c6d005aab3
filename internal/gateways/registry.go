package gateways

import (
	"fmt"
	"net/http"

	"github.com/trivenisilks/triveni-backend/pkg/config"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

// Registry holds the adapter set built once at startup. The strategy for
// an order is picked here exactly once, at checkout time.
type Registry struct {
	adapters map[enums.PaymentMethod]Adapter
}

// NewRegistry wires the full adapter set from service configuration.
func NewRegistry(logg *logger.Logger, payments config.PaymentsConfig, cod config.CODConfig) *Registry {
	httpClient := &http.Client{Timeout: payments.ProviderHTTPTimeout}

	r := &Registry{adapters: make(map[enums.PaymentMethod]Adapter)}
	r.Register(NewRazorpayAdapter(logg))
	r.Register(NewPhonePeAdapter(httpClient, logg, payments.CallbackBaseURL))
	r.Register(NewPaytmAdapter(logg, payments.CallbackBaseURL))
	r.Register(NewCODAdapter(logg, cod))
	return r
}

// Register adds or replaces an adapter. Tests use this to install stubs.
func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Name()] = adapter
}

// Get resolves the adapter for a payment method.
func (r *Registry) Get(method enums.PaymentMethod) (Adapter, error) {
	adapter, ok := r.adapters[method]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", method))
	}
	return adapter, nil
}
