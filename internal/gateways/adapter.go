// Package gateways holds one payment adapter per provider behind a uniform
// interface. The adapter for an order is selected once at checkout; callbacks
// re-enter through the same adapter. Credentials come from a per-request
// Config snapshot, never from process-global mutable state.
package gateways

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/trivenisilks/triveni-backend/pkg/enums"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

// InitiateRequest carries everything an adapter needs to open a provider
// transaction for a freshly assembled order.
type InitiateRequest struct {
	OrderNumber     string
	Amount          decimal.Decimal
	Currency        enums.Currency
	CustomerID      string
	CustomerPhone   string
	ShippingPincode string
}

// InitiateResult is what the storefront needs to hand control to the
// provider. Exactly one of RedirectURL, FormParams, or ClientParams is
// populated depending on the provider's integration shape. None of the
// fields may ever contain a secret.
type InitiateResult struct {
	ProviderRef  string
	RedirectURL  string
	FormPostURL  string
	FormParams   map[string]string
	ClientParams map[string]string
}

// Callback is the raw inbound material of a provider confirmation, either
// server-pushed or client-relayed.
type Callback struct {
	Body   []byte
	Header http.Header
	Form   url.Values
}

// CallbackResult is the adapter's verdict on a callback. Verification
// failures are returned as errors; Success reports the provider's own
// payment outcome on an authenticated callback. Pending means the provider
// has not settled the transaction yet, typically a status poll racing the
// asynchronous callback; the order must stay untouched until the decisive
// delivery arrives.
type CallbackResult struct {
	Success               bool
	Pending               bool
	OrderNumber           string
	ProviderOrderID       string
	ProviderTransactionID string
	FailureReason         string
}

// Adapter is the uniform gateway strategy.
type Adapter interface {
	Name() enums.PaymentMethod
	Initiate(ctx context.Context, cfg *Config, req InitiateRequest) (*InitiateResult, error)
	VerifyCallback(ctx context.Context, cfg *Config, cb Callback) (*CallbackResult, error)
}

// Config is an immutable snapshot of one gateway's settings, loaded per
// request from the gateway_configs table (with env fallback).
type Config struct {
	Method  enums.PaymentMethod
	Enabled bool
	values  types.JSONMap
}

// NewConfig builds a snapshot from stored values.
func NewConfig(method enums.PaymentMethod, enabled bool, values types.JSONMap) *Config {
	return &Config{Method: method, Enabled: enabled, values: values}
}

// Value returns a stored setting, or "" when absent.
func (c *Config) Value(key string) string {
	if c == nil {
		return ""
	}
	return c.values.Get(key)
}

func (c *Config) valueOr(key, fallback string) string {
	if v := c.Value(key); v != "" {
		return v
	}
	return fallback
}
