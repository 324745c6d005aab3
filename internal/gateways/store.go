package gateways

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/trivenisilks/triveni-backend/pkg/config"
	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

// Config value keys shared by the store and the adapters.
const (
	cfgRazorpayKeyID         = "key_id"
	cfgRazorpayKeySecret     = "key_secret"
	cfgRazorpayWebhookSecret = "webhook_secret"
	cfgMerchantID            = "merchant_id"
	cfgPhonePeSaltKey        = "salt_key"
	cfgPhonePeSaltIndex      = "salt_index"
	cfgPaytmMerchantKey      = "merchant_key"
	cfgPaytmWebsite          = "website"
	cfgPaytmIndustryType     = "industry_type"
	cfgBaseURL               = "base_url"
	cfgEnvironment           = "environment"
)

// ConfigStore resolves a gateway Config snapshot per request. Rows in
// gateway_configs win; env credentials act as a bootstrap fallback so a
// fresh deployment works before admin tooling has written any rows.
type ConfigStore struct {
	db       *gorm.DB
	payments config.PaymentsConfig
}

func NewConfigStore(db *gorm.DB, payments config.PaymentsConfig) *ConfigStore {
	return &ConfigStore{db: db, payments: payments}
}

// Load returns the enabled Config for a provider or a configuration error.
// COD has no credentials; it is always loadable unless explicitly disabled.
func (s *ConfigStore) Load(ctx context.Context, method enums.PaymentMethod) (*Config, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", method))
	}

	var row models.GatewayConfig
	err := s.db.WithContext(ctx).Where("name = ?", method).First(&row).Error
	switch {
	case err == nil:
		if !row.IsEnabled {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("gateway %s is disabled", method))
		}
		return NewConfig(method, true, s.mergeFallback(method, row.Config)), nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.fromEnv(method)

	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading gateway config")
	}
}

func (s *ConfigStore) fromEnv(method enums.PaymentMethod) (*Config, error) {
	values := s.envValues(method)
	if method != enums.PaymentMethodCOD && values.Get(requiredSecretKey(method)) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("gateway %s is not configured", method))
	}
	return NewConfig(method, true, values), nil
}

func (s *ConfigStore) mergeFallback(method enums.PaymentMethod, stored types.JSONMap) types.JSONMap {
	merged := s.envValues(method)
	for k, v := range stored {
		if v != "" {
			merged[k] = v
		}
	}
	return merged
}

func (s *ConfigStore) envValues(method enums.PaymentMethod) types.JSONMap {
	p := s.payments
	switch method {
	case enums.PaymentMethodRazorpay:
		return types.JSONMap{
			cfgRazorpayKeyID:     p.RazorpayKeyID,
			cfgRazorpayKeySecret: p.RazorpayKeySecret,
		}
	case enums.PaymentMethodPhonePe:
		return types.JSONMap{
			cfgMerchantID:       p.PhonePeMerchantID,
			cfgPhonePeSaltKey:   p.PhonePeSaltKey,
			cfgPhonePeSaltIndex: p.PhonePeSaltIndex,
			cfgEnvironment:      p.PhonePeEnv,
		}
	case enums.PaymentMethodPaytm:
		return types.JSONMap{
			cfgMerchantID:        p.PaytmMerchantID,
			cfgPaytmMerchantKey:  p.PaytmMerchantKey,
			cfgPaytmWebsite:      p.PaytmWebsite,
			cfgPaytmIndustryType: p.PaytmIndustryType,
			cfgEnvironment:       p.PaytmEnv,
		}
	default:
		return types.JSONMap{}
	}
}

func requiredSecretKey(method enums.PaymentMethod) string {
	switch method {
	case enums.PaymentMethodRazorpay:
		return cfgRazorpayKeySecret
	case enums.PaymentMethodPhonePe:
		return cfgPhonePeSaltKey
	case enums.PaymentMethodPaytm:
		return cfgPaytmMerchantKey
	default:
		return ""
	}
}
