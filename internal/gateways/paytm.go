package gateways

import (
	"context"
	"fmt"
	"strings"

	"github.com/trivenisilks/triveni-backend/internal/checksum"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

const (
	paytmSuccessStatus = "TXN_SUCCESS"
	paytmPendingStatus = "PENDING"
)

var paytmFormURLs = map[string]string{
	"staging":    "https://securegw-stage.paytm.in/order/process",
	"production": "https://securegw.paytm.in/order/process",
}

// PaytmAdapter prepares the signed parameter set for Paytm's hosted page.
// Initiate makes no network call; the buyer's browser posts the form
// straight to the provider and Paytm answers with a server-to-server
// form callback.
type PaytmAdapter struct {
	logger          *logger.Logger
	callbackBaseURL string
}

func NewPaytmAdapter(logg *logger.Logger, callbackBaseURL string) *PaytmAdapter {
	return &PaytmAdapter{
		logger:          logg,
		callbackBaseURL: strings.TrimRight(callbackBaseURL, "/"),
	}
}

func (a *PaytmAdapter) Name() enums.PaymentMethod {
	return enums.PaymentMethodPaytm
}

func (a *PaytmAdapter) Initiate(ctx context.Context, cfg *Config, req InitiateRequest) (*InitiateResult, error) {
	merchantID := cfg.Value(cfgMerchantID)
	merchantKey := cfg.Value(cfgPaytmMerchantKey)
	if merchantID == "" || merchantKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "paytm credentials are not configured")
	}

	ctx = a.logger.WithGateway(ctx, a.Name().String())
	ctx = a.logger.WithOrderNumber(ctx, req.OrderNumber)

	customer := req.CustomerID
	if customer == "" {
		customer = "guest"
	}

	params := map[string]string{
		"MID":              merchantID,
		"ORDER_ID":         req.OrderNumber,
		"CUST_ID":          customer,
		"TXN_AMOUNT":       req.Amount.StringFixed(2),
		"CHANNEL_ID":       "WEB",
		"WEBSITE":          cfg.valueOr(cfgPaytmWebsite, "WEBSTAGING"),
		"INDUSTRY_TYPE_ID": cfg.valueOr(cfgPaytmIndustryType, "Retail"),
		"CALLBACK_URL":     a.callbackBaseURL + "/webhooks/paytm",
	}
	if req.CustomerPhone != "" {
		params["MOBILE_NO"] = req.CustomerPhone
	}

	sum, err := checksum.SignPaytm(params, merchantKey)
	if err != nil {
		return nil, err
	}
	params["CHECKSUMHASH"] = sum

	a.logger.Info(ctx, "paytm form params prepared")

	return &InitiateResult{
		ProviderRef: req.OrderNumber,
		FormPostURL: a.formURL(cfg),
		FormParams:  params,
	}, nil
}

func (a *PaytmAdapter) VerifyCallback(ctx context.Context, cfg *Config, cb Callback) (*CallbackResult, error) {
	merchantKey := cfg.Value(cfgPaytmMerchantKey)
	if merchantKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "paytm credentials are not configured")
	}

	if len(cb.Form) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paytm callback carried no form body")
	}

	params := make(map[string]string, len(cb.Form))
	for key := range cb.Form {
		params[key] = cb.Form.Get(key)
	}

	submitted := params["CHECKSUMHASH"]
	if submitted == "" {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "paytm callback carried no checksum")
	}

	ok, err := checksum.VerifyPaytm(params, submitted, merchantKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "paytm checksum mismatch")
	}

	status := params["STATUS"]
	res := &CallbackResult{
		Success:               status == paytmSuccessStatus,
		Pending:               status == paytmPendingStatus,
		OrderNumber:           params["ORDERID"],
		ProviderTransactionID: params["TXNID"],
	}
	if !res.Success && !res.Pending {
		reason := params["RESPMSG"]
		if reason == "" {
			reason = fmt.Sprintf("status %s", status)
		}
		res.FailureReason = reason
	}
	return res, nil
}

func (a *PaytmAdapter) formURL(cfg *Config) string {
	if custom := cfg.Value(cfgBaseURL); custom != "" {
		return custom
	}
	if url, ok := paytmFormURLs[cfg.valueOr(cfgEnvironment, "staging")]; ok {
		return url
	}
	return paytmFormURLs["staging"]
}
