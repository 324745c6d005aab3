package gateways

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/trivenisilks/triveni-backend/internal/checksum"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

const (
	phonePePayPath    = "/pg/v1/pay"
	phonePeStatusPath = "/pg/v1/status"

	phonePeSuccessCode = "PAYMENT_SUCCESS"
	phonePePendingCode = "PAYMENT_PENDING"
)

var phonePeBaseURLs = map[string]string{
	"sandbox":    "https://api-preprod.phonepe.com/apis/pg-sandbox",
	"production": "https://api.phonepe.com/apis/hermes",
}

// PhonePeAdapter drives the PhonePe pay-page flow over raw HTTP. There is
// no official Go SDK; the request and X-VERIFY signing follow the provider
// contract directly.
type PhonePeAdapter struct {
	httpClient      *http.Client
	logger          *logger.Logger
	callbackBaseURL string
}

func NewPhonePeAdapter(httpClient *http.Client, logg *logger.Logger, callbackBaseURL string) *PhonePeAdapter {
	return &PhonePeAdapter{
		httpClient:      httpClient,
		logger:          logg,
		callbackBaseURL: strings.TrimRight(callbackBaseURL, "/"),
	}
}

func (a *PhonePeAdapter) Name() enums.PaymentMethod {
	return enums.PaymentMethodPhonePe
}

type phonePePayRequest struct {
	MerchantID            string               `json:"merchantId"`
	MerchantTransactionID string               `json:"merchantTransactionId"`
	MerchantUserID        string               `json:"merchantUserId"`
	Amount                int64                `json:"amount"`
	RedirectURL           string               `json:"redirectUrl"`
	RedirectMode          string               `json:"redirectMode"`
	CallbackURL           string               `json:"callbackUrl"`
	MobileNumber          string               `json:"mobileNumber,omitempty"`
	PaymentInstrument     phonePePayInstrument `json:"paymentInstrument"`
}

type phonePePayInstrument struct {
	Type string `json:"type"`
}

type phonePePayResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

func (a *PhonePeAdapter) Initiate(ctx context.Context, cfg *Config, req InitiateRequest) (*InitiateResult, error) {
	merchantID := cfg.Value(cfgMerchantID)
	saltKey := cfg.Value(cfgPhonePeSaltKey)
	saltIndex := cfg.valueOr(cfgPhonePeSaltIndex, "1")
	if merchantID == "" || saltKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "phonepe credentials are not configured")
	}

	ctx = a.logger.WithGateway(ctx, a.Name().String())
	ctx = a.logger.WithOrderNumber(ctx, req.OrderNumber)

	payload := phonePePayRequest{
		MerchantID:            merchantID,
		MerchantTransactionID: req.OrderNumber,
		MerchantUserID:        req.CustomerID,
		Amount:                toPaise(req.Amount),
		RedirectURL:           a.callbackBaseURL + "/payments/phonepe/redirect",
		RedirectMode:          "POST",
		CallbackURL:           a.callbackBaseURL + "/webhooks/phonepe",
		MobileNumber:          req.CustomerPhone,
		PaymentInstrument:     phonePePayInstrument{Type: "PAY_PAGE"},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding phonepe payload")
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	xVerify, err := checksum.SignPhonePe(encoded, phonePePayPath, saltKey, saltIndex)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding phonepe request body")
	}

	var resp phonePePayResponse
	if err := a.post(ctx, cfg, phonePePayPath, xVerify, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		a.logger.Warn(a.logger.WithField(ctx, "provider_code", resp.Code), "phonepe pay rejected")
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("phonepe rejected the transaction: %s", resp.Code))
	}

	redirect := resp.Data.InstrumentResponse.RedirectInfo.URL
	if redirect == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "phonepe response carried no redirect url")
	}

	a.logger.Info(ctx, "phonepe transaction opened")

	return &InitiateResult{
		ProviderRef: req.OrderNumber,
		RedirectURL: redirect,
	}, nil
}

// phonePeCallbackEnvelope is the server-pushed callback body: a single
// base64 "response" field authenticated by the X-VERIFY header.
type phonePeCallbackEnvelope struct {
	Response string `json:"response"`
}

type phonePeCallbackPayload struct {
	Code string `json:"code"`
	Data struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
	} `json:"data"`
}

func (a *PhonePeAdapter) VerifyCallback(ctx context.Context, cfg *Config, cb Callback) (*CallbackResult, error) {
	saltKey := cfg.Value(cfgPhonePeSaltKey)
	saltIndex := cfg.valueOr(cfgPhonePeSaltIndex, "1")
	if saltKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "phonepe credentials are not configured")
	}

	var envelope phonePeCallbackEnvelope
	if err := json.Unmarshal(cb.Body, &envelope); err != nil || envelope.Response == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed phonepe callback body")
	}

	xVerify := cb.Header.Get("X-VERIFY")
	ok, err := checksum.VerifyPhonePe(xVerify, envelope.Response, "", saltKey, saltIndex)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "phonepe checksum mismatch")
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope.Response)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phonepe response is not valid base64")
	}

	var payload phonePeCallbackPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed phonepe response payload")
	}

	res := &CallbackResult{
		Success:               payload.Code == phonePeSuccessCode,
		Pending:               payload.Code == phonePePendingCode,
		OrderNumber:           payload.Data.MerchantTransactionID,
		ProviderTransactionID: payload.Data.TransactionID,
	}
	if !res.Success && !res.Pending {
		res.FailureReason = payload.Code
	}
	return res, nil
}

type phonePeStatusResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
	} `json:"data"`
}

// Status polls the transaction state, the fallback for callbacks that have
// not arrived yet.
func (a *PhonePeAdapter) Status(ctx context.Context, cfg *Config, merchantTransactionID string) (*CallbackResult, error) {
	merchantID := cfg.Value(cfgMerchantID)
	saltKey := cfg.Value(cfgPhonePeSaltKey)
	saltIndex := cfg.valueOr(cfgPhonePeSaltIndex, "1")
	if merchantID == "" || saltKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "phonepe credentials are not configured")
	}

	path := fmt.Sprintf("%s/%s/%s", phonePeStatusPath, merchantID, merchantTransactionID)
	xVerify, err := checksum.SignPhonePe("", path, saltKey, saltIndex)
	if err != nil {
		return nil, err
	}

	ctx = a.logger.WithGateway(ctx, a.Name().String())
	ctx = a.logger.WithOrderNumber(ctx, merchantTransactionID)

	var resp phonePeStatusResponse
	if err := a.get(ctx, cfg, path, xVerify, merchantID, &resp); err != nil {
		return nil, err
	}

	res := &CallbackResult{
		Success:               resp.Code == phonePeSuccessCode,
		Pending:               resp.Code == phonePePendingCode,
		OrderNumber:           merchantTransactionID,
		ProviderTransactionID: resp.Data.TransactionID,
	}
	if !res.Success && !res.Pending {
		res.FailureReason = resp.Code
	}
	return res, nil
}

func (a *PhonePeAdapter) post(ctx context.Context, cfg *Config, path, xVerify string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL(cfg)+path, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building phonepe request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", xVerify)
	return a.do(ctx, req, out)
}

func (a *PhonePeAdapter) get(ctx context.Context, cfg *Config, path, xVerify, merchantID string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL(cfg)+path, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building phonepe request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", xVerify)
	req.Header.Set("X-MERCHANT-ID", merchantID)
	return a.do(ctx, req, out)
}

func (a *PhonePeAdapter) do(ctx context.Context, req *http.Request, out any) error {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error(ctx, "phonepe request failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling phonepe")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading phonepe response")
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("phonepe returned status %d", resp.StatusCode))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding phonepe response")
	}
	return nil
}

func (a *PhonePeAdapter) baseURL(cfg *Config) string {
	if custom := cfg.Value(cfgBaseURL); custom != "" {
		return strings.TrimRight(custom, "/")
	}
	if url, ok := phonePeBaseURLs[cfg.valueOr(cfgEnvironment, "sandbox")]; ok {
		return url
	}
	return phonePeBaseURLs["sandbox"]
}
