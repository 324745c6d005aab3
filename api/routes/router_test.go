package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	checkoutsvc "github.com/trivenisilks/triveni-backend/internal/checkout"
	"github.com/trivenisilks/triveni-backend/internal/gateways"
	internalorders "github.com/trivenisilks/triveni-backend/internal/orders"
	"github.com/trivenisilks/triveni-backend/pkg/config"
	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
	"github.com/trivenisilks/triveni-backend/pkg/pagination"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

type stubCheckout struct {
	out *checkoutsvc.CreateOrderOutput
	err error
	got checkoutsvc.CreateOrderInput
}

func (s *stubCheckout) CreateOrder(_ context.Context, input checkoutsvc.CreateOrderInput) (*checkoutsvc.CreateOrderOutput, error) {
	s.got = input
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

type stubOrders struct {
	order *models.Order
	err   error
}

func (s *stubOrders) answer() (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubOrders) Get(context.Context, uuid.UUID) (*models.Order, error) { return s.answer() }

func (s *stubOrders) GetByNumber(context.Context, string) (*models.Order, error) {
	return s.answer()
}

func (s *stubOrders) ListForUser(context.Context, uuid.UUID, pagination.Params) ([]models.Order, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	if s.order == nil {
		return nil, "", nil
	}
	return []models.Order{*s.order}, "", nil
}

func (s *stubOrders) UpdateStatus(context.Context, uuid.UUID, enums.OrderStatus, *string) (*models.Order, error) {
	return s.answer()
}

func (s *stubOrders) UpdatePaymentStatus(context.Context, uuid.UUID, enums.PaymentStatus) (*models.Order, error) {
	return s.answer()
}

func (s *stubOrders) Cancel(context.Context, uuid.UUID, string) (*models.Order, error) {
	return s.answer()
}

func (s *stubOrders) Return(context.Context, uuid.UUID, string) (*models.Order, error) {
	return s.answer()
}

func (s *stubOrders) ApplyPaymentResult(context.Context, internalorders.PaymentResult) (*models.Order, error) {
	return s.answer()
}

type stubPayments struct {
	order *models.Order
	err   error
}

func (s *stubPayments) HandleCallback(context.Context, enums.PaymentMethod, gateways.Callback) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubPayments) HandleRazorpayWebhook(context.Context, gateways.Callback) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubPayments) CheckPhonePeStatus(context.Context, string) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func testOrder(userID *uuid.UUID) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "TRV-ROUTER1",
		UserID:        userID,
		Status:        enums.OrderStatusPlaced,
		PaymentMethod: enums.PaymentMethodRazorpay,
		PaymentStatus: enums.PaymentStatusPending,
		Currency:      "INR",
		StatusHistory: types.StatusHistory{},
	}
}

type routerFixture struct {
	handler  http.Handler
	checkout *stubCheckout
	orders   *stubOrders
	payments *stubPayments
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	cfg := &config.Config{
		App:   config.AppConfig{Env: "test"},
		Admin: config.AdminConfig{APIToken: "secret-admin-token"},
	}
	checkout := &stubCheckout{out: &checkoutsvc.CreateOrderOutput{Order: testOrder(nil)}}
	ordersStub := &stubOrders{order: testOrder(nil)}
	paymentsStub := &stubPayments{order: testOrder(nil)}

	handler := NewRouter(
		cfg,
		logger.New(logger.Options{ServiceName: "test"}),
		nil,
		nil,
		checkout,
		ordersStub,
		paymentsStub,
		prometheus.NewRegistry(),
	)
	return &routerFixture{handler: handler, checkout: checkout, orders: ordersStub, payments: paymentsStub}
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestHealthLive(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHealthReadyReportsMissingDatasources(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsExposed(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCheckoutRouteCreatesOrder(t *testing.T) {
	f := newRouterFixture(t)
	body, err := json.Marshal(map[string]any{
		"items": []map[string]any{
			{"product_id": uuid.NewString(), "quantity": 1},
		},
		"shipping_address": map[string]string{
			"name": "Ananya Rao", "phone": "9876543210", "line1": "12 Temple Street",
			"city": "Chennai", "state": "Tamil Nadu", "pincode": "600004", "country": "IN",
		},
		"payment_method": "razorpay",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	w := f.do(req)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Nil(t, f.checkout.got.UserID)
}

func TestCheckoutRouteForwardsAuthenticatedUser(t *testing.T) {
	f := newRouterFixture(t)
	userID := uuid.New()
	body, err := json.Marshal(map[string]any{
		"shipping_address": map[string]string{
			"name": "Ananya Rao", "phone": "9876543210", "line1": "12 Temple Street",
			"city": "Chennai", "state": "Tamil Nadu", "pincode": "600004", "country": "IN",
		},
		"payment_method": "cod",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("X-User-Id", userID.String())
	w := f.do(req)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, f.checkout.got.UserID)
	require.Equal(t, userID, *f.checkout.got.UserID)
}

func TestCheckoutRouteRejectsUnknownMethod(t *testing.T) {
	f := newRouterFixture(t)
	body := []byte(`{"payment_method":"barter","shipping_address":{"name":"A","phone":"9","line1":"x","city":"c","state":"s","pincode":"600004","country":"IN"}}`)
	w := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderListRequiresUser(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOrderDetailHidesForeignOrders(t *testing.T) {
	f := newRouterFixture(t)
	owner := uuid.New()
	f.orders.order = testOrder(&owner)

	// wrong user: existence is not revealed
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/TRV-ROUTER1", nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	w := f.do(req)
	require.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/TRV-ROUTER1", nil)
	req.Header.Set("X-User-Id", owner.String())
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCancelRouteRequiresReason(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/orders/TRV-ROUTER1/cancel", bytes.NewReader([]byte(`{}`))))
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := []byte(`{"reason":"changed my mind"}`)
	w = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/orders/TRV-ROUTER1/cancel", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutesNeedToken(t *testing.T) {
	f := newRouterFixture(t)
	orderID := uuid.NewString()
	body := []byte(`{"status":"confirmed"}`)

	w := f.do(httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID+"/status", bytes.NewReader(body)))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID+"/status", bytes.NewReader(body))
	req.Header.Set("X-Admin-Token", "secret-admin-token")
	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminPaymentStatusOverride(t *testing.T) {
	f := newRouterFixture(t)
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/admin/v1/orders/"+uuid.NewString()+"/payment-status",
		bytes.NewReader([]byte(`{"payment_status":"paid"}`)),
	)
	req.Header.Set("X-Admin-Token", "secret-admin-token")
	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookRoutes(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(httptest.NewRequest(http.MethodPost, "/webhooks/phonepe", bytes.NewReader([]byte(`{"response":"x"}`))))
	require.Equal(t, http.StatusOK, w.Code)

	form := httptest.NewRequest(http.MethodPost, "/webhooks/paytm", bytes.NewReader([]byte("STATUS=TXN_SUCCESS")))
	form.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = f.do(form)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader([]byte(`{}`))))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookSignatureFailureStaysOpaque(t *testing.T) {
	f := newRouterFixture(t)
	f.payments.err = pkgerrors.New(pkgerrors.CodeSignature, "phonepe checksum mismatch")

	w := f.do(httptest.NewRequest(http.MethodPost, "/webhooks/phonepe", bytes.NewReader([]byte(`{}`))))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	require.Equal(t, "verification failed", envelope.Error.Message)
}

func TestPhonePeStatusRoute(t *testing.T) {
	f := newRouterFixture(t)
	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/payments/phonepe/status/TRV-ROUTER1", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRazorpayVerifyRoute(t *testing.T) {
	f := newRouterFixture(t)
	body := []byte(`{"razorpay_order_id":"o","razorpay_payment_id":"p","razorpay_signature":"s"}`)
	w := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/payments/razorpay/verify", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
}
