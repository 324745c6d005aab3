package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/trivenisilks/triveni-backend/api/responses"
	"github.com/trivenisilks/triveni-backend/internal/gateways"
	"github.com/trivenisilks/triveni-backend/internal/payments"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

const maxCallbackBody = 1 << 20

// VerifyRazorpayPayment handles the storefront relaying Razorpay's client
// handshake. The body carries razorpay_order_id, razorpay_payment_id, and
// razorpay_signature exactly as the checkout widget produced them.
func VerifyRazorpayPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading request body"))
			return
		}

		order, err := svc.HandleCallback(r.Context(), enums.PaymentMethodRazorpay, gateways.Callback{
			Body:   body,
			Header: r.Header,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// CheckPhonePeStatus reconciles an order against PhonePe's status API. The
// storefront polls this after redirect when no server callback arrived yet.
func CheckPhonePeStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderNumber := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
		order, err := svc.CheckPhonePeStatus(r.Context(), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
