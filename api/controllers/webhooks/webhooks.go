// Package webhooks terminates the server-pushed provider callbacks. Each
// handler only shapes the raw request into a gateway callback; verification
// and order mutation live in the payments service.
package webhooks

import (
	"io"
	"net/http"

	"github.com/trivenisilks/triveni-backend/api/responses"
	"github.com/trivenisilks/triveni-backend/internal/gateways"
	"github.com/trivenisilks/triveni-backend/internal/payments"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

const maxWebhookBody = 1 << 20

// PhonePeCallback handles PhonePe's S2S callback: a base64 response
// envelope authenticated by the X-VERIFY header.
func PhonePeCallback(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading callback body"))
			return
		}

		order, err := svc.HandleCallback(r.Context(), enums.PaymentMethodPhonePe, gateways.Callback{
			Body:   body,
			Header: r.Header,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_number": order.OrderNumber, "status": order.PaymentStatus.String()})
	}
}

// PaytmCallback handles Paytm's form-encoded callback authenticated by the
// CHECKSUMHASH field.
func PaytmCallback(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		if err := r.ParseForm(); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing callback form"))
			return
		}

		order, err := svc.HandleCallback(r.Context(), enums.PaymentMethodPaytm, gateways.Callback{
			Header: r.Header,
			Form:   r.PostForm,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_number": order.OrderNumber, "status": order.PaymentStatus.String()})
	}
}

// RazorpayWebhook handles server-pushed Razorpay events signed over the raw
// body with X-Razorpay-Signature.
func RazorpayWebhook(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading webhook body"))
			return
		}

		order, err := svc.HandleRazorpayWebhook(r.Context(), gateways.Callback{
			Body:   body,
			Header: r.Header,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_number": order.OrderNumber, "status": order.PaymentStatus.String()})
	}
}
