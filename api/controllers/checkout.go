package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trivenisilks/triveni-backend/api/middleware"
	"github.com/trivenisilks/triveni-backend/api/responses"
	"github.com/trivenisilks/triveni-backend/api/validators"
	checkoutsvc "github.com/trivenisilks/triveni-backend/internal/checkout"
	"github.com/trivenisilks/triveni-backend/internal/gateways"
	"github.com/trivenisilks/triveni-backend/pkg/enums"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

// Checkout places an order from the submitted lines, or from the buyer's
// persistent cart when an authenticated request submits none.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment method"))
			return
		}

		input := checkoutsvc.CreateOrderInput{
			ShippingAddress: payload.ShippingAddress,
			BillingAddress:  payload.BillingAddress,
			PaymentMethod:   method,
			CustomerPhone:   payload.CustomerPhone,
			ClientTotal:     payload.ClientTotal,
		}
		if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
			input.UserID = &userID
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, checkoutsvc.ItemInput{
				ProductID:     item.ProductID,
				Quantity:      item.Quantity,
				SelectedColor: item.SelectedColor,
				SelectedSize:  item.SelectedSize,
				BlouseOption:  item.BlouseOption,
			})
		}

		out, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Order:   newOrderResponse(out.Order),
			Payment: newPaymentResponse(out.Payment),
		})
	}
}

type checkoutRequest struct {
	Items           []checkoutItemRequest `json:"items" validate:"omitempty,dive"`
	ShippingAddress types.Address         `json:"shipping_address" validate:"required"`
	BillingAddress  *types.Address        `json:"billing_address,omitempty"`
	PaymentMethod   string                `json:"payment_method" validate:"required"`
	CustomerPhone   string                `json:"customer_phone,omitempty"`
	ClientTotal     *decimal.Decimal      `json:"client_total,omitempty"`
}

type checkoutItemRequest struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"required,min=1"`
	SelectedColor *string   `json:"selected_color,omitempty"`
	SelectedSize  *string   `json:"selected_size,omitempty"`
	BlouseOption  *string   `json:"blouse_option,omitempty"`
}

type checkoutResponse struct {
	Order   orderResponse    `json:"order"`
	Payment *paymentResponse `json:"payment,omitempty"`
}

type paymentResponse struct {
	ProviderRef  string            `json:"provider_ref,omitempty"`
	RedirectURL  string            `json:"redirect_url,omitempty"`
	FormPostURL  string            `json:"form_post_url,omitempty"`
	FormParams   map[string]string `json:"form_params,omitempty"`
	ClientParams map[string]string `json:"client_params,omitempty"`
}

func newPaymentResponse(payment *gateways.InitiateResult) *paymentResponse {
	if payment == nil {
		return nil
	}
	return &paymentResponse{
		ProviderRef:  payment.ProviderRef,
		RedirectURL:  payment.RedirectURL,
		FormPostURL:  payment.FormPostURL,
		FormParams:   payment.FormParams,
		ClientParams: payment.ClientParams,
	}
}
