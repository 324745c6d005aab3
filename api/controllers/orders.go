package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trivenisilks/triveni-backend/api/middleware"
	"github.com/trivenisilks/triveni-backend/api/responses"
	"github.com/trivenisilks/triveni-backend/api/validators"
	internalorders "github.com/trivenisilks/triveni-backend/internal/orders"
	"github.com/trivenisilks/triveni-backend/pkg/db/models"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
	"github.com/trivenisilks/triveni-backend/pkg/pagination"
	"github.com/trivenisilks/triveni-backend/pkg/types"
)

// ListOrders returns a page of the authenticated buyer's orders, newest
// first. Clients pass the returned cursor back to fetch the next page.
func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be an integer"))
				return
			}
			params.Limit = limit
		}

		list, next, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(list))
		for i := range list {
			out = append(out, newOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, orderListResponse{Orders: out, NextCursor: next})
	}
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// OrderDetail returns one order by its public order number. Authenticated
// buyers only see their own orders; guest orders are reachable by number.
func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		order, err := resolveOwnedOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// CancelOrder cancels a not-yet-delivered order with the buyer's reason.
func CancelOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		order, err := resolveOwnedOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reasonRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Cancel(r.Context(), order.ID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(updated))
	}
}

// ReturnOrder opens a return on a delivered order with the buyer's reason.
func ReturnOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		order, err := resolveOwnedOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reasonRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Return(r.Context(), order.ID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(updated))
	}
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

func resolveOwnedOrder(r *http.Request, svc internalorders.Service) (*models.Order, error) {
	orderNumber := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}

	order, err := svc.GetByNumber(r.Context(), orderNumber)
	if err != nil {
		return nil, err
	}

	if order.UserID != nil {
		userID, ok := middleware.UserIDFromContext(r.Context())
		if !ok || userID != *order.UserID {
			// do not reveal whether the order exists
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	}
	return order, nil
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentStatus   string              `json:"payment_status"`
	Subtotal        string              `json:"subtotal"`
	Discount        string              `json:"discount"`
	Shipping        string              `json:"shipping"`
	Tax             string              `json:"tax"`
	Total           string              `json:"total"`
	Currency        string              `json:"currency"`
	Items           []orderItemResponse `json:"items"`
	StatusHistory   types.StatusHistory `json:"status_history"`
	ShippingAddress types.Address       `json:"shipping_address"`
	CancelReason    *string             `json:"cancel_reason,omitempty"`
	ReturnReason    *string             `json:"return_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	Quantity      int       `json:"quantity"`
	Price         string    `json:"price"`
	SelectedColor *string   `json:"selected_color,omitempty"`
	SelectedSize  *string   `json:"selected_size,omitempty"`
	BlouseOption  *string   `json:"blouse_option,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID:     item.ProductID,
			Name:          item.Name,
			Quantity:      item.Quantity,
			Price:         item.Price.StringFixed(2),
			SelectedColor: item.SelectedColor,
			SelectedSize:  item.SelectedSize,
			BlouseOption:  item.BlouseOption,
		})
	}
	return orderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status.String(),
		PaymentMethod:   order.PaymentMethod.String(),
		PaymentStatus:   order.PaymentStatus.String(),
		Subtotal:        order.Subtotal.StringFixed(2),
		Discount:        order.Discount.StringFixed(2),
		Shipping:        order.Shipping.StringFixed(2),
		Tax:             order.Tax.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		Currency:        string(order.Currency),
		Items:           items,
		StatusHistory:   order.StatusHistory,
		ShippingAddress: order.ShippingAddress,
		CancelReason:    order.CancelReason,
		ReturnReason:    order.ReturnReason,
		CreatedAt:       order.CreatedAt,
	}
}
