package controllers

import (
	"net/http"

	"github.com/ovenbird/bakery-backend/api/middleware"
	"github.com/ovenbird/bakery-backend/api/responses"
	"github.com/ovenbird/bakery-backend/api/validators"
	checkoutsvc "github.com/ovenbird/bakery-backend/internal/checkout"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	"github.com/ovenbird/bakery-backend/pkg/logger"
)

type checkoutRequest struct {
	ShippingMethod string `json:"shipping_method" validate:"required,oneof=delivery pickup"`
	PaymentMethod  string `json:"payment_method" validate:"required"`
}

func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), userID, checkoutsvc.Input{
			SessionID:      middleware.SessionIDFromContext(r.Context()),
			ShippingMethod: enums.ShippingMethod(payload.ShippingMethod),
			PaymentMethod:  payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
