package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ovenbird/bakery-backend/api/responses"
	"github.com/ovenbird/bakery-backend/api/validators"
	"github.com/ovenbird/bakery-backend/internal/pricing"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
	"github.com/ovenbird/bakery-backend/pkg/logger"
)

type discountRequest struct {
	ProductID     *string    `json:"product_id,omitempty"`
	CategoryID    *string    `json:"category_id,omitempty"`
	DiscountType  string     `json:"discount_type" validate:"required,oneof=percent fixed"`
	DiscountValue string     `json:"discount_value" validate:"required"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Active        bool       `json:"active"`
}

func (req discountRequest) toInput() (pricing.DiscountInput, error) {
	value, err := decimal.NewFromString(req.DiscountValue)
	if err != nil {
		return pricing.DiscountInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount value")
	}
	input := pricing.DiscountInput{
		DiscountType:  enums.DiscountType(req.DiscountType),
		DiscountValue: value,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Active:        req.Active,
	}
	if req.ProductID != nil && *req.ProductID != "" {
		id, err := uuid.Parse(*req.ProductID)
		if err != nil {
			return pricing.DiscountInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		input.ProductID = &id
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return pricing.DiscountInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		input.CategoryID = &id
	}
	return input, nil
}

func AdminDiscountList(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		discounts, err := svc.ListDiscounts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, discounts)
	}
}

func AdminDiscountCreate(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.CreateDiscount(r.Context(), actorID(r), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, discount)
	}
}

func AdminDiscountUpdate(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.UpdateDiscount(r.Context(), actorID(r), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, discount)
	}
}

func AdminDiscountDelete(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteDiscount(r.Context(), actorID(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
