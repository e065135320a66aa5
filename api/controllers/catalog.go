package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ovenbird/bakery-backend/api/responses"
	"github.com/ovenbird/bakery-backend/api/validators"
	"github.com/ovenbird/bakery-backend/internal/catalog"
	"github.com/ovenbird/bakery-backend/internal/pricing"
	"github.com/ovenbird/bakery-backend/pkg/db/models"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
	"github.com/ovenbird/bakery-backend/pkg/logger"
)

func CategoryTree(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, err := svc.CategoryTree(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tree)
	}
}

// ProductList serves the storefront listing: listed products only, optionally
// narrowed to a category subtree or a name search.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r, 24, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), params, catalog.ListProductsInput{
			CategoryID: categoryID,
			OnlyListed: true,
			Query:      strings.TrimSpace(r.URL.Query().Get("q")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type discountResolver interface {
	Resolve(ctx context.Context, productID uuid.UUID, categoryID *uuid.UUID) (*models.Discount, error)
}

// productView is the storefront detail shape: the raw product plus the
// discount-adjusted price per size and its co-purchase suggestions.
type productView struct {
	Product *models.Product     `json:"product"`
	Sizes   []pricing.SizeQuote `json:"sizes"`
	Related []models.Product    `json:"related"`
}

// ProductDetail looks up a listed product by SKU and quotes every size
// against the currently active discount.
func ProductDetail(svc catalog.Service, resolver discountResolver, relatedLimit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := strings.TrimSpace(chi.URLParam(r, "sku"))
		if sku == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku required"))
			return
		}

		product, err := svc.GetProductBySKU(r.Context(), sku)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !product.IsListed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		discount, err := resolver.Resolve(r.Context(), product.ID, product.CategoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		related, err := svc.RelatedProducts(r.Context(), product.SKU, relatedLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productView{
			Product: product,
			Sizes:   pricing.QuoteSizes(product.Sizes, discount),
			Related: related,
		})
	}
}
