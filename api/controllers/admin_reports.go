package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ovenbird/bakery-backend/api/responses"
	"github.com/ovenbird/bakery-backend/api/validators"
	"github.com/ovenbird/bakery-backend/internal/orders"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
	"github.com/ovenbird/bakery-backend/pkg/logger"
)

// AdminSalesReport serves the dashboard summary. Optional from/to query
// params (RFC 3339) bound the period; to is exclusive.
func AdminSalesReport(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var period orders.ReportPeriod

		if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from timestamp"))
				return
			}
			period.From = parsed
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to timestamp"))
				return
			}
			period.To = parsed
		}

		topLimit, err := validators.ParseQueryInt(r, "top", 5, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.SalesReport(r.Context(), period, topLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
