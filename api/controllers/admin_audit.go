package controllers

import (
	"net/http"
	"strings"

	"github.com/ovenbird/bakery-backend/api/responses"
	"github.com/ovenbird/bakery-backend/api/validators"
	"github.com/ovenbird/bakery-backend/internal/audit"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	"github.com/ovenbird/bakery-backend/pkg/logger"
)

func AdminAuditList(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r, 50, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := validators.ParseQueryUUID(r, "actor")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetID, err := validators.ParseQueryUUID(r, "target_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := audit.ListFilters{ActorID: actor, TargetID: targetID}
		if raw := strings.TrimSpace(r.URL.Query().Get("target_type")); raw != "" {
			target := enums.AuditTarget(raw)
			filters.TargetType = &target
		}

		result, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
