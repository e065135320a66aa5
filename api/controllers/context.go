package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ovenbird/bakery-backend/api/middleware"
	"github.com/ovenbird/bakery-backend/internal/cart"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
)

// requireUserID extracts the authenticated user id from the request context.
func requireUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// actorID is requireUserID for audit attribution: nil when anonymous.
func actorID(r *http.Request) *uuid.UUID {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// cartOwner resolves the cart identity for the request: the account when
// authenticated, otherwise the guest session.
func cartOwner(r *http.Request) cart.Owner {
	owner := cart.Owner{SessionID: middleware.SessionIDFromContext(r.Context())}
	if raw := middleware.UserIDFromContext(r.Context()); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			owner.UserID = &id
			owner.SessionID = ""
		}
	}
	return owner
}
