package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/danielharo/rentably-backend/api/middleware"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

// requestActor is the authenticated caller reconstructed from the request
// context seeded by the auth middleware.
type requestActor struct {
	UserID   uuid.UUID
	VendorID uuid.UUID
	Role     enums.UserRole
}

func actorFromContext(ctx context.Context) (requestActor, error) {
	rawUser := middleware.UserIDFromContext(ctx)
	if rawUser == "" {
		return requestActor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return requestActor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	actor := requestActor{
		UserID: userID,
		Role:   enums.UserRole(middleware.RoleFromContext(ctx)),
	}
	if rawVendor := middleware.VendorIDFromContext(ctx); rawVendor != "" {
		vendorID, err := uuid.Parse(rawVendor)
		if err != nil {
			return requestActor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid vendor id")
		}
		actor.VendorID = vendorID
	}
	return actor, nil
}

func parseURLParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
