package controllers

import (
	"net/http"

	"github.com/danielharo/rentably-backend/api/responses"
	"github.com/danielharo/rentably-backend/internal/analytics"
	"github.com/danielharo/rentably-backend/pkg/logger"
)

// PlatformAnalytics returns the platform-wide back-office dashboard numbers.
func PlatformAnalytics(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.PlatformStats(r.Context(), analytics.Actor{
			UserID: actor.UserID,
			Role:   actor.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
