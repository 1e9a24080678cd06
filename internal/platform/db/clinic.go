package db

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const clinicIDKey contextKey = "clinic_id"

// ClinicMiddleware resolves the tenant clinic for the request and puts its id
// on the request context. Tenancy is column-scoped: every repository query
// filters by this id, so a request can never touch another clinic's rows.
//
// Resolution order: JWT claim (set by the auth middleware), X-Clinic-ID
// header, then the configured default (development only; empty in production).
func ClinicMiddleware(defaultClinicID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractClinicID(c, defaultClinicID)
			if raw == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "clinic not resolved")
			}

			clinicID, err := uuid.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic identifier")
			}

			ctx := context.WithValue(c.Request().Context(), clinicIDKey, clinicID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("clinic_id", clinicID)
			return next(c)
		}
	}
}

func extractClinicID(c echo.Context, defaultClinicID string) string {
	if cid, ok := c.Get("jwt_clinic_id").(string); ok && cid != "" {
		return cid
	}
	if cid := c.Request().Header.Get("X-Clinic-ID"); cid != "" {
		return cid
	}
	return defaultClinicID
}

// ClinicFromContext returns the clinic id resolved for this request, or
// uuid.Nil when no clinic middleware ran.
func ClinicFromContext(ctx context.Context) uuid.UUID {
	cid, _ := ctx.Value(clinicIDKey).(uuid.UUID)
	return cid
}
