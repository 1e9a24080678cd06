package db

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestClinicMiddleware_FromHeader(t *testing.T) {
	clinicID := uuid.New()

	e := echo.New()
	var got uuid.UUID
	e.GET("/x", func(c echo.Context) error {
		got = ClinicFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}, ClinicMiddleware(""))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Clinic-ID", clinicID.String())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got != clinicID {
		t.Errorf("clinic = %s, want %s", got, clinicID)
	}
}

func TestClinicMiddleware_JWTClaimWins(t *testing.T) {
	claimID := uuid.New()
	headerID := uuid.New()

	e := echo.New()
	var got uuid.UUID
	setClaim := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("jwt_clinic_id", claimID.String())
			return next(c)
		}
	}
	e.GET("/x", func(c echo.Context) error {
		got = ClinicFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}, setClaim, ClinicMiddleware(""))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Clinic-ID", headerID.String())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got != claimID {
		t.Errorf("clinic = %s, want claim %s", got, claimID)
	}
}

func TestClinicMiddleware_Default(t *testing.T) {
	defaultID := uuid.New()

	e := echo.New()
	var got uuid.UUID
	e.GET("/x", func(c echo.Context) error {
		got = ClinicFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}, ClinicMiddleware(defaultID.String()))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got != defaultID {
		t.Errorf("clinic = %s, want default %s", got, defaultID)
	}
}

func TestClinicMiddleware_Unresolved(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, ClinicMiddleware(""))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Clinic-ID", "not-a-uuid")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id: status = %d, want 400", rec.Code)
	}
}
