package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func requestWithRole(e *echo.Echo, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if role != "" {
		ctx := context.WithValue(req.Context(), UserRoleKey, role)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireRole("pharmacist"))

	cases := []struct {
		role   string
		status int
	}{
		{"pharmacist", http.StatusOK},
		{"admin", http.StatusOK}, // admin always passes
		{"receptionist", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tc := range cases {
		if rec := requestWithRole(e, tc.role); rec.Code != tc.status {
			t.Errorf("role %q: status = %d, want %d", tc.role, rec.Code, tc.status)
		}
	}
}

func TestRequireRole_Multiple(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireRole("doctor", "receptionist"))

	if rec := requestWithRole(e, "receptionist"); rec.Code != http.StatusOK {
		t.Errorf("receptionist: status = %d", rec.Code)
	}
	if rec := requestWithRole(e, "pharmacist"); rec.Code != http.StatusForbidden {
		t.Errorf("pharmacist: status = %d", rec.Code)
	}
}
