package medicine

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ayurclinic/clinic/internal/platform/auth"
	"github.com/ayurclinic/clinic/internal/platform/db"
	"github.com/ayurclinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/medicines", auth.RequireRole("admin", "doctor", "pharmacist", "receptionist"))
	read.GET("", h.List)
	read.GET("/:id", h.Get)
	read.GET("/:id/movements", h.Movements)

	write := api.Group("/medicines", auth.RequireRole("admin", "pharmacist"))
	write.POST("", h.AddItem)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Deactivate)
	write.POST("/:id/stock/add", h.AddStock)
	write.POST("/:id/stock/remove", h.RemoveStock)
	write.POST("/:id/stock/adjust", h.AdjustStock)
}

func (h *Handler) AddItem(c echo.Context) error {
	var m Medicine
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	if err := h.svc.AddItem(ctx, db.ClinicFromContext(ctx), &m, actor(ctx)); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	m, err := h.svc.Get(ctx, db.ClinicFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		LowStock: c.QueryParam("low_stock") == "true",
	}
	if v := c.QueryParam("expiring_by"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid expiring_by")
		}
		f.ExpiringBy = d
	}
	ctx := c.Request().Context()
	items, total, err := h.svc.List(ctx, db.ClinicFromContext(ctx), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var u Update
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	m, err := h.svc.Update(ctx, db.ClinicFromContext(ctx), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	if err := h.svc.Deactivate(ctx, db.ClinicFromContext(ctx), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type stockRequest struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
	Notes    string `json:"notes"`
}

func (h *Handler) AddStock(c echo.Context) error {
	return h.stockOp(c, h.svc.AddStock)
}

func (h *Handler) RemoveStock(c echo.Context) error {
	return h.stockOp(c, h.svc.RemoveStock)
}

func (h *Handler) AdjustStock(c echo.Context) error {
	return h.stockOp(c, h.svc.AdjustStock)
}

func (h *Handler) stockOp(c echo.Context, op func(ctx context.Context, clinicID, id uuid.UUID, qty int, reason, notes string, by *uuid.UUID) (*StockLevel, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req stockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	level, err := op(ctx, db.ClinicFromContext(ctx), id, req.Quantity, req.Reason, req.Notes, actor(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, level)
}

func (h *Handler) Movements(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.Movements(ctx, db.ClinicFromContext(ctx), id, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// actor resolves the acting user for audit rows, nil when the id is not a
// real user (dev auth).
func actor(ctx context.Context) *uuid.UUID {
	uid, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return nil
	}
	return &uid
}
