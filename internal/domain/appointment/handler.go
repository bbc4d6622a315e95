package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/hospital/internal/platform/auth"
	"github.com/ehr/hospital/pkg/ident"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleFrontDesk, auth.RoleDoctor))
	g.GET("/appointment", h.List)
	g.GET("/appointment/:id", h.Get)
	g.PUT("/appointment/update/:id", h.Update)

	desk := api.Group("", auth.RequireRole(auth.RoleFrontDesk))
	desk.POST("/appointment", h.Create)
	desk.DELETE("/appointment/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := ident.Param(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// List accepts optional doctor_id and date (YYYY-MM-DD) filters.
func (h *Handler) List(c echo.Context) error {
	var f Filter
	doctorID, err := ident.Query(c, "doctor_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}
	f.DoctorID = doctorID
	if raw := c.QueryParam("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		f.Day = day
	}

	list, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := ident.Param(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Patch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Update(c.Request().Context(), id, p)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "appointment updated", "appointment": a})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := ident.Param(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return h.httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrClosed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("appointment request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
