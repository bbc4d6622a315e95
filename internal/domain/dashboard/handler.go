package dashboard

import (
	"errors"
	"net/http"

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
	api.GET("/dashboard/hr", h.HR, auth.RequireRole(auth.RoleHR))
	api.GET("/dashboard/doctor", h.Doctor, auth.RequireRole(auth.RoleDoctor))
	api.GET("/dashboard/frontdesk", h.FrontDesk, auth.RequireRole(auth.RoleFrontDesk))
}

func (h *Handler) HR(c echo.Context) error {
	out, err := h.svc.HR(c.Request().Context())
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Doctor serves the caller's own dashboard. Admins pick a doctor with ?doctor_id=.
func (h *Handler) Doctor(c echo.Context) error {
	ctx := c.Request().Context()
	doctorID := auth.UserIDFromContext(ctx)
	if auth.RoleFromContext(ctx) == auth.RoleAdmin {
		id, err := ident.Query(c, "doctor_id")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		doctorID = id
	}
	out, err := h.svc.Doctor(ctx, doctorID)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) FrontDesk(c echo.Context) error {
	out, err := h.svc.FrontDesk(c.Request().Context())
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) httpError(c echo.Context, err error) error {
	if errors.Is(err, ErrInvalidInput) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("path", c.Path()).Msg("dashboard query failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
