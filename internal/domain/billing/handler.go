package billing

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
	read := api.Group("", auth.RequireRole(auth.RoleFrontDesk, auth.RoleHR))
	read.GET("/billing", h.List)
	read.GET("/billing/:id", h.Get)

	write := api.Group("", auth.RequireRole(auth.RoleFrontDesk))
	write.POST("/billing", h.Create)
	write.PUT("/billing/update/:id", h.Update)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	b, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := ident.Param(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) List(c echo.Context) error {
	patientID, err := ident.Query(c, "patient_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	bills, err := h.svc.List(c.Request().Context(), patientID)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, bills)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := ident.Param(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	b, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "bill updated", "bill": b})
}

func (h *Handler) httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrAdmissionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrClosed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("billing request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
