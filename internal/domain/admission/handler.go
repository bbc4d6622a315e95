package admission

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
	// Reads: every staff role
	read := api.Group("", auth.RequireRole(auth.RoleHR, auth.RoleDoctor, auth.RoleFrontDesk))
	read.GET("/admission", h.ListAdmissions)
	read.GET("/admission/:id", h.GetAdmission)
	read.GET("/bed", h.ListBeds)
	read.GET("/bed/available", h.ListAvailableBeds)

	// Lifecycle: front desk and doctors
	write := api.Group("", auth.RequireRole(auth.RoleFrontDesk, auth.RoleDoctor))
	write.POST("/admission", h.Admit)
	write.POST("/admission/discharge/:id", h.Discharge)
	write.PUT("/admission/discharge/:id", h.Discharge)
	write.PUT("/admission/update/:id", h.Update)

	// Bed configuration: HR
	api.POST("/bed", h.CreateBed, auth.RequireRole(auth.RoleHR))
}

type admitRequest struct {
	PatientID ident.ID `json:"patient_id"`
	DoctorID  ident.ID `json:"doctor_id"`
	BedID     ident.ID `json:"bed_id"`
	Diagnosis *string  `json:"diagnosis"`
}

type updateRequest struct {
	Status string `json:"status"`
}

type bedRequest struct {
	Ward  string `json:"ward"`
	Label string `json:"label"`
}

type lifecycleResponse struct {
	Message   string     `json:"message"`
	Admission *Admission `json:"admission"`
}

func (h *Handler) Admit(c echo.Context) error {
	var req admitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Admit(c.Request().Context(), AdmitInput{
		PatientID: req.PatientID.Int64(),
		DoctorID:  req.DoctorID.Ptr(),
		BedID:     req.BedID.Int64(),
		Diagnosis: req.Diagnosis,
	})
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, lifecycleResponse{Message: "patient admitted", Admission: a})
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := ident.Param(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Discharge(c.Request().Context(), id)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, lifecycleResponse{Message: "patient discharged", Admission: a})
}

// Update accepts {"status": "Discharged"} as an alias for discharge. Any other
// change to an admission is rejected.
func (h *Handler) Update(c echo.Context) error {
	id, err := ident.Param(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, lifecycleResponse{Message: "patient discharged", Admission: a})
}

func (h *Handler) GetAdmission(c echo.Context) error {
	id, err := ident.Param(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAdmissions(c echo.Context) error {
	list, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) ListBeds(c echo.Context) error {
	beds, err := h.svc.ListBeds(c.Request().Context())
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, beds)
}

func (h *Handler) ListAvailableBeds(c echo.Context) error {
	beds, err := h.svc.ListAvailableBeds(c.Request().Context())
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, beds)
}

func (h *Handler) CreateBed(c echo.Context) error {
	var req bedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	b, err := h.svc.CreateBed(c.Request().Context(), req.Ward, req.Label)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// httpError answers 404 and 409 with the bare sentinel message. The wrapped
// detail carries row ids and only goes to the log.
func (h *Handler) httpError(c echo.Context, err error) error {
	log := zerolog.Ctx(c.Request().Context())
	if errors.Is(err, ErrInvalidInput) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if target := matchSentinel(err, notFoundErrors); target != nil {
		log.Info().Err(err).Str("path", c.Path()).Msg("admission request rejected")
		return echo.NewHTTPError(http.StatusNotFound, target.Error())
	}
	if target := matchSentinel(err, conflictErrors); target != nil {
		log.Info().Err(err).Str("path", c.Path()).Msg("admission request rejected")
		return echo.NewHTTPError(http.StatusConflict, target.Error())
	}
	log.Error().Err(err).
		Str("path", c.Path()).
		Msg("admission request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
