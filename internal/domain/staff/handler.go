package staff

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/hospital/internal/platform/auth"
)

type Handler struct {
	svc     *Service
	issuer  *auth.TokenIssuer
	revoked auth.RevocationStore
}

func NewHandler(svc *Service, issuer *auth.TokenIssuer, revoked auth.RevocationStore) *Handler {
	return &Handler{svc: svc, issuer: issuer, revoked: revoked}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me)

	api.POST("/users", h.CreateUser, auth.RequireRole(auth.RoleHR))
	api.GET("/users", h.ListUsers, auth.RequireRole(auth.RoleHR, auth.RoleFrontDesk))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()

	u, err := h.svc.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			zerolog.Ctx(ctx).Info().Str("username", req.Username).Msg("login rejected")
			return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
		}
		return h.httpError(c, err)
	}

	token, claims, err := h.issuer.Issue(u.ID, u.Role, u.FullName)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: claims.Expiry(), User: u})
}

// Logout revokes the presented token until it would have expired.
func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if claims := auth.ClaimsFromContext(ctx); claims != nil && h.revoked != nil {
		if err := h.revoked.Revoke(ctx, claims.ID, claims.Expiry()); err != nil {
			return h.httpError(c, err)
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	uid := auth.UserIDFromContext(ctx)
	if uid == 0 {
		role := auth.RoleFromContext(ctx)
		if role == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		// Development requests without a token.
		return c.JSON(http.StatusOK, &User{Username: "dev", FullName: "Development User", Role: role})
	}
	u, err := h.svc.GetUser(ctx, uid)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := h.svc.CreateUser(c.Request().Context(), in)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context(), c.QueryParam("role"))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUsernameTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("staff request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
