package account

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careband/careband/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes attaches the public (unauthenticated) and private account
// endpoints. public is typically the bare /api/v1 group, private the
// JWT-guarded one.
func (h *Handler) RegisterRoutes(public, private *echo.Group) {
	public.POST("/accounts/register", h.Register)
	public.POST("/accounts/login", h.Login)
	public.POST("/accounts/verify-email", h.VerifyEmail)
	public.POST("/accounts/forgot-password", h.ForgotPassword)
	public.POST("/accounts/reset-password", h.ResetPassword)

	private.GET("/accounts/me", h.GetProfile)
	private.DELETE("/accounts/me", h.DeleteAccount)
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.Register(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, ErrEmailInUse) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Token delivery is a mail concern; until a mailer is wired the token is
	// surfaced in the log only.
	h.logger.Info().
		Int64("user_id", user.ID).
		Str("verification_token", *user.VerificationToken).
		Msg("account registered")

	return c.JSON(http.StatusCreated, user.Profile())
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.svc.Login(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	return c.JSON(http.StatusOK, token)
}

func (h *Handler) VerifyEmail(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "token is invalid or expired")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.svc.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		// Do not reveal whether the email exists.
		return c.NoContent(http.StatusAccepted)
	}

	h.logger.Info().
		Str("email", req.Email).
		Str("reset_token", token).
		Msg("password reset requested")

	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "token is invalid or expired")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetProfile(c echo.Context) error {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	profile, err := h.svc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *Handler) DeleteAccount(c echo.Context) error {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	if err := h.svc.DeleteAccount(c.Request().Context(), userID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.NoContent(http.StatusNoContent)
}
