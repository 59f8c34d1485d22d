package http

import (
	"net/http"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/service"
	"liirat-news/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AuthHandler handles sign-in, sign-out and the current session.
type AuthHandler struct {
	authService service.AuthService
	logger      *logger.Logger
}

func NewAuthHandler(authService service.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

func (h *AuthHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/login", h.Login)
	g.POST("/signup", h.Signup)
	g.POST("/logout", h.Logout)
	g.GET("/session", h.GetSession)
	g.PUT("/profile", h.UpdateProfile)
	g.POST("/password-reset", h.RequestPasswordReset)
	g.GET("/anonymous", h.Anonymous)
}

// Login godoc
// @Summary Sign in
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   credentials body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}
	resp, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to sign in")
	}
	return c.JSON(http.StatusOK, resp)
}

// Signup godoc
// @Summary Create an account
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   account body dto.SignupRequest true "Account"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req dto.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}
	resp, err := h.authService.Signup(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to sign up")
	}
	return c.JSON(http.StatusCreated, resp)
}

// Logout godoc
// @Summary Sign out
// @Tags auth
// @Produce  json
// @Param   X-Session-Token header string false "Session token"
// @Success 200 {object} dto.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), storeFrom(c)); err != nil {
		return respondError(c, h.logger, err, "Failed to sign out")
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// GetSession godoc
// @Summary Current session
// @Tags auth
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/session [get]
func (h *AuthHandler) GetSession(c echo.Context) error {
	sess := sessionFrom(c)
	if !sess.Valid() {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrUnauthenticated.Error(), "state": authStateFrom(c)})
	}
	return c.JSON(http.StatusOK, service.MapToSessionResponse(sess))
}

// UpdateProfile godoc
// @Summary Update the profile
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   X-Session-Token header string true "Session token"
// @Param   profile body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req dto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}
	resp, err := h.authService.UpdateProfile(c.Request().Context(), storeFrom(c), sessionFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update profile")
	}
	return c.JSON(http.StatusOK, resp)
}

// RequestPasswordReset godoc
// @Summary Request a password reset
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body dto.PasswordResetRequest true "Email"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ValidationErrorResponse
// @Router /auth/password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
	}
	if err := h.authService.RequestPasswordReset(c.Request().Context(), req); err != nil {
		return respondError(c, h.logger, err, "Failed to request password reset")
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "If the address is registered, a reset link has been sent"})
}

// Anonymous godoc
// @Summary Anonymous identity
// @Description Returns id when it was issued before, otherwise a new anon_ identity
// @Tags auth
// @Produce  json
// @Param   id query string false "Previously issued anonymous id"
// @Success 200 {object} dto.AnonymousResponse
// @Router /auth/anonymous [get]
func (h *AuthHandler) Anonymous(c echo.Context) error {
	id, err := h.authService.AnonymousID(c.Request().Context(), c.QueryParam("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to issue anonymous id")
	}
	return c.JSON(http.StatusOK, dto.AnonymousResponse{AnonymousID: id})
}
