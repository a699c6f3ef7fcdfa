package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/middleware"
	"adminpanel/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignupRequest represents a self-service registration request.
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest represents a logout request.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AdminSetupRequest represents the first-admin provisioning request.
type AdminSetupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// TokenPairResponse carries issued tokens together with the public profile.
type TokenPairResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	User         interface{} `json:"user,omitempty"`
}

func requestMeta(c echo.Context) service.RequestMeta {
	return service.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// Signup godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Registration data"
// @Success 201 {object} Envelope
// @Failure 400 {object} Envelope
// @Router /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "invalid request body", apperrors.CodeBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "name, email and password are required", apperrors.CodeMissingFields)
	}

	user, err := h.authService.Signup(c.Request().Context(), req.Name, req.Email, req.Password, requestMeta(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return failWith(c, http.StatusBadRequest, err.Error(), apperrors.CodeDuplicateEmail)
		}
		return fail(c, apperrors.MapErrorToHTTP(err))
	}

	return respond(c, http.StatusCreated, "account created", user)
}

// Login godoc
// @Summary Authenticate and issue a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope
// @Failure 401 {object} Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "invalid request body", apperrors.CodeBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "email and password are required", apperrors.CodeMissingCredentials)
	}

	accessToken, refreshToken, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			return failWith(c, http.StatusUnauthorized, err.Error(), apperrors.CodeInvalidCredentials)
		}
		return fail(c, apperrors.MapErrorToHTTP(err))
	}

	return respond(c, http.StatusOK, "logged in", TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

// Refresh godoc
// @Summary Exchange a refresh token for a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} Envelope
// @Failure 401 {object} Envelope
// @Failure 403 {object} Envelope
// @Router /refresh-token [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "invalid request body", apperrors.CodeBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return failWith(c, http.StatusUnauthorized, "refresh token is required", apperrors.CodeMissingToken)
	}

	accessToken, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidRefreshToken):
			return failWith(c, http.StatusForbidden, err.Error(), apperrors.CodeInvalidToken)
		case errors.Is(err, apperrors.ErrExpiredRefreshToken):
			return failWith(c, http.StatusForbidden, err.Error(), apperrors.CodeInvalidOrExpiredToken)
		}
		return fail(c, apperrors.MapErrorToHTTP(err))
	}

	return respond(c, http.StatusOK, "token refreshed", TokenPairResponse{AccessToken: accessToken})
}

// Logout godoc
// @Summary End the session behind a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LogoutRequest true "Refresh token"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope
// @Failure 401 {object} Envelope
// @Router /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := c.Bind(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "invalid request body", apperrors.CodeBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "refresh token is required", apperrors.CodeMissingToken)
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken, requestMeta(c)); err != nil {
		if errors.Is(err, apperrors.ErrInvalidRefreshToken) {
			return failWith(c, http.StatusUnauthorized, err.Error(), apperrors.CodeInvalidToken)
		}
		return fail(c, apperrors.MapErrorToHTTP(err))
	}

	return respond(c, http.StatusOK, "logged out", nil)
}

// AdminSetupStatus godoc
// @Summary Report whether first-admin setup is still open
// @Tags admin-setup
// @Produce json
// @Success 200 {object} Envelope
// @Router /admin-setup/status [get]
func (h *AuthHandler) AdminSetupStatus(c echo.Context) error {
	status, err := h.authService.SetupStatus(c.Request().Context())
	if err != nil {
		return fail(c, apperrors.MapErrorToHTTP(err))
	}
	return respond(c, http.StatusOK, "", status)
}

// AdminSetup godoc
// @Summary Provision and authenticate the first administrator
// @Tags admin-setup
// @Accept json
// @Produce json
// @Param request body AdminSetupRequest true "Administrator data"
// @Success 201 {object} Envelope
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Router /admin-setup [post]
func (h *AuthHandler) AdminSetup(c echo.Context) error {
	var req AdminSetupRequest
	if err := c.Bind(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "invalid request body", apperrors.CodeBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "name, email and password are required", apperrors.CodeMissingFields)
	}

	accessToken, refreshToken, user, err := h.authService.SetupAdmin(c.Request().Context(), req.Name, req.Email, req.Password, requestMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAdminExists):
			return failWith(c, http.StatusForbidden, err.Error(), apperrors.CodeAdminExists)
		case errors.Is(err, apperrors.ErrDuplicateEmail):
			return failWith(c, http.StatusBadRequest, err.Error(), apperrors.CodeDuplicateEmail)
		}
		return fail(c, apperrors.MapErrorToHTTP(err))
	}

	return respond(c, http.StatusCreated, "administrator created", TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

// Me godoc
// @Summary Return the authenticated user's public profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope
// @Failure 401 {object} Envelope
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return failWith(c, http.StatusUnauthorized, "not authenticated", apperrors.CodeUnauthenticated)
	}
	return respond(c, http.StatusOK, "", user)
}
