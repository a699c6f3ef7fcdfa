package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/middleware"
	"adminpanel/internal/service"
)

// UserHandler handles user-management endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest represents an admin-initiated account creation.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=user manager admin"`
}

// UpdateUserRequest represents a profile update.
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdateRoleRequest represents a role change.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user manager admin"`
}

func actorID(c echo.Context) *uuid.UUID {
	if user, ok := middleware.CurrentUser(c); ok {
		id := user.ID
		return &id
	}
	return nil
}

func parseUserID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// ListUsers godoc
// @Summary List all users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return fail(c, apperrors.MapErrorToHTTP(err))
	}
	return respond(c, http.StatusOK, "", users)
}

// GetUser godoc
// @Summary Get a user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return failWith(c, http.StatusBadRequest, "invalid user id", apperrors.CodeBadRequest)
	}

	user, err := h.userService.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(c, apperrors.MapErrorToHTTP(err))
	}
	return respond(c, http.StatusOK, "", user)
}

// CreateUser godoc
// @Summary Create a user with an explicit role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} Envelope
// @Failure 400 {object} Envelope
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "invalid request body", apperrors.CodeBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "name, email, password and role are required", apperrors.CodeMissingFields)
	}

	user, err := h.userService.CreateUser(c.Request().Context(), req.Name, req.Email, req.Password, req.Role, actorID(c), requestMeta(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return failWith(c, http.StatusBadRequest, err.Error(), apperrors.CodeDuplicateEmail)
		}
		return fail(c, apperrors.MapErrorToHTTP(err))
	}
	return respond(c, http.StatusCreated, "user created", user)
}

// UpdateUser godoc
// @Summary Update a user's profile fields
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Fields to update"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return failWith(c, http.StatusBadRequest, "invalid user id", apperrors.CodeBadRequest)
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "invalid request body", apperrors.CodeBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "invalid fields", apperrors.CodeBadRequest)
	}

	user, err := h.userService.UpdateUser(c.Request().Context(), id, req.Name, req.Email, actorID(c), requestMeta(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return failWith(c, http.StatusBadRequest, err.Error(), apperrors.CodeDuplicateEmail)
		}
		return fail(c, apperrors.MapErrorToHTTP(err))
	}
	return respond(c, http.StatusOK, "user updated", user)
}

// UpdateRole godoc
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateRoleRequest true "New role"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /users/{id}/role [put]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return failWith(c, http.StatusBadRequest, "invalid user id", apperrors.CodeBadRequest)
	}

	var req UpdateRoleRequest
	if err := c.Bind(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "invalid request body", apperrors.CodeBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return failWith(c, http.StatusBadRequest, "role must be one of user, manager, admin", apperrors.CodeBadRequest)
	}

	user, err := h.userService.UpdateRole(c.Request().Context(), id, req.Role, actorID(c), requestMeta(c))
	if err != nil {
		return fail(c, apperrors.MapErrorToHTTP(err))
	}
	return respond(c, http.StatusOK, "role updated", user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseUserID(c)
	if err != nil {
		return failWith(c, http.StatusBadRequest, "invalid user id", apperrors.CodeBadRequest)
	}

	if err := h.userService.DeleteUser(c.Request().Context(), id, actorID(c), requestMeta(c)); err != nil {
		return fail(c, apperrors.MapErrorToHTTP(err))
	}
	return respond(c, http.StatusOK, "user deleted", nil)
}
