package router

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"adminpanel/internal/auth"
	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/handler"
	"adminpanel/internal/middleware"
	"adminpanel/internal/model"
	"adminpanel/internal/repository"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	tokens *auth.TokenService,
	users repository.UserRepository,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	statsHandler *handler.StatsHandler,
	logHandler *handler.ActivityLogHandler,
) {
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = envelopeErrorHandler

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh-token", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	// polled by the setup wizard both before and after first login
	api.GET("/admin-setup/status", authHandler.AdminSetupStatus,
		middleware.OptionalSession(tokens, users))
	api.POST("/admin-setup", authHandler.AdminSetup)

	// Secured routes: token verification, then session liveness
	secured := api.Group("", middleware.AccessToken(tokens), middleware.Session(users))

	secured.GET("/me", authHandler.Me)

	// User management
	secured.GET("/users", userHandler.ListUsers,
		middleware.RequireRoles(model.RoleAdmin, model.RoleManager))
	secured.GET("/users/:id", userHandler.GetUser,
		middleware.SelfOrRoles("id", model.RoleAdmin, model.RoleManager))
	secured.POST("/users", userHandler.CreateUser,
		middleware.RequireRoles(model.RoleAdmin))
	secured.PUT("/users/:id", userHandler.UpdateUser,
		middleware.RequireRoles(model.RoleAdmin))
	secured.PUT("/users/:id/role", userHandler.UpdateRole,
		middleware.RequireRoles(model.RoleAdmin))
	secured.DELETE("/users/:id", userHandler.DeleteUser,
		middleware.RequireRoles(model.RoleAdmin))

	// Statistics
	secured.GET("/stats/overview", statsHandler.Overview,
		middleware.RequireRoles(model.RoleAdmin, model.RoleManager))

	// Activity log
	secured.GET("/logs", logHandler.List,
		middleware.RequireRoles(model.RoleAdmin, model.RoleManager))
	secured.GET("/logs/export", logHandler.Export,
		middleware.RequireRoles(model.RoleAdmin, model.RoleManager))
	secured.DELETE("/logs/cleanup", logHandler.Cleanup,
		middleware.RequireRoles(model.RoleAdmin))
}

// envelopeErrorHandler renders every error that escapes a handler in the
// response envelope, so clients always see {success, message, code}.
func envelopeErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var appErr *apperrors.HTTPError
	if errors.As(err, &appErr) {
		_ = c.JSON(appErr.StatusCode, handler.Envelope{
			Success: false,
			Message: appErr.Message,
			Code:    appErr.Code,
		})
		return
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		message := http.StatusText(echoErr.Code)
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		}
		code := apperrors.CodeBadRequest
		switch echoErr.Code {
		case http.StatusNotFound:
			code = apperrors.CodeNotFound
		case http.StatusUnauthorized:
			code = apperrors.CodeUnauthenticated
		case http.StatusInternalServerError:
			code = apperrors.CodeInternal
		}
		_ = c.JSON(echoErr.Code, handler.Envelope{
			Success: false,
			Message: message,
			Code:    code,
		})
		return
	}

	c.Logger().Error(err)
	_ = c.JSON(http.StatusInternalServerError, handler.Envelope{
		Success: false,
		Message: "internal server error",
		Code:    apperrors.CodeInternal,
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
