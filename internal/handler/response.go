package handler

import (
	"github.com/labstack/echo/v4"

	apperrors "adminpanel/internal/errors"
)

// Envelope is the response shape shared by every endpoint. Errors always
// carry a machine-readable Code.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// respond writes a success envelope.
func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// fail writes an error envelope from an HTTPError.
func fail(c echo.Context, err *apperrors.HTTPError) error {
	return c.JSON(err.StatusCode, Envelope{
		Success: false,
		Message: err.Message,
		Code:    err.Code,
	})
}

// failWith is shorthand for building and writing an error envelope.
func failWith(c echo.Context, status int, message, code string) error {
	return fail(c, apperrors.NewHTTPError(status, message, code))
}
