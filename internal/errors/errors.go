package errors

import (
	"errors"
	"net/http"
)

// Sentinel errors returned by the service layer. Handlers map them onto a
// fixed HTTP status and machine-readable code; raw internal errors never
// cross the HTTP boundary.
var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	// Unknown email and wrong password intentionally share this error so the
	// API cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken is returned when no user holds the presented refresh token.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpiredRefreshToken is returned when a stored refresh token fails
	// cryptographic verification; the stored token is cleared as a side effect.
	ErrExpiredRefreshToken = errors.New("invalid or expired refresh token")
	// ErrAdminExists is returned when admin setup runs after an admin already exists.
	ErrAdminExists = errors.New("admin account already exists")
	// ErrUserNotFound is returned when a referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionExpired is returned when an access token is presented for a
	// user with no live refresh token.
	ErrSessionExpired = errors.New("session expired")
	// ErrForbidden is returned when the caller's role is not in the allowed set.
	ErrForbidden = errors.New("insufficient role")
)

// Error codes exposed in the response envelope.
const (
	CodeDuplicateEmail        = "DUPLICATE_EMAIL"
	CodeMissingCredentials    = "MISSING_CREDENTIALS"
	CodeMissingFields         = "MISSING_FIELDS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeMissingToken          = "MISSING_TOKEN"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeMissingAuthHeader     = "MISSING_AUTH_HEADER"
	CodeSessionExpired        = "SESSION_EXPIRED"
	CodeAdminExists           = "ADMIN_EXISTS"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeUnauthenticated       = "UNAUTHENTICATED"
	CodeForbidden             = "FORBIDDEN"
	CodeNotFound              = "NOT_FOUND"
	CodeBadRequest            = "BAD_REQUEST"
	CodeInternal              = "INTERNAL_ERROR"
)

// HTTPError is an error carrying its HTTP status and envelope code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// MapErrorToHTTP maps domain errors to their default HTTP shape. Endpoints
// whose contract deviates from the default (refresh vs logout token errors)
// build the HTTPError themselves.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		return NewHTTPError(http.StatusBadRequest, err.Error(), CodeDuplicateEmail)
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), CodeInvalidCredentials)
	case errors.Is(err, ErrInvalidRefreshToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), CodeInvalidToken)
	case errors.Is(err, ErrExpiredRefreshToken):
		return NewHTTPError(http.StatusForbidden, err.Error(), CodeInvalidOrExpiredToken)
	case errors.Is(err, ErrAdminExists):
		return NewHTTPError(http.StatusForbidden, err.Error(), CodeAdminExists)
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), CodeUserNotFound)
	case errors.Is(err, ErrSessionExpired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), CodeSessionExpired)
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), CodeForbidden)
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", CodeInternal)
	}
}
