package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"adminpanel/internal/auth"
	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/model"
	"adminpanel/internal/repository"
)

// Context keys used to hand the authenticated identity to downstream handlers.
const (
	ContextClaimsKey = "access_claims"
	ContextUserKey   = "current_user"
	ContextIPKey     = "client_ip"
)

// CurrentUser returns the user attached by the session gate, if any.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(ContextUserKey).(*model.User)
	return user, ok
}

// AccessToken verifies the bearer access token on the request. Verification
// is delegated to the token service so the signing secret and claim types
// stay in one place; echo-jwt only handles extraction and chaining.
func AccessToken(tokens *auth.TokenService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: ContextClaimsKey,
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			return tokens.VerifyAccessToken(raw)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				return apperrors.NewHTTPError(http.StatusUnauthorized, "access token expired", apperrors.CodeTokenExpired)
			case errors.Is(err, auth.ErrInvalidToken):
				return apperrors.NewHTTPError(http.StatusUnauthorized, "invalid access token", apperrors.CodeInvalidToken)
			default:
				// extraction failed before the token was ever parsed
				header := c.Request().Header.Get(echo.HeaderAuthorization)
				if strings.HasPrefix(header, "Bearer") && strings.TrimSpace(strings.TrimPrefix(header, "Bearer")) == "" {
					return apperrors.NewHTTPError(http.StatusUnauthorized, "authorization header has no token", apperrors.CodeMissingToken)
				}
				return apperrors.NewHTTPError(http.StatusUnauthorized, "missing or malformed authorization header", apperrors.CodeMissingAuthHeader)
			}
		},
	})
}

// Session loads the user behind the verified access token and rejects the
// request when the account is gone or holds no live refresh token. The
// latter is what makes logout effective for access tokens that have not yet
// expired. On success the user (sans credentials) and resolved client IP are
// attached to the context.
func Session(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ContextClaimsKey).(*auth.AccessClaims)
			if !ok {
				return apperrors.NewHTTPError(http.StatusUnauthorized, "not authenticated", apperrors.CodeUnauthenticated)
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return apperrors.NewHTTPError(http.StatusUnauthorized, "invalid access token", apperrors.CodeInvalidToken)
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				return apperrors.NewHTTPError(http.StatusUnauthorized, "user no longer exists", apperrors.CodeUserNotFound)
			}
			if !user.HasSession() {
				return apperrors.NewHTTPError(http.StatusUnauthorized, "session expired", apperrors.CodeSessionExpired)
			}

			// credentials never travel further down the chain
			user.PasswordHash = ""
			user.RefreshToken = nil

			c.Set(ContextUserKey, user)
			c.Set(ContextIPKey, c.RealIP())
			return next(c)
		}
	}
}

// OptionalSession performs the same verification and lookup as the required
// gate but never fails the request; on any error the request proceeds
// anonymously. Intended for endpoints usable both signed-in and signed-out.
func OptionalSession(tokens *auth.TokenService, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if raw == "" {
				return next(c)
			}

			claims, err := tokens.VerifyAccessToken(raw)
			if err != nil {
				return next(c)
			}
			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return next(c)
			}
			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil || !user.HasSession() {
				return next(c)
			}

			user.PasswordHash = ""
			user.RefreshToken = nil
			c.Set(ContextUserKey, user)
			c.Set(ContextIPKey, c.RealIP())
			return next(c)
		}
	}
}
