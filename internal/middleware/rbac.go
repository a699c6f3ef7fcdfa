package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/model"
)

// RequireRoles allows the request through only when the authenticated user's
// role is in the given set. Each endpoint lists every role it accepts; there
// is no implicit hierarchy. The forbidden payload names both the allowed set
// and the caller's actual role.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return apperrors.NewHTTPError(http.StatusUnauthorized, "not authenticated", apperrors.CodeUnauthenticated)
			}
			if !allowed[user.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"message": "insufficient role",
					"code":    apperrors.CodeForbidden,
					"data": echo.Map{
						"required_roles": roles,
						"role":           user.Role,
					},
				})
			}
			return next(c)
		}
	}
}

// SelfOrRoles allows admins and managers through unconditionally; a plain
// user passes only when the path parameter names their own id.
func SelfOrRoles(param string, roles ...string) echo.MiddlewareFunc {
	elevated := make(map[string]bool, len(roles))
	for _, r := range roles {
		elevated[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return apperrors.NewHTTPError(http.StatusUnauthorized, "not authenticated", apperrors.CodeUnauthenticated)
			}
			if elevated[user.Role] {
				return next(c)
			}
			if user.Role == model.RoleUser && c.Param(param) == user.ID.String() {
				return next(c)
			}
			return c.JSON(http.StatusForbidden, echo.Map{
				"success": false,
				"message": "insufficient role",
				"code":    apperrors.CodeForbidden,
				"data": echo.Map{
					"required_roles": roles,
					"role":           user.Role,
				},
			})
		}
	}
}
