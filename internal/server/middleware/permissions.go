package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// HasPermission reports whether the user carries the given permission.
func HasPermission(user *AppUser, permission string) bool {
	return user != nil && slices.Contains(user.Permissions, permission)
}

// HasAnyPermission reports whether the user carries at least one of the
// given permissions.
func HasAnyPermission(user *AppUser, permissions ...string) bool {
	if user == nil {
		return false
	}
	return slices.ContainsFunc(permissions, func(p string) bool {
		return slices.Contains(user.Permissions, p)
	})
}

// IsAdmin reports whether the user holds the admin role.
func IsAdmin(user *AppUser) bool {
	return user != nil && user.Role == "admin"
}

// requirePermissions builds the route guard shared by the permission
// middlewares: 401 without a user, 403 when the check fails.
func requirePermissions(check func(*AppUser) bool, message string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			if !check(user) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": message})
			}
			return next(c)
		}
	}
}

// RequirePermission gates a route on a single permission.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return requirePermissions(func(u *AppUser) bool {
		return HasPermission(u, permission)
	}, "Forbidden: missing permission "+permission)
}

// RequireAnyPermission gates a route on holding at least one of the given
// permissions.
func RequireAnyPermission(permissions ...string) echo.MiddlewareFunc {
	return requirePermissions(func(u *AppUser) bool {
		return HasAnyPermission(u, permissions...)
	}, "Forbidden: missing required permission")
}
