package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/policy"
)

// Authorize aborts with 403 unless the identity established by JWTAuth
// may perform the given action. Routes declare their Action once at
// registration time; the admin-only table lives solely in the policy
// package. Per-entity ownership is still checked in handlers via
// policy.CanActOn.
func Authorize(action policy.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			id := policy.Identity{Role: policy.ParseRole(role)}
			if !policy.Authorize(id, action) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
