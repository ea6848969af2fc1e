// Package handler implements the HTTP endpoints. Handlers orchestrate
// repositories, run multi-step mutations inside a single transaction
// and translate repository sentinel errors into HTTP status codes.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/policy"
)

// getUserID extracts the user_id stored by the JWT middleware and
// converts it to uint64. JWT numeric claims decode as float64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// currentIdentity builds the policy identity from the claims the JWT
// middleware stored in context.
func currentIdentity(c echo.Context) (policy.Identity, error) {
	uid, err := getUserID(c)
	if err != nil {
		return policy.Identity{}, err
	}
	role, _ := c.Get("role").(string)
	return policy.Identity{UserID: uid, Role: policy.ParseRole(role)}, nil
}
