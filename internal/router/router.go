// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/handler"
	"github.com/iliyamo/hotel-room-reservation/internal/middleware"
	"github.com/iliyamo/hotel-room-reservation/internal/policy"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check used by load balancers to
// verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers registration, login and session management
// routes. Register, login, refresh and logout do not require an
// existing session; /me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	e.POST("/register", a.Register)
	e.POST("/login", a.Login)
	e.POST("/refresh", a.Refresh)
	// Logout accepts either a bearer token (revoke every session) or a
	// refresh_token body (revoke one). GET matches browser navigation;
	// POST is kept for API clients.
	e.GET("/logout", a.Logout)
	e.POST("/logout", a.Logout)

	g := e.Group("/me", middleware.JWTAuth(jwtSecret))
	g.GET("", a.Me)
}

// RegisterPublic registers the anonymous browse endpoints. The room
// listing is wrapped in the Redis response cache so guest traffic does
// not hit MySQL on every request; listCache may be a no-op when Redis
// is unavailable.
func RegisterPublic(e *echo.Echo, r *handler.RoomHandler, listCache echo.MiddlewareFunc) {
	e.GET("/rooms", r.ListRooms, listCache)
	e.GET("/rooms/categories", r.ListCategories)
}

// RegisterSession registers endpoints available to any authenticated
// user, admin or guest. Each route names the policy Action it maps to;
// middleware.Authorize consults the policy table, so admin-only rules
// are never re-declared here. Per-entity ownership (a guest cancelling
// only their own reservation, deleting only their own account) is
// enforced inside the handlers via policy.CanActOn.
func RegisterSession(e *echo.Echo, u *handler.UserHandler, rm *handler.RoomHandler, rs *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("", middleware.JWTAuth(jwtSecret))

	g.GET("/manage_users/view_users", u.ListUsers, middleware.Authorize(policy.ActionListUsers))
	g.POST("/manage_users/delete_user", u.DeleteUser, middleware.Authorize(policy.ActionDeleteUser))

	g.POST("/rooms/filter", rm.FilterRooms, middleware.Authorize(policy.ActionFilterRooms))

	g.GET("/reservations/list", rs.ListOwn, middleware.Authorize(policy.ActionListReservations))
	g.POST("/reservations/filter", rs.Filter, middleware.Authorize(policy.ActionListReservations))
	g.POST("/reservations/book", rs.Book, middleware.Authorize(policy.ActionBookReservation))
	g.POST("/reservations/cancel", rs.Cancel, middleware.Authorize(policy.ActionCancelReservation))
}

// RegisterAdmin registers the management endpoints: the dashboard, user
// and room management, category management and reservation
// reassignment. Their Actions are all admin-only in the policy table.
func RegisterAdmin(e *echo.Echo, d *handler.DashboardHandler, u *handler.UserHandler, rm *handler.RoomHandler, rs *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("", middleware.JWTAuth(jwtSecret))

	g.GET("/dashboard", d.Overview, middleware.Authorize(policy.ActionViewDashboard))

	g.POST("/manage_users/add_user", u.AddUser, middleware.Authorize(policy.ActionManageUsers))
	g.POST("/manage_users/edit_user", u.EditUser, middleware.Authorize(policy.ActionManageUsers))

	manageRooms := middleware.Authorize(policy.ActionManageRooms)
	g.POST("/rooms/add", rm.AddRoom, manageRooms)
	g.POST("/rooms/edit_room", rm.EditRoom, manageRooms)
	g.POST("/rooms/delete_room", rm.DeleteRoom, manageRooms)
	g.POST("/rooms/categories", rm.AddCategory, manageRooms)
	g.POST("/rooms/categories/delete", rm.DeleteCategory, manageRooms)

	g.POST("/reservations/edit", rs.Edit, middleware.Authorize(policy.ActionEditReservation))
}
