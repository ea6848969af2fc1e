package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

// DashboardHandler serves the admin overview counters.
type DashboardHandler struct {
	Users        *repository.UserRepo
	Rooms        *repository.RoomRepo
	Reservations *repository.ReservationRepo
}

func NewDashboardHandler(users *repository.UserRepo, rooms *repository.RoomRepo, reservations *repository.ReservationRepo) *DashboardHandler {
	if users == nil || rooms == nil || reservations == nil {
		panic("nil repository passed to NewDashboardHandler")
	}
	return &DashboardHandler{Users: users, Rooms: rooms, Reservations: reservations}
}

// Overview handles GET /dashboard. Counters are read sequentially; the
// numbers are informational and do not need a consistent snapshot.
func (h *DashboardHandler) Overview(c echo.Context) error {
	ctx := c.Request().Context()

	userCount, err := h.Users.Count(ctx)
	if err != nil {
		c.Logger().Errorf("dashboard: count users failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	roomCount, err := h.Rooms.Count(ctx)
	if err != nil {
		c.Logger().Errorf("dashboard: count rooms failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	totalReservations, err := h.Reservations.Count(ctx, "all")
	if err != nil {
		c.Logger().Errorf("dashboard: count reservations failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	activeReservations, err := h.Reservations.Count(ctx, model.ReservationActive)
	if err != nil {
		c.Logger().Errorf("dashboard: count active reservations failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	guests, err := h.Reservations.SumOccupants(ctx)
	if err != nil {
		c.Logger().Errorf("dashboard: sum guests failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_users":         userCount,
		"total_rooms":         roomCount,
		"total_reservations":  totalReservations,
		"active_reservations": activeReservations,
		"total_guests":        guests,
	})
}
