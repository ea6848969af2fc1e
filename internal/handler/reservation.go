package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/policy"
	"github.com/iliyamo/hotel-room-reservation/internal/queue"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/hotel-room-reservation/internal/service"
)

// ReservationHandler implements the reservation lifecycle: booking,
// cancellation, admin reassignment and listing. Every mutation runs
// inside a single transaction so the room status transition and the
// reservation row commit together or not at all; the room row is locked
// with SELECT ... FOR UPDATE so two concurrent bookings cannot both
// observe AVAILABLE.
type ReservationHandler struct {
	Users        *repository.UserRepo
	Rooms        *repository.RoomRepo
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(users *repository.UserRepo, rooms *repository.RoomRepo, reservations *repository.ReservationRepo) *ReservationHandler {
	if users == nil || rooms == nil || reservations == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{Users: users, Rooms: rooms, Reservations: reservations}
}

type bookReq struct {
	UserID    uint64 `json:"user_id"` // optional; admin may book on behalf of a guest
	RoomID    uint64 `json:"room_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	NumPeople uint32 `json:"num_people"`
}

// Book handles POST /reservations/book.
func (h *ReservationHandler) Book(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil || req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	// Guests book for themselves; only an admin may set another user.
	ownerID := id.UserID
	if req.UserID != 0 && req.UserID != id.UserID {
		if id.Role != policy.RoleAdmin {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		ownerID = req.UserID
	}

	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in", "field": "check_in"})
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out", "field": "check_out"})
	}
	if err := validateBookingWindow(checkIn, checkOut); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "check_out"})
	}

	ctx := c.Request().Context()
	owner, err := h.Users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		c.Logger().Errorf("book: load user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the room row and re-check its state under the lock. The
	// losing side of a concurrent booking blocks here, then sees
	// RESERVED and fails instead of double-booking.
	room, maxCapacity, err := h.Rooms.GetForUpdateTx(ctx, tx, req.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		c.Logger().Errorf("book: lock room failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if room.Status != model.RoomAvailable {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room unavailable"})
	}
	if err := validateOccupants(req.NumPeople, maxCapacity); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": "num_people"})
	}

	res := model.Reservation{
		UserID:    ownerID,
		RoomID:    room.ID,
		Status:    model.ReservationActive,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		NumPeople: req.NumPeople,
	}
	if err := h.Reservations.CreateTx(ctx, tx, &res); err != nil {
		// The owner was loaded before the transaction; a concurrent
		// delete surfaces here as an FK failure.
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		c.Logger().Errorf("book: create reservation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	if err := h.Rooms.UpdateStatusTx(ctx, tx, room.ID, model.RoomReserved); err != nil {
		c.Logger().Errorf("book: update room status failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update room status"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	// Fire-and-forget; a broker outage never fails a booking.
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishReservationBooked(pubCtx, queue.ReservationBookedEvent{
			ReservationID: res.ID,
			UserID:        ownerID,
			Username:      owner.Username,
			RoomID:        room.ID,
			RoomNumber:    room.Number,
			CheckIn:       checkIn.Format(time.RFC3339),
			CheckOut:      checkOut.Format(time.RFC3339),
			NumPeople:     req.NumPeople,
			BookedAt:      time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id": res.ID,
		"room_id":        room.ID,
		"status":         res.Status,
	})
}

type cancelReq struct {
	ReservationID uint64 `json:"reservation_id"`
}

// Cancel handles POST /reservations/cancel. The requester must own the
// reservation or be an admin. Cancelling an already-cancelled
// reservation is a 409 and never writes a second cancellations row.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req cancelReq
	if err := c.Bind(&req); err != nil || req.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetForUpdateTx(ctx, tx, req.ReservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		c.Logger().Errorf("cancel: lock reservation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !policy.CanActOn(id, res.UserID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if res.Status != model.ReservationActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already cancelled"})
	}

	cancelledAt := time.Now().UTC()
	if err := h.Reservations.CancelTx(ctx, tx, res.ID, cancelledAt); err != nil {
		if errors.Is(err, repository.ErrAlreadyCancelled) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already cancelled"})
		}
		c.Logger().Errorf("cancel: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	if err := h.Rooms.UpdateStatusTx(ctx, tx, res.RoomID, model.RoomAvailable); err != nil {
		c.Logger().Errorf("cancel: release room failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update room status"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishReservationCancelled(pubCtx, queue.ReservationCancelledEvent{
			ReservationID: res.ID,
			UserID:        res.UserID,
			RoomID:        res.RoomID,
			CancelledAt:   cancelledAt.Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": res.ID,
		"status":         model.ReservationCancelled,
		"cancelled_at":   cancelledAt.Format(time.RFC3339),
	})
}

type editReservationReq struct {
	ReservationID uint64 `json:"reservation_id"`
	NewRoomID     uint64 `json:"new_room_id"`
}

// Edit handles POST /reservations/edit (admin only). It reassigns an
// active reservation to a different available room. The vacated room is
// released back to AVAILABLE in the same transaction.
func (h *ReservationHandler) Edit(c echo.Context) error {
	var req editReservationReq
	if err := c.Bind(&req); err != nil || req.ReservationID == 0 || req.NewRoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetForUpdateTx(ctx, tx, req.ReservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		c.Logger().Errorf("edit reservation: lock failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if res.Status != model.ReservationActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not active"})
	}
	if req.NewRoomID == res.RoomID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation already uses this room", "field": "new_room_id"})
	}

	newRoom, maxCapacity, err := h.Rooms.GetForUpdateTx(ctx, tx, req.NewRoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		c.Logger().Errorf("edit reservation: lock room failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if newRoom.Status != model.RoomAvailable {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room unavailable"})
	}
	if err := validateOccupants(res.NumPeople, maxCapacity); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}

	if err := h.Reservations.ReassignRoomTx(ctx, tx, res.ID, newRoom.ID); err != nil {
		c.Logger().Errorf("edit reservation: reassign failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reassign room"})
	}
	if err := h.Rooms.UpdateStatusTx(ctx, tx, res.RoomID, model.RoomAvailable); err != nil {
		c.Logger().Errorf("edit reservation: release old room failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update room status"})
	}
	if err := h.Rooms.UpdateStatusTx(ctx, tx, newRoom.ID, model.RoomReserved); err != nil {
		c.Logger().Errorf("edit reservation: reserve new room failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update room status"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": res.ID,
		"room_id":        newRoom.ID,
	})
}

// ListOwn handles GET /reservations/list. It returns only the caller's
// reservations regardless of role.
func (h *ReservationHandler) ListOwn(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.List(c.Request().Context(), id.UserID, "all")
	if err != nil {
		c.Logger().Errorf("list reservations failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type reservationFilterReq struct {
	Status string `json:"status"`
}

// Filter handles POST /reservations/filter. Admin scope is every
// reservation; guests see only their own. "all" means unfiltered.
func (h *ReservationHandler) Filter(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reservationFilterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = "all"
	}
	if status != "all" && status != model.ReservationActive && status != model.ReservationCancelled {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status", "field": "status"})
	}

	scope := id.UserID
	if id.Role == policy.RoleAdmin {
		scope = 0 // unrestricted
	}
	items, err := h.Reservations.List(c.Request().Context(), scope, status)
	if err != nil {
		c.Logger().Errorf("filter reservations failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
