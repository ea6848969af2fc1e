package model

import "time"

// Reservation status values stored in reservations.status.
const (
	ReservationActive    = "ACTIVE"
	ReservationCancelled = "CANCELLED"
)

// Reservation records a guest's booking of a single room for a date
// range. A reservation owns at most one Cancellation row; the one-to-one
// link is enforced by a unique key on cancellations.reservation_id.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who owns the reservation.
//  RoomID    – room being reserved.
//  Status    – ACTIVE or CANCELLED.
//  CheckIn   – check-in timestamp (UTC).
//  CheckOut  – check-out timestamp (UTC), strictly after CheckIn.
//  NumPeople – occupant count, at most the room category's max capacity.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Reservation struct {
	ID        uint64    // reservations.id
	UserID    uint64    // reservations.user_id
	RoomID    uint64    // reservations.room_id
	Status    string    // reservations.status
	CheckIn   time.Time // reservations.check_in
	CheckOut  time.Time // reservations.check_out
	NumPeople uint32    // reservations.num_people
	CreatedAt time.Time // reservations.created_at
	UpdatedAt time.Time // reservations.updated_at
}

// Cancellation is the single audit row written when a reservation is
// cancelled. It is immutable once created and is removed only when its
// owning reservation row is deleted (FK cascade).
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation (unique).
//  CancelledAt   – when the cancellation happened (UTC).
type Cancellation struct {
	ID            uint64    // cancellations.id
	ReservationID uint64    // cancellations.reservation_id
	CancelledAt   time.Time // cancellations.cancelled_at
}
