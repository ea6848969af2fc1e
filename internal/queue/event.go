// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationBookedEvent is published when a booking commits. It carries
// enough information for downstream consumers to log or notify without
// querying the primary database.
type ReservationBookedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	Username      string `json:"username"`
	RoomID        uint64 `json:"room_id"`
	RoomNumber    string `json:"room_number"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	NumPeople     uint32 `json:"num_people"`
	BookedAt      string `json:"booked_at"`
}

// ReservationCancelledEvent is published when a cancellation commits.
type ReservationCancelledEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	RoomID        uint64 `json:"room_id"`
	CancelledAt   string `json:"cancelled_at"`
}
