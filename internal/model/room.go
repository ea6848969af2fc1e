package model

import "time"

// Room status values stored in rooms.status. The lifecycle is:
// AVAILABLE -> RESERVED on a successful booking, RESERVED -> AVAILABLE on
// cancellation or room reassignment, and any state <-> DISABLED by admin
// action to pull a room from the booking pool.
const (
	RoomAvailable = "AVAILABLE"
	RoomReserved  = "RESERVED"
	RoomDisabled  = "DISABLED"
)

// ValidRoomStatus reports whether s is one of the three persisted statuses.
func ValidRoomStatus(s string) bool {
	return s == RoomAvailable || s == RoomReserved || s == RoomDisabled
}

// RoomCategory represents a row in the `room_categories` table. A category
// may not be deleted while rooms still reference it.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique category name (e.g. "Suite").
//  Description – free-form description.
//  MaxCapacity – maximum number of occupants per room of this category.
type RoomCategory struct {
	ID          uint64 // room_categories.id
	Name        string // room_categories.name
	Description string // room_categories.description
	MaxCapacity uint32 // room_categories.max_capacity
}

// Room represents a row in the `rooms` table.
//
// Fields:
//  ID          – primary key identifier.
//  Number      – unique room number shown to guests.
//  CategoryID  – foreign key into room_categories.
//  Name        – display name.
//  Description – free-form description.
//  Status      – one of AVAILABLE, RESERVED, DISABLED.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Room struct {
	ID          uint64    // rooms.id
	Number      string    // rooms.number
	CategoryID  uint64    // rooms.category_id
	Name        string    // rooms.name
	Description string    // rooms.description
	Status      string    // rooms.status
	CreatedAt   time.Time // rooms.created_at
	UpdatedAt   time.Time // rooms.updated_at
}
