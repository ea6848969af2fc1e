// Package policy is the single place where role-based access rules are
// evaluated. Handlers never compare raw role strings; they parse the JWT
// role claim into a Role once and ask Authorize / CanActOn.
package policy

import "strings"

// Role is a closed two-variant type. Anything that does not parse to
// admin or guest is RoleUnknown and is denied everything.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleGuest
)

// ParseRole maps the persisted role string to a Role.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "guest":
		return RoleGuest
	}
	return RoleUnknown
}

// String returns the persisted form of the role.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleGuest:
		return "guest"
	}
	return "unknown"
}

// Action enumerates every protected operation the service exposes.
type Action int

const (
	ActionViewDashboard Action = iota // aggregate counts
	ActionListUsers                   // view all identities
	ActionManageUsers                 // add / edit identities
	ActionDeleteUser                  // delete an identity (ownership checked separately)
	ActionManageRooms                 // add / edit / delete rooms and categories
	ActionFilterRooms                 // filter room listing by status
	ActionBookReservation             // create a reservation
	ActionListReservations            // view reservations (scope depends on role)
	ActionCancelReservation           // cancel a reservation (ownership checked separately)
	ActionEditReservation             // reassign a reservation's room
)

// adminOnly lists actions that require the admin role. Every other
// action is self-service: any authenticated identity may perform it,
// subject to ownership checks via CanActOn.
var adminOnly = map[Action]bool{
	ActionViewDashboard:   true,
	ActionManageUsers:     true,
	ActionManageRooms:     true,
	ActionEditReservation: true,
}

// Identity is the authenticated actor extracted from the access token.
type Identity struct {
	UserID uint64
	Role   Role
}

// Authorize reports whether the identity may perform the action at all.
// Ownership-scoped actions still require a CanActOn check against the
// target entity's owner.
func Authorize(id Identity, a Action) bool {
	if id.Role != RoleAdmin && id.Role != RoleGuest {
		return false
	}
	if adminOnly[a] {
		return id.Role == RoleAdmin
	}
	return true
}

// CanActOn reports whether the identity may mutate or read an entity
// owned by ownerID. Admins may act on anything; guests only on their own
// records.
func CanActOn(id Identity, ownerID uint64) bool {
	if id.Role == RoleAdmin {
		return true
	}
	return id.Role == RoleGuest && id.UserID == ownerID
}
