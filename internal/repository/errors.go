// Package repository defines the data access layer over MySQL along with
// the sentinel error values shared across repositories. Handlers compare
// against these sentinels with errors.Is to pick the HTTP status: not
// found -> 404, duplicates -> 409, state conflicts (reservation already
// cancelled, dependent rows still present) -> 409.
package repository

import "errors"

// ErrConflict is returned when a delete or update cannot proceed because
// of dependent records, such as deleting a category that rooms still
// reference or a user who holds active reservations.
var ErrConflict = errors.New("conflict")

// ErrAlreadyCancelled is returned when cancelling a reservation that is
// not ACTIVE. The one-to-one cancellations row is never duplicated.
var ErrAlreadyCancelled = errors.New("reservation already cancelled")
