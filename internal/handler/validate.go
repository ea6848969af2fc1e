package handler

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Pure validation for each operation, independent of Echo and the
// repositories so it can be tested without either. Constraints follow
// the registration rules: username 4-50 chars, password at least 6,
// national ID 7-10 chars, registrants must be adults.

const minRegistrationAge = 18

var (
	errUsernameLength   = errors.New("username must be 4-50 characters")
	errPasswordLength   = errors.New("password must be at least 6 characters")
	errPasswordMismatch = errors.New("password confirmation does not match")
	errNameRequired     = errors.New("first and last name are required")
	errNationalIDLength = errors.New("national id must be 7-10 characters")
	errUnderage         = fmt.Errorf("registrants must be at least %d years old", minRegistrationAge)
	errDateRange        = errors.New("check-out must be after check-in")
	errOccupantCount    = errors.New("occupant count must be at least 1")
)

// validateProfile checks the shared profile fields of registration and
// admin user creation. confirm is ignored when empty so admin edits can
// reuse the function without a password change.
func validateProfile(username, password, confirm, firstName, lastName, nationalID string, birthdate, now time.Time) error {
	if l := len(strings.TrimSpace(username)); l < 4 || l > 50 {
		return errUsernameLength
	}
	if len(password) < 6 {
		return errPasswordLength
	}
	if confirm != "" && confirm != password {
		return errPasswordMismatch
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return errNameRequired
	}
	if l := len(strings.TrimSpace(nationalID)); l < 7 || l > 10 {
		return errNationalIDLength
	}
	if ageAt(birthdate, now) < minRegistrationAge {
		return errUnderage
	}
	return nil
}

// validateBookingWindow requires checkOut strictly after checkIn.
func validateBookingWindow(checkIn, checkOut time.Time) error {
	if !checkOut.After(checkIn) {
		return errDateRange
	}
	return nil
}

// validateOccupants requires a positive occupant count within the room
// category's capacity.
func validateOccupants(numPeople, maxCapacity uint32) error {
	if numPeople == 0 {
		return errOccupantCount
	}
	if numPeople > maxCapacity {
		return fmt.Errorf("occupant count %d exceeds category capacity %d", numPeople, maxCapacity)
	}
	return nil
}

// ageAt returns full years between birthdate and now.
func ageAt(birthdate, now time.Time) int {
	years := now.Year() - birthdate.Year()
	if now.Month() < birthdate.Month() ||
		(now.Month() == birthdate.Month() && now.Day() < birthdate.Day()) {
		years--
	}
	return years
}

// parseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates, in UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
