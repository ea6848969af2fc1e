package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

func newReservationHandler(t *testing.T) (*ReservationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReservationHandler(
		repository.NewUserRepo(db),
		repository.NewRoomRepo(db),
		repository.NewReservationRepo(db),
	), mock
}

func jsonContext(t *testing.T, body string, userID uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	return c, rec
}

func expectGuestRow(mock sqlmock.Sqlmock, id uint64, username string) {
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role",
			"first_name", "last_name", "national_id", "birthdate", "created_at", "updated_at"}).
			AddRow(id, username, "x", model.RoleGuest, "John", "Doe", "12345678",
				time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC), now, now))
}

func TestBookCreatesReservationAndReservesRoom(t *testing.T) {
	h, mock := newReservationHandler(t)
	now := time.Now().UTC()

	expectGuestRow(mock, 2, "guest1")
	mock.ExpectBegin()
	mock.ExpectQuery("FROM rooms r").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "category_id", "name", "description", "status", "max_capacity"}).
			AddRow(9, "101", 1, "Sea View", "", model.RoomAvailable, 4))
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM reservations WHERE id=?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET status=? WHERE id=?")).
		WithArgs(model.RoomReserved, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"room_id":9,"check_in":"2026-09-01","check_out":"2026-09-03","num_people":2}`
	c, rec := jsonContext(t, body, 2, "guest")

	require.NoError(t, h.Book(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reservation_id":11`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRoomNotAvailable(t *testing.T) {
	h, mock := newReservationHandler(t)

	expectGuestRow(mock, 2, "guest1")
	mock.ExpectBegin()
	mock.ExpectQuery("FROM rooms r").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "category_id", "name", "description", "status", "max_capacity"}).
			AddRow(9, "101", 1, "Sea View", "", model.RoomReserved, 4))
	mock.ExpectRollback()

	body := `{"room_id":9,"check_in":"2026-09-01","check_out":"2026-09-03","num_people":2}`
	c, rec := jsonContext(t, body, 2, "guest")

	require.NoError(t, h.Book(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookCapacityExceeded(t *testing.T) {
	h, mock := newReservationHandler(t)

	expectGuestRow(mock, 2, "guest1")
	mock.ExpectBegin()
	mock.ExpectQuery("FROM rooms r").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "category_id", "name", "description", "status", "max_capacity"}).
			AddRow(9, "101", 1, "Sea View", "", model.RoomAvailable, 2))
	mock.ExpectRollback()

	body := `{"room_id":9,"check_in":"2026-09-01","check_out":"2026-09-03","num_people":3}`
	c, rec := jsonContext(t, body, 2, "guest")

	require.NoError(t, h.Book(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookGuestCannotBookForOthers(t *testing.T) {
	h, mock := newReservationHandler(t)

	body := `{"user_id":5,"room_id":9,"check_in":"2026-09-01","check_out":"2026-09-03","num_people":2}`
	c, rec := jsonContext(t, body, 2, "guest")

	require.NoError(t, h.Book(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRejectsInvertedDates(t *testing.T) {
	h, mock := newReservationHandler(t)

	body := `{"room_id":9,"check_in":"2026-09-03","check_out":"2026-09-01","num_people":2}`
	c, rec := jsonContext(t, body, 2, "guest")

	require.NoError(t, h.Book(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookOwnerDeletedConcurrently(t *testing.T) {
	h, mock := newReservationHandler(t)

	// The owner row exists at the pre-check but is deleted by the time
	// the insert runs; the FK failure must read as not-found, not 500.
	expectGuestRow(mock, 2, "guest1")
	mock.ExpectBegin()
	mock.ExpectQuery("FROM rooms r").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "category_id", "name", "description", "status", "max_capacity"}).
			AddRow(9, "101", 1, "Sea View", "", model.RoomAvailable, 4))
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnError(errors.New("Error 1452: Cannot add or update a child row: " +
			"a foreign key constraint fails (`hotel`.`reservations`, CONSTRAINT `reservations_ibfk_1` " +
			"FOREIGN KEY (`user_id`) REFERENCES `users` (`id`))"))
	mock.ExpectRollback()

	body := `{"room_id":9,"check_in":"2026-09-01","check_out":"2026-09-03","num_people":2}`
	c, rec := jsonContext(t, body, 2, "guest")

	require.NoError(t, h.Book(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelForbiddenForOtherGuest(t *testing.T) {
	h, mock := newReservationHandler(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "room_id", "status", "check_in", "check_out", "num_people", "created_at", "updated_at"}).
			AddRow(5, 7, 9, model.ReservationActive, now, now.Add(24*time.Hour), 2, now, now))
	mock.ExpectRollback()

	c, rec := jsonContext(t, `{"reservation_id":5}`, 2, "guest")

	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAlreadyCancelled(t *testing.T) {
	h, mock := newReservationHandler(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "room_id", "status", "check_in", "check_out", "num_people", "created_at", "updated_at"}).
			AddRow(5, 2, 9, model.ReservationCancelled, now, now.Add(24*time.Hour), 2, now, now))
	mock.ExpectRollback()

	c, rec := jsonContext(t, `{"reservation_id":5}`, 2, "guest")

	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelReleasesRoom(t *testing.T) {
	h, mock := newReservationHandler(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "room_id", "status", "check_in", "check_out", "num_people", "created_at", "updated_at"}).
			AddRow(5, 2, 9, model.ReservationActive, now, now.Add(24*time.Hour), 2, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status=? WHERE id=? AND status=?")).
		WithArgs(model.ReservationCancelled, uint64(5), model.ReservationActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO cancellations").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET status=? WHERE id=?")).
		WithArgs(model.RoomAvailable, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := jsonContext(t, `{"reservation_id":5}`, 2, "guest")

	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), model.ReservationCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditReassignsRooms(t *testing.T) {
	h, mock := newReservationHandler(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "room_id", "status", "check_in", "check_out", "num_people", "created_at", "updated_at"}).
			AddRow(5, 2, 9, model.ReservationActive, now, now.Add(24*time.Hour), 2, now, now))
	mock.ExpectQuery("FROM rooms r").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "category_id", "name", "description", "status", "max_capacity"}).
			AddRow(10, "102", 1, "Garden", "", model.RoomAvailable, 4))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET room_id=? WHERE id=?")).
		WithArgs(uint64(10), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET status=? WHERE id=?")).
		WithArgs(model.RoomAvailable, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET status=? WHERE id=?")).
		WithArgs(model.RoomReserved, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := jsonContext(t, `{"reservation_id":5,"new_room_id":10}`, 1, "admin")

	require.NoError(t, h.Edit(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"room_id":10`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
