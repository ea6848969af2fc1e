package handler

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

func newRoomHandler(t *testing.T) (*RoomHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRoomHandler(
		repository.NewRoomRepo(db),
		repository.NewRoomCategoryRepo(db),
	), mock
}

func TestEditRoomUpdates(t *testing.T) {
	h, mock := newRoomHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM rooms WHERE id=? FOR UPDATE")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RoomAvailable))
	mock.ExpectExec("UPDATE rooms SET").
		WithArgs("101", uint64(1), "Sea View", "Renovated", model.RoomDisabled, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	body := `{"room_id":9,"number":"101","category_id":1,"name":"Sea View","description":"Renovated","status":"DISABLED"}`
	c, rec := jsonContext(t, body, 1, "admin")

	require.NoError(t, h.EditRoom(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":9`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditRoomCannotReleaseBookedRoom(t *testing.T) {
	h, mock := newRoomHandler(t)

	// Forcing a RESERVED room back to AVAILABLE while its reservation is
	// still active would let the room be booked twice.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM rooms WHERE id=? FOR UPDATE")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RoomReserved))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE room_id=? AND status=?")).
		WithArgs(uint64(9), model.ReservationActive).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	body := `{"room_id":9,"number":"101","category_id":1,"name":"Sea View","status":"AVAILABLE"}`
	c, rec := jsonContext(t, body, 1, "admin")

	require.NoError(t, h.EditRoom(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "active reservation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditRoomNotFound(t *testing.T) {
	h, mock := newRoomHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM rooms WHERE id=? FOR UPDATE")).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	body := `{"room_id":404,"number":"101","category_id":1,"name":"Sea View","status":"AVAILABLE"}`
	c, rec := jsonContext(t, body, 1, "admin")

	require.NoError(t, h.EditRoom(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
