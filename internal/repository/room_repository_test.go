package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

func newRoomMock(t *testing.T) (*RoomRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRoomRepo(db), mock
}

func TestRoomCreateDuplicateNumber(t *testing.T) {
	repo, mock := newRoomMock(t)

	mock.ExpectExec("INSERT INTO rooms").
		WillReturnError(errors.New("Error 1062: Duplicate entry '101' for key 'rooms.number'"))

	_, err := repo.Create(context.Background(), &model.Room{Number: "101", CategoryID: 1, Name: "Sea View", Status: model.RoomAvailable})
	assert.ErrorIs(t, err, ErrRoomNumberExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomCreateMissingCategory(t *testing.T) {
	repo, mock := newRoomMock(t)

	mock.ExpectExec("INSERT INTO rooms").
		WillReturnError(errors.New("Error 1452: Cannot add or update a child row: a foreign key constraint fails"))

	_, err := repo.Create(context.Background(), &model.Room{Number: "101", CategoryID: 99, Name: "Sea View", Status: model.RoomAvailable})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomDeleteTx(t *testing.T) {
	repo, mock := newRoomMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM rooms WHERE id=? FOR UPDATE")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RoomAvailable))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE room_id=? AND status=?")).
		WithArgs(uint64(9), model.ReservationActive).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rooms WHERE id=?")).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.DeleteTx(context.Background(), tx, 9))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomDeleteTxReservedRoom(t *testing.T) {
	repo, mock := newRoomMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM rooms WHERE id=? FOR UPDATE")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RoomReserved))
	mock.ExpectRollback()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	err = repo.DeleteTx(context.Background(), tx, 9)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomDeleteTxActiveReservation(t *testing.T) {
	repo, mock := newRoomMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM rooms WHERE id=? FOR UPDATE")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RoomAvailable))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE room_id=? AND status=?")).
		WithArgs(uint64(9), model.ReservationActive).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	err = repo.DeleteTx(context.Background(), tx, 9)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomUpdateTx(t *testing.T) {
	repo, mock := newRoomMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM rooms WHERE id=? FOR UPDATE")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RoomAvailable))
	mock.ExpectExec("UPDATE rooms SET").
		WithArgs("101", uint64(1), "Sea View", "", model.RoomDisabled, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.UpdateTx(context.Background(), tx, &model.Room{
		ID: 9, Number: "101", CategoryID: 1, Name: "Sea View", Status: model.RoomDisabled,
	}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomUpdateTxReleaseBookedRoom(t *testing.T) {
	repo, mock := newRoomMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM rooms WHERE id=? FOR UPDATE")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RoomReserved))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE room_id=? AND status=?")).
		WithArgs(uint64(9), model.ReservationActive).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	err = repo.UpdateTx(context.Background(), tx, &model.Room{
		ID: 9, Number: "101", CategoryID: 1, Name: "Sea View", Status: model.RoomAvailable,
	})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomUpdateTxReleaseStaleReserved(t *testing.T) {
	repo, mock := newRoomMock(t)

	// RESERVED with no active reservation backing it: release is fine.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM rooms WHERE id=? FOR UPDATE")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RoomReserved))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE room_id=? AND status=?")).
		WithArgs(uint64(9), model.ReservationActive).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("UPDATE rooms SET").
		WithArgs("101", uint64(1), "Sea View", "", model.RoomAvailable, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.UpdateTx(context.Background(), tx, &model.Room{
		ID: 9, Number: "101", CategoryID: 1, Name: "Sea View", Status: model.RoomAvailable,
	}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomUpdateTxNotFound(t *testing.T) {
	repo, mock := newRoomMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM rooms WHERE id=? FOR UPDATE")).
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	err = repo.UpdateTx(context.Background(), tx, &model.Room{
		ID: 404, Number: "101", CategoryID: 1, Name: "Sea View", Status: model.RoomAvailable,
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomGetForUpdateTx(t *testing.T) {
	repo, mock := newRoomMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rooms r").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "category_id", "name", "description", "status", "max_capacity"}).
			AddRow(9, "101", 1, "Sea View", "", model.RoomAvailable, 4))
	mock.ExpectCommit()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	room, maxCapacity, err := repo.GetForUpdateTx(context.Background(), tx, 9)
	require.NoError(t, err)
	assert.Equal(t, "101", room.Number)
	assert.Equal(t, model.RoomAvailable, room.Status)
	assert.Equal(t, uint32(4), maxCapacity)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomGetForUpdateTxNotFound(t *testing.T) {
	repo, mock := newRoomMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rooms r").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	_, _, err = repo.GetForUpdateTx(context.Background(), tx, 404)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomListStatusFilter(t *testing.T) {
	repo, mock := newRoomMock(t)

	cols := []string{"id", "number", "name", "description", "status", "cid", "cname", "max_capacity"}

	mock.ExpectQuery("FROM rooms r").
		WithArgs(model.RoomAvailable).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(9, "101", "Sea View", "", model.RoomAvailable, 1, "Double", 4))

	rooms, err := repo.List(context.Background(), model.RoomAvailable)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Double", rooms[0].CategoryName)

	// "all" binds no status argument.
	mock.ExpectQuery("FROM rooms r").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(9, "101", "Sea View", "", model.RoomAvailable, 1, "Double", 4).
			AddRow(10, "102", "Garden", "", model.RoomReserved, 1, "Double", 4))

	rooms, err = repo.List(context.Background(), "all")
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}
