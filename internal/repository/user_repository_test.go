package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

func newUserMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func testUser() *model.User {
	return &model.User{
		Username:   "JohnDoe",
		Role:       model.RoleGuest,
		FirstName:  "John",
		LastName:   "Doe",
		NationalID: "12345678",
		Birthdate:  time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestUserCreateNormalizesUsername(t *testing.T) {
	repo, mock := newUserMock(t)
	u := testUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("johndoe", sqlmock.AnyArg(), model.RoleGuest, "John", "Doe", "12345678", u.Birthdate).
		WillReturnResult(sqlmock.NewResult(3, 1))

	id, err := repo.Create(context.Background(), u, "secret1", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)
	assert.Equal(t, "johndoe", u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicates(t *testing.T) {
	repo, mock := newUserMock(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'johndoe' for key 'users.username'"))
	_, err := repo.Create(context.Background(), testUser(), "secret1", 4)
	assert.ErrorIs(t, err, ErrUsernameExists)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062: Duplicate entry '12345678' for key 'users.national_id'"))
	_, err = repo.Create(context.Background(), testUser(), "secret1", 4)
	assert.ErrorIs(t, err, ErrNationalIDExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDNotFound(t *testing.T) {
	repo, mock := newUserMock(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteTx(t *testing.T) {
	repo, mock := newUserMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE user_id=? AND status=? FOR UPDATE")).
		WithArgs(uint64(3), model.ReservationActive).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.DeleteTx(context.Background(), tx, 3))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteTxActiveReservations(t *testing.T) {
	repo, mock := newUserMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE user_id=? AND status=? FOR UPDATE")).
		WithArgs(uint64(3), model.ReservationActive).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectRollback()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	err = repo.DeleteTx(context.Background(), tx, 3)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteTxMissingUser(t *testing.T) {
	repo, mock := newUserMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE user_id=? AND status=? FOR UPDATE")).
		WithArgs(uint64(404), model.ReservationActive).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs(uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := repo.DB.Begin()
	require.NoError(t, err)
	err = repo.DeleteTx(context.Background(), tx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
