package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/utils"
)

// UserRepo provides persistence for the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrUsernameExists   = errors.New("username already exists")
	ErrNationalIDExists = errors.New("national id already exists")
	ErrUserNotFound     = errors.New("user not found")
)

const userColumns = "id,username,password_hash,role,first_name,last_name,national_id,birthdate,created_at,updated_at"

// Create hashes the password and inserts the user, returning the new ID.
// MySQL duplicate-key errors (1062) are mapped to the matching sentinel
// by inspecting which unique index was hit.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, first_name, last_name, national_id, birthdate) VALUES (?,?,?,?,?,?,?)",
		u.Username, hash, u.Role, u.FirstName, u.LastName, u.NationalID, u.Birthdate)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "national_id") {
				return 0, ErrNationalIDExists
			}
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.FirstName,
		&u.LastName, &u.NationalID, &u.Birthdate, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.FirstName,
			&u.LastName, &u.NationalID, &u.Birthdate, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update mutates role and profile fields of an existing user.
func (r *UserRepo) Update(ctx context.Context, id uint64, role, firstName, lastName, nationalID string, birthdate time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, first_name=?, last_name=?, national_id=?, birthdate=? WHERE id=?",
		role, firstName, lastName, nationalID, birthdate, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrNationalIDExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from an update that changed nothing.
		var exists uint64
		if err := r.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? LIMIT 1", id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
	}
	return nil
}

// DeleteTx removes a user inside an existing transaction. It refuses to
// delete a user who still owns ACTIVE reservations (ErrConflict); the
// caller decides whether to cancel those first. Cancelled history rows
// and refresh tokens are removed by FK cascade.
func (r *UserRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var active uint64
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE user_id=? AND status=? FOR UPDATE",
		id, model.ReservationActive).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the number of user rows, for the dashboard.
func (r *UserRepo) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
