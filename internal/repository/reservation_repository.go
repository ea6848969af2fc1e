package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo provides CRUD operations for reservations and their
// cancellation records. A reservation owns at most one cancellations
// row; the unique key on cancellations.reservation_id enforces the
// one-to-one link at the schema level. All timestamps are UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions
// spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// ReservationDetail is a reservation joined with its room and owner,
// as rendered in listings. CancelledAt is set only for cancelled rows.
type ReservationDetail struct {
	ID          uint64  `json:"id"`
	UserID      uint64  `json:"user_id"`
	Username    string  `json:"username"`
	RoomID      uint64  `json:"room_id"`
	RoomNumber  string  `json:"room_number"`
	RoomName    string  `json:"room_name"`
	Status      string  `json:"status"`
	CheckIn     string  `json:"check_in"`
	CheckOut    string  `json:"check_out"`
	NumPeople   uint32  `json:"num_people"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
}

// CreateTx inserts a new ACTIVE reservation within an existing
// transaction and populates the generated ID and timestamps on the
// provided record. The caller commits or rolls back. An FK failure
// (error 1452) means the owner or room vanished after the caller's
// earlier checks, so it maps to the matching not-found sentinel.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	result, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (user_id, room_id, status, check_in, check_out, num_people) VALUES (?,?,?,?,?,?)",
		res.UserID, res.RoomID, res.Status, res.CheckIn, res.CheckOut, res.NumPeople)
	if err != nil {
		if msg := strings.ToLower(err.Error()); strings.Contains(msg, "1452") {
			if strings.Contains(msg, "user_id") {
				return ErrUserNotFound
			}
			return ErrRoomNotFound
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM reservations WHERE id=?", res.ID).
		Scan(&res.CreatedAt, &res.UpdatedAt)
}

// GetForUpdateTx locks a reservation row with SELECT ... FOR UPDATE so
// cancellation and reassignment re-check its status under the lock.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
	var m model.Reservation
	err := tx.QueryRowContext(ctx,
		`SELECT id, user_id, room_id, status, check_in, check_out, num_people, created_at, updated_at
		 FROM reservations WHERE id = ? FOR UPDATE`,
		id).Scan(&m.ID, &m.UserID, &m.RoomID, &m.Status, &m.CheckIn, &m.CheckOut,
		&m.NumPeople, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrReservationNotFound
	}
	return m, err
}

// CancelTx marks a locked reservation CANCELLED and writes its single
// cancellations row stamped with cancelledAt. The caller must already
// hold the row lock and have verified the ACTIVE status; the unique key
// on reservation_id makes a second insert impossible regardless.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64, cancelledAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE reservations SET status=? WHERE id=? AND status=?",
		model.ReservationCancelled, id, model.ReservationActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyCancelled
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO cancellations (reservation_id, cancelled_at) VALUES (?,?)",
		id, cancelledAt)
	return err
}

// ReassignRoomTx moves a locked ACTIVE reservation to a different room.
func (r *ReservationRepo) ReassignRoomTx(ctx context.Context, tx *sql.Tx, id, newRoomID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE reservations SET room_id=? WHERE id=?", newRoomID, id)
	return err
}

// List returns reservation details, newest first. A userID of zero
// means no owner restriction (admin scope). A statusFilter of "all" or
// empty means no status restriction; any other value restricts by
// exact match.
func (r *ReservationRepo) List(ctx context.Context, userID uint64, statusFilter string) ([]ReservationDetail, error) {
	q := `SELECT rv.id, rv.user_id, u.username, rv.room_id, rm.number, rm.name,
	             rv.status, rv.check_in, rv.check_out, rv.num_people, cx.cancelled_at
	      FROM reservations rv
	      JOIN users u ON u.id = rv.user_id
	      JOIN rooms rm ON rm.id = rv.room_id
	      LEFT JOIN cancellations cx ON cx.reservation_id = rv.id`
	args := []interface{}{}
	conds := []string{}
	if userID != 0 {
		conds = append(conds, "rv.user_id = ?")
		args = append(args, userID)
	}
	if statusFilter != "" && statusFilter != "all" {
		conds = append(conds, "rv.status = ?")
		args = append(args, statusFilter)
	}
	for i, cond := range conds {
		if i == 0 {
			q += " WHERE " + cond
		} else {
			q += " AND " + cond
		}
	}
	q += " ORDER BY rv.created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReservationDetail, 0)
	for rows.Next() {
		var (
			d           ReservationDetail
			checkIn     time.Time
			checkOut    time.Time
			cancelledAt sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.Username, &d.RoomID, &d.RoomNumber, &d.RoomName,
			&d.Status, &checkIn, &checkOut, &d.NumPeople, &cancelledAt); err != nil {
			return nil, err
		}
		d.CheckIn = checkIn.UTC().Format(time.RFC3339)
		d.CheckOut = checkOut.UTC().Format(time.RFC3339)
		if cancelledAt.Valid {
			iso := cancelledAt.Time.UTC().Format(time.RFC3339)
			d.CancelledAt = &iso
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Count returns the number of reservation rows with the given status,
// for the dashboard. A statusFilter of "all" or empty counts every row.
func (r *ReservationRepo) Count(ctx context.Context, statusFilter string) (uint64, error) {
	var n uint64
	var err error
	if statusFilter == "" || statusFilter == "all" {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations").Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM reservations WHERE status=?", statusFilter).Scan(&n)
	}
	return n, err
}

// SumOccupants returns the total occupant count across all
// reservations, or zero when none exist.
func (r *ReservationRepo) SumOccupants(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(num_people),0) FROM reservations").Scan(&n)
	return n, err
}
