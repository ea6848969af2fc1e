package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

var (
	ErrRoomNumberExists = errors.New("room number already exists")
	ErrRoomNotFound     = errors.New("room not found")
)

// RoomRepo provides persistence for the `rooms` table.
type RoomRepo struct{ DB *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

// RoomDetail is a room joined with its category, as rendered in
// listings.
type RoomDetail struct {
	ID           uint64 `json:"id"`
	Number       string `json:"number"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	CategoryID   uint64 `json:"category_id"`
	CategoryName string `json:"category_name"`
	MaxCapacity  uint32 `json:"max_capacity"`
}

// Create inserts a room and returns its ID. Duplicate numbers map to
// ErrRoomNumberExists; a missing category (FK error 1452) maps to
// ErrCategoryNotFound.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO rooms (number, category_id, name, description, status) VALUES (?,?,?,?,?)",
		strings.TrimSpace(room.Number), room.CategoryID, room.Name, room.Description, room.Status)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			return 0, ErrRoomNumberExists
		}
		if strings.Contains(msg, "1452") {
			return 0, ErrCategoryNotFound
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a room by id.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	var m model.Room
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,number,category_id,name,description,status,created_at,updated_at FROM rooms WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.Number, &m.CategoryID, &m.Name, &m.Description, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrRoomNotFound
	}
	return m, err
}

// List returns rooms joined with their category. A statusFilter of
// "all" (or empty) returns every room; any other value restricts by
// exact status match.
func (r *RoomRepo) List(ctx context.Context, statusFilter string) ([]RoomDetail, error) {
	q := `SELECT r.id, r.number, r.name, r.description, r.status, c.id, c.name, c.max_capacity
	      FROM rooms r
	      JOIN room_categories c ON c.id = r.category_id`
	args := []interface{}{}
	if statusFilter != "" && statusFilter != "all" {
		q += " WHERE r.status = ?"
		args = append(args, statusFilter)
	}
	q += " ORDER BY r.number"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RoomDetail, 0)
	for rows.Next() {
		var d RoomDetail
		if err := rows.Scan(&d.ID, &d.Number, &d.Name, &d.Description, &d.Status,
			&d.CategoryID, &d.CategoryName, &d.MaxCapacity); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateTx mutates an existing room inside a transaction. The row is
// locked first so the status check cannot race a concurrent booking:
// moving a RESERVED room to any other status while an ACTIVE
// reservation still points at it is a state conflict, otherwise the
// room could be booked twice.
func (r *RoomRepo) UpdateTx(ctx context.Context, tx *sql.Tx, room *model.Room) error {
	var current string
	err := tx.QueryRowContext(ctx,
		"SELECT status FROM rooms WHERE id=? FOR UPDATE", room.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}
	if current == model.RoomReserved && room.Status != model.RoomReserved {
		var active uint64
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM reservations WHERE room_id=? AND status=?",
			room.ID, model.ReservationActive).Scan(&active); err != nil {
			return err
		}
		if active > 0 {
			return ErrConflict
		}
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE rooms SET number=?, category_id=?, name=?, description=?, status=? WHERE id=?",
		strings.TrimSpace(room.Number), room.CategoryID, room.Name, room.Description, room.Status, room.ID)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			return ErrRoomNumberExists
		}
		if strings.Contains(msg, "1452") {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

// DeleteTx removes a room inside an existing transaction. Only rooms in
// AVAILABLE state with no ACTIVE reservation pointing at them may be
// deleted; anything else is a state conflict.
func (r *RoomRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var status string
	err := tx.QueryRowContext(ctx,
		"SELECT status FROM rooms WHERE id=? FOR UPDATE", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}
	if status != model.RoomAvailable {
		return ErrConflict
	}
	var active uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE room_id=? AND status=?",
		id, model.ReservationActive).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM rooms WHERE id=?", id)
	return err
}

// GetForUpdateTx locks the room row with SELECT ... FOR UPDATE and
// returns it together with its category's max capacity. The lock makes
// the read-check-write sequence of booking and reassignment atomic: a
// concurrent booking blocks here until the first transaction commits,
// then observes the RESERVED status.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Room, uint32, error) {
	var (
		m           model.Room
		maxCapacity uint32
	)
	err := tx.QueryRowContext(ctx,
		`SELECT r.id, r.number, r.category_id, r.name, r.description, r.status, c.max_capacity
		 FROM rooms r
		 JOIN room_categories c ON c.id = r.category_id
		 WHERE r.id = ?
		 FOR UPDATE`,
		id).Scan(&m.ID, &m.Number, &m.CategoryID, &m.Name, &m.Description, &m.Status, &maxCapacity)
	if errors.Is(err, sql.ErrNoRows) {
		return m, 0, ErrRoomNotFound
	}
	return m, maxCapacity, err
}

// UpdateStatusTx transitions a room's status within a transaction.
func (r *RoomRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, "UPDATE rooms SET status=? WHERE id=?", status, id)
	return err
}

// Count returns the number of room rows, for the dashboard.
func (r *RoomRepo) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms").Scan(&n)
	return n, err
}
