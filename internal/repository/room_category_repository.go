package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

var (
	ErrCategoryNameExists = errors.New("category name already exists")
	ErrCategoryNotFound   = errors.New("room category not found")
)

// RoomCategoryRepo provides persistence for the `room_categories` table.
type RoomCategoryRepo struct{ DB *sql.DB }

func NewRoomCategoryRepo(db *sql.DB) *RoomCategoryRepo { return &RoomCategoryRepo{DB: db} }

// Create inserts a category and returns its ID. A duplicate name is
// mapped to ErrCategoryNameExists.
func (r *RoomCategoryRepo) Create(ctx context.Context, name, description string, maxCapacity uint32) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO room_categories (name, description, max_capacity) VALUES (?,?,?)",
		strings.TrimSpace(name), description, maxCapacity)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrCategoryNameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a category by id.
func (r *RoomCategoryRepo) GetByID(ctx context.Context, id uint64) (model.RoomCategory, error) {
	var c model.RoomCategory
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,description,max_capacity FROM room_categories WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.Name, &c.Description, &c.MaxCapacity)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrCategoryNotFound
	}
	return c, err
}

// GetByName fetches a category by its unique name.
func (r *RoomCategoryRepo) GetByName(ctx context.Context, name string) (model.RoomCategory, error) {
	var c model.RoomCategory
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,description,max_capacity FROM room_categories WHERE name=? LIMIT 1",
		strings.TrimSpace(name)).Scan(&c.ID, &c.Name, &c.Description, &c.MaxCapacity)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrCategoryNotFound
	}
	return c, err
}

// List returns all categories ordered by name.
func (r *RoomCategoryRepo) List(ctx context.Context) ([]model.RoomCategory, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,description,max_capacity FROM room_categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RoomCategory, 0)
	for rows.Next() {
		var c model.RoomCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.MaxCapacity); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a category. It refuses while any room still references
// the category (ErrConflict); that invariant keeps rooms.category_id
// meaningful. The FK on rooms.category_id backs the pre-check: a room
// created between the count and the DELETE fails the statement with
// MySQL error 1451, which maps to the same ErrConflict.
func (r *RoomCategoryRepo) Delete(ctx context.Context, id uint64) error {
	var inUse uint64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rooms WHERE category_id=?", id).Scan(&inUse); err != nil {
		return err
	}
	if inUse > 0 {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM room_categories WHERE id=?", id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1451") {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
