package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

// RoomHandler implements room and room-category management. Mutating
// endpoints are admin-only via route middleware; listing is public.
type RoomHandler struct {
	Rooms      *repository.RoomRepo
	Categories *repository.RoomCategoryRepo
}

func NewRoomHandler(rooms *repository.RoomRepo, categories *repository.RoomCategoryRepo) *RoomHandler {
	if rooms == nil || categories == nil {
		panic("nil repository passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms, Categories: categories}
}

// ListRooms handles GET /rooms. Anonymous browsing of the full room
// list; responses are served through the Redis cache.
func (h *RoomHandler) ListRooms(c echo.Context) error {
	rooms, err := h.Rooms.List(c.Request().Context(), "all")
	if err != nil {
		c.Logger().Errorf("list rooms failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

type roomFilterReq struct {
	Status string `json:"status"`
}

// FilterRooms handles POST /rooms/filter. A status of "all" returns
// every room; any other value must be a valid room status.
func (h *RoomHandler) FilterRooms(c echo.Context) error {
	var req roomFilterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = "all"
	}
	if status != "all" && !model.ValidRoomStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status", "field": "status"})
	}
	rooms, err := h.Rooms.List(c.Request().Context(), status)
	if err != nil {
		c.Logger().Errorf("filter rooms failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

type roomReq struct {
	RoomID      uint64 `json:"room_id"` // edit only
	Number      string `json:"number"`
	CategoryID  uint64 `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (req *roomReq) validate() (string, bool) {
	if strings.TrimSpace(req.Number) == "" || strings.TrimSpace(req.Name) == "" || req.CategoryID == 0 {
		return "", false
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = model.RoomAvailable
	}
	if !model.ValidRoomStatus(status) {
		return "", false
	}
	return status, true
}

// AddRoom handles POST /rooms/add.
func (h *RoomHandler) AddRoom(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status, ok := req.validate()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "number, name, category_id and a valid status are required"})
	}
	room := model.Room{
		Number:      req.Number,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
	}
	id, err := h.Rooms.Create(c.Request().Context(), &room)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNumberExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room number already exists", "field": "number"})
		case errors.Is(err, repository.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room category not found", "field": "category_id"})
		}
		c.Logger().Errorf("add room failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// EditRoom handles POST /rooms/edit_room. Releasing a RESERVED room
// that still has an active reservation is rejected as a conflict.
func (h *RoomHandler) EditRoom(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil || req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status, ok := req.validate()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "number, name, category_id and a valid status are required"})
	}
	room := model.Room{
		ID:          req.RoomID,
		Number:      req.Number,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
	}
	ctx := c.Request().Context()
	tx, err := h.Rooms.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Rooms.UpdateTx(ctx, tx, &room); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		case errors.Is(err, repository.ErrRoomNumberExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room number already exists", "field": "number"})
		case errors.Is(err, repository.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room category not found", "field": "category_id"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room has an active reservation"})
		}
		c.Logger().Errorf("edit room failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"updated": req.RoomID})
}

type deleteRoomReq struct {
	RoomID uint64 `json:"room_id"`
}

// DeleteRoom handles POST /rooms/delete_room. Only AVAILABLE rooms with
// no active reservation can be removed.
func (h *RoomHandler) DeleteRoom(c echo.Context) error {
	var req deleteRoomReq
	if err := c.Bind(&req); err != nil || req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	tx, err := h.Rooms.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Rooms.DeleteTx(ctx, tx, req.RoomID); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "room is not available for deletion"})
		}
		c.Logger().Errorf("delete room failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

type categoryReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxCapacity uint32 `json:"max_capacity"`
}

// AddCategory handles POST /rooms/categories.
func (h *RoomHandler) AddCategory(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" || req.MaxCapacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive max_capacity are required"})
	}
	id, err := h.Categories.Create(c.Request().Context(), req.Name, req.Description, req.MaxCapacity)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category name already exists", "field": "name"})
		}
		c.Logger().Errorf("add category failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create category failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// ListCategories handles GET /rooms/categories.
func (h *RoomHandler) ListCategories(c echo.Context) error {
	cats, err := h.Categories.List(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("list categories failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load categories"})
	}
	items := make([]echo.Map, 0, len(cats))
	for _, cat := range cats {
		items = append(items, echo.Map{
			"id":           cat.ID,
			"name":         cat.Name,
			"description":  cat.Description,
			"max_capacity": cat.MaxCapacity,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type deleteCategoryReq struct {
	CategoryID uint64 `json:"category_id"`
}

// DeleteCategory handles POST /rooms/categories/delete. Categories
// still referenced by rooms cannot be removed.
func (h *RoomHandler) DeleteCategory(c echo.Context) error {
	var req deleteCategoryReq
	if err := c.Bind(&req); err != nil || req.CategoryID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Categories.Delete(c.Request().Context(), req.CategoryID); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room category not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "category still referenced by rooms"})
		}
		c.Logger().Errorf("delete category failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete category failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
