package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-room-reservation/internal/config"
	"github.com/iliyamo/hotel-room-reservation/internal/model"
	"github.com/iliyamo/hotel-room-reservation/internal/policy"
	"github.com/iliyamo/hotel-room-reservation/internal/repository"
)

// UserHandler implements the user management endpoints. Add and edit
// are admin-only via route middleware; delete is available to any
// session but a guest may only delete their own account.
type UserHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo) *UserHandler {
	if users == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Users: users}
}

type userRow struct {
	ID         uint64 `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id"`
	Birthdate  string `json:"birthdate"`
}

func toUserRow(u model.User) userRow {
	return userRow{
		ID:         u.ID,
		Username:   u.Username,
		Role:       u.Role,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		NationalID: u.NationalID,
		Birthdate:  u.Birthdate.UTC().Format("2006-01-02"),
	}
}

// ListUsers handles GET /manage_users/view_users.
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("list users failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
	}
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, toUserRow(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rows})
}

type addUserReq struct {
	registerReq
	Role string `json:"role"` // admin | guest
}

// AddUser handles POST /manage_users/add_user. Unlike registration the
// admin picks the role.
func (h *UserHandler) AddUser(c echo.Context) error {
	var req addUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != model.RoleAdmin && role != model.RoleGuest {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be admin or guest", "field": "role"})
	}
	birthdate, err := parseDate(req.Birthdate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid birthdate", "field": "birthdate"})
	}
	if err := validateProfile(req.Username, req.Password, req.ConfirmPassword,
		req.FirstName, req.LastName, req.NationalID, birthdate, time.Now().UTC()); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	u := model.User{
		Username:   req.Username,
		Role:       role,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		NationalID: strings.TrimSpace(req.NationalID),
		Birthdate:  birthdate,
	}
	uid, err := h.Users.Create(c.Request().Context(), &u, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists", "field": "username"})
		case errors.Is(err, repository.ErrNationalIDExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "national id already exists", "field": "national_id"})
		}
		c.Logger().Errorf("add user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u.ID = uid
	return c.JSON(http.StatusCreated, echo.Map{"item": toUserRow(u)})
}

type editUserReq struct {
	UserID     uint64 `json:"user_id"`
	Role       string `json:"role"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id"`
	Birthdate  string `json:"birthdate"`
}

// EditUser handles POST /manage_users/edit_user.
func (h *UserHandler) EditUser(c echo.Context) error {
	var req editUserReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != model.RoleAdmin && role != model.RoleGuest {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be admin or guest", "field": "role"})
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errNameRequired.Error()})
	}
	if l := len(strings.TrimSpace(req.NationalID)); l < 7 || l > 10 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": errNationalIDLength.Error(), "field": "national_id"})
	}
	birthdate, err := parseDate(req.Birthdate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid birthdate", "field": "birthdate"})
	}

	err = h.Users.Update(c.Request().Context(), req.UserID, role,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName),
		strings.TrimSpace(req.NationalID), birthdate)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrNationalIDExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "national id already exists", "field": "national_id"})
		}
		c.Logger().Errorf("edit user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": req.UserID})
}

type deleteUserReq struct {
	UserID          uint64 `json:"user_id"`
	ConfirmUsername string `json:"confirm_username"`
}

// DeleteUser handles POST /manage_users/delete_user. The caller must
// retype the target's username. Admins may delete anyone; a guest only
// their own account. Users holding active reservations cannot be
// deleted until those are cancelled.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req deleteUserReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !policy.CanActOn(id, req.UserID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx := c.Request().Context()
	target, err := h.Users.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		c.Logger().Errorf("delete user: load failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}
	if !strings.EqualFold(strings.TrimSpace(req.ConfirmUsername), target.Username) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "confirmation username does not match", "field": "confirm_username"})
	}

	tx, err := h.Users.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.Users.DeleteTx(ctx, tx, req.UserID); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "user has active reservations"})
		}
		c.Logger().Errorf("delete user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}
