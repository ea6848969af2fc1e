package repository

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// SeedConfig carries the initial admin credentials. Self-registration
// only ever grants the guest role, so the first admin account must
// exist before the server takes traffic.
type SeedConfig struct {
	AdminUsername string
	AdminPassword string
	BcryptCost    int
}

const (
	seedCategoryName = "Default"
	seedCategoryDesc = "Default room category"
	seedCategoryCap  = 2
	seedRoomNumber   = "101"
	seedRoomName     = "Default Room"
	seedRoomDesc     = "Default room description"
)

// Seed makes a fresh database usable: it creates the admin account plus
// a default category and room when they are missing. Every step is
// idempotent, so restarting the server against an already-seeded
// database changes nothing.
func Seed(ctx context.Context, users *UserRepo, categories *RoomCategoryRepo, rooms *RoomRepo, cfg SeedConfig) error {
	if err := seedAdmin(ctx, users, cfg); err != nil {
		return err
	}

	cat, err := categories.GetByName(ctx, seedCategoryName)
	if errors.Is(err, ErrCategoryNotFound) {
		id, cerr := categories.Create(ctx, seedCategoryName, seedCategoryDesc, seedCategoryCap)
		if cerr != nil && !errors.Is(cerr, ErrCategoryNameExists) {
			return cerr
		}
		cat.ID = id
		if errors.Is(cerr, ErrCategoryNameExists) {
			// Another instance seeded it between the lookup and the insert.
			if cat, err = categories.GetByName(ctx, seedCategoryName); err != nil {
				return err
			}
		}
	} else if err != nil {
		return err
	}

	_, err = rooms.Create(ctx, &model.Room{
		Number:      seedRoomNumber,
		CategoryID:  cat.ID,
		Name:        seedRoomName,
		Description: seedRoomDesc,
		Status:      model.RoomAvailable,
	})
	if err != nil && !errors.Is(err, ErrRoomNumberExists) {
		return err
	}
	return nil
}

func seedAdmin(ctx context.Context, users *UserRepo, cfg SeedConfig) error {
	_, err := users.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	admin := model.User{
		Username:   cfg.AdminUsername,
		Role:       model.RoleAdmin,
		FirstName:  "Admin",
		LastName:   "User",
		NationalID: "12345678",
		Birthdate:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err = users.Create(ctx, &admin, cfg.AdminPassword, cfg.BcryptCost)
	if errors.Is(err, ErrUsernameExists) || errors.Is(err, ErrNationalIDExists) {
		return nil
	}
	return err
}
