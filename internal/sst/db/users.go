package db

import (
	"context"
	"errors"
	"fmt"

	dbmodels "github.com/globalled/sst/internal/sst/db/models"
	e "github.com/globalled/sst/internal/sst/errors"
	"github.com/globalled/sst/internal/sst/models"
)

// CreateUser inserts an active user and returns its id.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) (uint, error) {
	row := &dbmodels.User{
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Active:       true,
	}
	if err := translate("create user", r.insert(ctx, row)); err != nil {
		if errors.Is(err, e.ErrConflict) {
			return 0, fmt.Errorf("%w: email already registered", e.ErrConflict)
		}
		return 0, err
	}
	return row.ID, nil
}

// GetActiveUserByEmail returns the active user registered under email.
func (r *Repository) GetActiveUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var row dbmodels.User
	result := r.db.WithContext(ctx).
		Where("email = ? AND active = ?", email, true).
		First(&row)
	if result.Error != nil {
		return nil, translate("get user by email", result.Error)
	}
	return userToModel(&row), nil
}

// GetActiveUser returns the active user with the given id.
func (r *Repository) GetActiveUser(ctx context.Context, id uint) (*models.User, error) {
	var row dbmodels.User
	result := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&row)
	if result.Error != nil {
		return nil, translate("get user", result.Error)
	}
	return userToModel(&row), nil
}
