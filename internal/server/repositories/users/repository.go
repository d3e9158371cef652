// Package users is the user directory: lookup and persistence of accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/recyclequest/internal/server/models"
)

// Repository is implemented by the Postgres and in-memory directories.
// Lookups of absent users return common.ErrorNotFound. Create enforces
// email and username uniqueness and reports common.ErrEmailTaken or
// common.ErrUsernameTaken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}
