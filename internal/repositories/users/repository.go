// Package users persists identity records in the users table.
package users

import (
	"context"

	"github.com/dmitrijs2005/userstore/internal/models"
)

// Repository describes the identity operations used by the store.
type Repository interface {
	// Create inserts user. A taken username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) error

	// GetByUserName returns the user or common.ErrorNotFound.
	GetByUserName(ctx context.Context, userName string) (*models.User, error)

	// Exists reports whether a user with userName is stored.
	Exists(ctx context.Context, userName string) (bool, error)

	// DeleteByID removes the user row. A missing row yields common.ErrorNotFound.
	DeleteByID(ctx context.Context, id string) error
}
