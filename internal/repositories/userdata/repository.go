// Package userdata persists per-user JSON documents in the user_data table.
//
// Entries are keyed by (user_id, data_key). Writes go through a single
// INSERT ... ON CONFLICT DO UPDATE statement, so a save is atomic even without
// an outer lock. Documents are stored as compact JSON text.
package userdata

import (
	"context"

	"github.com/dmitrijs2005/userstore/internal/models"
)

// Repository describes CRUD operations over UserDataEntry values.
type Repository interface {
	// Upsert inserts the entry or overwrites its data and refreshes UpdatedAt.
	// CreatedAt and UpdatedAt on entry are replaced with the stored values.
	Upsert(ctx context.Context, entry *models.UserDataEntry) error

	// Get returns the entry for (userID, key) or common.ErrorNotFound.
	Get(ctx context.Context, userID, key string) (*models.UserDataEntry, error)

	// ListByUser returns every entry owned by userID in insertion order.
	ListByUser(ctx context.Context, userID string) ([]models.UserDataEntry, error)

	// Delete removes (userID, key). Removing a missing pair is not an error.
	Delete(ctx context.Context, userID, key string) error

	// DeleteByUser removes every entry owned by userID and returns the count.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
