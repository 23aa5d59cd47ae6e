package userdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userstore/internal/common"
	"github.com/dmitrijs2005/userstore/internal/dbx"
	"github.com/dmitrijs2005/userstore/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert writes the entry in one statement. On conflict only data_value and
// updated_at change; updated_at always moves forward by at least 1ms.
func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.UserDataEntry) error {
	value, err := e.Data.MarshalCompact()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}

	query := `INSERT INTO user_data (user_id, data_key, data_value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, data_key) DO UPDATE SET
			data_value = excluded.data_value,
			updated_at = MAX(excluded.updated_at, user_data.updated_at + 1)
		RETURNING created_at, updated_at`

	now := dbx.ToMillis(e.UpdatedAt)
	var createdAt, updatedAt int64
	err = r.db.QueryRowContext(ctx, query, e.UserID, e.Key, value, now, now).
		Scan(&createdAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user data: %w", err)
	}

	e.CreatedAt = dbx.FromMillis(createdAt)
	e.UpdatedAt = dbx.FromMillis(updatedAt)
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, userID, key string) (*models.UserDataEntry, error) {
	query := `SELECT data_value, created_at, updated_at FROM user_data
		WHERE user_id = ? AND data_key = ?`

	var value string
	var createdAt, updatedAt int64
	err := r.db.QueryRowContext(ctx, query, userID, key).Scan(&value, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}

	return newEntry(userID, key, value, createdAt, updatedAt)
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]models.UserDataEntry, error) {
	query := `SELECT data_key, data_value, created_at, updated_at FROM user_data
		WHERE user_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select user data: %w", err)
	}
	defer rows.Close()

	result := []models.UserDataEntry{}
	for rows.Next() {
		var key, value string
		var createdAt, updatedAt int64
		if err := rows.Scan(&key, &value, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user data row: %w", err)
		}
		e, err := newEntry(userID, key, value, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user data rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_data WHERE user_id = ? AND data_key = ?`, userID, key)
	if err != nil {
		return fmt.Errorf("failed to delete user data: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_data WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user data: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func newEntry(userID, key, value string, createdAt, updatedAt int64) (*models.UserDataEntry, error) {
	doc, err := models.ParseDocument(value)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q: %v", common.ErrInvalidDocument, key, err)
	}
	return &models.UserDataEntry{
		UserID:    userID,
		Key:       key,
		Data:      doc,
		CreatedAt: dbx.FromMillis(createdAt),
		UpdatedAt: dbx.FromMillis(updatedAt),
	}, nil
}
