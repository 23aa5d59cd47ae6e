package dbx

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation_SQLiteError(t *testing.T) {
	db := setupDB(t)

	_, err := db.Exec(`INSERT INTO kv(k, v) VALUES ('a', '1')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO kv(k, v) VALUES ('a', '2')`)
	require.Error(t, err)

	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", err)))
}

func TestIsUniqueViolation_OtherErrors(t *testing.T) {
	db := setupDB(t)

	_, err := db.Exec(`INSERT INTO kv(k) VALUES ('a')`)
	require.Error(t, err, "NOT NULL violation expected")
	assert.False(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("db down")))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: users.username")))
}

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.FixedZone("X", 3*3600))

	got := FromMillis(ToMillis(ts))

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(ts.Truncate(time.Millisecond)))
}
