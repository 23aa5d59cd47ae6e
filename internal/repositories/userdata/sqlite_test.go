package userdata

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/userstore/internal/common"
	"github.com/dmitrijs2005/userstore/internal/migrations"
	"github.com/dmitrijs2005/userstore/internal/models"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

func doc(t *testing.T, s string) models.Document {
	t.Helper()
	d, err := models.ParseDocument(s)
	require.NoError(t, err)
	return d
}

var t0 = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func TestUpsert_InsertThenUpdate(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := &models.UserDataEntry{UserID: "u1", Key: "profile", Data: doc(t, `{"name":"alice"}`), UpdatedAt: t0}
	require.NoError(t, r.Upsert(ctx, e))
	assert.Equal(t, t0, e.CreatedAt)
	assert.Equal(t, t0, e.UpdatedAt)

	later := t0.Add(time.Minute)
	e2 := &models.UserDataEntry{UserID: "u1", Key: "profile", Data: doc(t, `{"name":"bob","age":3}`), UpdatedAt: later}
	require.NoError(t, r.Upsert(ctx, e2))
	assert.Equal(t, t0, e2.CreatedAt, "created_at must survive updates")
	assert.Equal(t, later, e2.UpdatedAt)

	var n int
	var raw string
	require.NoError(t, db.QueryRow(`SELECT COUNT(*), MAX(data_value) FROM user_data WHERE user_id='u1' AND data_key='profile'`).Scan(&n, &raw))
	assert.Equal(t, 1, n)
	assert.Equal(t, `{"age":3,"name":"bob"}`, raw, "stored text must be compact with sorted keys")
}

func TestUpsert_UpdatedAtStrictlyIncreasesWithFrozenClock(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	first := &models.UserDataEntry{UserID: "u1", Key: "k", Data: models.Document{}, UpdatedAt: t0}
	require.NoError(t, r.Upsert(ctx, first))

	second := &models.UserDataEntry{UserID: "u1", Key: "k", Data: models.Document{"v": 2}, UpdatedAt: t0}
	require.NoError(t, r.Upsert(ctx, second))

	assert.Equal(t, t0, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestUpsert_NilDocumentStoredAsEmptyObject(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, &models.UserDataEntry{UserID: "u1", Key: "k", UpdatedAt: t0}))

	got, err := r.Get(ctx, "u1", "k")
	require.NoError(t, err)
	assert.Equal(t, models.Document{}, got.Data)
}

func TestUpsert_UnencodableDocument(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	err := r.Upsert(context.Background(), &models.UserDataEntry{UserID: "u1", Key: "k", Data: models.Document{"ch": make(chan int)}})
	require.ErrorIs(t, err, common.ErrInvalidDocument)
}

func TestGet_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.Get(context.Background(), "u1", "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_CorruptValue(t *testing.T) {
	db := setupDB(t)
	_, err := db.Exec(`INSERT INTO user_data (user_id, data_key, data_value, created_at, updated_at) VALUES ('u1', 'bad', 'not json', 0, 0)`)
	require.NoError(t, err)

	r := NewSQLiteRepository(db)
	_, err = r.Get(context.Background(), "u1", "bad")
	require.ErrorIs(t, err, common.ErrInvalidDocument)

	_, err = r.ListByUser(context.Background(), "u1")
	require.ErrorIs(t, err, common.ErrInvalidDocument)
}

func TestListByUser_OnlyOwnEntriesInInsertionOrder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, k := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Upsert(ctx, &models.UserDataEntry{UserID: "u1", Key: k, Data: models.Document{}, UpdatedAt: t0}))
	}
	require.NoError(t, r.Upsert(ctx, &models.UserDataEntry{UserID: "u2", Key: "other", Data: models.Document{}, UpdatedAt: t0}))
	// update keeps position
	require.NoError(t, r.Upsert(ctx, &models.UserDataEntry{UserID: "u1", Key: "zeta", Data: doc(t, `{"x":1}`), UpdatedAt: t0}))

	got, err := r.ListByUser(ctx, "u1")
	require.NoError(t, err)

	keys := make([]string, 0, len(got))
	for _, e := range got {
		keys = append(keys, e.Key)
		assert.Equal(t, "u1", e.UserID)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
	assert.Equal(t, doc(t, `{"x":1}`), got[0].Data)
}

func TestListByUser_Empty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	got, err := r.ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDelete_ExistingAndMissing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, &models.UserDataEntry{UserID: "u1", Key: "k", Data: models.Document{}, UpdatedAt: t0}))
	require.NoError(t, r.Delete(ctx, "u1", "k"))

	_, err := r.Get(ctx, "u1", "k")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, r.Delete(ctx, "u1", "k"), "deleting a missing pair is a no-op")
}

func TestDeleteByUser(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, k := range []string{"a", "b"} {
		require.NoError(t, r.Upsert(ctx, &models.UserDataEntry{UserID: "u1", Key: k, Data: models.Document{}, UpdatedAt: t0}))
	}
	require.NoError(t, r.Upsert(ctx, &models.UserDataEntry{UserID: "u2", Key: "a", Data: models.Document{}, UpdatedAt: t0}))

	n, err := r.DeleteByUser(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := r.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestDelete_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM user_data`).
		WithArgs("u1", "k").
		WillReturnError(errors.New("db down"))

	r := NewSQLiteRepository(db)
	err = r.Delete(context.Background(), "u1", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestListByUser_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT data_key, data_value, created_at, updated_at FROM user_data`).
		WithArgs("u1").
		WillReturnError(errors.New("db down"))

	r := NewSQLiteRepository(db)
	_, err = r.ListByUser(context.Background(), "u1")
	require.Error(t, err)
}
