package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/userstore/internal/common"
	"github.com/dmitrijs2005/userstore/internal/dbx"
	"github.com/dmitrijs2005/userstore/internal/logging"
	"github.com/dmitrijs2005/userstore/internal/migrations"
	"github.com/dmitrijs2005/userstore/internal/models"
	"github.com/dmitrijs2005/userstore/internal/repositories/userdata"
	"github.com/dmitrijs2005/userstore/internal/repositories/users"
)

// DefaultPath is the database file used when no path is configured.
const DefaultPath = "userdata.db"

// Store serializes all access to the users and user_data tables.
type Store struct {
	path   string
	logger logging.Logger

	// now and newID are seams for tests.
	now   func() time.Time
	newID func() string

	mu          sync.Mutex
	db          *sql.DB
	users       users.Repository
	data        userdata.Repository
	initialized bool
}

// New returns an uninitialized store for the SQLite file at path.
// Call Initialize before any other method.
func New(path string, logger logging.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		path:   path,
		logger: logger.With("component", "userstore"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Initialize opens (creating if absent) the database file, pins a single
// connection and applies the schema migrations. It may succeed only once;
// on failure the store stays unusable.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return common.ErrAlreadyInitialized
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		s.logger.Error(ctx, "failed to open database", "path", s.path, "error", err)
		return fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		s.logger.Error(ctx, "failed to open database", "path", s.path, "error", err)
		return fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		s.logger.Error(ctx, "failed to create tables", "path", s.path, "error", err)
		return fmt.Errorf("run migrations: %w", err)
	}

	s.db = db
	s.users = users.NewSQLiteRepository(db)
	s.data = userdata.NewSQLiteRepository(db)
	s.initialized = true

	s.logger.Info(ctx, "database opened", "path", s.path)
	return nil
}

// Close releases the connection. Later calls return common.ErrNotInitialized.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.users = nil
	s.data = nil
	return err
}

// uriPathEscaper escapes the characters SQLite treats specially inside a
// file: URI path, so the file opened is exactly the configured one.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// dsn leaves in-memory and URI-style names untouched.
func (s *Store) dsn() string {
	if s.path == ":memory:" || strings.HasPrefix(s.path, "file:") {
		return s.path
	}
	return "file:" + uriPathEscaper.Replace(s.path) + "?_pragma=busy_timeout(5000)"
}

// lock acquires the store mutex and checks the store is open. The caller must
// unlock when err is nil.
func (s *Store) lock() error {
	s.mu.Lock()
	if s.db == nil {
		s.mu.Unlock()
		return common.ErrNotInitialized
	}
	return nil
}

// CreateUser stores a new user with a fresh random ID. A taken username
// yields common.ErrorAlreadyExists. The username is stored as given.
func (s *Store) CreateUser(ctx context.Context, userName, passwordHash string) (*models.User, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	user := &models.User{
		ID:           s.newID(),
		UserName:     userName,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Warn(ctx, "failed to create user", "username", userName, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "user created", "username", userName)
	return user, nil
}

// UserExists reports whether userName is taken.
func (s *Store) UserExists(ctx context.Context, userName string) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	return s.users.Exists(ctx, userName)
}

// GetUser returns the full identity record or common.ErrorNotFound.
func (s *Store) GetUser(ctx context.Context, userName string) (*models.User, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.users.GetByUserName(ctx, userName)
}

// GetUserPasswordHash returns the stored hash or common.ErrorNotFound.
func (s *Store) GetUserPasswordHash(ctx context.Context, userName string) (string, error) {
	u, err := s.GetUser(ctx, userName)
	if err != nil {
		return "", err
	}
	return u.PasswordHash, nil
}

// GetUserID resolves userName to its ID or common.ErrorNotFound.
func (s *Store) GetUserID(ctx context.Context, userName string) (string, error) {
	u, err := s.GetUser(ctx, userName)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// DeleteUser removes the user and every entry it owns in one transaction.
func (s *Store) DeleteUser(ctx context.Context, userName string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	var removed int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ur := users.NewSQLiteRepository(tx)
		u, err := ur.GetByUserName(ctx, userName)
		if err != nil {
			return err
		}
		removed, err = userdata.NewSQLiteRepository(tx).DeleteByUser(ctx, u.ID)
		if err != nil {
			return err
		}
		return ur.DeleteByID(ctx, u.ID)
	})
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "failed to delete user", "username", userName, "error", err)
		}
		return err
	}

	s.logger.Info(ctx, "user deleted", "username", userName, "entries", removed)
	return nil
}

// SaveUserData inserts or overwrites the document stored under (userID, key).
// CreatedAt is kept from the first save; UpdatedAt moves forward on each save.
func (s *Store) SaveUserData(ctx context.Context, userID, key string, data models.Document) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	e := &models.UserDataEntry{UserID: userID, Key: key, Data: data, UpdatedAt: s.now()}
	if err := s.data.Upsert(ctx, e); err != nil {
		s.logger.Warn(ctx, "failed to save user data", "user_id", userID, "key", key, "error", err)
		return err
	}

	s.logger.Info(ctx, "data saved", "user_id", userID, "key", key)
	return nil
}

// GetUserData returns the document under (userID, key) or common.ErrorNotFound.
func (s *Store) GetUserData(ctx context.Context, userID, key string) (models.Document, error) {
	e, err := s.GetUserDataEntry(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	return e.Data, nil
}

// GetUserDataEntry is GetUserData including the entry timestamps.
func (s *Store) GetUserDataEntry(ctx context.Context, userID, key string) (*models.UserDataEntry, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.data.Get(ctx, userID, key)
}

// GetAllUserData returns every entry owned by userID, oldest key first.
// The result is empty, not nil, when the user has no entries.
func (s *Store) GetAllUserData(ctx context.Context, userID string) ([]models.UserDataEntry, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.data.ListByUser(ctx, userID)
}

// DeleteUserData removes (userID, key). Deleting a missing pair succeeds.
func (s *Store) DeleteUserData(ctx context.Context, userID, key string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := s.data.Delete(ctx, userID, key); err != nil {
		s.logger.Warn(ctx, "failed to delete user data", "user_id", userID, "key", key, "error", err)
		return err
	}

	s.logger.Info(ctx, "data deleted", "user_id", userID, "key", key)
	return nil
}
