// Package services contains the business logic layered on top of the user
// store. AccountService handles registration, password checks and access to
// a user's documents by username.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/userstore/internal/common"
	"github.com/dmitrijs2005/userstore/internal/models"
)

// UserStore is the subset of *userstore.Store used by AccountService.
type UserStore interface {
	CreateUser(ctx context.Context, userName, passwordHash string) (*models.User, error)
	GetUser(ctx context.Context, userName string) (*models.User, error)
	DeleteUser(ctx context.Context, userName string) error
	SaveUserData(ctx context.Context, userID, key string, data models.Document) error
	GetUserData(ctx context.Context, userID, key string) (models.Document, error)
	GetAllUserData(ctx context.Context, userID string) ([]models.UserDataEntry, error)
	DeleteUserData(ctx context.Context, userID, key string) error
}

// AccountService registers users and authenticates them against bcrypt
// password hashes.
type AccountService struct {
	store UserStore
	cost  int

	// dummyHash is compared against when the user is unknown so both failure
	// paths do the same bcrypt work. Built on first use.
	dummyOnce sync.Once
	dummyHash []byte
}

// NewAccountService constructs an AccountService. A cost of 0 uses
// bcrypt.DefaultCost; any other value must lie within
// [bcrypt.MinCost, bcrypt.MaxCost].
func NewAccountService(store UserStore, cost int) (*AccountService, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &AccountService{store: store, cost: cost}, nil
}

func (s *AccountService) dummy() []byte {
	s.dummyOnce.Do(func() {
		// cost is validated, so this only fails on a broken entropy source;
		// a nil hash still makes the compare below fail.
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}

// Register hashes password and creates the user. A taken username yields
// common.ErrorAlreadyExists.
func (s *AccountService) Register(ctx context.Context, userName string, password []byte) (*models.User, error) {
	if userName == "" || len(password) == 0 {
		return nil, fmt.Errorf("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword(password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	u, err := s.store.CreateUser(ctx, userName, string(hash))
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Authenticate checks password and returns the user's ID. Unknown users and
// wrong passwords both yield common.ErrorUnauthorized.
func (s *AccountService) Authenticate(ctx context.Context, userName string, password []byte) (string, error) {
	u, err := s.store.GetUser(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), password)
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), password); err != nil {
		return "", common.ErrorUnauthorized
	}
	return u.ID, nil
}

// Unregister removes the user together with its documents.
func (s *AccountService) Unregister(ctx context.Context, userName string) error {
	return s.store.DeleteUser(ctx, userName)
}

// --- documents addressed by username ---

func (s *AccountService) userID(ctx context.Context, userName string) (string, error) {
	u, err := s.store.GetUser(ctx, userName)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// SaveData stores data under key for userName.
func (s *AccountService) SaveData(ctx context.Context, userName, key string, data models.Document) error {
	id, err := s.userID(ctx, userName)
	if err != nil {
		return err
	}
	return s.store.SaveUserData(ctx, id, key, data)
}

// GetData returns the document stored under key for userName.
func (s *AccountService) GetData(ctx context.Context, userName, key string) (models.Document, error) {
	id, err := s.userID(ctx, userName)
	if err != nil {
		return nil, err
	}
	return s.store.GetUserData(ctx, id, key)
}

// ListData returns every entry of userName.
func (s *AccountService) ListData(ctx context.Context, userName string) ([]models.UserDataEntry, error) {
	id, err := s.userID(ctx, userName)
	if err != nil {
		return nil, err
	}
	return s.store.GetAllUserData(ctx, id)
}

// DeleteData removes key for userName. A missing key is not an error.
func (s *AccountService) DeleteData(ctx context.Context, userName, key string) error {
	id, err := s.userID(ctx, userName)
	if err != nil {
		return err
	}
	return s.store.DeleteUserData(ctx, id, key)
}
