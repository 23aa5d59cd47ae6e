// Package common defines sentinel errors shared by the store, the repositories
// and their callers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Document errors: the value could not be encoded or the stored text
	// is not a JSON object.
	ErrInvalidDocument = errors.New("invalid document")

	// Store lifecycle errors.
	ErrNotInitialized     = errors.New("store not initialized")
	ErrAlreadyInitialized = errors.New("store already initialized")
)
