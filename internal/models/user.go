// Package models defines the records persisted by the user store.
package models

import "time"

// User is an identity record. ID, UserName and CreatedAt never change after
// creation.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
}
