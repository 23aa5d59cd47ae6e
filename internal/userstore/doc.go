// Package userstore is the persistence facade of the login service: user
// identities plus a per-user key/value store of JSON documents, kept in a
// single local SQLite file.
//
// # Concurrency
//
// A Store is safe for concurrent use. Every operation, read or write, holds
// one exclusive mutex for the duration of its database calls, and the
// database handle is pinned to a single connection. Writes are therefore
// visible to every later read, at the cost of serializing unrelated users.
// Saves are still a single INSERT ... ON CONFLICT DO UPDATE statement, so
// they stay atomic if the locking is ever made finer.
//
// # Errors
//
// Reads distinguish absence from failure: a missing user or entry yields
// common.ErrorNotFound, while backing-store failures are returned wrapped.
// A duplicate username yields common.ErrorAlreadyExists, and a document that
// cannot be encoded or parsed yields common.ErrInvalidDocument.
//
// Typical usage
//
//	s := userstore.New("userdata.db", logger)
//	if err := s.Initialize(ctx); err != nil { ... }
//	defer s.Close()
//
//	u, err := s.CreateUser(ctx, "alice", hash)
//	err = s.SaveUserData(ctx, u.ID, "profile", models.Document{"theme": "dark"})
//	doc, err := s.GetUserData(ctx, u.ID, "profile")
package userstore
