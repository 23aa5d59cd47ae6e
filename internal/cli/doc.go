// Package cli defines the userstore command tree.
//
// Commands
//
//   - user add <name>            Register a user (password read from the terminal)
//   - user exists <name>         Report whether a username is taken
//   - user login <name>          Check a password and print the user ID
//   - user delete <name>         Remove a user and all of its documents
//   - data put <user> <key> <json>
//   - data get <user> <key>
//   - data list <user>
//   - data delete <user> <key>
//
// The root command loads configuration, builds the logger and opens the store
// before any subcommand runs, and closes the store afterwards.
package cli
