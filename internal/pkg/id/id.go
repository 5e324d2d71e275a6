// Package id issues the identifiers used for users, notes and attachments.
package id

import "github.com/oklog/ulid/v2"

// New returns a fresh ULID. The timestamp prefix keeps ids roughly ordered
// by creation, which suits them as DynamoDB keys.
func New() string {
	return ulid.Make().String()
}
