// Package id generates the UUIDv7 identifiers every entity uses.
// The embedded timestamp keeps B-tree inserts append-mostly, which
// matters for the ledger and outbox tables that only ever grow.
package id

import "github.com/google/uuid"

// ID aliases uuid.UUID so call sites stay short.
type ID = uuid.UUID

// New returns a time-ordered UUIDv7.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4
		// rather than propagate an error nobody can handle.
		return uuid.New()
	}
	return id
}

// Parse validates and converts s.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// Nil returns the zero UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether id is the zero UUID.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
