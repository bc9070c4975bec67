// Package uuid provides UUID generation with UUIDv7 (time-ordered UUIDs) as
// the default. It wraps github.com/google/uuid. Identifiers produced here are
// treated as opaque, comparable, sortable tokens by the rest of the server.
package uuid

import (
	"github.com/google/uuid"
)

// UUID represents a UUID, aliased from github.com/google/uuid.UUID
type UUID = uuid.UUID

// New returns a new random UUIDv7. Panics if UUID generation fails.
func New() UUID {
	u, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return u
}

// NewString returns a new random UUIDv7 as a string.
func NewString() string {
	return New().String()
}

// NewRandom returns a new random UUIDv7 and any error encountered during generation.
func NewRandom() (UUID, error) {
	return uuid.NewV7()
}

// Parse parses a UUID string into a UUID value. Returns an error if the string is not a valid UUID.
func Parse(s string) (UUID, error) {
	return uuid.Parse(s)
}

// MustParse parses a UUID string and panics if the string is not a valid UUID.
func MustParse(s string) UUID {
	return uuid.MustParse(s)
}

// Validate reports whether s is a well-formed UUID string.
func Validate(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Nil is the zero UUID value.
var Nil = uuid.Nil
