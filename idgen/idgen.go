// Package idgen generates the identifiers of runs and snapshots.
//
// IDs are UUIDv7 so that lexical order follows creation order, which the
// run history relies on when two runs share a start timestamp.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator of RFC 9562 version 7 UUIDs.
func UUIDv7() Generator {
	return func() string { return uuid.Must(uuid.NewV7()).String() }
}

// Prefixed prepends prefix to every ID produced by gen.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string { return prefix + gen() }
}

// Default is the generator used by New.
var Default Generator = UUIDv7()

// New returns an ID from Default.
func New() string { return Default() }

// Parse checks that s is a UUID and returns it in canonical form.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("idgen: invalid id %q: %w", s, err)
	}
	return u.String(), nil
}
