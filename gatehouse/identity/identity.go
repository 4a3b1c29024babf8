// Package identity is the engine's view of the identity provider. The
// engine never manages passwords or sessions; it only needs name
// resolution, canonicalization and role checks.
package identity

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/models"
)

type Provider interface {
	// ResolveUserId maps a (possibly non-canonical) name to an id.
	// Returns faults.ErrNotFound for unknown names.
	ResolveUserId(ctx context.Context, name string) (int64, error)

	// Canonicalize normalizes a member name, or fails with
	// faults.ErrValidation if no canonical form exists.
	Canonicalize(name string) (string, error)

	// IsElevated reports whether the member holds the elevated role.
	IsElevated(ctx context.Context, userId int64) (bool, error)
}

// Canonicalize is the shared normalization: underscores become
// spaces, surrounding whitespace is dropped, and the first letter is
// uppercased. Empty names and names with control characters or path
// separators have no canonical form.
func Canonicalize(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if name == "" {
		return "", fmt.Errorf("empty name: %w", faults.ErrValidation)
	}
	for _, r := range name {
		if unicode.IsControl(r) || r == '/' || r == '#' {
			return "", fmt.Errorf("name contains %q: %w", r, faults.ErrValidation)
		}
	}

	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + name[size:], nil
}

// EntityTypeOf derives the entity kind of a user, preferring the
// directory record and defaulting genesis users to human.
func EntityTypeOf(u *models.User) models.EntityType {
	if u != nil && u.EntityType.Valid() {
		return u.EntityType
	}
	return models.EntityHuman
}
