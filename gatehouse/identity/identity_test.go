package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/identity"
	"quorum.wiki/core/gatehouse/models"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice", "Alice"},
		{"Alice", "Alice"},
		{"cool_cat", "Cool cat"},
		{"  spaced out  ", "Spaced out"},
		{"émile", "Émile"},
		{"mixed_Case_Name", "Mixed Case Name"},
	}
	for _, tt := range tests {
		got, err := identity.Canonicalize(tt.in)
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestCanonicalizeRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "___", "a/b", "a#b", "a\x00b", "tab\tname"} {
		_, err := identity.Canonicalize(in)
		assert.ErrorIs(t, err, faults.ErrValidation, "%q", in)
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	once, err := identity.Canonicalize("some_member name")
	assert.NoError(t, err)

	twice, err := identity.Canonicalize(once)
	assert.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestEntityTypeOf(t *testing.T) {
	assert.Equal(t, models.EntityHuman, identity.EntityTypeOf(nil))
	assert.Equal(t, models.EntityHuman, identity.EntityTypeOf(&models.User{}))
	assert.Equal(t, models.EntityBot, identity.EntityTypeOf(&models.User{EntityType: models.EntityBot}))
}
