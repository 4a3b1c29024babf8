package guard_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/guard"
	"quorum.wiki/core/gatehouse/models"
)

func setup(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Make(filepath.Join(t.TempDir(), "test.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestEnsureIdempotent(t *testing.T) {
	d := setup(t)
	ctx := context.Background()
	g := guard.New(d)

	result, u, err := g.Ensure(ctx, "Invitations-bot")
	assert.NoError(t, err)
	assert.Equal(t, guard.Ready, result)
	assert.Equal(t, models.KindSystem, u.Kind)
	assert.Equal(t, models.EntityBot, u.EntityType)

	again, u2, err := g.Ensure(ctx, "Invitations-bot")
	assert.NoError(t, err)
	assert.Equal(t, guard.Ready, again)
	assert.Equal(t, u.Id, u2.Id)
}

func TestEnsureCanonicalizes(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	_, u, err := guard.New(d).Ensure(ctx, "invitations_bot")
	assert.NoError(t, err)
	assert.Equal(t, "Invitations bot", u.Name)
}

func TestEnsureSquattedName(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	now := time.Now().UTC()
	squatter := models.User{
		Name:       "Invitations-bot",
		Kind:       models.KindMember,
		EntityType: models.EntityHuman,
		Created:    &now,
	}
	assert.NoError(t, db.AddUser(d, &squatter))

	result, u, err := guard.New(d).Ensure(ctx, "Invitations-bot")
	assert.NoError(t, err)
	assert.Equal(t, guard.Conflict, result)

	// the squatter is reported, never stolen or overwritten
	assert.Equal(t, squatter.Id, u.Id)
	assert.Equal(t, models.KindMember, u.Kind)
}

func TestEnsureRejectsBadName(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	_, _, err := guard.New(d).Ensure(ctx, "a/b")
	assert.ErrorIs(t, err, faults.ErrValidation)
}
