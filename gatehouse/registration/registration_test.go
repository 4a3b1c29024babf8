package registration_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/guard"
	"quorum.wiki/core/gatehouse/identity"
	"quorum.wiki/core/gatehouse/ledger"
	"quorum.wiki/core/gatehouse/models"
	"quorum.wiki/core/gatehouse/pages"
	"quorum.wiki/core/gatehouse/registration"
	"quorum.wiki/core/rbac"
)

const systemName = "Invitations-bot"

type fixture struct {
	db     *db.DB
	e      *rbac.Enforcer
	dir    *identity.Directory
	lg     *ledger.Ledger
	svc    *registration.Service
	system *models.User
}

func setup(t *testing.T) *fixture {
	t.Helper()

	d, err := db.Make(filepath.Join(t.TempDir(), "test.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	e, err := rbac.NewEnforcerFromDB(d.DB)
	assert.NoError(t, err)

	result, system, err := guard.New(d).Ensure(context.Background(), systemName)
	assert.NoError(t, err)
	assert.Equal(t, guard.Ready, result)

	lg := ledger.New(d, 30)
	svc := registration.New(d, lg, e, pages.NewSQLStore(d), systemName)

	return &fixture{
		db:     d,
		e:      e,
		dir:    identity.NewDirectory(d, e),
		lg:     lg,
		svc:    svc,
		system: system,
	}
}

func TestComplete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inviter, err := f.dir.Register(ctx, "Alice", models.EntityHuman)
	assert.NoError(t, err)

	inv, err := f.lg.CreateInvite(ctx, ledger.CreateInviteParams{
		InviterId:    inviter.Id,
		EntityType:   models.EntityBot,
		Relationship: models.RelCollaborated,
		Notes:        "archive crawler",
	})
	assert.NoError(t, err)

	newcomer, err := f.dir.Register(ctx, "Crawler", models.EntityHuman)
	assert.NoError(t, err)

	got, err := f.svc.Complete(ctx, inv.Code, newcomer.Id)
	assert.NoError(t, err)
	assert.Equal(t, inv.Id, got.Id)
	assert.Equal(t, newcomer.Id, *got.UsedById)

	// the entity kind declared by the invite sticks to the account
	u, err := db.GetUserById(f.db, newcomer.Id)
	assert.NoError(t, err)
	assert.Equal(t, models.EntityBot, u.EntityType)

	// the origin record is authored by the system identity and protected
	path := pages.InviteRecordPath("Crawler")
	p, err := db.GetPage(f.db, path)
	assert.NoError(t, err)
	assert.Equal(t, f.system.Id, p.AuthorId)
	assert.Contains(t, p.Content, "|invited_by=User:Alice")
	assert.Contains(t, p.Content, "|relationship_type=collaborated")

	protected, err := f.e.IsProtected(path)
	assert.NoError(t, err)
	assert.True(t, protected)
}

func TestCompleteLostRace(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inviter, err := f.dir.Register(ctx, "Alice", models.EntityHuman)
	assert.NoError(t, err)

	inv, err := f.lg.CreateInvite(ctx, ledger.CreateInviteParams{
		InviterId:  inviter.Id,
		EntityType: models.EntityHuman,
	})
	assert.NoError(t, err)

	bob, err := f.dir.Register(ctx, "Bob", models.EntityHuman)
	assert.NoError(t, err)
	carol, err := f.dir.Register(ctx, "Carol", models.EntityHuman)
	assert.NoError(t, err)

	_, err = f.svc.Complete(ctx, inv.Code, bob.Id)
	assert.NoError(t, err)

	_, err = f.svc.Complete(ctx, inv.Code, carol.Id)
	assert.ErrorIs(t, err, faults.ErrAlreadyUsed)

	// the winner's consumption stands
	got, err := db.GetInviteByCode(f.db, inv.Code)
	assert.NoError(t, err)
	assert.Equal(t, bob.Id, *got.UsedById)
}

func TestCompleteBadCode(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	bob, err := f.dir.Register(ctx, "Bob", models.EntityHuman)
	assert.NoError(t, err)

	_, err = f.svc.Complete(ctx, "not-a-real-code", bob.Id)
	assert.ErrorIs(t, err, faults.ErrValidation)
}
