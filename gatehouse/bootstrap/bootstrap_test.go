package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"quorum.wiki/core/gatehouse/bootstrap"
	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/guard"
	"quorum.wiki/core/gatehouse/identity"
	"quorum.wiki/core/gatehouse/models"
	"quorum.wiki/core/gatehouse/pages"
	"quorum.wiki/core/rbac"
)

const systemName = "Invitations-bot"

type fixture struct {
	db    *db.DB
	e     *rbac.Enforcer
	dir   *identity.Directory
	store *pages.SQLStore
}

func setup(t *testing.T) *fixture {
	t.Helper()

	d, err := db.Make(filepath.Join(t.TempDir(), "test.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	e, err := rbac.NewEnforcerFromDB(d.DB)
	assert.NoError(t, err)

	result, _, err := guard.New(d).Ensure(context.Background(), systemName)
	assert.NoError(t, err)
	assert.Equal(t, guard.Ready, result)

	return &fixture{
		db:    d,
		e:     e,
		dir:   identity.NewDirectory(d, e),
		store: pages.NewSQLStore(d),
	}
}

func TestBackfillGenesis(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.dir.Register(ctx, "Alice", models.EntityHuman)
	assert.NoError(t, err)
	_, err = f.dir.Register(ctx, "Crawler", models.EntityBot)
	assert.NoError(t, err)

	stats, err := bootstrap.BackfillGenesis(ctx, f.db, f.e, f.store, systemName, bootstrap.BackfillOpts{})
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 0, stats.Skipped)

	path := pages.InviteRecordPath("Alice")
	p, err := db.GetPage(f.db, path)
	assert.NoError(t, err)
	assert.Contains(t, p.Content, "|genesis=true")

	protected, err := f.e.IsProtected(path)
	assert.NoError(t, err)
	assert.True(t, protected)

	// a second run finds the records in place and writes nothing
	stats, err = bootstrap.BackfillGenesis(ctx, f.db, f.e, f.store, systemName, bootstrap.BackfillOpts{})
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 2, stats.Skipped)
}

func TestBackfillDryRun(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.dir.Register(ctx, "Alice", models.EntityHuman)
	assert.NoError(t, err)

	stats, err := bootstrap.BackfillGenesis(ctx, f.db, f.e, f.store, systemName, bootstrap.BackfillOpts{DryRun: true})
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Created)

	exists, err := f.store.Exists(pages.InviteRecordPath("Alice"))
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestBackfillFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.dir.Register(ctx, "Alice", models.EntityHuman)
	assert.NoError(t, err)
	_, err = f.dir.Register(ctx, "Bob", models.EntityHuman)
	assert.NoError(t, err)
	_, err = f.dir.Register(ctx, "Crawler", models.EntityBot)
	assert.NoError(t, err)

	stats, err := bootstrap.BackfillGenesis(ctx, f.db, f.e, f.store, systemName, bootstrap.BackfillOpts{
		OnlyUser: "Alice",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Created)

	stats, err = bootstrap.BackfillGenesis(ctx, f.db, f.e, f.store, systemName, bootstrap.BackfillOpts{
		ExcludeBots: true,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Created) // Bob
	assert.Equal(t, 2, stats.Skipped) // Alice has a record, Crawler is a bot
}

func TestApplySeed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	assert.NoError(t, os.WriteFile(seedPath, []byte(`
members:
  - name: Alice
    elevated: true
  - name: Crawler
    entity: bot
`), 0o644))

	seed, err := bootstrap.LoadSeed(seedPath)
	assert.NoError(t, err)
	assert.Len(t, seed.Members, 2)

	assert.NoError(t, bootstrap.ApplySeed(ctx, f.db, f.e, seed))

	alice, err := db.GetUserByName(f.db, "Alice")
	assert.NoError(t, err)
	elevated, err := f.e.IsElevated(alice.Id)
	assert.NoError(t, err)
	assert.True(t, elevated)

	crawler, err := db.GetUserByName(f.db, "Crawler")
	assert.NoError(t, err)
	assert.Equal(t, models.EntityBot, crawler.EntityType)

	// re-applying the same seed is safe
	assert.NoError(t, bootstrap.ApplySeed(ctx, f.db, f.e, seed))
}
