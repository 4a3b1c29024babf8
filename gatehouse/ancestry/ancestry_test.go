package ancestry_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"quorum.wiki/core/gatehouse/ancestry"
	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/models"
)

func setup(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Make(filepath.Join(t.TempDir(), "test.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func addUser(t *testing.T, d *db.DB, name string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := models.User{Name: name, Kind: models.KindMember, EntityType: models.EntityHuman, Created: &now}
	assert.NoError(t, db.AddUser(d, &u))
	return &u
}

func invite(t *testing.T, d *db.DB, code string, inviterId, usedById int64) {
	t.Helper()
	now := time.Now().UTC()
	inv := models.Invite{
		Code:             code,
		InviterId:        inviterId,
		EntityType:       models.EntityHuman,
		RelationshipType: models.RelIrlBuds,
		Created:          &now,
	}
	assert.NoError(t, db.AddInvite(d, &inv))

	won, err := db.ConsumeInvite(d, code, usedById, now)
	assert.NoError(t, err)
	assert.True(t, won)
}

func TestResolveChain(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	alice := addUser(t, d, "Alice")
	bob := addUser(t, d, "Bob")
	carol := addUser(t, d, "Carol")

	invite(t, d, "c0de0000000000000000000000000001", alice.Id, bob.Id)
	invite(t, d, "c0de0000000000000000000000000002", bob.Id, carol.Id)

	chain, err := ancestry.New(d).ResolveChain(ctx, carol.Id)
	assert.NoError(t, err)
	assert.Equal(t, []int64{carol.Id, bob.Id, alice.Id}, chain)
}

func TestResolveChainGenesis(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	alice := addUser(t, d, "Alice")

	chain, err := ancestry.New(d).ResolveChain(ctx, alice.Id)
	assert.NoError(t, err)
	assert.Equal(t, []int64{alice.Id}, chain)
}

func TestResolveChainCycle(t *testing.T) {
	d := setup(t)
	ctx := context.Background()

	alice := addUser(t, d, "Alice")
	bob := addUser(t, d, "Bob")

	invite(t, d, "c0de0000000000000000000000000001", alice.Id, bob.Id)
	// corrupt the ledger by hand so Bob also admitted Alice
	invite(t, d, "c0de0000000000000000000000000002", bob.Id, alice.Id)

	chain, err := ancestry.New(d).ResolveChain(ctx, bob.Id)
	assert.ErrorIs(t, err, ancestry.ErrChainCycle)
	assert.Equal(t, []int64{bob.Id, alice.Id}, chain)
}
