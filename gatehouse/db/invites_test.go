package db_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/faults"
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
	u := models.User{
		Name:       name,
		Kind:       models.KindMember,
		EntityType: models.EntityHuman,
		Created:    &now,
	}
	assert.NoError(t, db.AddUser(d, &u))
	return &u
}

func addInvite(t *testing.T, d *db.DB, inviterId int64, expires *time.Time) *models.Invite {
	t.Helper()
	now := time.Now().UTC()
	inv := models.Invite{
		Code:             "a1b2c3d4e5f60718293a4b5c6d7e8f90",
		InviterId:        inviterId,
		EntityType:       models.EntityHuman,
		RelationshipType: models.RelIrlBuds,
		Created:          &now,
		Expires:          expires,
	}
	assert.NoError(t, db.AddInvite(d, &inv))
	return &inv
}

func TestConsumeInviteExactlyOnce(t *testing.T) {
	d := setup(t)
	inviter := addUser(t, d, "Alice")
	inv := addInvite(t, d, inviter.Id, nil)

	const racers = 16
	var wg sync.WaitGroup
	wins := make(chan int64, racers)

	for i := range racers {
		wg.Add(1)
		go func(userId int64) {
			defer wg.Done()
			won, err := db.ConsumeInvite(d, inv.Code, userId, time.Now())
			assert.NoError(t, err)
			if won {
				wins <- userId
			}
		}(int64(100 + i))
	}
	wg.Wait()
	close(wins)

	var winners []int64
	for id := range wins {
		winners = append(winners, id)
	}
	assert.Len(t, winners, 1)

	got, err := db.GetInviteByCode(d, inv.Code)
	assert.NoError(t, err)
	assert.True(t, got.IsUsed())
	assert.NotNil(t, got.UsedById)
	assert.Equal(t, winners[0], *got.UsedById)
}

func TestConsumeInviteExpired(t *testing.T) {
	d := setup(t)
	inviter := addUser(t, d, "Alice")

	past := time.Now().UTC().Add(-time.Hour)
	inv := addInvite(t, d, inviter.Id, &past)

	won, err := db.ConsumeInvite(d, inv.Code, 42, time.Now())
	assert.NoError(t, err)
	assert.False(t, won)

	got, err := db.GetInviteByCode(d, inv.Code)
	assert.NoError(t, err)
	assert.False(t, got.IsUsed())
}

func TestConsumeInviteUnknownCode(t *testing.T) {
	d := setup(t)

	won, err := db.ConsumeInvite(d, "deadbeef", 42, time.Now())
	assert.NoError(t, err)
	assert.False(t, won)
}

func TestRevokeInvite(t *testing.T) {
	d := setup(t)
	inviter := addUser(t, d, "Alice")
	inv := addInvite(t, d, inviter.Id, nil)

	revoked, err := db.RevokeInvite(d, inv.Id)
	assert.NoError(t, err)
	assert.True(t, revoked)

	_, err = db.GetInviteById(d, inv.Id)
	assert.ErrorIs(t, err, faults.ErrNotFound)
}

func TestRevokeUsedInviteIsRefused(t *testing.T) {
	d := setup(t)
	inviter := addUser(t, d, "Alice")
	inv := addInvite(t, d, inviter.Id, nil)

	won, err := db.ConsumeInvite(d, inv.Code, 42, time.Now())
	assert.NoError(t, err)
	assert.True(t, won)

	revoked, err := db.RevokeInvite(d, inv.Id)
	assert.NoError(t, err)
	assert.False(t, revoked)

	// the consumed invite survives as audit trail
	got, err := db.GetInviteById(d, inv.Id)
	assert.NoError(t, err)
	assert.True(t, got.IsUsed())
}

func TestGetUnusedInviteByName(t *testing.T) {
	d := setup(t)
	inviter := addUser(t, d, "Alice")

	now := time.Now().UTC()
	name := "Bob"
	inv := models.Invite{
		Code:             "00112233445566778899aabbccddeeff",
		InviterId:        inviter.Id,
		InviteeName:      &name,
		EntityType:       models.EntityHuman,
		RelationshipType: models.RelCollaborated,
		Created:          &now,
	}
	assert.NoError(t, db.AddInvite(d, &inv))

	got, err := db.GetUnusedInviteByName(d, "Bob")
	assert.NoError(t, err)
	assert.Equal(t, inv.Id, got.Id)

	won, err := db.ConsumeInvite(d, inv.Code, 42, time.Now())
	assert.NoError(t, err)
	assert.True(t, won)

	_, err = db.GetUnusedInviteByName(d, "Bob")
	assert.ErrorIs(t, err, faults.ErrNotFound)
}

func TestGetInviteForUser(t *testing.T) {
	d := setup(t)
	inviter := addUser(t, d, "Alice")
	invitee := addUser(t, d, "Bob")
	inv := addInvite(t, d, inviter.Id, nil)

	_, err := db.GetInviteForUser(d, invitee.Id)
	assert.ErrorIs(t, err, faults.ErrNotFound)

	won, err := db.ConsumeInvite(d, inv.Code, invitee.Id, time.Now())
	assert.NoError(t, err)
	assert.True(t, won)

	got, err := db.GetInviteForUser(d, invitee.Id)
	assert.NoError(t, err)
	assert.Equal(t, inv.Id, got.Id)
	assert.Equal(t, inviter.Id, got.InviterId)
}
