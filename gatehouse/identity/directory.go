package identity

import (
	"context"
	"fmt"
	"time"

	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/models"
	"quorum.wiki/core/rbac"
)

// Directory is the sqlite-backed identity provider used by the
// service and its tests. Deployments fronted by an external provider
// implement Provider against that instead.
type Directory struct {
	db *db.DB
	e  *rbac.Enforcer
}

func NewDirectory(database *db.DB, enforcer *rbac.Enforcer) *Directory {
	return &Directory{db: database, e: enforcer}
}

func (d *Directory) ResolveUserId(ctx context.Context, name string) (int64, error) {
	canonical, err := Canonicalize(name)
	if err != nil {
		return 0, err
	}

	u, err := db.GetUserByName(d.db, canonical)
	if err != nil {
		return 0, err
	}
	return u.Id, nil
}

func (d *Directory) Canonicalize(name string) (string, error) {
	return Canonicalize(name)
}

func (d *Directory) IsElevated(ctx context.Context, userId int64) (bool, error) {
	return d.e.IsElevated(userId)
}

// Register adds a member to the directory under the canonical form of
// name. Duplicate names fail with faults.ErrConflict from the unique
// index, closing the register-register race on a name.
func (d *Directory) Register(ctx context.Context, name string, entity models.EntityType) (*models.User, error) {
	canonical, err := Canonicalize(name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := models.User{
		Name:       canonical,
		Kind:       models.KindMember,
		EntityType: entity,
		Created:    &now,
	}
	if err := db.AddUser(d.db, &u); err != nil {
		return nil, fmt.Errorf("register %q: %w", canonical, err)
	}
	return &u, nil
}

func (d *Directory) User(ctx context.Context, id int64) (*models.User, error) {
	return db.GetUserById(d.db, id)
}
