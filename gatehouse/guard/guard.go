// Package guard bootstraps the reserved system identity. Ensure runs
// once at deployment, before public signup, so nobody can squat the
// name the engine uses to author protected pages.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/identity"
	"quorum.wiki/core/gatehouse/models"
	"quorum.wiki/core/log"
)

type Result int

const (
	// Ready: the reserved identity exists and is system-kind, whether
	// it was created by this call or a previous one.
	Ready Result = iota

	// Conflict: an ordinary member already holds the reserved name.
	// The engine never steals or overwrites it; operators must rename
	// the squatter first.
	Conflict
)

func (r Result) String() string {
	if r == Conflict {
		return "conflict"
	}
	return "ready"
}

type Guard struct {
	db  db.Execer
	now func() time.Time
}

func New(e db.Execer) *Guard {
	return &Guard{db: e, now: time.Now}
}

// Ensure is idempotent: repeated calls converge on Ready without
// side effects once the identity exists.
func (g *Guard) Ensure(ctx context.Context, reservedName string) (Result, *models.User, error) {
	l := log.FromContext(ctx)

	canonical, err := identity.Canonicalize(reservedName)
	if err != nil {
		return Conflict, nil, fmt.Errorf("reserved name: %w", err)
	}

	existing, err := db.GetUserByName(g.db, canonical)
	if err == nil {
		if existing.IsSystem() {
			return Ready, existing, nil
		}
		l.Warn("reserved name is held by a regular member",
			"name", canonical, "user", existing.Id)
		return Conflict, existing, nil
	}
	if !errors.Is(err, faults.ErrNotFound) {
		return Conflict, nil, err
	}

	now := g.now().UTC()
	u := models.User{
		Name:       canonical,
		Kind:       models.KindSystem,
		EntityType: models.EntityBot,
		Created:    &now,
	}
	if err := db.AddUser(g.db, &u); err != nil {
		if errors.Is(err, faults.ErrConflict) {
			// lost a race for the name; re-read and classify
			return g.Ensure(ctx, canonical)
		}
		return Conflict, nil, err
	}

	l.Info("reserved system identity created", "name", canonical, "user", u.Id)
	return Ready, &u, nil
}
