// Package bootstrap holds the one-time deployment setup: claiming the
// reserved system identity and backfilling origin records for members
// who predate the invitation system.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/identity"
	"quorum.wiki/core/gatehouse/models"
	"quorum.wiki/core/gatehouse/pages"
	"quorum.wiki/core/log"
	"quorum.wiki/core/rbac"
)

// Seed lists the genesis members to create before the wiki opens.
type Seed struct {
	Members []SeedMember `yaml:"members"`
}

type SeedMember struct {
	Name     string `yaml:"name"`
	Entity   string `yaml:"entity"`
	Elevated bool   `yaml:"elevated"`
}

func LoadSeed(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// ApplySeed registers the seed members that do not exist yet and
// grants the elevated role where requested. Re-running is safe.
func ApplySeed(ctx context.Context, database *db.DB, enforcer *rbac.Enforcer, seed *Seed) error {
	l := log.FromContext(ctx)
	dir := identity.NewDirectory(database, enforcer)

	for _, m := range seed.Members {
		entity := models.EntityType(m.Entity)
		if entity == "" {
			entity = models.EntityHuman
		}
		if !entity.Valid() {
			return fmt.Errorf("seed member %q: entity %q: %w", m.Name, m.Entity, faults.ErrValidation)
		}

		userId, err := dir.ResolveUserId(ctx, m.Name)
		if errors.Is(err, faults.ErrNotFound) {
			u, err := dir.Register(ctx, m.Name, entity)
			if err != nil {
				return err
			}
			userId = u.Id
			l.Info("seeded genesis member", "name", u.Name, "entity", entity)
		} else if err != nil {
			return err
		}

		if m.Elevated {
			if err := enforcer.AddElevated(userId); err != nil {
				return err
			}
		}
	}
	return nil
}

type BackfillOpts struct {
	// DryRun reports what would be created without writing anything.
	DryRun bool

	// OnlyUser limits the run to a single member name.
	OnlyUser string

	// ExcludeBots skips bot members.
	ExcludeBots bool
}

type BackfillStats struct {
	Total   int
	Created int
	Skipped int
}

// BackfillGenesis writes a protected origin record for every member
// who lacks one, marking them as predating the invitation system.
// Members admitted through invites already have records and are
// skipped, so the operation is idempotent.
func BackfillGenesis(ctx context.Context, database *db.DB, enforcer *rbac.Enforcer, store pages.Store, systemName string, opts BackfillOpts) (BackfillStats, error) {
	l := log.FromContext(ctx)
	var stats BackfillStats

	system, err := db.GetUserByName(database, systemName)
	if err != nil {
		if errors.Is(err, faults.ErrNotFound) && opts.DryRun {
			system = &models.User{Name: systemName}
		} else {
			return stats, fmt.Errorf("system identity %q: %w", systemName, err)
		}
	}

	users, err := db.GetAllUsers(database)
	if err != nil {
		return stats, err
	}

	date := time.Now().UTC().Format("2006-01-02")
	for _, u := range users {
		if u.IsSystem() {
			continue
		}
		if opts.OnlyUser != "" && u.Name != opts.OnlyUser {
			continue
		}
		stats.Total++

		if opts.ExcludeBots && u.EntityType == models.EntityBot {
			l.Info("skip (bot)", "name", u.Name)
			stats.Skipped++
			continue
		}

		path := pages.InviteRecordPath(u.Name)
		exists, err := store.Exists(path)
		if err != nil {
			return stats, err
		}
		if exists {
			stats.Skipped++
			continue
		}

		if opts.DryRun {
			l.Info("would create", "path", path)
			stats.Created++
			continue
		}

		content := pages.GenesisContent(u.Name, u.EntityType, date)
		if err := store.Create(path, content, system.Id); err != nil {
			return stats, fmt.Errorf("create %s: %w", path, err)
		}
		if err := enforcer.ProtectRecord(path); err != nil {
			return stats, err
		}

		l.Info("created", "path", path)
		stats.Created++
	}

	return stats, nil
}
