package bootstrap

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"quorum.wiki/core/gatehouse/config"
	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/guard"
	"quorum.wiki/core/gatehouse/pages"
	"quorum.wiki/core/log"
	"quorum.wiki/core/rbac"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:   "bootstrap",
		Usage:  "claim the system identity and backfill genesis records",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "seed",
				Usage: "yaml file of genesis members to register",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "show what would be done without making changes",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "process only this member",
			},
			&cli.BoolFlag{
				Name:  "exclude-bots",
				Usage: "skip bot members",
			},
		},
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	l := log.FromContext(ctx)

	c, err := config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Make(c.Core.DbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer database.Close()

	enforcer, err := rbac.NewEnforcerFromDB(database.DB)
	if err != nil {
		return fmt.Errorf("setup enforcer: %w", err)
	}

	dryRun := cmd.Bool("dry-run")

	result, _, err := guard.New(database).Ensure(ctx, c.System.ReservedName)
	if err != nil {
		return err
	}
	if result == guard.Conflict {
		// a warning, not a crash: the rest of the engine keeps
		// working, but origin records cannot be authored until the
		// squatter is renamed
		l.Warn("reserved name is squatted; rename that account and re-run",
			"name", c.System.ReservedName)
		return nil
	}
	l.Info("system identity ready", "name", c.System.ReservedName)

	if seedPath := cmd.String("seed"); seedPath != "" && !dryRun {
		seed, err := LoadSeed(seedPath)
		if err != nil {
			return err
		}
		if err := ApplySeed(ctx, database, enforcer, seed); err != nil {
			return err
		}
	}

	stats, err := BackfillGenesis(ctx, database, enforcer, pages.NewSQLStore(database), c.System.ReservedName, BackfillOpts{
		DryRun:      dryRun,
		OnlyUser:    cmd.String("user"),
		ExcludeBots: cmd.Bool("exclude-bots"),
	})
	if err != nil {
		return err
	}

	l.Info("genesis backfill complete",
		"total", stats.Total, "created", stats.Created, "skipped", stats.Skipped)
	if dryRun {
		l.Info("this was a dry run; re-run without --dry-run to apply")
	}
	return nil
}
