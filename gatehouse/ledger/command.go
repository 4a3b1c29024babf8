package ledger

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"quorum.wiki/core/gatehouse/config"
	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/models"
	"quorum.wiki/core/log"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "invite",
		Usage: "manage invite codes",
		Commands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "mint a new invite code",
				Action: runCreate,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "inviter",
						Usage:    "member id the invite is issued by",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "entity",
						Usage: "entity type of the invitee (human or bot)",
						Value: string(models.EntityHuman),
					},
					&cli.IntFlag{
						Name:  "expire-days",
						Usage: "lifetime in days, 0 for never",
						Value: -1,
					},
					&cli.StringFlag{
						Name:  "for",
						Usage: "intended recipient name",
					},
					&cli.StringFlag{
						Name:  "relationship",
						Usage: "relationship to the invitee",
					},
					&cli.StringFlag{
						Name:  "notes",
						Usage: "private notes for the inviter",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "list invites, newest first",
				Action: runList,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 50,
					},
					&cli.IntFlag{
						Name: "offset",
					},
				},
			},
			{
				Name:      "revoke",
				Usage:     "revoke an unused invite by id",
				Action:    runRevoke,
				ArgsUsage: "<invite-id>",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "invite id to revoke",
						Required: true,
					},
				},
			},
		},
	}
}

func openLedger(ctx context.Context) (*Ledger, *db.DB, error) {
	c, err := config.LoadConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	database, err := db.Make(c.Core.DbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	return New(database, c.Invites.ExpireDays), database, nil
}

func runCreate(ctx context.Context, cmd *cli.Command) error {
	l, database, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	params := CreateInviteParams{
		InviterId:    cmd.Int64("inviter"),
		EntityType:   models.EntityType(cmd.String("entity")),
		IntendedFor:  cmd.String("for"),
		Relationship: models.RelationshipType(cmd.String("relationship")),
		Notes:        cmd.String("notes"),
	}
	if days := cmd.Int("expire-days"); days >= 0 {
		params.ExpireDays = &days
	}

	inv, err := l.CreateInvite(ctx, params)
	if err != nil {
		return err
	}

	log.FromContext(ctx).Info("invite created", "id", inv.Id, "code", inv.Code)
	fmt.Println(inv.Code)
	return nil
}

func runList(ctx context.Context, cmd *cli.Command) error {
	l, database, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	invites, err := l.AllInvites(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}

	for i := range invites {
		fmt.Println(describeInvite(&invites[i]))
	}
	return nil
}

func describeInvite(inv *models.Invite) string {
	state := "unused"
	switch {
	case inv.Used != nil:
		state = fmt.Sprintf("used %s", humanize.Time(*inv.Used))
	case inv.Expires != nil:
		state = fmt.Sprintf("expires %s", humanize.Time(*inv.Expires))
	}

	created := "unknown"
	if inv.Created != nil {
		created = humanize.Time(*inv.Created)
	}

	return fmt.Sprintf("%d\t%s\tby %d\tcreated %s\t%s",
		inv.Id, inv.Code, inv.InviterId, created, state)
}

func runRevoke(ctx context.Context, cmd *cli.Command) error {
	l, database, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	id := cmd.Int64("id")
	revoked, err := l.Revoke(ctx, id)
	if err != nil {
		return err
	}
	if !revoked {
		return fmt.Errorf("invite %d is already used or does not exist", id)
	}

	log.FromContext(ctx).Info("invite revoked", "id", id)
	return nil
}
