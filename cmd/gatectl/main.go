package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"quorum.wiki/core/gatehouse/bootstrap"
	"quorum.wiki/core/gatehouse/ledger"
	"quorum.wiki/core/log"
)

func main() {
	cmd := &cli.Command{
		Name:  "gatectl",
		Usage: "gatehouse administration tool",
		Commands: []*cli.Command{
			bootstrap.Command(),
			ledger.Command(),
		},
	}

	ctx := context.Background()
	logger := log.New("gatectl")
	ctx = log.IntoContext(ctx, logger.With("command", cmd.Name))

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Error(err.Error())
		os.Exit(-1)
	}
}
