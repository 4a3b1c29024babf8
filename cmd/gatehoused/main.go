package main

import (
	"context"
	"net/http"
	"os"

	"quorum.wiki/core/gatehouse/ancestry"
	"quorum.wiki/core/gatehouse/attest"
	"quorum.wiki/core/gatehouse/config"
	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/identity"
	"quorum.wiki/core/gatehouse/ledger"
	"quorum.wiki/core/gatehouse/pages"
	"quorum.wiki/core/gatehouse/registration"
	"quorum.wiki/core/gatehouse/web"
	glog "quorum.wiki/core/log"
	"quorum.wiki/core/rbac"
)

func main() {
	ctx := context.Background()
	logger := glog.New("gatehoused")
	ctx = glog.IntoContext(ctx, logger)

	c, err := config.LoadConfig(ctx)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	database, err := db.Make(c.Core.DbPath)
	if err != nil {
		logger.Error("failed to open database", "path", c.Core.DbPath, "err", err)
		os.Exit(-1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "err", err)
		}
	}()

	enforcer, err := rbac.NewEnforcerFromDB(database.DB)
	if err != nil {
		logger.Error("failed to set up enforcer", "err", err)
		os.Exit(-1)
	}

	store := pages.NewSQLStore(database)
	ids := identity.NewDirectory(database, enforcer)
	lg := ledger.New(database, c.Invites.ExpireDays)
	reg := attest.New(database, ids, enforcer, store)
	res := ancestry.New(database)
	signup := registration.New(database, lg, enforcer, store, c.System.ReservedName)

	logger.Info("starting server", "address", c.Core.ListenAddr)

	handler := web.Setup(c, database, lg, reg, res, signup, ids, enforcer, logger)
	if err := http.ListenAndServe(c.Core.ListenAddr, handler); err != nil {
		logger.Error("failed to start gatehoused", "err", err)
	}
}
