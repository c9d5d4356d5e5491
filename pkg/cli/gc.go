package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/cli/config"
	"github.com/m-mizutani/nagare/pkg/repository/storage"
	"github.com/m-mizutani/nagare/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// cmdGC resolves leftover media tombstones. Cascade deletions collect
// their media right after commit; this command retries collections that
// failed, e.g. because the process died in between.
func cmdGC() *cli.Command {
	var (
		limit      int
		dbCfg      databaseConfig
		storageCfg config.Storage
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of tombstones to resolve (0 = all)",
			Sources:     cli.EnvVars("NAGARE_GC_LIMIT"),
			Value:       0,
			Destination: &limit,
		},
	}
	flags = append(flags, dbCfg.flags()...)
	flags = append(flags, storageCfg.Flags()...)

	return &cli.Command{
		Name:  "gc",
		Usage: "Collect media of deleted instances",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := ctxlog.From(ctx)

			repo, closeRepo, err := dbCfg.configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure database")
			}
			defer func() {
				if err := closeRepo(); err != nil {
					logger.Warn("failed to close repository", "error", err)
				}
			}()

			adapter, err := storageCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure storage")
			}

			uc := usecase.New(
				usecase.WithRepository(repo),
				usecase.WithMediaStorage(storage.New(adapter)),
			)

			resolved, err := uc.CollectMediaGarbage(ctx, int(limit))
			if err != nil {
				return goerr.Wrap(err, "media collection failed",
					goerr.V("resolved", resolved))
			}

			logger.Info("media collection finished", "resolved", resolved)
			return nil
		},
	}
}
