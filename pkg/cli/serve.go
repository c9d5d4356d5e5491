package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/cli/config"
	server "github.com/m-mizutani/nagare/pkg/controller/http"
	"github.com/m-mizutani/nagare/pkg/controller/http/middleware"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/repository/database/firestore"
	"github.com/m-mizutani/nagare/pkg/repository/database/memory"
	"github.com/m-mizutani/nagare/pkg/repository/storage"
	"github.com/m-mizutani/nagare/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// databaseFlags selects the repository backend
type databaseConfig struct {
	Type      string
	Firestore config.Firestore
}

func (d *databaseConfig) flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "database",
			Usage:       "Database backend [firestore|memory]",
			Sources:     cli.EnvVars("NAGARE_DATABASE"),
			Value:       "memory",
			Destination: &d.Type,
		},
	}
	return append(flags, d.Firestore.Flags()...)
}

func (d *databaseConfig) configure(ctx context.Context) (interfaces.Repository, func() error, error) {
	switch d.Type {
	case "firestore":
		if !d.Firestore.IsValid() {
			return nil, nil, goerr.New("firestore-project-id is required for the firestore backend")
		}
		client, err := firestore.New(ctx, d.Firestore.ProjectID, d.Firestore.DatabaseID)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil

	case "memory":
		client := memory.New()
		return client, client.Close, nil

	default:
		return nil, nil, goerr.New("unknown database backend", goerr.V("database", d.Type))
	}
}

func cmdServe() *cli.Command {
	var (
		addr       string
		authSecret string
		noAuth     bool
		dbCfg      databaseConfig
		storageCfg config.Storage
		policyCfg  config.Policy
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Sources:     cli.EnvVars("NAGARE_ADDR"),
			Usage:       "Listen address (default: 127.0.0.1:8080)",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "auth-secret",
			Sources:     cli.EnvVars("NAGARE_AUTH_SECRET"),
			Usage:       "HS256 secret for bearer token verification",
			Destination: &authSecret,
		},
		&cli.BoolFlag{
			Name:        "no-authentication",
			Sources:     cli.EnvVars("NAGARE_NO_AUTHENTICATION"),
			Usage:       "Disable authentication (local development only)",
			Destination: &noAuth,
		},
	}
	flags = append(flags, dbCfg.flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run server",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := ctxlog.From(ctx)
			logger.Info("starting server",
				"addr", addr,
				"database", dbCfg.Type,
				"storage", storageCfg.Type,
				"no_authentication", noAuth,
			)

			if !noAuth && authSecret == "" {
				return goerr.New("auth-secret is required unless authentication is disabled")
			}

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
			mediaStorage := storage.New(adapter)

			policyDefaults, err := policyCfg.Load()
			if err != nil {
				return goerr.Wrap(err, "failed to load policy defaults")
			}

			uc := usecase.New(
				usecase.WithRepository(repo),
				usecase.WithMediaStorage(mediaStorage),
				usecase.WithPolicyDefaults(policyDefaults),
			)

			authMW := middleware.NewAuthMiddleware([]byte(authSecret), noAuth)

			httpServer := http.Server{
				Addr: addr,
				Handler: server.New(
					server.WithJournalUseCases(uc),
					server.WithInstanceUseCases(uc),
					server.WithWorkflowUseCases(uc),
					server.WithAuthMiddleware(authMW),
				),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				ctxlog.From(ctx).Info("server started", "addr", addr)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
				ctxlog.From(ctx).Info("shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		},
	}
}
