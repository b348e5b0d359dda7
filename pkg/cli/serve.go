package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/conduct-lab/demerit/pkg/cli/config"
	controller "github.com/conduct-lab/demerit/pkg/controller/http"
	"github.com/conduct-lab/demerit/pkg/repository"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		seedCfg   config.Seed
	)

	flags := joinFlags(
		serverCfg.Flags(),
		seedCfg.Flags(),
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start the reference incidence API server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting demerit server",
				slog.Any("server", serverCfg),
				slog.Any("seed", seedCfg),
			)

			repo := repository.NewMemory(repository.WithScoreBase(serverCfg.ScoreBase))
			defer repo.Close()

			seed, err := seedCfg.Load()
			if err != nil {
				return err
			}
			if err := repository.Bootstrap(ctx, repo, seed); err != nil {
				return goerr.Wrap(err, "failed to bootstrap store")
			}

			tokens, err := controller.NewTokenIssuer([]byte(serverCfg.Secret), serverCfg.TokenTTL)
			if err != nil {
				return err
			}

			server := controller.NewServer(ctx, serverCfg.Addr, repo, tokens)

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
