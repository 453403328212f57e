package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/chat-wallet/internal/api"
	"github/chapool/chat-wallet/internal/api/router"
	"github/chapool/chat-wallet/internal/config"
	"github/chapool/chat-wallet/internal/util/command"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the server",
		Long: `Starts the webhook server.

Refuses to start while no RPC endpoint answers or the seed cannot be loaded.
Requires configuration through ENV.`,
		Run: func(cmd *cobra.Command, _ []string) {
			runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) {
	cfg := config.DefaultServiceConfigFromEnv()
	command.ConfigureLogger(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		if err := initializeWallet(ctx, s); err != nil {
			return err
		}

		router.Init(s)

		errc := make(chan error, 1)
		go func() {
			log.Info().Str("address", cfg.Echo.ListenAddress).Msg("Starting server")
			errc <- s.Start()
		}()

		select {
		case <-ctx.Done():
			log.Info().Msg("Received shutdown signal")
			return nil
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
