package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/chat-wallet/internal/config"
	"github/chapool/chat-wallet/internal/registry"
	"github/chapool/chat-wallet/internal/util/command"
)

const migrateTimeout = 2 * time.Minute

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Executes all migrations which are not yet applied.",
		Long: `Applies the postgres registry schema.

Only used with REGISTRY_BACKEND=postgres, the badger and memory registries need no schema.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrateCmdFunc(cmd.Context())
		},
	}
}

func migrateCmdFunc(ctx context.Context) error {
	cfg := config.DefaultServiceConfigFromEnv()
	command.ConfigureLogger(cfg)

	if cfg.Registry.Backend != string(registry.BackendPostgres) {
		return errors.Errorf("REGISTRY_BACKEND is %q, migrations only apply to postgres", cfg.Registry.Backend)
	}

	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	store, err := registry.OpenPostgres(ctx, cfg.Registry.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := registry.Migrate(store.DB())
	if err != nil {
		return err
	}

	log.Info().Int("applied", n).Msg("Applied migrations")
	return nil
}
