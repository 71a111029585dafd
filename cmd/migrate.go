package main

import (
	"fmt"

	"inmobiliaria/internal/config"
	"inmobiliaria/pkg/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cfg.Storage.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requires STORAGE_DRIVER=%s", config.DriverPostgres)
			}

			pool, err := database.NewPool(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.ClosePool(pool)

			applied, err := database.Migrate(cmd.Context(), pool)
			if err != nil {
				return err
			}
			log.Info("Migrations complete", zap.Int("applied", applied))
			return nil
		},
	}
}
