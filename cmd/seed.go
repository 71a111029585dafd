package main

import (
	"context"
	"fmt"
	"os"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/config"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"
	"inmobiliaria/internal/services"
	"inmobiliaria/pkg/database"
	"inmobiliaria/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var defaultPropertyTypes = []string{"Casa", "Departamento", "Local comercial", "Terreno", "Oficina"}

type seedOptions struct {
	adminName     string
	adminEmail    string
	adminPassword string
}

func newSeedCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default property types and the first admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cfg.Storage.Driver != config.DriverPostgres {
				return fmt.Errorf("seed requires STORAGE_DRIVER=%s; the memory store is seeded by serve", config.DriverPostgres)
			}

			pool, err := database.NewPool(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.ClosePool(pool)

			return seed(cmd.Context(), repositories.NewStore(pool), opts, log)
		},
	}

	opts.bind(cmd)
	return cmd
}

func (o *seedOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.adminName, "admin-name", "Administrador", "name of the admin user")
	cmd.Flags().StringVar(&o.adminEmail, "admin-email", "admin@inmobiliaria.local", "email of the admin user")
	cmd.Flags().StringVar(&o.adminPassword, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password of the admin user")
}

// seed is idempotent: existing types and users are left untouched
func seed(ctx context.Context, store repositories.Store, opts seedOptions, log *logger.Logger) error {
	types := services.NewPropertyTypeService(store)
	for _, name := range defaultPropertyTypes {
		_, err := types.CreateType(ctx, models.SystemActor, name)
		switch {
		case err == nil:
			log.Info("Seeded property type", zap.String("name", name))
		case common.IsConflict(err):
		default:
			return fmt.Errorf("failed to seed property type %q: %w", name, err)
		}
	}

	if opts.adminPassword == "" {
		log.Warn("No admin password given, skipping admin user")
		return nil
	}

	role := string(models.RoleAdmin)
	age := 30
	users := services.NewUserService(store, log)
	_, err := users.CreateUser(ctx, models.SystemActor, &models.UserInput{
		Name:     &opts.adminName,
		Email:    &opts.adminEmail,
		Password: &opts.adminPassword,
		Age:      &age,
		Role:     &role,
	})
	switch {
	case err == nil:
		log.Info("Seeded admin user", zap.String("email", opts.adminEmail))
	case common.IsConflict(err):
		log.Info("Admin user already exists", zap.String("email", opts.adminEmail))
	default:
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}
