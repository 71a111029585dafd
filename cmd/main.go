package main

import (
	"fmt"
	"os"

	"inmobiliaria/internal/config"
	"inmobiliaria/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "inmobiliaria",
		Short:         "Real estate agency API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and initializes the global logger
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.App.IsDevelopment(),
		OutputPath:  "stdout",
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	log := logger.Get()

	if cfg.GeneratedSecret {
		log.Warn("JWT_SECRET is empty, using a generated secret; tokens will not survive restarts")
	}
	log.Info("Configuration loaded",
		zap.String("environment", cfg.App.Environment),
		zap.String("storage", cfg.Storage.Driver),
	)
	return cfg, log, nil
}
