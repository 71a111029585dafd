package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"inmobiliaria/internal/caching"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/config"
	"inmobiliaria/internal/handlers"
	"inmobiliaria/internal/jobs/background"
	"inmobiliaria/internal/middleware"
	"inmobiliaria/internal/repositories"
	"inmobiliaria/internal/repositories/memory"
	"inmobiliaria/internal/services"
	"inmobiliaria/pkg/database"
	"inmobiliaria/pkg/logger"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, opts, log)
		},
	}
	opts.bind(cmd)
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, seedOpts seedOptions, log *logger.Logger) error {
	var store repositories.Store
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.ClosePool(pool)
		store = repositories.NewStore(pool)
	default:
		log.Warn("Using the in-memory store; data is lost on restart")
		store = memory.NewStore()
		if err := seed(ctx, store, seedOpts, log); err != nil {
			return err
		}
	}

	var cache caching.CacheService
	if cfg.Redis.Enabled {
		cache = caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx); err != nil {
			log.Warn("Redis is not reachable yet", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
	} else {
		cache = caching.NewMemoryCacheService()
	}

	var archive services.DocumentArchive
	if cfg.Minio.Enabled {
		minioArchive, err := services.NewMinioService(cfg.Minio)
		if err != nil {
			return fmt.Errorf("failed to initialize MinIO: %w", err)
		}
		if err := minioArchive.EnsureBucketExists(ctx); err != nil {
			log.Warn("Document archive unavailable", zap.String("bucket", cfg.Minio.Bucket), zap.Error(err))
		}
		archive = minioArchive
	}

	mailer := services.NewNotificationService(cfg.SMTP, log)
	rentals := services.NewRentalService(store, mailer, log)

	svc := handlers.Services{
		Auth:          services.NewAuthService(store, cache, mailer, cfg, log),
		Users:         services.NewUserService(store, log),
		Clients:       services.NewClientService(store, log),
		Properties:    services.NewPropertyService(store, log),
		PropertyTypes: services.NewPropertyTypeService(store),
		Rentals:       rentals,
		Sales:         services.NewSaleService(store, mailer, log),
		Documents:     services.NewDocumentService(store, archive, cfg.Minio.LinkTTL, cfg.App.Name, log),
		Audit:         services.NewAuditLogsService(store.AuditLogs()),
	}

	if cfg.Jobs.Enabled {
		scheduler, err := background.NewJobScheduler(rentals, cfg.Jobs.RentalExpiryInterval, log)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				log.Error("Failed to stop scheduler", zap.Error(err))
			}
		}()
		svc.Scheduler = scheduler
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = common.HTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestContext())
	e.Use(middleware.RequestLogger(log))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:  []string{cfg.App.FrontURL},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{echo.HeaderContentDisposition, "X-API-Version", "X-App-Version"},
	}))
	e.Use(echoMiddleware.BodyLimit("2M"))

	health := handlers.NewHealthHandlers(store, cache, archive, cfg.App.Version)
	handlers.RegisterRoutes(e, svc, health, middleware.NewVersionMiddleware(cfg.App.Version))

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", cfg.Server.Addr()), zap.String("version", cfg.App.Version))
		if err := e.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
