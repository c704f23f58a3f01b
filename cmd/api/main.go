package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-catalog/internal/config"
	"product-catalog/internal/database"
	"product-catalog/internal/handler"
	"product-catalog/internal/repository"
	"product-catalog/internal/router"
	"product-catalog/internal/service"
	"product-catalog/internal/storage"
	"product-catalog/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting product catalog API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := tracerProvider.Shutdown(flushCtx); err != nil {
			logger.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	// Initialize the product repository for the configured driver
	productRepo, closeDB, err := newProductRepository(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	// Initialize photo storage
	photos, err := newPhotoStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	// Initialize services and handlers
	productService := service.NewProductService(productRepo, photos, logger)
	productHandler := handler.NewProductHandler(productService, cfg.Storage.MaxUploadBytes, logger)

	// Initialize metrics registry and router
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mux := router.New(productHandler, registry, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newProductRepository opens the configured database, synchronises the schema
// when enabled and returns the matching repository with its close function.
func newProductRepository(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (repository.ProductRepository, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := database.NewSQLite(cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		closeDB := func() {
			if err := sqlDB.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close database")
			}
		}
		return repository.NewGormProductRepository(db, logger), closeDB, nil

	default:
		pool, err := database.NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if cfg.AutoMigrate {
			if err := database.Migrate(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return repository.NewProductRepository(pool, logger), pool.Close, nil
	}
}

// newPhotoStore returns the configured photo storage backend.
func newPhotoStore(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.PhotoStore, error) {
	if cfg.Backend == config.StorageS3 {
		store, err := storage.NewS3PhotoStore(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 photo store: %w", err)
		}
		return store, nil
	}

	logger.Info().Str("dir", cfg.UploadsDir).Msg("using local file system for product photos")
	return storage.NewLocalPhotoStore(cfg.UploadsDir, logger), nil
}
