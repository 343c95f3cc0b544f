package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/logger"
	"github.com/pageza/recipe-api/backend/internal/router"
	"github.com/pageza/recipe-api/backend/internal/server"
	"github.com/pageza/recipe-api/backend/internal/storage"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLog, err := logger.New(cfg.Env == config.Production, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zapLog); err != nil {
		zapLog.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	zapLog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(ctx, db, cfg.PostgresDSN(), log); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	deps := router.Dependencies{
		Config: cfg,
		DB:     db,
		Images: images,
		Logger: log,
	}

	// Redis only backs rate limiting, so the API runs without it
	if cfg.RedisEnabled() {
		client, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		} else {
			defer client.Close()
			deps.Redis = client
		}
	}

	srv := server.New(cfg.Addr(), router.SetupRouter(deps), log)
	return srv.Run(ctx)
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		s3Cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(s3Cfg), nil
	default:
		return storage.NewFileStore(cfg.MediaRoot, cfg.MediaURL)
	}
}
