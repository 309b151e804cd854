package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/SeopE9611/sub010-backend/internal/adapter/channel/chat"
	"github.com/SeopE9611/sub010-backend/internal/adapter/channel/email"
	"github.com/SeopE9611/sub010-backend/internal/adapter/channel/sms"
	"github.com/SeopE9611/sub010-backend/internal/adapter/repository/postgres"
	"github.com/SeopE9611/sub010-backend/internal/api"
	"github.com/SeopE9611/sub010-backend/internal/config"
	"github.com/SeopE9611/sub010-backend/internal/domain/delivery"
	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
	"github.com/SeopE9611/sub010-backend/internal/renderer"
	"github.com/SeopE9611/sub010-backend/internal/usecase/notify"
	"github.com/SeopE9611/sub010-backend/pkg/db"
	"github.com/SeopE9611/sub010-backend/pkg/leaselock"
	zaplog "github.com/SeopE9611/sub010-backend/pkg/log"
	"github.com/SeopE9611/sub010-backend/pkg/snowflake"
	"github.com/SeopE9611/sub010-backend/sql/migrations"
)

// RunServer starts the HTTP server.
func RunServer() {
	app := fx.New(
		fx.Provide(
			// Config
			config.Load,

			// Rendering
			renderer.New,

			// Domain Adapters (Bind Interfaces)
			fx.Annotate(
				postgres.NewOutboxRepository,
				fx.As(new(notification.Repository)),
			),

			// Channel Adapters
			newChannelAdapters,
			newLocker,

			// Use Cases
			newDispatchUseCase,
			notify.NewEnqueueUseCase,
			notify.NewRetryUseCase,
			newSweepUseCase,

			// API
			api.NewRouter,
		),
		db.Module,        // Database Module
		snowflake.Module, // Snowflake ID Module
		zaplog.Module,    // Logger Module
		fx.Invoke(registerHooks),
	)

	app.Run()
}

// RunMigrations executes database migrations (up or down).
func RunMigrations(command string) error {
	if command == "" {
		command = "up"
	}

	cfg := config.Load()
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting database migration...", zap.String("command", command))

	dbURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	d, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migration files: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dbURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Info("Migration up applied")
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Info("Migration down applied")
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}

	return nil
}

func registerHooks(lc fx.Lifecycle, router *api.Router, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting HTTP server", zap.String("port", cfg.Port))

			go func() {
				if err := router.Run(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("Server failed to start", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server gracefully...")

			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if err := router.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", zap.Error(err))
				return err
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		},
	})
}

// newChannelAdapters wires one adapter per delivery channel.
func newChannelAdapters(cfg *config.Config, logger *zap.Logger) ([]delivery.Adapter, error) {
	emailAdapter, err := email.NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	return []delivery.Adapter{
		emailAdapter,
		sms.NewAdapter(cfg, logger),
		chat.NewAdapter(cfg, logger),
	}, nil
}

// newLocker picks the lease lock backend: Redis when configured (multiple
// replicas), in-process otherwise.
func newLocker(cfg *config.Config) leaselock.Locker {
	if cfg.RedisAddr == "" {
		return leaselock.NewMemoryLocker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return leaselock.NewRedisLocker(client)
}

func newDispatchUseCase(repo notification.Repository, adapters []delivery.Adapter, cfg *config.Config, logger *zap.Logger) *notify.DispatchUseCase {
	return notify.NewDispatchUseCase(repo, adapters, cfg.ChannelTimeout, logger)
}

func newSweepUseCase(repo notification.Repository, locker leaselock.Locker, cfg *config.Config, logger *zap.Logger) *notify.SweepUseCase {
	return notify.NewSweepUseCase(repo, locker, cfg.StuckAfter, logger)
}
