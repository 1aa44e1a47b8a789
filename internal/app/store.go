package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/repository/gormstore"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/migrations"
	"github.com/utafrali/storefront/pkg/database"
)

// OpenStore connects to the record store selected by STORE_DRIVER. The
// schema is brought up to date when migrate is set. reg may be nil.
func OpenStore(ctx context.Context, cfg *config.Config, migrate bool, reg prometheus.Registerer, logger *slog.Logger) (*repository.Repositories, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, migrate, reg, logger)
	default:
		return openGorm(ctx, cfg, migrate, logger)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, migrate bool, reg prometheus.Registerer, logger *slog.Logger) (*repository.Repositories, error) {
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to postgres", slog.Int("max_conns", int(cfg.DBMaxConns)))

	if migrate {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	if reg != nil {
		if err := database.RegisterPoolMetrics(reg, pool, "storefront"); err != nil {
			logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
		}
	}

	return &repository.Repositories{
		Users:      postgres.NewUserRepository(pool),
		Categories: postgres.NewCategoryRepository(pool),
		Products:   postgres.NewProductRepository(pool),
		Ping:       pool.Ping,
		Close:      pool.Close,
	}, nil
}

func openGorm(ctx context.Context, cfg *config.Config, migrate bool, logger *slog.Logger) (*repository.Repositories, error) {
	db, err := database.OpenGorm(ctx, cfg.Gorm(), logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	logger.Info("connected to record store", slog.String("driver", cfg.StoreDriver))

	if migrate {
		if err := gormstore.Migrate(ctx, db); err != nil {
			_ = database.CloseGorm(db)
			return nil, err
		}
	}
	return gormstore.New(db), nil
}
