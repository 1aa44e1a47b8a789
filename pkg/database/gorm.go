package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig selects a gorm dialect and connection string.
type GormConfig struct {
	// Driver is "mysql" or "sqlite".
	Driver string
	DSN    string

	SlowThreshold time.Duration
	MaxOpenConns  int
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}
}

// slogWriter adapts slog to gorm's logger.Writer.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.logger.Warn(fmt.Sprintf(format, args...), slog.String("component", "gorm"))
}

// NewGormLogger routes gorm's slow-query and error output through logger.
func NewGormLogger(logger *slog.Logger, slowThreshold time.Duration) gormlogger.Interface {
	return gormlogger.New(slogWriter{logger: logger}, gormlogger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// OpenGorm opens and pings a gorm database, retrying per DefaultRetryPolicy.
func OpenGorm(ctx context.Context, cfg GormConfig, logger *slog.Logger) (*gorm.DB, error) {
	d, err := dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	err = retry(ctx, DefaultRetryPolicy, logger, "connect to "+cfg.Driver, nil, func(ctx context.Context) error {
		g, err := gorm.Open(d, &gorm.Config{
			Logger:         NewGormLogger(logger, cfg.SlowThreshold),
			TranslateError: true,
		})
		if err != nil {
			return err
		}
		sqlDB, err := g.DB()
		if err != nil {
			return err
		}
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return err
		}
		db = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// CloseGorm closes the connection pool behind db.
func CloseGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
