// Package gormstore implements the repositories on gorm, for MySQL and
// SQLite record stores.
//
// Exact search lower-cases both sides, but SQLite's LOWER only folds ASCII.
// On SQLite a term such as "é" therefore does not match "Élan"; MySQL and the
// Postgres store fold case fully.
package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
)

// Migrate creates or updates the users, categories and products tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&userModel{}, &categoryModel{}, &productModel{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// New returns the repositories backed by db.
func New(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Users:      NewUserRepository(db),
		Categories: NewCategoryRepository(db),
		Products:   NewProductRepository(db),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Close: func() { _ = database.CloseGorm(db) },
	}
}

func categoryExists(tx *gorm.DB, id int64) (bool, error) {
	var n int64
	if err := tx.Model(&categoryModel{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check category %d: %w", id, err)
	}
	return n > 0, nil
}
