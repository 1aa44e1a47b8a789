package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// UserRepository implements repository.UserRepository using gorm.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new gorm-backed user repository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := &userModel{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, PasswordHash: u.PasswordHash}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&userModel{}).Where("email = ?", u.Email).Count(&n).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if n > 0 {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return tx.Create(m).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return err
		}
		return fmt.Errorf("insert user: %w", err)
	}

	u.ID, u.CreatedAt = m.ID, m.CreatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(ctx, id, "user_id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, email, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, key any, where string, arg any) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where(where, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", key)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return m.toDomain(), nil
}
