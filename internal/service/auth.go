package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/middleware"
)

// AuthService implements signup, signin, logout and token validation.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.JWTManager
	revoked    auth.RevocationList
	bcryptCost int
	logger     *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.JWTManager,
	revoked auth.RevocationList,
	bcryptCost int,
	logger *slog.Logger,
) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		revoked:    revoked,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Signup creates a user. The input is expected to be normalized and
// validated already.
func (s *AuthService) Signup(ctx context.Context, in domain.SignupInput) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.InvalidInput("Email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// Signin checks the credentials and issues a session token. An unknown
// email and a wrong password produce the same error.
func (s *AuthService) Signin(ctx context.Context, in domain.SigninInput) (*auth.Token, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed in", slog.Int64("user_id", user.ID))
	return token, user, nil
}

// Logout revokes raw until it expires. A missing or already invalid token
// is not an error: logging out always succeeds from the client's view.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.InfoContext(ctx, "user signed out", slog.Int64("user_id", claims.UserID))
	return nil
}

// ValidateToken checks signature, expiry and revocation of raw and that its
// user still exists. It satisfies middleware.TokenValidator.
func (s *AuthService) ValidateToken(ctx context.Context, raw string) (*middleware.Claims, error) {
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "revocation lookup failed",
			slog.String("token_id", claims.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unavailable("revocation list", err)
	}
	if revoked {
		return nil, apperrors.Unauthorized("token has been revoked")
	}

	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("user no longer exists")
		}
		return nil, fmt.Errorf("get token user: %w", err)
	}

	return &middleware.Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Profile returns the user with the given id.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}
