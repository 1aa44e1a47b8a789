package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
)

// TokenCookie is the cookie that carries the session token.
const TokenCookie = "token"

type contextKeyType string

const claimsKey contextKeyType = "claims"

// Claims represents the authenticated identity extracted by the auth middleware.
type Claims struct {
	UserID    int64
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenValidator validates a raw token and returns its claims. Validators
// are expected to reject expired, malformed and revoked tokens.
type TokenValidator func(ctx context.Context, token string) (*Claims, error)

// TokenFromRequest returns the session token, looking at the token cookie
// first and the Authorization bearer header second.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Auth rejects requests without a valid token and stores the claims in the
// request context. Validator errors other than ErrUnauthorized are written
// unchanged, so a backend outage surfaces as 5xx rather than a bad credential.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("missing credentials"), nil)
				return
			}

			claims, err := validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, apperrors.ErrUnauthorized) {
					err = apperrors.Unauthorized("invalid or expired token")
				}
				httputil.WriteError(w, r, err, nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by Auth, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

// UserIDFromContext returns the authenticated user id as a string, or "".
func UserIDFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return strconv.FormatInt(c.UserID, 10)
	}
	return ""
}
