package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

// AuthHandler handles HTTP requests for account and session endpoints.
type AuthHandler struct {
	service      *service.AuthService
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler. cookieSecure sets the
// Secure attribute on the session cookie.
func NewAuthHandler(svc *service.AuthService, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:      svc,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// SigninResponse is the body of a successful signin.
type SigninResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// VerifyResponse is the body of GET /api/auth/verify.
type VerifyResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        int64  `json:"user_id"`
	Email         string `json:"email"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in domain.SignupInput
	if err := decodeBody(r, &in); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := h.service.Signup(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, user, "User registered successfully")
}

// Signin handles POST /api/auth/signin. On success the token is returned in
// the body and set as an HttpOnly cookie.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var in domain.SigninInput
	if err := decodeBody(r, &in); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	token, user, err := h.service.Signin(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, h.sessionCookie(token.Value, int(time.Until(token.ExpiresAt).Seconds())))
	httputil.WriteData(w, http.StatusOK, SigninResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		User:      user,
	}, "Login successful")
}

// Logout handles POST /api/auth/logout. It always succeeds: the cookie is
// cleared, and a valid token that came with the request is revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to revoke token on logout",
			slog.String("error", err.Error()),
		)
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	httputil.WriteData(w, http.StatusOK, nil, "Logged out successfully")
}

// Verify handles GET /api/auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing credentials"), h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, VerifyResponse{
		Authenticated: true,
		UserID:        claims.UserID,
		Email:         claims.Email,
	}, "")
}

// Profile handles GET /api/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing credentials"), h.logger)
		return
	}

	user, err := h.service.Profile(r.Context(), claims.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user, "")
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
