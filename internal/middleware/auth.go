package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "user_role"
)

// TokenParser verifies access tokens. *service.AuthService implements it.
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// Authenticate requires a valid "Authorization: Bearer <jwt>" header and
// stores the caller's ID and role in the request context
func Authenticate(tokens TokenParser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized: bearer token required")
				return
			}

			claims, err := tokens.ParseToken(strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized: invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.Subject, claims.Role)))
		})
	}
}

// ProfileReader loads the caller's current profile. *service.AuthService implements it.
type ProfileReader interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// RequireAdmin rejects callers that are not admins. The role is read from the
// stored profile rather than the token, so a demotion takes effect on the next
// request. It must run after Authenticate.
func RequireAdmin(profiles ProfileReader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserID(r.Context())
			if userID == "" {
				writeError(w, http.StatusForbidden, "Forbidden: admin role required")
				return
			}

			p, err := profiles.GetProfile(r.Context(), userID)
			switch {
			case errors.Is(err, repository.ErrProfileNotFound):
				writeError(w, http.StatusForbidden, "Forbidden: admin role required")
				return
			case err != nil:
				slog.ErrorContext(r.Context(), "failed to load caller profile", "error", err, "user_id", userID)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			case p.Role != models.RoleAdmin:
				writeError(w, http.StatusForbidden, "Forbidden: admin role required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, p.Role)))
		})
	}
}

// WithUser returns a context carrying the authenticated caller
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// UserID returns the authenticated caller's profile ID, or ""
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Role returns the authenticated caller's role, or ""
func Role(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
