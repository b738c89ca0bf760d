package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lixing-Zhang/storefront/internal/config"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

func newTestAuth(t *testing.T) (*AuthService, *repository.Store) {
	t.Helper()
	s := newTestStore(t)
	svc := NewAuthService(s.Profiles, config.AuthConfig{
		JWTSecret:     "test-secret-0123456789",
		TokenTTLHours: 24,
		AdminEmails:   []string{"boss@example.com"},
	})
	svc.bcryptCost = bcrypt.MinCost
	return svc, s
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuth(t)

	resp, err := svc.Register(ctx, models.Credentials{Email: " Jane@Example.com ", Password: "correct horse", FullName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", resp.Profile.Email)
	assert.Equal(t, models.RoleCustomer, resp.Profile.Role)
	assert.NotEmpty(t, resp.Token)

	claims, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, claims.Subject)
	assert.Equal(t, models.RoleCustomer, claims.Role)

	login, err := svc.Login(ctx, models.Credentials{Email: "JANE@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.Profile.ID, login.Profile.ID)

	_, err = svc.Login(ctx, models.Credentials{Email: "jane@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, models.Credentials{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, models.Credentials{Email: "jane@example.com", Password: "another one"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuth(t)

	tests := []struct {
		name  string
		creds models.Credentials
		want  error
	}{
		{"empty email", models.Credentials{Password: "longenough"}, ErrInvalidEmail},
		{"no at sign", models.Credentials{Email: "jane.example.com", Password: "longenough"}, ErrInvalidEmail},
		{"no domain dot", models.Credentials{Email: "jane@localhost", Password: "longenough"}, ErrInvalidEmail},
		{"display name", models.Credentials{Email: "Jane <jane@example.com>", Password: "longenough"}, ErrInvalidEmail},
		{"short password", models.Credentials{Email: "jane@example.com", Password: "short"}, ErrWeakPassword},
		{"password over bcrypt limit", models.Credentials{Email: "jane@example.com", Password: strings.Repeat("p", 73)}, ErrPasswordTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.creds)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_AdminEmails(t *testing.T) {
	svc, _ := newTestAuth(t)
	resp, err := svc.Register(context.Background(), models.Credentials{Email: "Boss@Example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Profile.Role)

	claims, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthService_ParseTokenRejects(t *testing.T) {
	svc, _ := newTestAuth(t)
	resp, err := svc.Register(context.Background(), models.Credentials{Email: "jane@example.com", Password: "supersecret"})
	require.NoError(t, err)

	other := NewAuthService(nil, config.AuthConfig{JWTSecret: "another-secret-0123456789", TokenTTLHours: 1})
	_, err = other.ParseToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := *svc
	later.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_, err = later.ParseToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   resp.Profile.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ParseToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ProfileAndRoles(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuth(t)
	resp, err := svc.Register(ctx, models.Credentials{Email: "jane@example.com", Password: "supersecret"})
	require.NoError(t, err)
	id := resp.Profile.ID

	p, err := svc.UpdateProfile(ctx, id, "  Jane Q. Public ")
	require.NoError(t, err)
	assert.Equal(t, "Jane Q. Public", p.FullName)

	p, err = svc.SetRole(ctx, id, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)

	_, err = svc.SetRole(ctx, id, "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.SetRole(ctx, "00000000-0000-0000-0000-000000000000", models.RoleAdmin)
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	users, err := svc.ListUsers(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "jane@example.com", users[0].Email)
}
