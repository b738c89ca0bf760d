package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lixing-Zhang/storefront/internal/config"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

const (
	minPasswordLength = 8
	// bcrypt only hashes the first 72 bytes and refuses longer input.
	maxPasswordLength = 72
)

// Claims are the JWT claims issued at login. Subject holds the profile ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService registers profiles and issues and verifies access tokens
type AuthService struct {
	profiles   *repository.ProfileRepository
	cfg        config.AuthConfig
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(profiles *repository.ProfileRepository, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		profiles:   profiles,
		cfg:        cfg,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Register creates a customer profile, or an admin one for ADMIN_EMAILS, and logs it in
func (s *AuthService) Register(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, err
	}
	if len(creds.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if len(creds.Password) > maxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := models.RoleCustomer
	if s.cfg.IsAdminEmail(email) {
		role = models.RoleAdmin
	}
	p := &models.Profile{
		Email:        email,
		FullName:     strings.TrimSpace(creds.FullName),
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.issue(p)
}

// Login checks the password and issues a token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	p, err := s.profiles.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(p)
}

func (s *AuthService) issue(p *models.Profile) (*models.AuthResponse, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(time.Duration(s.cfg.TokenTTLHours) * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &models.AuthResponse{Token: signed, ExpiresAt: expiresAt.UTC(), Profile: *p}, nil
}

// ParseToken verifies an HS256 token and returns its claims
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(s.cfg.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// UpdateProfile changes the editable profile fields
func (s *AuthService) UpdateProfile(ctx context.Context, id, fullName string) (*models.Profile, error) {
	if err := s.profiles.UpdateName(ctx, id, strings.TrimSpace(fullName)); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, id)
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]models.Profile, error) {
	return s.profiles.List(ctx, limit, offset)
}

// SetRole grants or revokes admin rights
func (s *AuthService) SetRole(ctx context.Context, id, role string) (*models.Profile, error) {
	if role != models.RoleCustomer && role != models.RoleAdmin {
		return nil, ErrInvalidRole
	}
	if err := s.profiles.SetRole(ctx, id, role); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, id)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", ErrInvalidEmail
	}
	return email, nil
}
