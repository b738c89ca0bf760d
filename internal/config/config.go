package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables.
// A .env file in the working directory is read first when present.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Polar    PolarConfig
	Coupon   CouponConfig
	Storage  StorageConfig
	CORS     CORSConfig
	LogLevel string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTLHours int
	AdminEmails   []string // Profiles registered with these emails get the admin role
}

type PolarConfig struct {
	APIURL        string
	AccessToken   string
	WebhookSecret string
	SuccessURL    string
}

type CouponConfig struct {
	Files []string // Local paths or http(s) URLs; .gz sources are decompressed
}

type StorageConfig struct {
	Driver        string // "s3" or "local"
	LocalDir      string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from the environment, after applying .env if it exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "storefront.db"),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TokenTTLHours: getEnvAsInt("TOKEN_TTL_HOURS", 72),
			AdminEmails:   getEnvAsSlice("ADMIN_EMAILS", nil),
		},
		Polar: PolarConfig{
			APIURL:        getEnv("POLAR_API_URL", "https://api.polar.sh"),
			AccessToken:   os.Getenv("POLAR_ACCESS_TOKEN"),
			WebhookSecret: os.Getenv("POLAR_WEBHOOK_SECRET"),
			SuccessURL:    getEnv("POLAR_SUCCESS_URL", "http://localhost:3000/checkout/success?checkout_id={CHECKOUT_ID}"),
		},
		Coupon: CouponConfig{
			Files: getEnvAsSlice("COUPON_FILES", nil),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			LocalDir:      getEnv("LOCAL_STORAGE_DIR", "uploads"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
			S3Bucket:      os.Getenv("S3_BUCKET"),
			S3Region:      getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:    os.Getenv("S3_ENDPOINT"),
			S3AccessKey:   os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey:   os.Getenv("S3_SECRET_KEY"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}

	if c.Auth.TokenTTLHours <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("LOCAL_STORAGE_DIR is required for the local storage driver")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be local or s3)", c.Storage.Driver)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c AuthConfig) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
