package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "storefront.db", cfg.Database.Path)
	assert.Equal(t, 72, cfg.Auth.TokenTTLHours)
	assert.Equal(t, "https://api.polar.sh", cfg.Polar.APIURL)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("READ_TIMEOUT", "5")
	t.Setenv("ADMIN_EMAILS", "boss@shop.test, ops@shop.test ,")
	t.Setenv("COUPON_FILES", "a.txt,b.txt")
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("S3_BUCKET", "images")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"boss@shop.test", "ops@shop.test"}, cfg.Auth.AdminEmails)
	assert.Equal(t, []string{"a.txt", "b.txt"}, cfg.Coupon.Files)
	assert.Equal(t, "s3", cfg.Storage.Driver)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WRITE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Server.WriteTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{Path: "x.db"},
			Auth:     AuthConfig{JWTSecret: "0123456789abcdef", TokenTTLHours: 1},
			Storage:  StorageConfig{Driver: "local", LocalDir: "uploads"},
			LogLevel: "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"missing database", func(c *Config) { c.Database.Path = "" }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTLHours = 0 }, true},
		{"s3 without bucket", func(c *Config) { c.Storage.Driver = "s3" }, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "ftp" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthConfig_IsAdminEmail(t *testing.T) {
	c := AuthConfig{AdminEmails: []string{"Boss@Shop.test"}}
	assert.True(t, c.IsAdminEmail("boss@shop.test"))
	assert.False(t, c.IsAdminEmail("customer@shop.test"))
}
