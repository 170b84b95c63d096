package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(8001)
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.ServerPort)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "./weight-tracker.db", cfg.DatabaseURL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "k")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/weights")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://app.example.com")

	cfg, err := Load(8000)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, "postgres://u:p@db:5432/weights", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowedOrigins)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load(8000)
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DATABASE_DRIVER", "mysql"},
		{"negative ttl", "TOKEN_TTL", "-1h"},
		{"port out of range", "PORT", "70000"},
		{"port not a number", "PORT", "http"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "k")
			t.Setenv(tt.key, tt.val)

			_, err := Load(8000)
			require.Error(t, err)
		})
	}
}
