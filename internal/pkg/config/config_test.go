package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "memory", cfg.SessionStore)
	assert.Equal(t, "ALPHA BETA", cfg.DefaultChapterName)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 3, cfg.Identity.MaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.Identity.SessionTimeout)
	assert.Equal(t, 4*time.Second, cfg.Identity.ProfileTimeout)
	assert.Equal(t, 30*time.Second, cfg.Identity.ProfileTTL)
	assert.Equal(t, "admin@alphabeta.org", cfg.Bootstrap.AdminEmail)
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      "s3cret",
		"STORAGE_BACKEND": "postgres",
		"SESSION_STORE":   "redis",
		"SESSION_TTL":     "2h",
		"REDIS_ADDR":      "cache:6379",
	}))
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, "redis", cfg.SessionStore)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestLoadWith_RequiresSecret(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	assert.Error(t, err)
}

func TestLoadWith_RejectsUnknownBackend(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      "s3cret",
		"STORAGE_BACKEND": "sqlite",
	}))
	assert.ErrorContains(t, err, "STORAGE_BACKEND")
}
