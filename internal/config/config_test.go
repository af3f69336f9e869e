package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventbooking/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.PendingTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 30, cfg.RateLimitUser)
	assert.Equal(t, 100, cfg.RateLimitIP)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("PENDING_TTL", "5m")
	t.Setenv("RATE_LIMIT_USER_PER_MIN", "10")
	t.Setenv("RATE_LIMIT_IP_PER_MIN", "50")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.PendingTTL)
	assert.Equal(t, 10, cfg.RateLimitUser)
	assert.Equal(t, 50, cfg.RateLimitIP)
}

func TestLoadIgnoresInvalidOverrides(t *testing.T) {
	t.Setenv("PENDING_TTL", "not-a-duration")
	t.Setenv("RATE_LIMIT_USER_PER_MIN", "-3")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.PendingTTL)
	assert.Equal(t, 30, cfg.RateLimitUser)
}
