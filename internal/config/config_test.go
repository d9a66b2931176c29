package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseMap(t *testing.T, vars map[string]string) (*Config, error) {
	t.Helper()
	if vars == nil {
		vars = map[string]string{}
	}
	return parse(env.Options{Environment: vars})
}

func TestDefaults(t *testing.T) {
	cfg, err := parseMap(t, nil)
	require.NoError(t, err)

	assert.Equal(t, 18, cfg.Users.AgeLimit)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.Context.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, "postgres://users:@localhost:5432/users_db?sslmode=disable", cfg.Database.URL)
	assert.True(t, cfg.Migrations.Enabled)
	assert.False(t, cfg.CacheEnabled())
}

func TestOverrides(t *testing.T) {
	cfg, err := parseMap(t, map[string]string{
		"USER_AGE_LIMIT":   "21",
		"STORE_DRIVER":     "bolt",
		"BOLTDB_PATH":      "/tmp/u.db",
		"SERVER_PORT":      "9000",
		"REQUEST_TIMEOUT":  "750ms",
		"REDIS_URL":        "redis://cache:6379/1",
		"REDIS_CACHE_TTL":  "30s",
		"DATABASE_URL":     "postgres://explicit",
		"RUN_MIGRATIONS":   "false",
		"MONITOR_INTERVAL": "1m",
	})
	require.NoError(t, err)

	assert.Equal(t, 21, cfg.Users.AgeLimit)
	assert.Equal(t, DriverBolt, cfg.Store.Driver)
	assert.Equal(t, "/tmp/u.db", cfg.Store.BoltPath)
	assert.Equal(t, "0.0.0.0:9000", cfg.Address())
	assert.Equal(t, 750*time.Millisecond, cfg.Context.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "postgres://explicit", cfg.Database.URL)
	assert.Equal(t, time.Minute, cfg.Monitor.Interval)
	assert.False(t, cfg.Migrations.Enabled)
	assert.True(t, cfg.CacheEnabled())
}

func TestInvalidSettings(t *testing.T) {
	tests := map[string]map[string]string{
		"negative age limit": {"USER_AGE_LIMIT": "-1"},
		"unknown driver":     {"STORE_DRIVER": "mongo"},
		"negative cache ttl": {"REDIS_CACHE_TTL": "-1s"},
		"not a number":       {"USER_AGE_LIMIT": "eighteen"},
		"not a duration":     {"REQUEST_TIMEOUT": "soon"},
	}

	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseMap(t, vars)
			assert.Error(t, err)
		})
	}
}

func TestZeroAgeLimitIsAllowed(t *testing.T) {
	cfg, err := parseMap(t, map[string]string{"USER_AGE_LIMIT": "0"})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Users.AgeLimit)
}
