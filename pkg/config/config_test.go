package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "plantmd", cfg.Database.Database)
	assert.Equal(t, 30*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Lookup.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.SessionTTL)
	assert.Equal(t, time.Hour, cfg.Session.EnrichmentTTL)
	assert.Equal(t, []string{"tomato", "corn", "rice", "potato"}, cfg.Plants.Supported)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CLASSIFIER_TIMEOUT", "45s")
	t.Setenv("PLANTS", "Tomato, corn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, []string{"tomato", "corn"}, cfg.Plants.Supported)
}

func TestPlantsIsSupported(t *testing.T) {
	plants := PlantsConfig{Supported: []string{"tomato", "corn"}}

	assert.True(t, plants.IsSupported("tomato"))
	assert.True(t, plants.IsSupported("Corn"))
	assert.False(t, plants.IsSupported("rice"))
	assert.False(t, plants.IsSupported(""))
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "plantmd",
		Password: "secret",
		Database: "plantmd",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=plantmd password=secret dbname=plantmd sslmode=require",
		db.DatabaseDSN(),
	)
}

func TestRedisAddr(t *testing.T) {
	redis := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", redis.RedisAddr())
}
