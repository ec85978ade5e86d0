package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("HANDLE_COOLDOWN", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 30*24*time.Hour, cfg.HandleCooldown)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", ":memory:")
	t.Setenv("HANDLE_COOLDOWN", "48h")
	t.Setenv("PROPAGATION_CONCURRENCY", "4")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.DSN)
	assert.Equal(t, 48*time.Hour, cfg.HandleCooldown)
	assert.Equal(t, 4, cfg.PropagationConcurrency)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("HANDLE_COOLDOWN", "soon")
	t.Setenv("VOTE_RATE_LIMIT", "-3")

	cfg := Load()

	assert.Equal(t, 30*24*time.Hour, cfg.HandleCooldown)
	assert.Equal(t, 30, cfg.VoteRateLimit)
}
