package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_USER", "duel")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("PG_DATABASE", "duel")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JUDGE_SANDBOX_URL", "http://sandbox:9000")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "duel-platform", cfg.Name)
	assert.Equal(t, 120*time.Second, cfg.Matchmaking.QueueTTL)
	assert.Equal(t, 300, cfg.Matchmaking.BaseTolerance)
	assert.Equal(t, 1000, cfg.Matchmaking.MaxTolerance)
	assert.Equal(t, 4, cfg.Judge.Workers)
	assert.Equal(t, 40, cfg.Rating.KProvisional)
	assert.Equal(t, 24, cfg.Rating.KStandard)
	assert.Equal(t, 100, cfg.Rating.Floor)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MM_QUEUE_TTL", "45s")
	t.Setenv("JUDGE_WORKERS", "12")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Matchmaking.QueueTTL)
	assert.Equal(t, 12, cfg.Judge.Workers)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JUDGE_SANDBOX_URL", "")

	_, err := Load(context.Background())
	assert.Error(t, err)
}
