package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"FISCAL_ADDR", "DATABASE_URL", "KAFKA_BROKERS", "GENERATION_CHUNK_SIZE", "SCHEDULER_INTERVAL", "SCHEDULER_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultGenerationChunkSize, cfg.Engine.GenerationChunkSize)
	assert.Equal(t, DefaultSchedulerInterval, cfg.Scheduler.Interval)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.NotEmpty(t, cfg.APISigningKey)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FISCAL_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("GENERATION_CHUNK_SIZE", "50")
	t.Setenv("SCHEDULER_INTERVAL", "30s")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("SETTINGS_CACHE_TTL", "1m")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 50, cfg.Engine.GenerationChunkSize)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Interval)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, time.Minute, cfg.Redis.CacheTTL)
}

func TestFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("GENERATION_CHUNK_SIZE", "-3")
	t.Setenv("SCHEDULER_INTERVAL", "soon")

	cfg := FromEnv()

	assert.Equal(t, DefaultGenerationChunkSize, cfg.Engine.GenerationChunkSize)
	assert.Equal(t, DefaultSchedulerInterval, cfg.Scheduler.Interval)
}
