package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultGenerationChunkSize = 500
	DefaultSchedulerInterval   = time.Minute
	DefaultSettingsCacheTTL    = 5 * time.Minute
	DefaultOutboxBatchSize     = 100
)

// Server captures process configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	APISigningKey string
	LogLevel      string
	LogFormat     string

	Redis     RedisConfig
	Kafka     KafkaConfig
	Engine    EngineConfig
	Scheduler SchedulerConfig
}

// RedisConfig configures the optional settings cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the task event relay. An empty broker list
// disables the relay.
type KafkaConfig struct {
	Brokers         []string
	TaskEventsTopic string
	BatchSize       int
	PollInterval    time.Duration
}

type EngineConfig struct {
	GenerationChunkSize int
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	signingKey := os.Getenv("API_SIGNING_KEY")
	if signingKey == "" {
		// Use a default for development - should be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          envString("FISCAL_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		APISigningKey: signingKey,
		LogLevel:      envString("LOG_LEVEL", "info"),
		LogFormat:     envString("LOG_FORMAT", "json"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     envDuration("SETTINGS_CACHE_TTL", DefaultSettingsCacheTTL),
		},
		Kafka: KafkaConfig{
			Brokers:         splitList(os.Getenv("KAFKA_BROKERS")),
			TaskEventsTopic: envString("KAFKA_TASK_EVENTS_TOPIC", "fiscaltask.task-events"),
			BatchSize:       envInt("OUTBOX_BATCH_SIZE", DefaultOutboxBatchSize),
			PollInterval:    time.Second,
		},
		Engine: EngineConfig{
			GenerationChunkSize: envInt("GENERATION_CHUNK_SIZE", DefaultGenerationChunkSize),
		},
		Scheduler: SchedulerConfig{
			Enabled:  envString("SCHEDULER_ENABLED", "true") == "true",
			Interval: envDuration("SCHEDULER_INTERVAL", DefaultSchedulerInterval),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt falls back to def for unset, malformed or non-positive values.
func envInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
