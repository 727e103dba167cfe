package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"fiscaltask/internal/generation"
	jwttoken "fiscaltask/internal/jwt_token"
	"fiscaltask/internal/outbox"
	"fiscaltask/internal/platform/config"
	"fiscaltask/internal/platform/httpserver"
	"fiscaltask/internal/platform/logger"
	"fiscaltask/internal/platform/metrics"
	"fiscaltask/internal/platform/postgres"
	platformredis "fiscaltask/internal/platform/redis"
	"fiscaltask/internal/reassignment"
	"fiscaltask/internal/risk"
	"fiscaltask/internal/scheduler"
	"fiscaltask/internal/settings"
	"fiscaltask/internal/store/memory"
	pgstore "fiscaltask/internal/store/postgres"
	httptransport "fiscaltask/internal/transport/http"
)

// store is everything the engines, settings and relay need from persistence.
type store interface {
	generation.Store
	reassignment.Store
	risk.Store
	settings.Store
	outbox.Store
	Ping(ctx context.Context) error
}

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	settingsOpts := []settings.Option{settings.WithLogger(log)}
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		settingsOpts = append(settingsOpts, settings.WithCache(settings.NewRedisCache(redisClient.Client), cfg.Redis.CacheTTL))
		log.Info("settings cache enabled", "ttl", cfg.Redis.CacheTTL.String())
	}
	settingsService := settings.New(st, settingsOpts...)

	generationService := generation.New(st,
		generation.WithLogger(log),
		generation.WithMetrics(m),
		generation.WithChunkSize(cfg.Engine.GenerationChunkSize),
	)
	reassignmentService := reassignment.New(st, reassignment.WithLogger(log), reassignment.WithMetrics(m))
	riskService := risk.New(st, settingsService, risk.WithLogger(log), risk.WithMetrics(m))

	jwtService := jwttoken.NewJWTService(cfg.APISigningKey, jwttoken.Issuer, jwttoken.Audience)
	health := func(ctx context.Context) error {
		if err := st.Ping(ctx); err != nil {
			return err
		}
		return redisClient.Health(ctx)
	}
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Handler:   httptransport.New(generationService, reassignmentService, riskService, settingsService, log),
		Validator: jwtService,
		Gatherer:  reg,
		Health:    health,
		Logger:    log,
	})
	srv := httpserver.New(cfg.Addr, router)

	relay, closeRelay, err := newRelay(ctx, cfg, st, log, m)
	if err != nil {
		return err
	}
	defer closeRelay()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting fiscaltask", "addr", cfg.Addr)
		return httpserver.Run(ctx, srv)
	})
	if cfg.Scheduler.Enabled {
		runner := scheduler.New(generationService, reassignmentService, riskService, settingsService, st,
			scheduler.WithLogger(log),
			scheduler.WithMetrics(m),
			scheduler.WithInterval(cfg.Scheduler.Interval),
		)
		g.Go(func() error { return runner.Run(ctx) })
	}
	if relay != nil {
		g.Go(func() error { return relay.Run(ctx) })
	}

	return g.Wait()
}

// openStore uses Postgres when DATABASE_URL is set and an in-memory store
// otherwise.
func openStore(ctx context.Context, cfg config.Server, log *slog.Logger) (store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		return memory.New(), func() {}, nil
	}

	db, err := postgres.Open(ctx, postgres.Config{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("connected to postgres")
	return pgstore.New(db), func() { _ = db.Close() }, nil
}

// newRelay connects the Kafka producer and makes sure the task events topic
// exists. It returns a nil relay when no brokers are configured.
func newRelay(ctx context.Context, cfg config.Server, st store, log *slog.Logger, m *metrics.Metrics) (*outbox.Relay, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, task event relay disabled")
		return nil, func() {}, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Kafka.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(10*time.Millisecond),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := outbox.EnsureTopic(ctx, kadm.NewClient(client), cfg.Kafka.TaskEventsTopic, -1, -1); err != nil {
		client.Close()
		return nil, nil, err
	}

	relay := outbox.NewRelay(st, client, cfg.Kafka.TaskEventsTopic,
		outbox.WithLogger(log),
		outbox.WithMetrics(m),
		outbox.WithBatchSize(cfg.Kafka.BatchSize),
		outbox.WithPollInterval(cfg.Kafka.PollInterval),
	)
	return relay, client.Close, nil
}
