package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"fiscaltask/internal/models"
	dErrors "fiscaltask/pkg/domain-errors"
	"fiscaltask/pkg/platform/sentinel"
	"fiscaltask/pkg/requestcontext"
)

// Store reads and writes raw setting rows.
type Store interface {
	GetSetting(ctx context.Context, key string) (json.RawMessage, error)
	PutSetting(ctx context.Context, key string, value json.RawMessage, now time.Time) error
}

// Cache holds raw setting values between reads. A miss returns ok=false.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Service resolves typed configuration with documented defaults.
type Service struct {
	store    Store
	cache    Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache puts cache in front of the store. Writes through the service
// invalidate the cached key.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Risk returns the payment-risk configuration, falling back to defaults when
// the row is missing or unreadable.
func (s *Service) Risk(ctx context.Context) (RiskConfig, error) {
	var stored storedRisk
	found, err := s.load(ctx, KeyPaymentRisk, &stored)
	if err != nil {
		return RiskConfig{}, err
	}
	if !found {
		return DefaultRiskConfig(), nil
	}
	return stored.resolve(), nil
}

// AutoGeneration returns the scheduled generation configuration.
func (s *Service) AutoGeneration(ctx context.Context) (AutoGenerationConfig, error) {
	var stored storedAutoGeneration
	found, err := s.load(ctx, KeyAutoGeneration, &stored)
	if err != nil {
		return AutoGenerationConfig{}, err
	}
	if !found {
		return DefaultAutoGenerationConfig(), nil
	}
	return stored.resolve(), nil
}

func (s *Service) UpdateRisk(ctx context.Context, cfg RiskConfig) (RiskConfig, error) {
	if err := validateRisk(cfg); err != nil {
		return RiskConfig{}, err
	}
	if err := s.save(ctx, KeyPaymentRisk, cfg); err != nil {
		return RiskConfig{}, err
	}
	return cfg, nil
}

// UpdateAutoGeneration changes the schedule and keeps the last generated period.
func (s *Service) UpdateAutoGeneration(ctx context.Context, enabled bool, runDay int) (AutoGenerationConfig, error) {
	if err := validateRunDay(runDay); err != nil {
		return AutoGenerationConfig{}, err
	}
	cfg, err := s.AutoGeneration(ctx)
	if err != nil {
		return AutoGenerationConfig{}, err
	}
	cfg.Enabled = enabled
	cfg.RunDay = runDay
	if err := s.save(ctx, KeyAutoGeneration, cfg); err != nil {
		return AutoGenerationConfig{}, err
	}
	return cfg, nil
}

// MarkGenerated records period as the last automatically generated one.
func (s *Service) MarkGenerated(ctx context.Context, period models.Period) error {
	cfg, err := s.AutoGeneration(ctx)
	if err != nil {
		return err
	}
	cfg.LastGeneratedPeriod = period.String()
	return s.save(ctx, KeyAutoGeneration, cfg)
}

// Invalidate drops the cached value for key.
func (s *Service) Invalidate(ctx context.Context, key string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, cacheKey(key)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "invalidate setting cache")
	}
	return nil
}

func (s *Service) load(ctx context.Context, key string, dest any) (bool, error) {
	raw, found, err := s.raw(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		s.logger.WarnContext(ctx, "setting not found, using defaults", "key", key)
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.WarnContext(ctx, "setting unreadable, using defaults", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *Service) raw(ctx context.Context, key string) ([]byte, bool, error) {
	if s.cache != nil {
		v, ok, err := s.cache.Get(ctx, cacheKey(key))
		if err != nil {
			s.logger.WarnContext(ctx, "setting cache read failed", "key", key, "error", err)
		} else if ok {
			return v, true, nil
		}
	}

	raw, err := s.store.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "load setting")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(key), raw, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "setting cache write failed", "key", key, "error", err)
		}
	}
	return raw, true, nil
}

func (s *Service) save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode setting")
	}
	if err := s.store.PutSetting(ctx, key, raw, requestcontext.Now(ctx)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save setting")
	}
	if err := s.Invalidate(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "setting cache invalidation failed", "key", key, "error", err)
	}
	return nil
}

func cacheKey(key string) string {
	return "settings:" + key
}
