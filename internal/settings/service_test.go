package settings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fiscaltask/internal/models"
	"fiscaltask/internal/store/memory"
	dErrors "fiscaltask/pkg/domain-errors"
)

type mapCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	getErr  error
	deletes []string
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	c.deletes = append(c.deletes, key)
	return nil
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	cache   *mapCache
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.cache = newMapCache()
	s.service = New(s.store,
		WithCache(s.cache, time.Minute),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func (s *ServiceSuite) putRaw(key, value string) {
	s.Require().NoError(s.store.PutSetting(s.ctx, key, json.RawMessage(value), time.Now()))
}

func (s *ServiceSuite) TestRiskDefaults() {
	s.Run("missing row", func() {
		cfg, err := s.service.Risk(s.ctx)
		s.Require().NoError(err)
		s.Equal(DefaultRiskConfig(), cfg)
	})

	s.Run("non-positive threshold falls back", func() {
		s.putRaw(KeyPaymentRisk, `{"threshold_days": 0, "enabled": false}`)
		s.Require().NoError(s.service.Invalidate(s.ctx, KeyPaymentRisk))

		cfg, err := s.service.Risk(s.ctx)
		s.Require().NoError(err)
		s.Equal(RiskConfig{ThresholdDays: DefaultRiskThresholdDays, Enabled: false}, cfg)
	})

	s.Run("unreadable row falls back", func() {
		s.putRaw(KeyPaymentRisk, `"three"`)
		s.Require().NoError(s.service.Invalidate(s.ctx, KeyPaymentRisk))

		cfg, err := s.service.Risk(s.ctx)
		s.Require().NoError(err)
		s.Equal(DefaultRiskConfig(), cfg)
	})
}

func (s *ServiceSuite) TestRiskIsCached() {
	s.putRaw(KeyPaymentRisk, `{"threshold_days": 5, "enabled": true}`)

	cfg, err := s.service.Risk(s.ctx)
	s.Require().NoError(err)
	s.Equal(5, cfg.ThresholdDays)

	// A direct row change is invisible until the key is invalidated.
	s.putRaw(KeyPaymentRisk, `{"threshold_days": 9, "enabled": true}`)
	cfg, err = s.service.Risk(s.ctx)
	s.Require().NoError(err)
	s.Equal(5, cfg.ThresholdDays)

	s.Require().NoError(s.service.Invalidate(s.ctx, KeyPaymentRisk))
	cfg, err = s.service.Risk(s.ctx)
	s.Require().NoError(err)
	s.Equal(9, cfg.ThresholdDays)
}

func (s *ServiceSuite) TestCacheReadFailureFallsBackToStore() {
	s.putRaw(KeyPaymentRisk, `{"threshold_days": 7, "enabled": true}`)
	s.cache.getErr = errors.New("redis down")

	cfg, err := s.service.Risk(s.ctx)
	s.Require().NoError(err)
	s.Equal(7, cfg.ThresholdDays)
}

func (s *ServiceSuite) TestUpdateRisk() {
	s.Run("writes and invalidates", func() {
		_, err := s.service.Risk(s.ctx)
		s.Require().NoError(err)

		updated, err := s.service.UpdateRisk(s.ctx, RiskConfig{ThresholdDays: 10, Enabled: false})
		s.Require().NoError(err)
		s.Equal(10, updated.ThresholdDays)
		s.Contains(s.cache.deletes, "settings:"+KeyPaymentRisk)

		cfg, err := s.service.Risk(s.ctx)
		s.Require().NoError(err)
		s.Equal(RiskConfig{ThresholdDays: 10, Enabled: false}, cfg)
	})

	s.Run("rejects zero threshold", func() {
		_, err := s.service.UpdateRisk(s.ctx, RiskConfig{ThresholdDays: 0})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestAutoGeneration() {
	s.Run("defaults", func() {
		cfg, err := s.service.AutoGeneration(s.ctx)
		s.Require().NoError(err)
		s.Equal(DefaultAutoGenerationConfig(), cfg)
	})

	s.Run("update keeps last generated period", func() {
		s.Require().NoError(s.service.MarkGenerated(s.ctx, models.Period{Year: 2025, Month: time.March}))

		cfg, err := s.service.UpdateAutoGeneration(s.ctx, true, 5)
		s.Require().NoError(err)
		s.Equal(AutoGenerationConfig{Enabled: true, RunDay: 5, LastGeneratedPeriod: "2025-03"}, cfg)

		reloaded, err := s.service.AutoGeneration(s.ctx)
		s.Require().NoError(err)
		s.Equal(cfg, reloaded)
	})

	s.Run("rejects run day outside 1..28", func() {
		for _, day := range []int{0, 29, 31} {
			_, err := s.service.UpdateAutoGeneration(s.ctx, true, day)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})
}
