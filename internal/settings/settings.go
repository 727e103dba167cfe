// Package settings loads typed engine configuration from the untyped
// key/value settings table.
package settings

import (
	"fmt"

	dErrors "fiscaltask/pkg/domain-errors"
)

const (
	KeyPaymentRisk    = "payment_risk"
	KeyAutoGeneration = "auto_generation"
)

const (
	DefaultRiskThresholdDays = 3
	DefaultRunDay            = 1
	maxRunDay                = 28
)

// RiskConfig drives the payment-risk sweep.
type RiskConfig struct {
	ThresholdDays int  `json:"threshold_days"`
	Enabled       bool `json:"enabled"`
}

func DefaultRiskConfig() RiskConfig {
	return RiskConfig{ThresholdDays: DefaultRiskThresholdDays, Enabled: true}
}

// AutoGenerationConfig drives scheduled task generation. LastGeneratedPeriod
// is "YYYY-MM" or empty.
type AutoGenerationConfig struct {
	Enabled             bool   `json:"enabled"`
	RunDay              int    `json:"run_day"`
	LastGeneratedPeriod string `json:"last_generated_period,omitempty"`
}

func DefaultAutoGenerationConfig() AutoGenerationConfig {
	return AutoGenerationConfig{Enabled: false, RunDay: DefaultRunDay}
}

// storedRisk distinguishes absent fields from zero values.
type storedRisk struct {
	ThresholdDays *int  `json:"threshold_days"`
	Enabled       *bool `json:"enabled"`
}

func (s storedRisk) resolve() RiskConfig {
	cfg := DefaultRiskConfig()
	if s.ThresholdDays != nil && *s.ThresholdDays > 0 {
		cfg.ThresholdDays = *s.ThresholdDays
	}
	if s.Enabled != nil {
		cfg.Enabled = *s.Enabled
	}
	return cfg
}

type storedAutoGeneration struct {
	Enabled             *bool  `json:"enabled"`
	RunDay              *int   `json:"run_day"`
	LastGeneratedPeriod string `json:"last_generated_period"`
}

func (s storedAutoGeneration) resolve() AutoGenerationConfig {
	cfg := DefaultAutoGenerationConfig()
	if s.Enabled != nil {
		cfg.Enabled = *s.Enabled
	}
	if s.RunDay != nil && *s.RunDay >= 1 && *s.RunDay <= maxRunDay {
		cfg.RunDay = *s.RunDay
	}
	cfg.LastGeneratedPeriod = s.LastGeneratedPeriod
	return cfg
}

func validateRisk(cfg RiskConfig) error {
	if cfg.ThresholdDays < 1 {
		return dErrors.New(dErrors.CodeValidation, "threshold_days must be at least 1")
	}
	return nil
}

func validateRunDay(day int) error {
	if day < 1 || day > maxRunDay {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("run_day must be between 1 and %d", maxRunDay))
	}
	return nil
}
