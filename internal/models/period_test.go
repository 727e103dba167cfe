package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fiscaltask/pkg/domain-errors"
)

func TestParsePeriod(t *testing.T) {
	t.Run("accepts YYYY-MM", func(t *testing.T) {
		p, err := ParsePeriod("2025-03")
		require.NoError(t, err)
		assert.Equal(t, Period{Year: 2025, Month: time.March}, p)
		assert.Equal(t, "2025-03", p.String())
	})

	for _, bad := range []string{"", "2025-13", "2025-3", "03-2025", "2025-03-01"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParsePeriod(bad)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestPeriodDueDate(t *testing.T) {
	tests := []struct {
		period string
		want   string
	}{
		{"2025-03", "2025-04-17"},
		{"2025-11", "2025-12-17"},
		{"2025-12", "2026-01-17"},
		{"2024-01", "2024-02-17"},
	}
	for _, tt := range tests {
		p, err := ParsePeriod(tt.period)
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.DueDate().Format("2006-01-02"), tt.period)
	}
}

func TestPeriodBounds(t *testing.T) {
	p := Period{Year: 2024, Month: time.February}
	assert.Equal(t, "2024-02-01", p.FirstDay().Format("2006-01-02"))
	assert.Equal(t, "2024-02-29", p.LastDay().Format("2006-01-02"))
}
