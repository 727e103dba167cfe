package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fiscaltask/pkg/domain-errors"
)

func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseTaskID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseTaxpayerID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseUserID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(valid), id)
		assert.Equal(t, valid.String(), id.String())
	})
}

func TestParseID_HostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE tasks;--", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaskID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseCodes(t *testing.T) {
	t.Run("trims catalog codes", func(t *testing.T) {
		ob, err := ParseObligationID("  DIOT ")
		require.NoError(t, err)
		assert.Equal(t, ObligationID("DIOT"), ob)
	})

	t.Run("rejects blank and oversized codes", func(t *testing.T) {
		_, err := ParseRegimeCode("  ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = ParseServiceID(strings.Repeat("X", maxCodeLength+1))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errUser := ParseUserID(valid)
		_, errTeam := ParseTeamID(valid)
		_, errTaxpayer := ParseTaxpayerID(valid)
		_, errClient := ParseClientID(valid)
		_, errAbsence := ParseAbsenceID(valid)

		require.NoError(t, errUser)
		require.NoError(t, errTeam)
		require.NoError(t, errTaxpayer)
		require.NoError(t, errClient)
		require.NoError(t, errAbsence)
	})

	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errTeam := ParseTeamID(input)
			_, errTaxpayer := ParseTaxpayerID(input)
			_, errClient := ParseClientID(input)
			_, errAbsence := ParseAbsenceID(input)

			require.Error(t, errUser)
			require.Error(t, errTeam)
			require.Error(t, errTaxpayer)
			require.Error(t, errClient)
			require.Error(t, errAbsence)
		})
	}
}
