package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrationsAreOrderedAndFiltered(t *testing.T) {
	all, err := pendingMigrations(map[int]bool{})
	require.NoError(t, err)
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].version, all[i].version)
	}

	rest, err := pendingMigrations(map[int]bool{all[0].version: true})
	require.NoError(t, err)
	assert.Len(t, rest, len(all)-1)
}

func TestInitialMigrationDeclaresTaskKey(t *testing.T) {
	all, err := pendingMigrations(map[int]bool{})
	require.NoError(t, err)
	assert.Contains(t, all[1].sql, "UNIQUE (taxpayer_id, obligation_id, period)")
}
