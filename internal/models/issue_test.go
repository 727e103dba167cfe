package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssues(t *testing.T) {
	t.Run("informational issues do not fail a run", func(t *testing.T) {
		var is Issues
		is.Add(IssueInformational, "RFC010101AAA", "taxpayer has no client association", nil)
		assert.False(t, is.Failed())
		assert.Equal(t, []string{"RFC010101AAA: taxpayer has no client association"}, is.Strings())
	})

	t.Run("persistence issues fail a run", func(t *testing.T) {
		var is Issues
		is.Add(IssueInformational, "", "nothing to do", nil)
		is.Add(IssuePersistence, "chunk 2", "insert tasks", errors.New("connection reset"))
		assert.True(t, is.Failed())
		assert.Equal(t, 1, is.Count(IssuePersistence))
		assert.Equal(t, "chunk 2: insert tasks: connection reset", is[1].String())
	})

	t.Run("empty issues render as empty list", func(t *testing.T) {
		var is Issues
		assert.NotNil(t, is.Strings())
		assert.Empty(t, is.Strings())
	})
}
