package pendency

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushHistory(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		got := PushHistory([]string{"b", "a"}, "c", 10)
		assert.Equal(t, []string{"c", "b", "a"}, got)
	})

	t.Run("repeat moves to front", func(t *testing.T) {
		got := PushHistory([]string{"c", "b", "a"}, "a", 10)
		assert.Equal(t, []string{"a", "c", "b"}, got)
	})

	t.Run("capped", func(t *testing.T) {
		var entries []string
		for i := 0; i < 15; i++ {
			entries = PushHistory(entries, fmt.Sprintf("q%d", i), MaxHistoryEntries)
		}
		assert.Len(t, entries, MaxHistoryEntries)
		assert.Equal(t, "q14", entries[0])
		assert.Equal(t, "q5", entries[MaxHistoryEntries-1])
	})

	t.Run("non-positive limit uses default", func(t *testing.T) {
		entries := make([]string, 20)
		for i := range entries {
			entries[i] = fmt.Sprintf("q%d", i)
		}
		assert.Len(t, PushHistory(entries, "new", 0), MaxHistoryEntries)
	})
}

func TestValidateHistoryEntry(t *testing.T) {
	q, err := ValidateHistoryEntry("client-1", "  111.444.777-35 ")
	assert.NoError(t, err)
	assert.Equal(t, "111.444.777-35", q)

	_, err = ValidateHistoryEntry(" ", "x")
	assert.ErrorIs(t, err, ErrEmptyHistoryOwner)

	_, err = ValidateHistoryEntry("client-1", "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}
