package handid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducesValidIDs(t *testing.T) {
	id := New()
	assert.Len(t, id, 26)
	assert.NoError(t, Validate(id))
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestIDsSortByCreationTime(t *testing.T) {
	first := New()
	time.Sleep(2 * time.Millisecond)
	second := New()

	assert.Less(t, first, second, "later IDs must sort after earlier ones")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(New()))

	tests := []struct {
		name string
		id   string
	}{
		{"too short", "abc"},
		{"too long", "00000000000000000000000000x"},
		{"uppercase", "0123456789ABCDEFGHJKMNPQRS"},
		{"excluded letter", "u1234567890123456789012345"},
		{"first char out of range", "z0000000000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.id))
		})
	}
}
