package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalDeckOrder(t *testing.T) {
	cards := New()
	require.Len(t, cards, 52)

	// Ranks outer, suits inner
	assert.Equal(t, "2s", cards[0].String())
	assert.Equal(t, "2h", cards[1].String())
	assert.Equal(t, "2d", cards[2].String())
	assert.Equal(t, "2c", cards[3].String())
	assert.Equal(t, "3s", cards[4].String())
	assert.Equal(t, "As", cards[48].String())
	assert.Equal(t, "Ac", cards[51].String())

	seen := make(map[Card]bool)
	for _, c := range cards {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
}

func TestParse(t *testing.T) {
	c, err := Parse("As")
	require.NoError(t, err)
	assert.Equal(t, Ace, c.Rank)
	assert.Equal(t, Spades, c.Suit)

	c, err = Parse("Th")
	require.NoError(t, err)
	assert.Equal(t, Ten, c.Rank)
	assert.Equal(t, Hearts, c.Suit)

	for _, bad := range []string{"", "A", "Asx", "1s", "Ax"} {
		_, err := Parse(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}

func TestCardJSON(t *testing.T) {
	data, err := json.Marshal(MustParse("Kd"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"rank":"K","suit":"d"}`, string(data))

	var c Card
	require.NoError(t, json.Unmarshal([]byte(`{"rank":"7","suit":"c"}`), &c))
	assert.Equal(t, MustParse("7c"), c)
}
