package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/dealerd/internal/deck"
)

func hand(cards ...string) []deck.Card {
	out := make([]deck.Card, len(cards))
	for i, s := range cards {
		out[i] = deck.MustParse(s)
	}
	return out
}

func TestHandCategories(t *testing.T) {
	tests := []struct {
		name  string
		cards []string
		want  string
	}{
		{"royal flush", []string{"As", "Ks", "Qs", "Js", "Ts", "2d", "3c"}, "Straight Flush"},
		{"straight flush", []string{"9h", "8h", "7h", "6h", "5h", "As", "Ad"}, "Straight Flush"},
		{"wheel straight flush", []string{"Ah", "2h", "3h", "4h", "5h", "Ks", "Qd"}, "Straight Flush"},
		{"four of a kind", []string{"Ks", "Kh", "Kd", "Kc", "2s", "3d", "4c"}, "Four of a Kind"},
		{"full house", []string{"Qs", "Qh", "Qd", "2c", "2s", "7d", "9c"}, "Full House"},
		{"flush", []string{"As", "Js", "8s", "5s", "2s", "Kd", "Qh"}, "Flush"},
		{"straight", []string{"9s", "8h", "7d", "6c", "5s", "Ad", "Kh"}, "Straight"},
		{"wheel straight", []string{"As", "2h", "3d", "4c", "5s", "Kd", "9h"}, "Straight"},
		{"three of a kind", []string{"7s", "7h", "7d", "Ac", "Ks", "4d", "2h"}, "Three of a Kind"},
		{"two pair", []string{"Js", "Jh", "4d", "4c", "As", "8d", "2h"}, "Two Pair"},
		{"pair", []string{"9s", "9h", "Ad", "Kc", "7s", "4d", "2h"}, "Pair"},
		{"high card", []string{"As", "Jh", "9d", "7c", "5s", "3d", "2h"}, "High Card"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rank := Evaluate7(hand(tt.cards...))
			assert.Equal(t, tt.want, rank.String())
		})
	}
}

func TestCategoryOrdering(t *testing.T) {
	// Strongest to weakest; every hand must outrank the next
	hands := [][]string{
		{"As", "Ks", "Qs", "Js", "Ts", "2d", "3c"}, // royal
		{"9h", "8h", "7h", "6h", "5h", "2s", "3d"}, // straight flush
		{"Ks", "Kh", "Kd", "Kc", "2s", "3d", "4c"}, // quads
		{"Qs", "Qh", "Qd", "2c", "2s", "7d", "9c"}, // full house
		{"As", "Js", "8s", "5s", "2s", "Kd", "Qh"}, // flush
		{"9s", "8h", "7d", "6c", "5s", "Ad", "Kh"}, // straight
		{"7s", "7h", "7d", "Ac", "Ks", "4d", "2h"}, // trips
		{"Js", "Jh", "4d", "4c", "As", "8d", "2h"}, // two pair
		{"9s", "9h", "Ad", "Kc", "7s", "4d", "2h"}, // pair
		{"As", "Jh", "9d", "7c", "5s", "3d", "2h"}, // high card
	}

	for i := 0; i < len(hands)-1; i++ {
		stronger := Evaluate7(hand(hands[i]...))
		weaker := Evaluate7(hand(hands[i+1]...))
		assert.Less(t, stronger, weaker, "%v should beat %v", hands[i], hands[i+1])
	}
}

func TestKickersDecide(t *testing.T) {
	// Same pair of kings, ace kicker beats queen kicker
	aceKicker := Evaluate7(hand("Ks", "Kh", "Ad", "9c", "7s", "4d", "2h"))
	queenKicker := Evaluate7(hand("Ks", "Kh", "Qd", "9c", "7s", "4d", "2h"))
	assert.Less(t, aceKicker, queenKicker)

	// Higher flush beats lower flush
	aceFlush := Evaluate7(hand("As", "Js", "8s", "5s", "2s", "Kd", "Qh"))
	kingFlush := Evaluate7(hand("Ks", "Js", "8s", "5s", "2s", "Ad", "Qh"))
	assert.Less(t, aceFlush, kingFlush)

	// Quad kicker
	aceQuadKicker := Evaluate7(hand("Ks", "Kh", "Kd", "Kc", "As", "3d", "4c"))
	nineQuadKicker := Evaluate7(hand("Ks", "Kh", "Kd", "Kc", "9s", "3d", "4c"))
	assert.Less(t, aceQuadKicker, nineQuadKicker)
}

func TestExactTiesAreEqual(t *testing.T) {
	// Identical ranks in different suits: the classic split pot
	h1 := Evaluate7(hand("Ah", "Kh", "Qs", "Jd", "Tc", "4s", "2d"))
	h2 := Evaluate7(hand("Ad", "Kc", "Qs", "Jd", "Tc", "4s", "2d"))
	assert.Equal(t, h1, h2)

	// Board plays for both
	board := []string{"As", "Ah", "Ad", "Ac", "Ks"}
	p1 := Evaluate7(hand(append([]string{"2d", "3c"}, board...)...))
	p2 := Evaluate7(hand(append([]string{"4h", "5s"}, board...)...))
	assert.Equal(t, p1, p2)
}

func TestWheelIsWeakestStraight(t *testing.T) {
	wheel := Evaluate7(hand("As", "2h", "3d", "4c", "5s", "Kd", "9h"))
	sixHigh := Evaluate7(hand("2h", "3d", "4c", "5s", "6d", "Kd", "9h"))
	assert.Less(t, sixHigh, wheel)

	require.Equal(t, "Straight", wheel.String())
	require.Equal(t, "Straight", sixHigh.String())
}

func TestBestFiveOfSeven(t *testing.T) {
	// Two pair on the board plus a higher pair in hand: trips don't exist,
	// the best hand is aces up, not the board's pair
	rank := Evaluate7(hand("As", "Ah", "Kd", "Kc", "4s", "4d", "2h"))
	assert.Equal(t, "Two Pair", rank.String())

	// Three pairs: only the top two play, best kicker completes
	withAceKicker := Evaluate7(hand("Ks", "Kh", "Qd", "Qc", "4s", "4d", "Ah"))
	withJackKicker := Evaluate7(hand("Ks", "Kh", "Qd", "Qc", "4s", "4d", "Jh"))
	assert.Less(t, withAceKicker, withJackKicker)
}

func TestTwoTripsMakeFullHouse(t *testing.T) {
	rank := Evaluate7(hand("Ks", "Kh", "Kd", "Qs", "Qh", "Qd", "2c"))
	assert.Equal(t, "Full House", rank.String())

	// Kings full of queens beats queens full of kings
	other := Evaluate7(hand("Qs", "Qh", "Qd", "Ks", "Kh", "2d", "3c"))
	assert.Equal(t, "Full House", other.String())
	assert.Less(t, rank, other)
}
