// Package evaluator ranks 7-card holdem hands.
//
// Hands are reduced to per-suit rank bitmasks and scored into a single
// HandRank where lower is stronger. Equal hands (same category, same
// significant ranks) produce equal HandRank values, so showdown ties are
// exact.
package evaluator

import (
	"math/bits"

	"github.com/lox/dealerd/internal/deck"
)

// HandRank is a total-order score for a 7-card hand. Lower is stronger.
//
// Encoding: category<<20 | tiebreak, where tiebreak packs the significant
// card ranks as 4-bit nibbles of (14 - rank), most significant first. Both
// halves shrink as hands get stronger, so integer comparison is the full
// ordering.
type HandRank uint32

// Hand categories, strongest first.
const (
	StraightFlush = iota + 1
	FourOfAKind
	FullHouse
	Flush
	Straight
	ThreeOfAKind
	TwoPair
	Pair
	HighCard
)

// Category returns the hand category constant for this rank.
func (h HandRank) Category() int {
	return int(h >> 20)
}

// String returns the hand class name ("Full House", "Two Pair", ...).
func (h HandRank) String() string {
	switch h.Category() {
	case StraightFlush:
		return "Straight Flush"
	case FourOfAKind:
		return "Four of a Kind"
	case FullHouse:
		return "Full House"
	case Flush:
		return "Flush"
	case Straight:
		return "Straight"
	case ThreeOfAKind:
		return "Three of a Kind"
	case TwoPair:
		return "Two Pair"
	case Pair:
		return "Pair"
	case HighCard:
		return "High Card"
	default:
		return "Unknown"
	}
}

// Evaluate7 ranks a 7-card hand (2 hole + 5 community cards).
func Evaluate7(cards []deck.Card) HandRank {
	var suitMasks [4]uint16
	for _, c := range cards {
		suitMasks[c.Suit] |= 1 << (int(c.Rank) - 2)
	}
	ranks := suitMasks[0] | suitMasks[1] | suitMasks[2] | suitMasks[3]

	// Flush: at most one suit can hold 5+ of 7 cards
	var flushRanks uint16
	for _, sm := range suitMasks {
		if bits.OnesCount16(sm) >= 5 {
			flushRanks = sm
			break
		}
	}

	if flushRanks != 0 {
		if high := straightHigh(flushRanks); high != 0 {
			return score(StraightFlush, high)
		}
	}

	// Rank multiplicities, scanned ace first so kickers fall out in order
	var quad, trip, secondTrip, highPair, lowPair int
	var singles []int
	for r := 14; r >= 2; r-- {
		count := 0
		for _, sm := range suitMasks {
			if sm&(1<<(r-2)) != 0 {
				count++
			}
		}
		switch count {
		case 4:
			quad = r
		case 3:
			if trip == 0 {
				trip = r
			} else if secondTrip == 0 {
				secondTrip = r
			}
		case 2:
			if highPair == 0 {
				highPair = r
			} else if lowPair == 0 {
				lowPair = r
			}
		case 1:
			singles = append(singles, r)
		}
	}

	if quad != 0 {
		kicker := bestExcluding(ranks, quad)
		return score(FourOfAKind, quad, kicker)
	}

	if trip != 0 && (highPair != 0 || secondTrip != 0) {
		pair := highPair
		// Two trips: the lower trip plays as the pair
		if secondTrip != 0 && secondTrip > pair {
			pair = secondTrip
		}
		return score(FullHouse, trip, pair)
	}

	if flushRanks != 0 {
		return score(Flush, topRanks(flushRanks, 5)...)
	}

	if high := straightHigh(ranks); high != 0 {
		return score(Straight, high)
	}

	if trip != 0 {
		return score(ThreeOfAKind, trip, singles[0], singles[1])
	}

	if lowPair != 0 {
		kicker := bestExcluding(ranks, highPair, lowPair)
		return score(TwoPair, highPair, lowPair, kicker)
	}

	if highPair != 0 {
		return score(Pair, highPair, singles[0], singles[1], singles[2])
	}

	return score(HighCard, singles[0], singles[1], singles[2], singles[3], singles[4])
}

// score packs a category and its significant ranks (strongest first) into a
// HandRank.
func score(category int, cardRanks ...int) HandRank {
	v := uint32(category) << 20
	shift := 16
	for _, r := range cardRanks {
		v |= uint32(14-r) << shift
		shift -= 4
	}
	return HandRank(v)
}

// straightHigh returns the high card rank of the best straight in the rank
// mask, or 0 if there is none. The wheel (A-2-3-4-5) is 5-high.
func straightHigh(ranks uint16) int {
	run := uint16(0x1F00) // A-K-Q-J-T
	for high := 14; high >= 6; high-- {
		if ranks&run == run {
			return high
		}
		run >>= 1
	}
	const wheel = 0x100F // A,2,3,4,5
	if ranks&wheel == wheel {
		return 5
	}
	return 0
}

// topRanks returns the highest n ranks present in the mask, descending.
func topRanks(mask uint16, n int) []int {
	out := make([]int, 0, n)
	for r := 14; r >= 2 && len(out) < n; r-- {
		if mask&(1<<(r-2)) != 0 {
			out = append(out, r)
		}
	}
	return out
}

// bestExcluding returns the highest rank in the mask that is not one of the
// excluded ranks.
func bestExcluding(mask uint16, exclude ...int) int {
	for r := 14; r >= 2; r-- {
		if mask&(1<<(r-2)) == 0 {
			continue
		}
		skip := false
		for _, e := range exclude {
			if r == e {
				skip = true
				break
			}
		}
		if !skip {
			return r
		}
	}
	return 0
}
