package deck

// Ranks and suits in canonical deck order. The pre-shuffle deck must be
// identical everywhere for seeded shuffles to replay, so the order is fixed:
// ranks outer, suits inner.
var (
	ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}
	suits = []Suit{Spades, Hearts, Diamonds, Clubs}
)

// New returns the canonical 52-card deck: "2s","2h","2d","2c","3s",...,"Ac".
func New() []Card {
	cards := make([]Card, 0, 52)
	for _, r := range ranks {
		for _, s := range suits {
			cards = append(cards, NewCard(r, s))
		}
	}
	return cards
}
