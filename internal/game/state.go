package game

import (
	"encoding/json"

	"github.com/lox/dealerd/internal/deck"
)

// Phase is a stage of the hand lifecycle.
type Phase string

const (
	Waiting  Phase = "waiting"
	PreFlop  Phase = "preflop"
	Flop     Phase = "flop"
	Turn     Phase = "turn"
	River    Phase = "river"
	Showdown Phase = "showdown"
)

// NoTurn marks CurrentTurnIndex when no betting round is active.
const NoTurn = -1

// State is the complete table state. It serializes to the snapshot stored in
// the cache; masking hole cards for particular viewers is a view-layer
// concern. The per-hand secret lives on the FSM, never in the snapshot.
type State struct {
	TableID          string      `json:"table_id"`
	Phase            Phase       `json:"phase"`
	Pot              int         `json:"pot"`
	CommunityCards   []deck.Card `json:"community_cards"`
	Players          []*Player   `json:"players"`
	CurrentTurnIndex int         `json:"current_turn_index"`
	DealerIndex      int         `json:"dealer_index"`
	MinBet           int         `json:"min_bet"`
	Deck             []deck.Card `json:"deck"`
	ActionsThisRound int         `json:"actions_this_round"`
	HandID           string      `json:"hand_id,omitempty"`
	Commitment       string      `json:"commitment,omitempty"`
}

// newState returns an empty waiting table.
func newState(tableID string, minBet int) *State {
	return &State{
		TableID:          tableID,
		Phase:            Waiting,
		CommunityCards:   []deck.Card{},
		Players:          []*Player{},
		CurrentTurnIndex: NoTurn,
		MinBet:           minBet,
		Deck:             []deck.Card{},
	}
}

// Snapshot returns the JSON form of the state for the cache.
func (s *State) Snapshot() ([]byte, error) {
	return json.Marshal(s)
}

// Seat returns the player with the given id and their seat index, or nil.
func (s *State) Seat(playerID string) (*Player, int) {
	for i, p := range s.Players {
		if p.ID == playerID {
			return p, i
		}
	}
	return nil, -1
}

// CurrentPlayer returns the player whose turn it is, or nil.
func (s *State) CurrentPlayer() *Player {
	if s.CurrentTurnIndex == NoTurn {
		return nil
	}
	return s.Players[s.CurrentTurnIndex]
}

// ActivePlayers returns the players still contesting the hand.
func (s *State) ActivePlayers() []*Player {
	active := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.HasFolded {
			active = append(active, p)
		}
	}
	return active
}

// MaxBet returns the highest current-round bet on the table.
func (s *State) MaxBet() int {
	max := 0
	for _, p := range s.Players {
		if p.CurrentBet > max {
			max = p.CurrentBet
		}
	}
	return max
}

// TotalChips returns all chips in play: stacks plus the pot. Bets already sit
// in the pot when posted, so this is the conserved table constant.
func (s *State) TotalChips() int {
	total := s.Pot
	for _, p := range s.Players {
		total += p.Chips
	}
	return total
}

// drawCard removes and returns the top card (deck tail).
func (s *State) drawCard() deck.Card {
	c := s.Deck[len(s.Deck)-1]
	s.Deck = s.Deck[:len(s.Deck)-1]
	return c
}
