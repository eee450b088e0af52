package game

import (
	"encoding/json"

	"github.com/lox/dealerd/internal/deck"
)

// EventType identifies a game event on the wire.
type EventType string

const (
	EventPlayerJoined EventType = "player_joined"
	EventStateUpdate  EventType = "state_update"
	EventHandStarted  EventType = "hand_started"
	EventPlayerAction EventType = "player_action"
	EventPhaseChange  EventType = "phase_change"
	EventShowdown     EventType = "showdown"
)

// Event is a single entry in the ordered stream produced by the FSM.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// JSON returns the {"type","payload"} wire form published on the bus.
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// PlayerJoinedPayload announces a new seat in the ring.
type PlayerJoinedPayload struct {
	Player *Player `json:"player"`
}

// StateUpdatePayload broadcasts the lobby view after a join.
type StateUpdatePayload struct {
	Phase   Phase     `json:"phase"`
	Players []*Player `json:"players"`
}

// HandStartedPayload carries the pre-shuffle commitment. Observers hold this
// until the showdown reveal to verify the deal.
type HandStartedPayload struct {
	Dealer     int    `json:"dealer"`
	HandID     string `json:"hand_id"`
	Commitment string `json:"commitment"`
}

// PlayerActionPayload reports an accepted betting action.
type PlayerActionPayload struct {
	PlayerID   string `json:"player_id"`
	Action     string `json:"action"`
	Amount     int    `json:"amount"`
	Chips      int    `json:"chips"`
	CurrentBet int    `json:"current_bet"`
}

// PhaseChangePayload reports a street transition.
type PhaseChangePayload struct {
	Phase          Phase       `json:"phase"`
	CommunityCards []deck.Card `json:"community_cards"`
	Pot            int         `json:"pot"`
}

// ShowdownPayload awards the pot and reveals the server secret, completing
// the commit-reveal pair opened by hand_started.
type ShowdownPayload struct {
	WinnerID     string `json:"winner_id"`
	Amount       int    `json:"amount"`
	WinningHand  string `json:"winning_hand"`
	ServerSecret string `json:"server_secret"`
	HandID       string `json:"hand_id"`
}
