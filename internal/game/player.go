package game

import "github.com/lox/dealerd/internal/deck"

// Player is a seated player. The entity is created on join and persists
// across hands; CurrentBet, HasFolded and HoleCards are per-hand and reset at
// hand start.
type Player struct {
	ID         string      `json:"id"`
	Username   string      `json:"username"`
	Chips      int         `json:"chips"`
	CurrentBet int         `json:"current_bet"`
	HasFolded  bool        `json:"has_folded"`
	HoleCards  []deck.Card `json:"hole_cards"`
}

// AllIn reports whether the player is all-in: no chips behind but a live bet.
func (p *Player) AllIn() bool {
	return p.Chips == 0
}

// CanAct reports whether the player can take a betting action.
func (p *Player) CanAct() bool {
	return !p.HasFolded && p.Chips > 0
}
