// Package game implements the per-table hand state machine. The FSM is pure
// with respect to I/O: Apply mutates in-memory state and returns the ordered
// events it produced, and the table engine around it does all persistence and
// fan-out.
package game

import (
	"github.com/charmbracelet/log"

	"github.com/lox/dealerd/internal/deck"
	"github.com/lox/dealerd/internal/evaluator"
	"github.com/lox/dealerd/internal/fairness"
	"github.com/lox/dealerd/internal/handid"
)

// HandRecord is the audit trail for one completed hand, produced at showdown
// so the reveal is durable even if the process dies immediately after.
type HandRecord struct {
	TableID    string
	HandID     string
	Seed       string
	Secret     string
	Commitment string
	Events     []Event
}

// FSM owns one table's state and advances it one action at a time. It is not
// safe for concurrent use; the table engine serializes access.
type FSM struct {
	state  *State
	logger *log.Logger

	// provenance of the hand in flight
	handID     string
	secret     string
	commitment string

	records []HandRecord

	newSecret    func() string
	newHandID    func() string
	defaultBuyin int
}

// Option configures an FSM.
type Option func(*FSM)

// WithMinBet sets the big blind (small blind is half).
func WithMinBet(minBet int) Option {
	return func(f *FSM) { f.state.MinBet = minBet }
}

// WithDefaultBuyin sets the stack given to joins that omit a buyin.
func WithDefaultBuyin(buyin int) Option {
	return func(f *FSM) { f.defaultBuyin = buyin }
}

// WithSecretSource overrides secret generation, fixing the shuffle for tests.
func WithSecretSource(fn func() string) Option {
	return func(f *FSM) { f.newSecret = fn }
}

// WithHandIDSource overrides hand ID generation.
func WithHandIDSource(fn func() string) Option {
	return func(f *FSM) { f.newHandID = fn }
}

// NewFSM creates the state machine for a table.
func NewFSM(tableID string, logger *log.Logger, opts ...Option) *FSM {
	f := &FSM{
		state:        newState(tableID, 20),
		logger:       logger.WithPrefix("fsm").With("table", tableID),
		newSecret:    fairness.GenerateSecret,
		newHandID:    handid.New,
		defaultBuyin: 1000,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State exposes the table state for snapshots and tests.
func (f *FSM) State() *State {
	return f.state
}

// TakeHandRecords returns the audit records accumulated since the last call
// and clears them.
func (f *FSM) TakeHandRecords() []HandRecord {
	records := f.records
	f.records = nil
	return records
}

// Apply processes one action and returns the events it produced. Illegal
// actions are ignored: no state change, no events, a reason for the log.
func (f *FSM) Apply(a Action) ([]Event, Result) {
	var events []Event

	switch a.Kind {
	case ActionJoin:
		res := f.join(a, &events)
		return events, res

	case ActionFold, ActionCheck, ActionCall, ActionRaise:
		current := f.state.CurrentPlayer()
		if current == nil {
			return nil, ignored("no betting round in progress")
		}
		if current.ID != a.PlayerID {
			return nil, ignored("not this player's turn")
		}
		res := f.handleBettingAction(a, current, &events)
		return events, res

	default:
		return nil, ignored("unknown action kind")
	}
}

func (f *FSM) join(a Action, events *[]Event) Result {
	if a.PlayerID == "" {
		return ignored("missing player_id")
	}
	if p, _ := f.state.Seat(a.PlayerID); p != nil {
		return ignored("already seated")
	}

	username := a.Username
	if username == "" {
		username = "Player-" + shortID(a.PlayerID)
	}
	buyin := a.Buyin
	if buyin <= 0 {
		buyin = f.defaultBuyin
	}

	player := &Player{
		ID:        a.PlayerID,
		Username:  username,
		Chips:     buyin,
		HoleCards: []deck.Card{},
	}
	f.state.Players = append(f.state.Players, player)

	*events = append(*events,
		Event{EventPlayerJoined, PlayerJoinedPayload{Player: player}},
		Event{EventStateUpdate, StateUpdatePayload{Phase: f.state.Phase, Players: f.state.Players}},
	)

	if len(f.state.Players) >= 2 && f.state.Phase == Waiting {
		f.startHand(events)
	}
	return accepted()
}

// startHand begins a new hand: fresh provenance, seeded shuffle, hole cards,
// blinds, and first turn.
func (f *FSM) startHand(events *[]Event) {
	s := f.state
	n := len(s.Players)

	s.Phase = PreFlop
	s.Pot = 0
	s.CommunityCards = []deck.Card{}
	s.ActionsThisRound = 0

	f.handID = f.newHandID()
	f.secret = f.newSecret()
	f.commitment = fairness.ComputeCommitment(f.secret, f.handID)
	s.HandID = f.handID
	s.Commitment = f.commitment

	rng := fairness.New(f.secret, f.handID)
	s.Deck = deck.New()
	fairness.Shuffle(rng, s.Deck)

	for _, p := range s.Players {
		p.CurrentBet = 0
		p.HasFolded = false
		p.HoleCards = make([]deck.Card, 0, 2)
	}

	// Two passes left of the dealer, one card per seat per pass, drawn from
	// the deck tail.
	for pass := 0; pass < 2; pass++ {
		for i := 1; i <= n; i++ {
			seat := (s.DealerIndex + i) % n
			p := s.Players[seat]
			p.HoleCards = append(p.HoleCards, s.drawCard())
		}
	}

	f.postBlind((s.DealerIndex+1)%n, s.MinBet/2)
	f.postBlind((s.DealerIndex+2)%n, s.MinBet)

	s.CurrentTurnIndex = f.firstActionable((s.DealerIndex + 3) % n)

	*events = append(*events, Event{EventHandStarted, HandStartedPayload{
		Dealer:     s.DealerIndex,
		HandID:     f.handID,
		Commitment: f.commitment,
	}})

	f.logger.Info("hand started", "hand", f.handID, "dealer", s.DealerIndex)

	if s.CurrentTurnIndex == NoTurn {
		// Blinds put everyone all-in; run out the board.
		f.nextPhase(events)
	}
}

// postBlind moves up to amount from the seat's stack into the pot. Short
// stacks post what they have and are all-in.
func (f *FSM) postBlind(seat, amount int) {
	p := f.state.Players[seat]
	bet := min(p.Chips, amount)
	p.Chips -= bet
	p.CurrentBet += bet
	f.state.Pot += bet
}

func (f *FSM) handleBettingAction(a Action, player *Player, events *[]Event) Result {
	s := f.state
	maxBet := s.MaxBet()

	switch a.Kind {
	case ActionFold:
		player.HasFolded = true

	case ActionCall:
		toCall := maxBet - player.CurrentBet
		bet := min(player.Chips, toCall)
		player.Chips -= bet
		player.CurrentBet += bet
		s.Pot += bet

	case ActionCheck:
		if player.CurrentBet < maxBet {
			return ignored("cannot check facing a bet")
		}

	case ActionRaise:
		// Amount is the total the player wants committed this round.
		if a.Amount < maxBet+s.MinBet {
			return ignored("raise below minimum")
		}
		diff := a.Amount - player.CurrentBet
		if player.Chips < diff {
			diff = player.Chips // all-in
		}
		player.Chips -= diff
		player.CurrentBet += diff
		s.Pot += diff
	}

	*events = append(*events, Event{EventPlayerAction, PlayerActionPayload{
		PlayerID:   player.ID,
		Action:     a.Kind,
		Amount:     a.Amount,
		Chips:      player.Chips,
		CurrentBet: player.CurrentBet,
	}})

	s.ActionsThisRound++
	f.advanceTurn(events)
	return accepted()
}

// advanceTurn moves to the next actionable seat, or ends the round or hand
// when no further action is possible.
func (f *FSM) advanceTurn(events *[]Event) {
	s := f.state
	active := s.ActivePlayers()

	if len(active) <= 1 {
		if len(active) == 1 {
			f.endHand(events, active[0], "opponent folded")
		}
		return
	}

	maxBet := 0
	for _, p := range active {
		if p.CurrentBet > maxBet {
			maxBet = p.CurrentBet
		}
	}
	allMatched := true
	for _, p := range active {
		if p.CurrentBet != maxBet && !p.AllIn() {
			allMatched = false
			break
		}
	}
	if allMatched && s.ActionsThisRound >= len(active) {
		f.nextPhase(events)
		return
	}

	if next := f.firstActionable((s.CurrentTurnIndex + 1) % len(s.Players)); next != NoTurn {
		s.CurrentTurnIndex = next
		return
	}

	// Everyone remaining is all-in; no one can act this street.
	f.nextPhase(events)
}

// firstActionable scans the ring from start for a seat that can act, or
// NoTurn if none exists.
func (f *FSM) firstActionable(start int) int {
	n := len(f.state.Players)
	for i := 0; i < n; i++ {
		seat := (start + i) % n
		if f.state.Players[seat].CanAct() {
			return seat
		}
	}
	return NoTurn
}

// nextPhase advances the street: bets reset, community cards dealt, action
// reopened left of the dealer. Streets with no possible action are dealt
// through without waiting.
func (f *FSM) nextPhase(events *[]Event) {
	s := f.state

	s.ActionsThisRound = 0
	for _, p := range s.Players {
		p.CurrentBet = 0
	}

	switch s.Phase {
	case PreFlop:
		s.Phase = Flop
		s.CommunityCards = append(s.CommunityCards, s.drawCard(), s.drawCard(), s.drawCard())
	case Flop:
		s.Phase = Turn
		s.CommunityCards = append(s.CommunityCards, s.drawCard())
	case Turn:
		s.Phase = River
		s.CommunityCards = append(s.CommunityCards, s.drawCard())
	case River:
		s.Phase = Showdown
		f.showdown(events)
		return
	default:
		return
	}

	s.CurrentTurnIndex = f.firstActionable((s.DealerIndex + 1) % len(s.Players))

	*events = append(*events, Event{EventPhaseChange, PhaseChangePayload{
		Phase:          s.Phase,
		CommunityCards: s.CommunityCards,
		Pot:            s.Pot,
	}})

	if s.CurrentTurnIndex == NoTurn {
		f.nextPhase(events)
	}
}

// showdown ranks every live hand and awards the pot. Seats are evaluated
// clockwise from dealer+1 and only a strictly stronger hand displaces the
// leader, so exact ties go to the earliest seat in that order.
func (f *FSM) showdown(events *[]Event) {
	s := f.state
	n := len(s.Players)

	var winner *Player
	var best evaluator.HandRank
	for i := 1; i <= n; i++ {
		p := s.Players[(s.DealerIndex+i)%n]
		if p.HasFolded || len(p.HoleCards) != 2 {
			// Seats that joined mid-hand hold no cards and cannot win
			continue
		}
		cards := make([]deck.Card, 0, 7)
		cards = append(cards, p.HoleCards...)
		cards = append(cards, s.CommunityCards...)
		rank := evaluator.Evaluate7(cards)
		if winner == nil || rank < best {
			winner = p
			best = rank
		}
	}
	if winner == nil {
		return
	}

	f.endHand(events, winner, best.String())
}

// endHand transfers the pot, emits the reveal, records the audit entry and
// returns the table to WAITING (auto-starting the next hand when possible).
func (f *FSM) endHand(events *[]Event, winner *Player, handName string) {
	s := f.state

	amount := s.Pot
	winner.Chips += amount

	*events = append(*events, Event{EventShowdown, ShowdownPayload{
		WinnerID:     winner.ID,
		Amount:       amount,
		WinningHand:  handName,
		ServerSecret: f.secret,
		HandID:       f.handID,
	}})

	f.records = append(f.records, HandRecord{
		TableID:    s.TableID,
		HandID:     f.handID,
		Seed:       fairness.SeedHex(f.secret, f.handID),
		Secret:     f.secret,
		Commitment: f.commitment,
		Events:     append([]Event(nil), *events...),
	})

	f.logger.Info("hand complete", "hand", f.handID, "winner", winner.ID, "amount", amount, "hand_name", handName)

	s.Pot = 0
	s.Phase = Waiting
	s.CommunityCards = []deck.Card{}
	s.CurrentTurnIndex = NoTurn
	s.Deck = []deck.Card{}
	s.HandID = ""
	s.Commitment = ""
	s.DealerIndex = (s.DealerIndex + 1) % len(s.Players)

	if len(s.Players) >= 2 {
		f.startHand(events)
	}
}

func shortID(id string) string {
	if len(id) > 4 {
		return id[:4]
	}
	return id
}
