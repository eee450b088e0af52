package game

// Action kinds accepted by the FSM. Anything else is ignored.
const (
	ActionJoin  = "join"
	ActionFold  = "fold"
	ActionCheck = "check"
	ActionCall  = "call"
	ActionRaise = "raise"
)

// Action is a player intent, decoded from the client action envelope.
// For raise, Amount is the total the player wants committed this round.
type Action struct {
	Kind     string `json:"action"`
	PlayerID string `json:"player_id"`
	Username string `json:"username,omitempty"`
	Buyin    int    `json:"buyin,omitempty"`
	Amount   int    `json:"amount,omitempty"`
}

// Result reports how the FSM handled an action.
type Result struct {
	Accepted bool
	Reason   string
}

func accepted() Result {
	return Result{Accepted: true}
}

func ignored(reason string) Result {
	return Result{Reason: reason}
}
