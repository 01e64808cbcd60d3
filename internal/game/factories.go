package game

import "github.com/cklapperich/lobstertcg/internal/game/counters"

// Factory functions are the canonical action constructors. Callers needing
// the optional base fields (source, allowed_by_card_effect) set them via
// SetBase or the With helpers below.

// WithSource returns a copy of the action attributed to the given source.
func WithSource(a Action, src Source) Action {
	if w, ok := a.(WithBase); ok {
		base := a.Base()
		base.Source = src
		w.SetBase(base)
	}
	return a
}

// WithCardEffect marks the action as permitted by a card effect, bypassing
// soft rules like the opponent-zone restriction.
func WithCardEffect(a Action) Action {
	if w, ok := a.(WithBase); ok {
		base := a.Base()
		base.AllowedByCardEffect = true
		w.SetBase(base)
	}
	return a
}

// Draw draws up to count cards from the player's deck into their hand.
func Draw(player, count int) *DrawAction {
	return &DrawAction{ActionBase: ActionBase{Player: player}, Count: count}
}

// MoveCard moves one card from one zone to another.
func MoveCard(player int, cardID, from, to string, pos Position) *MoveCardAction {
	return &MoveCardAction{ActionBase: ActionBase{Player: player}, CardID: cardID, From: from, To: to, Position: pos}
}

// MoveCardStack moves several cards from one zone as a block.
func MoveCardStack(player int, cardIDs []string, from, to string, pos Position) *MoveCardStackAction {
	return &MoveCardStackAction{ActionBase: ActionBase{Player: player}, CardIDs: cardIDs, From: from, To: to, Position: pos}
}

// PlaceOnZone relocates cards from anywhere in the state onto a zone.
func PlaceOnZone(player int, cardIDs []string, to string, pos Position) *PlaceOnZoneAction {
	return &PlaceOnZoneAction{ActionBase: ActionBase{Player: player}, CardIDs: cardIDs, To: to, Position: pos}
}

// Shuffle randomizes a zone after resetting its cards to default
// visibility.
func Shuffle(player int, zone string) *ShuffleAction {
	return &ShuffleAction{ActionBase: ActionBase{Player: player}, Zone: zone}
}

// FlipCard sets a card's orientation; an empty orientation toggles.
func FlipCard(player int, cardID, zone string, o Orientation) *FlipCardAction {
	return &FlipCardAction{ActionBase: ActionBase{Player: player}, CardID: cardID, Zone: zone, Orientation: o}
}

// AddCounter adds counters of the given type to a card.
func AddCounter(player int, cardID, zone string, t counters.Type, amount int) *AddCounterAction {
	return &AddCounterAction{ActionBase: ActionBase{Player: player}, CardID: cardID, Zone: zone, Counter: t, Amount: amount}
}

// RemoveCounter removes counters from a card, clamping at zero.
func RemoveCounter(player int, cardID, zone string, t counters.Type, amount int) *RemoveCounterAction {
	return &RemoveCounterAction{ActionBase: ActionBase{Player: player}, CardID: cardID, Zone: zone, Counter: t, Amount: amount}
}

// SetCounter sets a counter to an exact amount; non-positive deletes it.
func SetCounter(player int, cardID, zone string, t counters.Type, amount int) *SetCounterAction {
	return &SetCounterAction{ActionBase: ActionBase{Player: player}, CardID: cardID, Zone: zone, Counter: t, Amount: amount}
}

// EndTurn ends the player's turn (or completes their setup).
func EndTurn(player int) *EndTurnAction {
	return &EndTurnAction{ActionBase: ActionBase{Player: player}}
}

// CreateDecision hands control to target pending an acknowledgment,
// revealing the listed zones' true identities to them.
func CreateDecision(player, target int, message string, revealZones ...string) *CreateDecisionAction {
	return &CreateDecisionAction{ActionBase: ActionBase{Player: player}, Target: target, Message: message, RevealZones: revealZones}
}

// ResolveDecision acknowledges the pending decision.
func ResolveDecision(player int) *ResolveDecisionAction {
	return &ResolveDecisionAction{ActionBase: ActionBase{Player: player}}
}

// RevealHand reveals the player's hand to the opponent as a decision.
func RevealHand(player int, message string) *RevealHandAction {
	return &RevealHandAction{ActionBase: ActionBase{Player: player}, Message: message}
}

// Concede ends the game with the opponent winning.
func Concede(player int) *ConcedeAction {
	return &ConcedeAction{ActionBase: ActionBase{Player: player}}
}

// DeclareVictory ends the game with an explicit winner and reason.
func DeclareVictory(player, winner int, reason string) *DeclareVictoryAction {
	return &DeclareVictoryAction{ActionBase: ActionBase{Player: player}, Winner: winner, Reason: reason}
}

// NewCustomAction builds a plugin-defined action. The kind must have a
// custom executor registered with the loop's plugin manager.
func NewCustomAction(kind ActionType, player int, payload map[string]any) *CustomAction {
	return &CustomAction{ActionBase: ActionBase{Player: player}, Kind: kind, Payload: payload}
}
