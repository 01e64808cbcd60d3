package game

import (
	"fmt"

	"github.com/cklapperich/lobstertcg/internal/game/counters"
)

// ActionType tags an action variant. The core set below is closed; rule
// modules may introduce additional types by registering custom executors.
type ActionType string

const (
	ActionDraw            ActionType = "draw"
	ActionMoveCard        ActionType = "move_card"
	ActionMoveCardStack   ActionType = "move_card_stack"
	ActionPlaceOnZone     ActionType = "place_on_zone"
	ActionShuffle         ActionType = "shuffle"
	ActionFlipCard        ActionType = "flip_card"
	ActionAddCounter      ActionType = "add_counter"
	ActionRemoveCounter   ActionType = "remove_counter"
	ActionSetCounter      ActionType = "set_counter"
	ActionEndTurn         ActionType = "end_turn"
	ActionCreateDecision  ActionType = "create_decision"
	ActionResolveDecision ActionType = "resolve_decision"
	ActionRevealHand      ActionType = "reveal_hand"
	ActionConcede         ActionType = "concede"
	ActionDeclareVictory  ActionType = "declare_victory"
)

// AnyAction is the wildcard key for hooks that run on every action type.
const AnyAction ActionType = "*"

// coreActionTypes is the closed core union. The decoder registry in
// action_json.go must cover exactly this list; a test asserts it, which is
// what keeps a newly added variant from being silently unhandled.
var coreActionTypes = []ActionType{
	ActionDraw, ActionMoveCard, ActionMoveCardStack, ActionPlaceOnZone,
	ActionShuffle, ActionFlipCard, ActionAddCounter, ActionRemoveCounter,
	ActionSetCounter, ActionEndTurn, ActionCreateDecision,
	ActionResolveDecision, ActionRevealHand, ActionConcede,
	ActionDeclareVictory,
}

// Source identifies who produced an action; it drives the block-vs-warn
// policy of soft rules.
type Source string

const (
	SourceUI Source = "ui"
	SourceAI Source = "ai"
)

// ActionBase carries the fields every action has.
type ActionBase struct {
	Player int
	// AllowedByCardEffect bypasses soft rules such as the opponent-zone
	// restriction when a card effect permits the move.
	AllowedByCardEffect bool
	Source              Source
}

// Action is the closed tagged union of things a player can do. Concrete
// variants are structs in this package; plugin-defined kinds use
// CustomAction. Actions are immutable once submitted to a loop.
type Action interface {
	Type() ActionType
	Actor() int
	Base() ActionBase
	isAction()
}

// WithBase is implemented by all variants so callers can set the optional
// base fields after using a factory.
type WithBase interface {
	SetBase(ActionBase)
}

// PositionKind selects how an insertion index is interpreted.
type PositionKind string

const (
	PositionKindTop    PositionKind = "top"
	PositionKindBottom PositionKind = "bottom"
	PositionKindIndex  PositionKind = "index"
)

// Position names where in a zone cards are inserted: top, bottom or a
// numeric index (0 = visual bottom).
type Position struct {
	Kind  PositionKind
	Index int
}

var (
	PositionTop    = Position{Kind: PositionKindTop}
	PositionBottom = Position{Kind: PositionKindBottom}
)

// PositionAt inserts at a specific index, clamped to the zone bounds at
// execution time.
func PositionAt(index int) Position {
	return Position{Kind: PositionKindIndex, Index: index}
}

func (p Position) String() string {
	switch p.Kind {
	case PositionKindIndex:
		return fmt.Sprintf("index %d", p.Index)
	case PositionKindBottom:
		return "bottom"
	default:
		return "top"
	}
}

// DrawAction pops up to Count cards from the top of the player's deck into
// their hand. Short decks draw partially, never an error.
type DrawAction struct {
	ActionBase
	Count int
}

// MoveCardAction moves one named card between zones.
type MoveCardAction struct {
	ActionBase
	CardID   string
	From     string
	To       string
	Position Position
}

// MoveCardStackAction moves several cards from one zone as a contiguous
// block, preserving their relative order.
type MoveCardStackAction struct {
	ActionBase
	CardIDs  []string
	From     string
	To       string
	Position Position
}

// PlaceOnZoneAction relocates named cards from anywhere in the state onto a
// target zone's top or bottom as a batch.
type PlaceOnZoneAction struct {
	ActionBase
	CardIDs  []string
	To       string
	Position Position
}

// ShuffleAction resets every card in the zone to the zone's default
// visibility, then randomizes order.
type ShuffleAction struct {
	ActionBase
	Zone string
}

// FlipCardAction sets a card's orientation. An empty Orientation toggles.
type FlipCardAction struct {
	ActionBase
	CardID      string
	Zone        string
	Orientation Orientation
}

// AddCounterAction adds counters to a card. Zone narrows the search when
// set; otherwise the card is located anywhere in the state.
type AddCounterAction struct {
	ActionBase
	CardID  string
	Zone    string
	Counter counters.Type
	Amount  int
}

// RemoveCounterAction removes counters from a card, clamping at zero.
type RemoveCounterAction struct {
	ActionBase
	CardID  string
	Zone    string
	Counter counters.Type
	Amount  int
}

// SetCounterAction sets a counter to an exact amount; non-positive deletes.
type SetCounterAction struct {
	ActionBase
	CardID  string
	Zone    string
	Counter counters.Type
	Amount  int
}

// EndTurnAction ends the active player's turn, or during setup marks the
// player's setup as complete. With a decision pending it auto-resolves the
// decision instead of ending anything.
type EndTurnAction struct {
	ActionBase
}

// CreateDecisionAction hands control to the target player pending an
// acknowledgment, optionally revealing zones' true identities to them.
type CreateDecisionAction struct {
	ActionBase
	Target      int
	Message     string
	RevealZones []string
}

// ResolveDecisionAction acknowledges the pending decision, un-revealing any
// revealed zones and returning control to the decision's creator.
type ResolveDecisionAction struct {
	ActionBase
}

// RevealHandAction reveals the actor's hand to the opponent as a decision
// the opponent must acknowledge.
type RevealHandAction struct {
	ActionBase
	Message string
}

// ConcedeAction ends the game with the opponent as the winner.
type ConcedeAction struct {
	ActionBase
}

// DeclareVictoryAction ends the game with an explicit winner and reason.
type DeclareVictoryAction struct {
	ActionBase
	Winner int
	Reason string
}

// CustomAction carries a plugin-defined action kind through the loop. It is
// only executable when a plugin registered a custom executor for Kind.
type CustomAction struct {
	ActionBase
	Kind    ActionType
	Payload map[string]any
}

func (a *DrawAction) Type() ActionType            { return ActionDraw }
func (a *MoveCardAction) Type() ActionType        { return ActionMoveCard }
func (a *MoveCardStackAction) Type() ActionType   { return ActionMoveCardStack }
func (a *PlaceOnZoneAction) Type() ActionType     { return ActionPlaceOnZone }
func (a *ShuffleAction) Type() ActionType         { return ActionShuffle }
func (a *FlipCardAction) Type() ActionType        { return ActionFlipCard }
func (a *AddCounterAction) Type() ActionType      { return ActionAddCounter }
func (a *RemoveCounterAction) Type() ActionType   { return ActionRemoveCounter }
func (a *SetCounterAction) Type() ActionType      { return ActionSetCounter }
func (a *EndTurnAction) Type() ActionType         { return ActionEndTurn }
func (a *CreateDecisionAction) Type() ActionType  { return ActionCreateDecision }
func (a *ResolveDecisionAction) Type() ActionType { return ActionResolveDecision }
func (a *RevealHandAction) Type() ActionType      { return ActionRevealHand }
func (a *ConcedeAction) Type() ActionType         { return ActionConcede }
func (a *DeclareVictoryAction) Type() ActionType  { return ActionDeclareVictory }
func (a *CustomAction) Type() ActionType          { return a.Kind }

func (b ActionBase) Actor() int       { return b.Player }
func (b ActionBase) Base() ActionBase { return b }
func (b ActionBase) isAction()        {}

func (a *DrawAction) SetBase(b ActionBase)            { a.ActionBase = b }
func (a *MoveCardAction) SetBase(b ActionBase)        { a.ActionBase = b }
func (a *MoveCardStackAction) SetBase(b ActionBase)   { a.ActionBase = b }
func (a *PlaceOnZoneAction) SetBase(b ActionBase)     { a.ActionBase = b }
func (a *ShuffleAction) SetBase(b ActionBase)         { a.ActionBase = b }
func (a *FlipCardAction) SetBase(b ActionBase)        { a.ActionBase = b }
func (a *AddCounterAction) SetBase(b ActionBase)      { a.ActionBase = b }
func (a *RemoveCounterAction) SetBase(b ActionBase)   { a.ActionBase = b }
func (a *SetCounterAction) SetBase(b ActionBase)      { a.ActionBase = b }
func (a *EndTurnAction) SetBase(b ActionBase)         { a.ActionBase = b }
func (a *CreateDecisionAction) SetBase(b ActionBase)  { a.ActionBase = b }
func (a *ResolveDecisionAction) SetBase(b ActionBase) { a.ActionBase = b }
func (a *RevealHandAction) SetBase(b ActionBase)      { a.ActionBase = b }
func (a *ConcedeAction) SetBase(b ActionBase)         { a.ActionBase = b }
func (a *DeclareVictoryAction) SetBase(b ActionBase)  { a.ActionBase = b }
func (a *CustomAction) SetBase(b ActionBase)          { a.ActionBase = b }

// Compile-time checks that every variant satisfies both interfaces.
var (
	_ Action = (*DrawAction)(nil)
	_ Action = (*MoveCardAction)(nil)
	_ Action = (*MoveCardStackAction)(nil)
	_ Action = (*PlaceOnZoneAction)(nil)
	_ Action = (*ShuffleAction)(nil)
	_ Action = (*FlipCardAction)(nil)
	_ Action = (*AddCounterAction)(nil)
	_ Action = (*RemoveCounterAction)(nil)
	_ Action = (*SetCounterAction)(nil)
	_ Action = (*EndTurnAction)(nil)
	_ Action = (*CreateDecisionAction)(nil)
	_ Action = (*ResolveDecisionAction)(nil)
	_ Action = (*RevealHandAction)(nil)
	_ Action = (*ConcedeAction)(nil)
	_ Action = (*DeclareVictoryAction)(nil)
	_ Action = (*CustomAction)(nil)

	_ WithBase = (*DrawAction)(nil)
	_ WithBase = (*CustomAction)(nil)
)
