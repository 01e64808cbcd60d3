package game

import (
	"encoding/json"
	"fmt"

	"github.com/cklapperich/lobstertcg/internal/game/counters"
)

// ActionEnvelope is the wire shape of an action: a flat JSON object whose
// `type` field selects the variant and whose remaining fields are
// variant-specific. It is the contract published by the schema tool.
type ActionEnvelope struct {
	Type                ActionType `json:"type"`
	Player              int        `json:"player"`
	AllowedByCardEffect bool       `json:"allowed_by_card_effect,omitempty"`
	Source              Source     `json:"source,omitempty"`

	Count        int            `json:"count,omitempty"`
	CardID       string         `json:"card_id,omitempty"`
	CardIDs      []string       `json:"card_ids,omitempty"`
	From         string         `json:"from,omitempty"`
	To           string         `json:"to,omitempty"`
	Zone         string         `json:"zone,omitempty"`
	Position     *Position      `json:"position,omitempty"`
	Orientation  Orientation    `json:"orientation,omitempty"`
	CounterType  string         `json:"counter_type,omitempty"`
	Amount       int            `json:"amount,omitempty"`
	TargetPlayer int            `json:"target_player,omitempty"`
	Message      string         `json:"message,omitempty"`
	RevealZones  []string       `json:"reveal_zones,omitempty"`
	Winner       *int           `json:"winner,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// MarshalJSON encodes a position as "top", "bottom" or a bare index.
func (p Position) MarshalJSON() ([]byte, error) {
	if p.Kind == PositionKindIndex {
		return json.Marshal(p.Index)
	}
	if p.Kind == PositionKindBottom {
		return json.Marshal("bottom")
	}
	return json.Marshal("top")
}

// UnmarshalJSON accepts "top", "bottom" or a numeric index.
func (p *Position) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "top", "":
			*p = PositionTop
		case "bottom":
			*p = PositionBottom
		default:
			return fmt.Errorf("invalid position %q", s)
		}
		return nil
	}
	var idx int
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("invalid position %s", string(data))
	}
	*p = PositionAt(idx)
	return nil
}

// actionDecoders maps each core action type to its envelope decoder. This
// table together with coreActionTypes keeps the union closed: decoding an
// unknown type fails, and the actions test asserts the two stay in sync.
var actionDecoders = map[ActionType]func(ActionEnvelope) Action{
	ActionDraw: func(e ActionEnvelope) Action {
		return &DrawAction{ActionBase: e.base(), Count: e.Count}
	},
	ActionMoveCard: func(e ActionEnvelope) Action {
		return &MoveCardAction{ActionBase: e.base(), CardID: e.CardID, From: e.From, To: e.To, Position: e.position()}
	},
	ActionMoveCardStack: func(e ActionEnvelope) Action {
		return &MoveCardStackAction{ActionBase: e.base(), CardIDs: e.CardIDs, From: e.From, To: e.To, Position: e.position()}
	},
	ActionPlaceOnZone: func(e ActionEnvelope) Action {
		return &PlaceOnZoneAction{ActionBase: e.base(), CardIDs: e.CardIDs, To: e.To, Position: e.position()}
	},
	ActionShuffle: func(e ActionEnvelope) Action {
		return &ShuffleAction{ActionBase: e.base(), Zone: e.Zone}
	},
	ActionFlipCard: func(e ActionEnvelope) Action {
		return &FlipCardAction{ActionBase: e.base(), CardID: e.CardID, Zone: e.Zone, Orientation: e.Orientation}
	},
	ActionAddCounter: func(e ActionEnvelope) Action {
		return &AddCounterAction{ActionBase: e.base(), CardID: e.CardID, Zone: e.Zone, Counter: counters.Type(e.CounterType), Amount: e.Amount}
	},
	ActionRemoveCounter: func(e ActionEnvelope) Action {
		return &RemoveCounterAction{ActionBase: e.base(), CardID: e.CardID, Zone: e.Zone, Counter: counters.Type(e.CounterType), Amount: e.Amount}
	},
	ActionSetCounter: func(e ActionEnvelope) Action {
		return &SetCounterAction{ActionBase: e.base(), CardID: e.CardID, Zone: e.Zone, Counter: counters.Type(e.CounterType), Amount: e.Amount}
	},
	ActionEndTurn: func(e ActionEnvelope) Action {
		return &EndTurnAction{ActionBase: e.base()}
	},
	ActionCreateDecision: func(e ActionEnvelope) Action {
		return &CreateDecisionAction{ActionBase: e.base(), Target: e.TargetPlayer, Message: e.Message, RevealZones: e.RevealZones}
	},
	ActionResolveDecision: func(e ActionEnvelope) Action {
		return &ResolveDecisionAction{ActionBase: e.base()}
	},
	ActionRevealHand: func(e ActionEnvelope) Action {
		return &RevealHandAction{ActionBase: e.base(), Message: e.Message}
	},
	ActionConcede: func(e ActionEnvelope) Action {
		return &ConcedeAction{ActionBase: e.base()}
	},
	ActionDeclareVictory: func(e ActionEnvelope) Action {
		winner := e.Player
		if e.Winner != nil {
			winner = *e.Winner
		}
		return &DeclareVictoryAction{ActionBase: e.base(), Winner: winner, Reason: e.Reason}
	},
}

func (e ActionEnvelope) base() ActionBase {
	return ActionBase{Player: e.Player, AllowedByCardEffect: e.AllowedByCardEffect, Source: e.Source}
}

func (e ActionEnvelope) position() Position {
	if e.Position == nil {
		return PositionTop
	}
	return *e.Position
}

// DecodeAction parses a wire-format action. Unknown types are an error;
// plugin-defined kinds are constructed in process via NewCustomAction, not
// decoded.
func DecodeAction(data []byte) (Action, error) {
	var env ActionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding action: %w", err)
	}
	decode, ok := actionDecoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown action type %q", env.Type)
	}
	if env.Player < 0 || env.Player >= NumPlayers {
		return nil, fmt.Errorf("action player %d out of range", env.Player)
	}
	return decode(env), nil
}

// EncodeAction renders an action in wire format.
func EncodeAction(a Action) ([]byte, error) {
	env, err := Envelope(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Envelope converts an action back into its wire envelope.
func Envelope(a Action) (ActionEnvelope, error) {
	base := a.Base()
	env := ActionEnvelope{
		Type:                a.Type(),
		Player:              base.Player,
		AllowedByCardEffect: base.AllowedByCardEffect,
		Source:              base.Source,
	}
	switch act := a.(type) {
	case *DrawAction:
		env.Count = act.Count
	case *MoveCardAction:
		env.CardID, env.From, env.To = act.CardID, act.From, act.To
		pos := act.Position
		env.Position = &pos
	case *MoveCardStackAction:
		env.CardIDs, env.From, env.To = act.CardIDs, act.From, act.To
		pos := act.Position
		env.Position = &pos
	case *PlaceOnZoneAction:
		env.CardIDs, env.To = act.CardIDs, act.To
		pos := act.Position
		env.Position = &pos
	case *ShuffleAction:
		env.Zone = act.Zone
	case *FlipCardAction:
		env.CardID, env.Zone, env.Orientation = act.CardID, act.Zone, act.Orientation
	case *AddCounterAction:
		env.CardID, env.Zone, env.CounterType, env.Amount = act.CardID, act.Zone, act.Counter.String(), act.Amount
	case *RemoveCounterAction:
		env.CardID, env.Zone, env.CounterType, env.Amount = act.CardID, act.Zone, act.Counter.String(), act.Amount
	case *SetCounterAction:
		env.CardID, env.Zone, env.CounterType, env.Amount = act.CardID, act.Zone, act.Counter.String(), act.Amount
	case *EndTurnAction, *ResolveDecisionAction, *ConcedeAction:
	case *CreateDecisionAction:
		env.TargetPlayer, env.Message, env.RevealZones = act.Target, act.Message, act.RevealZones
	case *RevealHandAction:
		env.Message = act.Message
	case *DeclareVictoryAction:
		winner := act.Winner
		env.Winner, env.Reason = &winner, act.Reason
	case *CustomAction:
		env.Payload = act.Payload
	default:
		return ActionEnvelope{}, fmt.Errorf("cannot encode action type %T", a)
	}
	return env, nil
}
