// Package houserules is a rule module exercising every engine extension
// point: pre-hooks that block, warn and replace, a post-hook that queues
// follow-up actions, a custom mulligan action, and a readable-state
// modifier. It doubles as the reference for writing game-specific rules.
package houserules

import (
	"fmt"

	"github.com/cklapperich/lobstertcg/internal/game"
)

const (
	// MaxDrawPerAction is the house cap on a single draw.
	MaxDrawPerAction = 3
	// MulliganHandSize is the fresh hand dealt by the mulligan action.
	MulliganHandSize = 5
	// ActionMulligan shuffles the hand back and draws a fresh one, once per
	// game per player.
	ActionMulligan game.ActionType = "mulligan"

	stateKey = "houserules"
)

// pluginState tracks per-player mulligan usage inside GameState.PluginState.
type pluginState struct {
	Mulligans [game.NumPlayers]int
}

func (p *pluginState) CloneValue() any {
	cp := *p
	return &cp
}

func getState(s *game.GameState) *pluginState {
	if ps, ok := s.PluginState[stateKey].(*pluginState); ok {
		return ps
	}
	ps := &pluginState{}
	s.PluginState[stateKey] = ps
	return ps
}

// New builds the house-rules plugin.
func New() *game.Plugin {
	return &game.Plugin{
		Name: "houserules",
		PreHooks: map[game.ActionType][]game.PreHook{
			game.ActionDraw: {
				{Priority: 10, Run: capDraw},
			},
			game.ActionAddCounter: {
				{Priority: 10, Run: blockFaceDownCounters},
			},
			game.ActionCreateDecision: {
				{Priority: 20, Run: warnHandPeek},
			},
		},
		PostHooks: map[game.ActionType][]game.PostHook{
			game.ActionEndTurn: {
				{Priority: 10, Run: cleanUpDiscard},
			},
		},
		Executors: map[game.ActionType]game.CustomExecutor{
			ActionMulligan: executeMulligan,
		},
		ReadableModifiers: []game.ReadableModifier{annotateMulligans},
	}
}

// capDraw rewrites oversized draws down to the house cap.
func capDraw(s *game.GameState, a game.Action) game.HookResult {
	draw, ok := a.(*game.DrawAction)
	if !ok || draw.Count <= MaxDrawPerAction {
		return game.Continue()
	}
	capped := game.Draw(draw.Player, MaxDrawPerAction)
	capped.ActionBase = draw.ActionBase
	return game.Replace(capped)
}

// blockFaceDownCounters stops counters from landing on face-down cards,
// where neither player could verify them.
func blockFaceDownCounters(s *game.GameState, a game.Action) game.HookResult {
	add := a.(*game.AddCounterAction)
	_, card, ok := s.FindCard(add.CardID)
	if ok && card.Orientation == game.OrientationFaceDown {
		return game.Block("counters cannot be placed on face-down cards")
	}
	return game.Continue()
}

// warnHandPeek flags decisions that reveal the opponent's hand.
func warnHandPeek(s *game.GameState, a game.Action) game.HookResult {
	dec := a.(*game.CreateDecisionAction)
	target := dec.Target
	for _, key := range dec.RevealZones {
		owner, zoneID, err := game.ParseZoneKey(key)
		if err != nil {
			continue
		}
		if zoneID == s.Config.HandZone && owner != dec.Player && owner == target {
			return game.Warn("this reveals your opponent's hand to them; confirm the effect allows it")
		}
	}
	return game.Continue()
}

// cleanUpDiscard files stray stadium-kind cards from each bench into the
// discard at end of turn, as granted follow-up actions.
func cleanUpDiscard(s *game.GameState, a game.Action) []game.Action {
	var followUps []game.Action
	for p := 0; p < game.NumPlayers; p++ {
		benchKey := game.ZoneKey(p, "bench")
		bench, err := s.Zone(benchKey)
		if err != nil {
			continue // playmat without a bench
		}
		for _, c := range bench.Cards {
			if c.Template.Kind != "stadium" {
				continue
			}
			move := game.MoveCard(p, c.InstanceID, benchKey, game.ZoneKey(p, "discard"), game.PositionTop)
			followUps = append(followUps, game.WithCardEffect(move))
		}
	}
	return followUps
}

// executeMulligan shuffles the player's hand into their deck and draws a
// fresh hand, composed from the engine's own actions.
func executeMulligan(s *game.GameState, a *game.CustomAction) error {
	ps := getState(s)
	if ps.Mulligans[a.Player] >= 1 {
		return &game.RuleError{Reason: fmt.Sprintf("%s has already mulliganed", s.PlayerName(a.Player))}
	}
	handKey := game.ZoneKey(a.Player, s.Config.HandZone)
	deckKey := game.ZoneKey(a.Player, s.Config.DeckZone)
	hand, err := s.Zone(handKey)
	if err != nil {
		return err
	}
	if len(hand.Cards) == 0 {
		return &game.RuleError{Reason: "cannot mulligan an empty hand"}
	}
	ids := make([]string, len(hand.Cards))
	for i, c := range hand.Cards {
		ids[i] = c.InstanceID
	}
	if err := game.ExecuteAction(s, game.MoveCardStack(a.Player, ids, handKey, deckKey, game.PositionBottom)); err != nil {
		return err
	}
	if err := game.ExecuteAction(s, game.Shuffle(a.Player, deckKey)); err != nil {
		return err
	}
	if err := game.ExecuteAction(s, game.Draw(a.Player, MulliganHandSize)); err != nil {
		return err
	}
	ps.Mulligans[a.Player]++
	s.AppendLog(fmt.Sprintf("%s takes a mulligan", s.PlayerName(a.Player)))
	return nil
}

// annotateMulligans surfaces mulligan usage in the projected view without
// exposing the raw plugin state.
func annotateMulligans(s *game.GameState, viewer int, view *game.ReadableGameState) {
	ps, ok := s.PluginState[stateKey].(*pluginState)
	if !ok {
		return
	}
	for p, n := range ps.Mulligans {
		if n > 0 {
			view.Log = append(view.Log, fmt.Sprintf("%s has used %d mulligan(s)", view.Players[p], n))
		}
	}
}
