package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestLoop(t *testing.T, plugins *PluginManager) *GameLoop {
	t.Helper()
	s := newTestState(t)
	startPlaying(t, s)
	return NewGameLoop(s, plugins, zaptest.NewLogger(t), LoopConfig{})
}

func collectEvents(l *GameLoop, types ...EventType) *[]Event {
	var events []Event
	l.Events().SubscribeTyped(func(ev Event) {
		events = append(events, ev)
	}, types...)
	return &events
}

func TestLoopExecutesQueuedActions(t *testing.T) {
	l := newTestLoop(t, nil)
	events := collectEvents(l, EventActionQueued, EventActionExecuting, EventActionExecuted)

	l.Submit(Draw(0, 2))
	assert.Equal(t, 1, l.Pending())

	results, err := l.ProcessAll()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusExecuted, results[0].Status)
	assert.Len(t, l.State().Zones["player1_hand"].Cards, 2)

	require.Len(t, *events, 3)
	assert.Equal(t, EventActionQueued, (*events)[0].Type)
	assert.Equal(t, EventActionExecuting, (*events)[1].Type)
	assert.Equal(t, EventActionExecuted, (*events)[2].Type)
}

func TestLoopRecordsTurnActions(t *testing.T) {
	l := newTestLoop(t, nil)
	l.Submit(Draw(0, 1))
	l.Submit(EndTurn(0))
	_, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, l.History(), 2)
	// end_turn is recorded on the turn it ended, not the new one.
	endedTurn := l.History()[1].Snapshot
	assert.Equal(t, 2, endedTurn.TurnNumber)
	assert.Empty(t, l.State().CurrentTurn.Actions)
}

func TestLoopBlockedLeavesStateUntouched(t *testing.T) {
	plugins := NewPluginManager(nil)
	require.NoError(t, plugins.Register(&Plugin{
		Name: "no-draws",
		PreHooks: map[ActionType][]PreHook{
			ActionDraw: {{Run: func(s *GameState, a Action) HookResult {
				return Block("drawing is forbidden today")
			}}},
		},
	}))
	l := newTestLoop(t, plugins)
	blocked := collectEvents(l, EventActionBlocked)

	deckBefore := len(l.State().Zones["player1_deck"].Cards)
	l.Submit(WithSource(Draw(0, 3), SourceAI))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, StatusBlocked, results[0].Status)
	assert.Equal(t, "drawing is forbidden today", results[0].Reason)
	assert.Empty(t, l.State().Zones["player1_hand"].Cards)
	assert.Len(t, l.State().Zones["player1_deck"].Cards, deckBefore)
	assert.Empty(t, l.History(), "blocked actions leave no history entry")
	assert.Contains(t, l.State().Log[len(l.State().Log)-1], "drawing is forbidden today")
	require.Len(t, *blocked, 1)
	assert.Equal(t, "drawing is forbidden today", (*blocked)[0].Reason)
}

func TestLoopWarnings(t *testing.T) {
	plugins := NewPluginManager(nil)
	require.NoError(t, plugins.Register(&Plugin{
		Name: "nag",
		PreHooks: map[ActionType][]PreHook{
			AnyAction: {{Run: func(s *GameState, a Action) HookResult {
				return Warn("are you sure?")
			}}},
		},
	}))
	l := newTestLoop(t, plugins)

	l.Submit(Draw(0, 1))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, StatusExecuted, results[0].Status, "warnings do not stop execution")
	assert.Equal(t, []string{"are you sure?"}, results[0].Warnings)
	assert.Contains(t, l.State().Log, "are you sure?")
}

func TestLoopReplacement(t *testing.T) {
	plugins := NewPluginManager(nil)
	require.NoError(t, plugins.Register(&Plugin{
		Name: "draw-cap",
		PreHooks: map[ActionType][]PreHook{
			ActionDraw: {{Run: func(s *GameState, a Action) HookResult {
				draw := a.(*DrawAction)
				if draw.Count > 1 {
					capped := Draw(draw.Player, 1)
					capped.ActionBase = draw.ActionBase
					return Replace(capped)
				}
				return Continue()
			}}},
		},
	}))
	l := newTestLoop(t, plugins)
	replaced := collectEvents(l, EventActionReplaced)

	l.Submit(Draw(0, 5))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, StatusExecuted, results[0].Status)
	assert.Len(t, l.State().Zones["player1_hand"].Cards, 1, "the replacement executed")
	require.Len(t, *replaced, 1)
	assert.Equal(t, 5, (*replaced)[0].Action.(*DrawAction).Count)
	assert.Equal(t, 1, (*replaced)[0].Replacement.(*DrawAction).Count)
}

func TestLoopReplacementRunaway(t *testing.T) {
	plugins := NewPluginManager(nil)
	require.NoError(t, plugins.Register(&Plugin{
		Name: "infinite-rewrite",
		PreHooks: map[ActionType][]PreHook{
			ActionDraw: {{Run: func(s *GameState, a Action) HookResult {
				return Replace(Draw(a.Actor(), a.(*DrawAction).Count+1))
			}}},
		},
	}))
	l := newTestLoop(t, plugins)

	l.Submit(Draw(0, 1))
	_, err := l.ProcessAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replaced more than")
}

func TestLoopFollowUpsRunDepthFirst(t *testing.T) {
	plugins := NewPluginManager(nil)
	require.NoError(t, plugins.Register(&Plugin{
		Name: "draw-tax",
		PostHooks: map[ActionType][]PostHook{
			ActionDraw: {{Run: func(s *GameState, a Action) []Action {
				if a.Actor() == 0 {
					// Opponent draws too, as a granted effect.
					return []Action{WithCardEffect(Draw(1, 1))}
				}
				return nil
			}}},
		},
	}))
	l := newTestLoop(t, plugins)

	l.Submit(Draw(0, 1))
	l.Submit(EndTurn(0))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 3)
	// The follow-up draw runs before the already queued end_turn.
	assert.Equal(t, ActionDraw, results[1].Action.Type())
	assert.Equal(t, 1, results[1].Action.Actor())
	assert.Equal(t, ActionEndTurn, results[2].Action.Type())
	assert.Len(t, l.State().Zones["player2_hand"].Cards, 1)
}

func TestLoopIterationCeiling(t *testing.T) {
	plugins := NewPluginManager(nil)
	require.NoError(t, plugins.Register(&Plugin{
		Name: "ping-pong",
		PostHooks: map[ActionType][]PostHook{
			ActionShuffle: {{Run: func(s *GameState, a Action) []Action {
				return []Action{Shuffle(a.Actor(), "player1_deck")}
			}}},
		},
	}))
	s := newTestState(t)
	startPlaying(t, s)
	l := NewGameLoop(s, plugins, nil, LoopConfig{MaxIterations: 20, MaxFollowUpDepth: 1000})

	l.Submit(Shuffle(0, "player1_deck"))
	results, err := l.ProcessAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without draining the queue")
	assert.Len(t, results, 20)
}

func TestLoopFollowUpDepthLimit(t *testing.T) {
	plugins := NewPluginManager(nil)
	require.NoError(t, plugins.Register(&Plugin{
		Name: "chain",
		PostHooks: map[ActionType][]PostHook{
			ActionShuffle: {{Run: func(s *GameState, a Action) []Action {
				return []Action{Shuffle(a.Actor(), "player1_deck")}
			}}},
		},
	}))
	s := newTestState(t)
	startPlaying(t, s)
	l := NewGameLoop(s, plugins, nil, LoopConfig{MaxFollowUpDepth: 3})

	l.Submit(Shuffle(0, "player1_deck"))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	// Depths 0 through 3 execute; the chain is cut after that.
	require.Len(t, results, 4)
	for _, res := range results {
		assert.Equal(t, StatusExecuted, res.Status)
	}
	assert.Equal(t, 1, results[2].FollowUps)
	assert.Equal(t, 0, results[3].FollowUps, "over-deep follow-ups are dropped")
	assert.Equal(t, 0, l.Pending())
}

func TestLoopOpponentZoneBlocked(t *testing.T) {
	l := newTestLoop(t, nil)
	l.Submit(Draw(1, 1))
	_, err := l.ProcessAll()
	require.NoError(t, err)
	card := l.State().Zones["player2_hand"].Top()

	// Player 0 reaches into player 1's hand without permission.
	steal := MoveCard(0, card.InstanceID, "player2_hand", "player1_hand", PositionTop)
	l.Submit(WithSource(steal, SourceAI))
	results, err := l.ProcessAll()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusBlocked, results[0].Status)
	assert.Contains(t, results[0].Reason, "belongs to Bob")
	assert.Contains(t, results[0].Reason, "allowed_by_card_effect", "AI submissions get the retry hint")
	assert.Len(t, l.State().Zones["player2_hand"].Cards, 1)

	// The same action with a card effect goes through.
	allowed := MoveCard(0, card.InstanceID, "player2_hand", "player1_hand", PositionTop)
	l.Submit(WithCardEffect(allowed))
	results, err = l.ProcessAll()
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, results[0].Status)
}

func TestLoopOpponentZoneWarnsForUI(t *testing.T) {
	l := newTestLoop(t, nil)
	l.Submit(Draw(1, 1))
	_, err := l.ProcessAll()
	require.NoError(t, err)
	card := l.State().Zones["player2_hand"].Top()

	// A human reaching across the table gets a warning, not a block.
	l.Submit(MoveCard(0, card.InstanceID, "player2_hand", "player1_hand", PositionTop))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, StatusExecuted, results[0].Status)
	require.Len(t, results[0].Warnings, 1)
	assert.Contains(t, results[0].Warnings[0], "belongs to Bob")
	assert.Len(t, l.State().Zones["player1_hand"].Cards, 1)
}

func TestLoopCapacityPreCheck(t *testing.T) {
	l := newTestLoop(t, nil)
	s := l.State()
	require.NoError(t, ExecuteAction(s, Draw(0, 4)))
	hand := s.Zones["player1_hand"]
	for i := 0; i < 3; i++ {
		require.NoError(t, ExecuteAction(s,
			MoveCard(0, hand.Top().InstanceID, "player1_hand", "player1_bench", PositionTop)))
	}

	blocked := collectEvents(l, EventActionBlocked)
	l.Submit(MoveCard(0, hand.Top().InstanceID, "player1_hand", "player1_bench", PositionTop))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, StatusBlocked, results[0].Status)
	assert.Contains(t, results[0].Reason, "full")
	assert.Contains(t, s.Log[len(s.Log)-1], "full")
	assert.Len(t, s.Zones["player1_bench"].Cards, 3)
	assert.Len(t, *blocked, 1)
}

func TestLoopOpenAccessZoneAllowed(t *testing.T) {
	l := newTestLoop(t, nil)
	l.Submit(Draw(1, 1))
	_, err := l.ProcessAll()
	require.NoError(t, err)
	card := l.State().Zones["player2_hand"].Top()
	require.NoError(t, ExecuteAction(l.State(),
		MoveCard(1, card.InstanceID, "player2_hand", "player2_discard", PositionTop)))

	// Discard piles are open access: no card effect needed.
	l.Submit(Shuffle(0, "player2_discard"))
	results, err := l.ProcessAll()
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, results[0].Status)
}

func TestLoopValidatorRejects(t *testing.T) {
	l := newTestLoop(t, nil)
	rejected := collectEvents(l, EventActionRejected)
	l.AddValidator(func(s *GameState, a Action) string {
		if a.Actor() != s.ActivePlayer {
			return "not your turn"
		}
		return ""
	})

	l.Submit(Draw(1, 1))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, StatusRejected, results[0].Status)
	assert.Equal(t, "not your turn", results[0].Reason)
	require.Len(t, *rejected, 1)
	assert.Empty(t, l.State().Zones["player2_hand"].Cards)
}

func TestLoopGameOverBlocksEverythingButConcede(t *testing.T) {
	l := newTestLoop(t, nil)
	l.Submit(DeclareVictory(0, 0, "test win"))
	_, err := l.ProcessAll()
	require.NoError(t, err)

	l.Submit(Draw(0, 1))
	results, err := l.ProcessAll()
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, results[0].Status)
	assert.Contains(t, results[0].Reason, "over")
}

func TestLoopCustomExecutor(t *testing.T) {
	plugins := NewPluginManager(nil)
	require.NoError(t, plugins.Register(&Plugin{
		Name: "house",
		Executors: map[ActionType]CustomExecutor{
			"magic_draw": func(s *GameState, a *CustomAction) error {
				return ExecuteAction(s, Draw(a.Player, 2))
			},
		},
	}))
	l := newTestLoop(t, plugins)

	l.Submit(NewCustomAction("magic_draw", 0, nil))
	results, err := l.ProcessAll()
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, results[0].Status)
	assert.Len(t, l.State().Zones["player1_hand"].Cards, 2)
}

func TestLoopCustomActionWithoutExecutor(t *testing.T) {
	l := newTestLoop(t, nil)
	l.Submit(NewCustomAction("mystery", 0, nil))
	_, err := l.ProcessAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no executor")
}

func TestLoopObserverQueuesAutoActions(t *testing.T) {
	l := newTestLoop(t, nil)
	auto := collectEvents(l, EventAutoActionQueued)
	l.AddObserver(func(s *GameState) []Action {
		// Milling out loses the game.
		if s.Result == nil && len(s.Zones["player1_deck"].Cards) == 0 {
			return []Action{DeclareVictory(1, 1, "Alice decked out")}
		}
		return nil
	})

	l.Submit(Draw(0, len(testTemplates)))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, ActionDeclareVictory, results[1].Action.Type())
	require.NotNil(t, l.State().Result)
	assert.Equal(t, 1, l.State().Result.Winner)
	assert.Len(t, *auto, 1)
}

func TestLoopObserverAutoActionsRunDepthFirst(t *testing.T) {
	l := newTestLoop(t, nil)
	l.AddObserver(func(s *GameState) []Action {
		if s.Result == nil && len(s.Zones["player1_deck"].Cards) == 0 {
			return []Action{DeclareVictory(1, 1, "Alice decked out")}
		}
		return nil
	})

	l.Submit(Draw(0, len(testTemplates)))
	l.Submit(EndTurn(0))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	// The auto victory resolves before the already queued end_turn, which
	// then finds the game over.
	require.Len(t, results, 3)
	assert.Equal(t, ActionDeclareVictory, results[1].Action.Type())
	assert.Equal(t, StatusExecuted, results[1].Status)
	assert.Equal(t, ActionEndTurn, results[2].Action.Type())
	assert.Equal(t, StatusBlocked, results[2].Status)
	assert.Equal(t, 1, l.State().TurnNumber, "the turn never ended")
}

func TestLoopTurnEvents(t *testing.T) {
	l := newTestLoop(t, nil)
	turns := collectEvents(l, EventTurnEnded, EventTurnStarted)

	l.Submit(Draw(0, 1))
	l.Submit(EndTurn(0))
	_, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, *turns, 2)
	assert.Equal(t, EventTurnEnded, (*turns)[0].Type)
	assert.Equal(t, EventTurnStarted, (*turns)[1].Type)
	assert.Equal(t, 2, (*turns)[1].Turn)
	assert.Equal(t, 1, (*turns)[1].ActivePlayer)
}

func TestLoopDecisionEmitsTurnEvents(t *testing.T) {
	l := newTestLoop(t, nil)
	turns := collectEvents(l, EventTurnEnded, EventTurnStarted)

	// Decisions hand the active-player role over and back.
	l.Submit(CreateDecision(0, 1, "check"))
	l.Submit(ResolveDecision(1))
	_, err := l.ProcessAll()
	require.NoError(t, err)

	assert.Len(t, *turns, 4)
	assert.Equal(t, 1, l.State().TurnNumber, "no turn actually ended")
}

func TestLoopRewindTo(t *testing.T) {
	l := newTestLoop(t, nil)
	l.Submit(Draw(0, 1))
	l.Submit(Draw(0, 1))
	l.Submit(Draw(0, 1))
	_, err := l.ProcessAll()
	require.NoError(t, err)

	require.NoError(t, l.RewindTo(0))
	assert.Len(t, l.History(), 1)
	assert.Len(t, l.State().Zones["player1_hand"].Cards, 1)

	require.NoError(t, l.RewindTo(-1))
	assert.Empty(t, l.History())
	assert.Empty(t, l.State().Zones["player1_hand"].Cards)

	assert.Error(t, l.RewindTo(5))
}

func TestLoopRewind(t *testing.T) {
	l := newTestLoop(t, nil)
	l.Submit(Draw(0, 2))
	l.Submit(EndTurn(0))
	l.Submit(Draw(1, 3))
	_, err := l.ProcessAll()
	require.NoError(t, err)
	require.Len(t, l.History(), 3)

	require.NoError(t, l.Rewind(2))

	s := l.State()
	assert.Len(t, l.History(), 1)
	assert.Equal(t, 1, s.TurnNumber)
	assert.Equal(t, 0, s.ActivePlayer)
	assert.Len(t, s.Zones["player1_hand"].Cards, 2)
	assert.Empty(t, s.Zones["player2_hand"].Cards)

	// Rewinding everything restores the untouched starting state.
	require.NoError(t, l.Rewind(10))
	s = l.State()
	assert.Empty(t, l.History())
	assert.Empty(t, s.Zones["player1_hand"].Cards)
	assert.Len(t, s.Zones["player1_deck"].Cards, len(testTemplates))
}

func TestLoopRewindThenContinue(t *testing.T) {
	l := newTestLoop(t, nil)
	l.Submit(Draw(0, 2))
	_, err := l.ProcessAll()
	require.NoError(t, err)

	require.NoError(t, l.Rewind(1))
	l.Submit(Draw(0, 1))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	assert.Equal(t, StatusExecuted, results[0].Status)
	assert.Len(t, l.State().Zones["player1_hand"].Cards, 1, "play continues from the rewound state")
}

func TestPluginPriorityOrder(t *testing.T) {
	plugins := NewPluginManager(nil)
	var order []string
	require.NoError(t, plugins.Register(&Plugin{
		Name: "ordered",
		PreHooks: map[ActionType][]PreHook{
			ActionDraw: {
				{Priority: 10, Run: func(s *GameState, a Action) HookResult {
					order = append(order, "high")
					return Continue()
				}},
				{Priority: 1, Run: func(s *GameState, a Action) HookResult {
					order = append(order, "low")
					return Continue()
				}},
			},
			AnyAction: {
				{Priority: 5, Run: func(s *GameState, a Action) HookResult {
					order = append(order, "wildcard")
					return Continue()
				}},
			},
		},
	}))
	l := newTestLoop(t, plugins)

	l.Submit(Draw(0, 1))
	_, err := l.ProcessAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"high", "wildcard", "low"}, order)
}

func TestPluginHighestPriorityWinsBlockRace(t *testing.T) {
	plugins := NewPluginManager(nil)
	require.NoError(t, plugins.Register(&Plugin{
		Name: "competing",
		PreHooks: map[ActionType][]PreHook{
			ActionDraw: {
				{Priority: 1, Run: func(s *GameState, a Action) HookResult {
					return Block("house rule forbids this")
				}},
				{Priority: 10, Run: func(s *GameState, a Action) HookResult {
					return Block("tournament rule forbids this")
				}},
			},
		},
	}))
	l := newTestLoop(t, plugins)

	l.Submit(Draw(0, 1))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, StatusBlocked, results[0].Status)
	assert.Equal(t, "tournament rule forbids this", results[0].Reason)
}

func TestPluginWarnShortCircuitsRemainingHooks(t *testing.T) {
	plugins := NewPluginManager(nil)
	lowRan := false
	require.NoError(t, plugins.Register(&Plugin{
		Name: "cautious",
		PreHooks: map[ActionType][]PreHook{
			ActionDraw: {
				{Priority: 10, Run: func(s *GameState, a Action) HookResult {
					return Warn("looks odd")
				}},
				{Priority: 1, Run: func(s *GameState, a Action) HookResult {
					lowRan = true
					return Block("never reached")
				}},
			},
		},
	}))
	l := newTestLoop(t, plugins)

	l.Submit(Draw(0, 1))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, StatusExecuted, results[0].Status)
	assert.Equal(t, []string{"looks odd"}, results[0].Warnings)
	assert.False(t, lowRan, "warn must short-circuit lower-priority hooks")
}

func TestPluginDuplicateExecutorRejected(t *testing.T) {
	plugins := NewPluginManager(nil)
	exec := func(s *GameState, a *CustomAction) error { return nil }
	require.NoError(t, plugins.Register(&Plugin{
		Name:      "first",
		Executors: map[ActionType]CustomExecutor{"boom": exec},
	}))
	err := plugins.Register(&Plugin{
		Name:      "second",
		Executors: map[ActionType]CustomExecutor{"boom": exec},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has an executor")
}
