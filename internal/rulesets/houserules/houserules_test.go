package houserules

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cklapperich/lobstertcg/internal/cards"
	"github.com/cklapperich/lobstertcg/internal/config"
	"github.com/cklapperich/lobstertcg/internal/game"
)

func newLoop(t *testing.T) *game.GameLoop {
	t.Helper()
	mat := config.DefaultPlaymat()
	s := game.NewGameState(
		mat.GameConfig([game.NumPlayers]string{"Alice", "Bob"}),
		game.WithRand(rand.New(rand.NewSource(7))),
	)
	lib := cards.DemoLibrary()
	deck, err := cards.DemoDeck().Build(lib)
	require.NoError(t, err)
	for p := 0; p < game.NumPlayers; p++ {
		require.NoError(t, game.LoadDeck(s, game.ZoneKey(p, "deck"), deck, true))
	}
	require.NoError(t, game.ExecuteAction(s, game.EndTurn(0)))
	require.NoError(t, game.ExecuteAction(s, game.EndTurn(1)))

	plugins := game.NewPluginManager(zaptest.NewLogger(t))
	require.NoError(t, plugins.Register(New()))
	return game.NewGameLoop(s, plugins, zaptest.NewLogger(t), game.LoopConfig{})
}

func TestDrawCapReplacement(t *testing.T) {
	l := newLoop(t)

	l.Submit(game.Draw(0, 7))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, game.StatusExecuted, results[0].Status)
	assert.Len(t, l.State().Zones["player1_hand"].Cards, MaxDrawPerAction)
}

func TestDrawWithinCapUntouched(t *testing.T) {
	l := newLoop(t)

	l.Submit(game.Draw(0, 2))
	_, err := l.ProcessAll()
	require.NoError(t, err)
	assert.Len(t, l.State().Zones["player1_hand"].Cards, 2)
}

func TestFaceDownCounterBlocked(t *testing.T) {
	l := newLoop(t)
	s := l.State()
	require.NoError(t, game.ExecuteAction(s, game.Draw(0, 1)))
	id := s.Zones["player1_hand"].Top().InstanceID
	require.NoError(t, game.ExecuteAction(s, game.MoveCard(0, id, "player1_hand", "player1_bench", game.PositionTop)))
	require.NoError(t, game.ExecuteAction(s, game.FlipCard(0, id, "player1_bench", game.OrientationFaceDown)))

	l.Submit(game.AddCounter(0, id, "player1_bench", "damage", 2))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, game.StatusBlocked, results[0].Status)
	assert.Contains(t, results[0].Reason, "face-down")
	assert.Equal(t, 0, s.Zones["player1_bench"].Top().Counters.Count("damage"))
}

func TestHandPeekWarning(t *testing.T) {
	l := newLoop(t)

	l.Submit(game.CreateDecision(0, 1, "look at your own hand", "player2_hand"))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, game.StatusExecuted, results[0].Status)
	require.Len(t, results[0].Warnings, 1)
	assert.Contains(t, results[0].Warnings[0], "opponent's hand")
}

func TestDiscardCleanupFollowUps(t *testing.T) {
	l := newLoop(t)
	s := l.State()
	// Plant a stadium-kind card on the bench.
	require.NoError(t, game.ExecuteAction(s, game.Shuffle(0, "player1_deck")))
	var stadiumID string
	for _, c := range s.Zones["player1_deck"].Cards {
		if c.Template.Kind == "stadium" {
			stadiumID = c.InstanceID
			break
		}
	}
	require.NotEmpty(t, stadiumID)
	require.NoError(t, game.ExecuteAction(s,
		game.PlaceOnZone(0, []string{stadiumID}, "player1_bench", game.PositionTop)))

	l.Submit(game.EndTurn(0))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	// end_turn plus the cleanup move it queued.
	require.Len(t, results, 2)
	assert.Equal(t, game.ActionMoveCard, results[1].Action.Type())
	assert.Empty(t, s.Zones["player1_bench"].Cards)
	discard := s.Zones["player1_discard"]
	require.Len(t, discard.Cards, 1)
	assert.Equal(t, stadiumID, discard.Top().InstanceID)
}

func TestMulligan(t *testing.T) {
	l := newLoop(t)
	s := l.State()
	l.Submit(game.Draw(0, 3))
	_, err := l.ProcessAll()
	require.NoError(t, err)
	before := s.AllInstanceIDs()

	l.Submit(game.NewCustomAction(ActionMulligan, 0, nil))
	results, err := l.ProcessAll()
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, game.StatusExecuted, results[0].Status)
	assert.Len(t, s.Zones["player1_hand"].Cards, MulliganHandSize)
	assert.Equal(t, before, s.AllInstanceIDs(), "mulligan conserves cards")

	// Second mulligan is blocked, and the limit survives a state clone.
	snap := game.Clone(s)
	l.Submit(game.NewCustomAction(ActionMulligan, 0, nil))
	results, err = l.ProcessAll()
	require.NoError(t, err)
	assert.Equal(t, game.StatusBlocked, results[0].Status)
	assert.Contains(t, results[0].Reason, "already mulliganed")
	assert.Equal(t, 1, snap.PluginState["houserules"].(*pluginState).Mulligans[0])
}

func TestMulliganEmptyHandBlocked(t *testing.T) {
	l := newLoop(t)

	l.Submit(game.NewCustomAction(ActionMulligan, 0, nil))
	results, err := l.ProcessAll()
	require.NoError(t, err)
	assert.Equal(t, game.StatusBlocked, results[0].Status)
}

func TestMulliganAnnotationInReadableState(t *testing.T) {
	l := newLoop(t)
	l.Submit(game.Draw(0, 3))
	l.Submit(game.NewCustomAction(ActionMulligan, 0, nil))
	_, err := l.ProcessAll()
	require.NoError(t, err)

	view, err := l.ReadableState(1)
	require.NoError(t, err)
	assert.Contains(t, view.Log[len(view.Log)-1], "Alice has used 1 mulligan")
}
