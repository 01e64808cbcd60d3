package main

import (
	"fmt"
	"math/rand"

	"github.com/cklapperich/lobstertcg/internal/cards"
	"github.com/cklapperich/lobstertcg/internal/game"
	"github.com/cklapperich/lobstertcg/internal/rulesets/houserules"
)

type DemoCmd struct {
	Viewer int   `default:"0" help:"Player index whose view to print (0 or 1)"`
	Seed   int64 `default:"1" help:"RNG seed for deterministic shuffles"`
}

// Run plays a short scripted game through the full loop with the house
// rules registered, then prints the game log and the chosen player's view.
func (c *DemoCmd) Run(ctx *Context) error {
	if c.Viewer < 0 || c.Viewer >= game.NumPlayers {
		return fmt.Errorf("viewer must be 0 or 1, got %d", c.Viewer)
	}

	state := game.NewGameState(
		ctx.Config.Playmat.GameConfig([game.NumPlayers]string{"Alice", "Bob"}),
		game.WithRand(rand.New(rand.NewSource(c.Seed))),
	)
	lib := cards.DemoLibrary()
	deck, err := cards.DemoDeck().Build(lib)
	if err != nil {
		return err
	}
	for p := 0; p < game.NumPlayers; p++ {
		if err := game.LoadDeck(state, game.ZoneKey(p, ctx.Config.Playmat.DeckZone), deck, true); err != nil {
			return err
		}
	}

	plugins := game.NewPluginManager(ctx.Logger)
	if err := plugins.Register(houserules.New()); err != nil {
		return err
	}
	loop := game.NewGameLoop(state, plugins, ctx.Logger, ctx.Config.Loop.GameLoopConfig())

	// Stages let later actions reference cards drawn by earlier ones.
	stages := []func() []game.Action{
		func() []game.Action {
			return []game.Action{
				game.EndTurn(0),
				game.EndTurn(1),
				game.Draw(0, 7), // capped to 3 by the house rules
				game.Draw(1, 3),
			}
		},
		func() []game.Action {
			s := loop.State()
			hand, err := s.Zone(game.ZoneKey(0, s.Config.HandZone))
			if err != nil || len(hand.Cards) == 0 {
				return nil
			}
			return []game.Action{
				game.MoveCard(0, hand.Top().InstanceID,
					game.ZoneKey(0, s.Config.HandZone), game.ZoneKey(0, "bench"), game.PositionTop),
				game.RevealHand(0, "showing my opener"),
				game.ResolveDecision(1),
				game.EndTurn(0),
			}
		},
		func() []game.Action {
			return []game.Action{
				game.Draw(1, 1),
				game.EndTurn(1),
			}
		},
	}
	for _, stage := range stages {
		for _, a := range stage() {
			loop.Submit(a)
		}
		results, err := loop.ProcessAll()
		if err != nil {
			return err
		}
		for _, res := range results {
			if res.Status != game.StatusExecuted {
				fmt.Printf("%s %s: %s\n", res.Status, res.Action.Type(), res.Reason)
			}
			for _, w := range res.Warnings {
				fmt.Printf("warning on %s: %s\n", res.Action.Type(), w)
			}
		}
	}

	fmt.Println("--- game log ---")
	for _, line := range loop.State().Log {
		fmt.Println(line)
	}

	view, err := loop.ReadableState(c.Viewer)
	if err != nil {
		return err
	}
	fmt.Println("--- view ---")
	fmt.Print(game.FormatReadable(view))
	return nil
}
