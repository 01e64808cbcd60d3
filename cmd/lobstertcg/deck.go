package main

import (
	"fmt"

	"github.com/cklapperich/lobstertcg/internal/cards"
)

type DeckCmd struct {
	Library string `arg:"" help:"Path to a card library JSON file" type:"path"`
	Deck    string `arg:"" help:"Path to a deck list JSON file" type:"path"`
}

// Run validates the deck list against the library and prints a summary.
func (c *DeckCmd) Run(ctx *Context) error {
	lib, err := cards.LoadLibrary(c.Library)
	if err != nil {
		return err
	}
	list, err := cards.LoadDeckList(c.Deck)
	if err != nil {
		return err
	}
	if err := list.Validate(lib); err != nil {
		return fmt.Errorf("deck is not legal: %w", err)
	}

	fmt.Printf("%s: %d cards, %d distinct templates\n", list.Name, list.Size(), len(list.Entries))
	for _, e := range list.Entries {
		tmpl, _ := lib.Get(e.TemplateID)
		fmt.Printf("  %dx %s (%s)\n", e.Count, tmpl.Name, tmpl.ID)
	}
	return nil
}
