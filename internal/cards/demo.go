package cards

import "github.com/cklapperich/lobstertcg/internal/game"

// DemoLibrary is a small built-in card pool so the demo commands run
// without any files on disk.
func DemoLibrary() Library {
	templates := []*game.CardTemplate{
		{ID: "rock-lobster", Name: "Rock Lobster", Kind: "creature", Text: "A sturdy opener."},
		{ID: "spiny-lobster", Name: "Spiny Lobster", Kind: "creature", Text: "Hits back when blocked."},
		{ID: "blue-claw", Name: "Blue Claw", Kind: "creature"},
		{ID: "butter-dish", Name: "Butter Dish", Kind: "item", Text: "Heal 2 damage."},
		{ID: "tide-pool", Name: "Tide Pool", Kind: "stadium", Text: "Both players draw one extra card."},
		{ID: "fishing-net", Name: "Fishing Net", Kind: "item", Text: "Search your deck for a creature."},
	}
	lib := make(Library, len(templates))
	for _, tmpl := range templates {
		lib[tmpl.ID] = tmpl
	}
	return lib
}

// DemoDeck is a legal deck over DemoLibrary.
func DemoDeck() *DeckList {
	return &DeckList{
		Name: "Starter Tide",
		Entries: []DeckEntry{
			{TemplateID: "rock-lobster", Count: 4},
			{TemplateID: "spiny-lobster", Count: 3},
			{TemplateID: "blue-claw", Count: 3},
			{TemplateID: "butter-dish", Count: 2},
			{TemplateID: "tide-pool", Count: 1},
			{TemplateID: "fishing-net", Count: 2},
		},
	}
}
