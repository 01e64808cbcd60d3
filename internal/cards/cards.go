// Package cards loads card template libraries and deck lists from JSON
// files and turns them into the template slices the engine's deck loader
// consumes. The engine itself never reads files; this package is the only
// place that knows cards live on disk.
package cards

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/cklapperich/lobstertcg/internal/game"
)

// Library is a card pool keyed by template id.
type Library map[string]*game.CardTemplate

// LoadLibrary reads a JSON array of card templates.
func LoadLibrary(path string) (Library, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading card library: %w", err)
	}
	var templates []*game.CardTemplate
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("parsing card library %s: %w", path, err)
	}
	lib := make(Library, len(templates))
	for _, tmpl := range templates {
		if tmpl.ID == "" {
			return nil, fmt.Errorf("card library %s: template %q has no id", path, tmpl.Name)
		}
		if _, dup := lib[tmpl.ID]; dup {
			return nil, fmt.Errorf("card library %s: duplicate template id %q", path, tmpl.ID)
		}
		lib[tmpl.ID] = tmpl
	}
	return lib, nil
}

// Get looks up a template by id.
func (l Library) Get(id string) (*game.CardTemplate, bool) {
	tmpl, ok := l[id]
	return tmpl, ok
}

// IDs returns every template id in sorted order.
func (l Library) IDs() []string {
	ids := make([]string, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DeckEntry is one line of a deck list.
type DeckEntry struct {
	TemplateID string `json:"template_id"`
	Count      int    `json:"count"`
}

// DeckList names a deck and its contents. Entry order is the load order:
// the last entry ends up nearest the top before any shuffle.
type DeckList struct {
	Name    string      `json:"name"`
	Entries []DeckEntry `json:"entries"`
}

// LoadDeckList reads a deck list JSON file.
func LoadDeckList(path string) (*DeckList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deck list: %w", err)
	}
	var list DeckList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parsing deck list %s: %w", path, err)
	}
	return &list, nil
}

// Size is the total number of cards in the deck.
func (d *DeckList) Size() int {
	n := 0
	for _, e := range d.Entries {
		n += e.Count
	}
	return n
}

// Validate checks every entry against the library.
func (d *DeckList) Validate(lib Library) error {
	for _, e := range d.Entries {
		if e.Count <= 0 {
			return fmt.Errorf("deck %s: entry %s has non-positive count %d", d.Name, e.TemplateID, e.Count)
		}
		if _, ok := lib[e.TemplateID]; !ok {
			return fmt.Errorf("deck %s: unknown template %q", d.Name, e.TemplateID)
		}
	}
	return nil
}

// Build expands the deck list into the template slice game.LoadDeck takes,
// count copies per entry in entry order.
func (d *DeckList) Build(lib Library) ([]*game.CardTemplate, error) {
	if err := d.Validate(lib); err != nil {
		return nil, err
	}
	templates := make([]*game.CardTemplate, 0, d.Size())
	for _, e := range d.Entries {
		tmpl := lib[e.TemplateID]
		for i := 0; i < e.Count; i++ {
			templates = append(templates, tmpl)
		}
	}
	return templates, nil
}
