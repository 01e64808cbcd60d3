package game

import (
	"fmt"
	"sort"
	"strings"
)

// Placeholder identity for cards the viewer may not see. Counts survive the
// projection; identity, counters and flags do not.
const (
	HiddenTemplateID = "hidden"
	HiddenCardName   = "Hidden Card"
)

// ReadableCard is one card as a particular viewer sees it.
type ReadableCard struct {
	InstanceID  string         `json:"instance_id"`
	TemplateID  string         `json:"template_id"`
	Name        string         `json:"name"`
	Kind        string         `json:"kind,omitempty"`
	Text        string         `json:"text,omitempty"`
	Orientation Orientation    `json:"orientation"`
	Flags       []string       `json:"flags,omitempty"`
	Counters    map[string]int `json:"counters,omitempty"`
	Hidden      bool           `json:"hidden,omitempty"`
}

// ReadableZone is a zone projection. Count is always the true card count,
// even when every card is hidden.
type ReadableZone struct {
	Key   string         `json:"key"`
	Name  string         `json:"name"`
	Owner int            `json:"owner"` // -1 for shared zones
	Count int            `json:"count"`
	Cards []ReadableCard `json:"cards"`
}

type ReadableTurn struct {
	Number       int  `json:"number"`
	ActivePlayer int  `json:"active_player"`
	Ended        bool `json:"ended"`
}

// ReadableDecision mirrors PendingDecision for the projection.
type ReadableDecision struct {
	Creator int    `json:"creator"`
	Target  int    `json:"target"`
	Message string `json:"message,omitempty"`
}

// ReadableResult mirrors Result for the projection.
type ReadableResult struct {
	Winner int    `json:"winner"`
	Reason string `json:"reason"`
}

// ReadableGameState is everything one player is allowed to know, safe to
// serialize and hand to a client or an AI agent.
type ReadableGameState struct {
	Viewer       int               `json:"viewer"`
	TurnNumber   int               `json:"turn_number"`
	ActivePlayer int               `json:"active_player"`
	Phase        Phase             `json:"phase"`
	Players      []string          `json:"players"`
	Zones        []ReadableZone    `json:"zones"`
	Turn         *ReadableTurn     `json:"turn,omitempty"`
	Pending      *ReadableDecision `json:"pending,omitempty"`
	Result       *ReadableResult   `json:"result,omitempty"`
	Log          []string          `json:"log"`
}

// disambiguatedNames maps every instance id in the state to a display name
// that is unique per zone. When two different templates in a zone share a
// name, each gets a " (templateID)" suffix. The mapping ignores the viewer
// so ResolveCardName agrees with every projection.
func disambiguatedNames(s *GameState) map[string]string {
	names := make(map[string]string, len(s.Zones))
	for _, key := range s.ZoneKeys() {
		zone := s.Zones[key]
		templatesByName := make(map[string]map[string]bool)
		for _, c := range zone.Cards {
			set := templatesByName[c.Template.Name]
			if set == nil {
				set = make(map[string]bool)
				templatesByName[c.Template.Name] = set
			}
			set[c.Template.ID] = true
		}
		for _, c := range zone.Cards {
			if len(templatesByName[c.Template.Name]) > 1 {
				names[c.InstanceID] = fmt.Sprintf("%s (%s)", c.Template.Name, c.Template.ID)
			} else {
				names[c.InstanceID] = c.Template.Name
			}
		}
	}
	return names
}

func readableCard(c *CardInstance, viewer int, displayName string) ReadableCard {
	if !c.VisibleTo(viewer) {
		return ReadableCard{
			InstanceID:  c.InstanceID,
			TemplateID:  HiddenTemplateID,
			Name:        HiddenCardName,
			Orientation: c.Orientation,
			Hidden:      true,
		}
	}
	rc := ReadableCard{
		InstanceID:  c.InstanceID,
		TemplateID:  c.Template.ID,
		Name:        displayName,
		Kind:        c.Template.Kind,
		Text:        c.Template.Text,
		Orientation: c.Orientation,
	}
	if len(c.Flags) > 0 {
		rc.Flags = make([]string, 0, len(c.Flags))
		for f := range c.Flags {
			rc.Flags = append(rc.Flags, f)
		}
		sort.Strings(rc.Flags)
	}
	if !c.Counters.Empty() {
		rc.Counters = make(map[string]int, len(c.Counters))
		for t, n := range c.Counters {
			rc.Counters[string(t)] = n
		}
	}
	return rc
}

// ToReadableState projects the authoritative state for one viewer. The
// projection never leaks hidden identity: a card the viewer cannot see
// becomes the hidden placeholder, but zone counts stay truthful.
func ToReadableState(s *GameState, viewer int) (*ReadableGameState, error) {
	if viewer < 0 || viewer >= NumPlayers {
		return nil, fmt.Errorf("viewer %d is not a player", viewer)
	}
	names := disambiguatedNames(s)
	view := &ReadableGameState{
		Viewer:       viewer,
		TurnNumber:   s.TurnNumber,
		ActivePlayer: s.ActivePlayer,
		Phase:        s.Phase,
		Players:      make([]string, NumPlayers),
		Log:          append([]string(nil), s.Log...),
	}
	for i := range view.Players {
		view.Players[i] = s.PlayerName(i)
	}
	if s.CurrentTurn != nil {
		view.Turn = &ReadableTurn{
			Number:       s.CurrentTurn.Number,
			ActivePlayer: s.CurrentTurn.ActivePlayer,
			Ended:        s.CurrentTurn.Ended,
		}
	}
	if s.Pending != nil {
		view.Pending = &ReadableDecision{
			Creator: s.Pending.Creator,
			Target:  s.Pending.Target,
			Message: s.Pending.Message,
		}
	}
	if s.Result != nil {
		view.Result = &ReadableResult{Winner: s.Result.Winner, Reason: s.Result.Reason}
	}
	for _, key := range s.ZoneKeys() {
		zone := s.Zones[key]
		owner, _, err := ParseZoneKey(key)
		if err != nil {
			return nil, err
		}
		rz := ReadableZone{
			Key:   key,
			Name:  zone.Config.Name,
			Owner: owner,
			Count: len(zone.Cards),
			Cards: make([]ReadableCard, 0, len(zone.Cards)),
		}
		for _, c := range zone.Cards {
			rz.Cards = append(rz.Cards, readableCard(c, viewer, names[c.InstanceID]))
		}
		view.Zones = append(view.Zones, rz)
	}
	return view, nil
}

// ResolveCardName maps a display name back to an instance id within a
// zone. It accepts exactly the names ToReadableState produces, so a UI or
// agent can echo a name from its view and get the card it meant.
func ResolveCardName(s *GameState, name, zoneKey string) (string, error) {
	zone, err := s.Zone(zoneKey)
	if err != nil {
		return "", err
	}
	names := disambiguatedNames(s)
	var matches []string
	for _, c := range zone.Cards {
		if names[c.InstanceID] == name {
			matches = append(matches, c.InstanceID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no card named %q in zone %s", name, zoneKey)
	case 1:
		return matches[0], nil
	default:
		// Identical templates are interchangeable; anything else would have
		// been disambiguated above.
		return matches[0], nil
	}
}

// FormatReadable renders a projection as plain text, one zone per block.
// Plugins can register richer formatters through the manager.
func FormatReadable(view *ReadableGameState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn %d, %s phase, active: %s (viewing as %s)\n",
		view.TurnNumber, view.Phase, view.Players[view.ActivePlayer], view.Players[view.Viewer])
	if view.Result != nil {
		fmt.Fprintf(&b, "Game over: %s wins (%s)\n", view.Players[view.Result.Winner], view.Result.Reason)
	}
	if view.Pending != nil {
		fmt.Fprintf(&b, "Waiting on %s: %s\n", view.Players[view.Pending.Target], view.Pending.Message)
	}
	for _, z := range view.Zones {
		fmt.Fprintf(&b, "\n%s [%s] (%d cards)\n", z.Name, z.Key, z.Count)
		for i, c := range z.Cards {
			line := c.Name
			if c.Orientation == OrientationFaceDown {
				line += " (face down)"
			}
			if len(c.Counters) > 0 {
				parts := make([]string, 0, len(c.Counters))
				for _, t := range sortedCounterTypes(c.Counters) {
					parts = append(parts, fmt.Sprintf("%s x%d", t, c.Counters[t]))
				}
				line += " [" + strings.Join(parts, ", ") + "]"
			}
			fmt.Fprintf(&b, "  %d. %s\n", i+1, line)
		}
	}
	return b.String()
}

func sortedCounterTypes(counters map[string]int) []string {
	types := make([]string, 0, len(counters))
	for t := range counters {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
