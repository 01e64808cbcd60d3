// Package game implements a game-agnostic turn-based state engine for
// zone-based card games: the authoritative game state, an action reducer,
// a plugin hook pipeline, the action-processing loop and the per-player
// visibility projection.
package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cklapperich/lobstertcg/internal/game/counters"
	"github.com/cklapperich/lobstertcg/internal/game/idgen"
)

// NumPlayers is fixed: the engine models exactly two players.
const NumPlayers = 2

// Phase represents the coarse lifecycle phase of a game.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Visibility classifies a zone's default card visibility.
type Visibility string

const (
	// VisibilityPublic zones show card identity to both players.
	VisibilityPublic Visibility = "public"
	// VisibilityOwner zones hide identity from the opponent but let the
	// owner inspect contents (a hand).
	VisibilityOwner Visibility = "owner"
	// VisibilityHidden zones hide identity from everyone (a deck, prizes).
	VisibilityHidden Visibility = "hidden"
)

// Orientation is the physical facing of a card in a zone.
type Orientation string

const (
	OrientationFaceUp   Orientation = "face_up"
	OrientationFaceDown Orientation = "face_down"
)

// ZoneConfig describes a zone's rules: ordering, default visibility and
// orientation, capacity, and whether the zone is shared between players.
type ZoneConfig struct {
	ID          string
	Name        string
	Shared      bool
	Ordered     bool
	Visibility  Visibility
	Orientation Orientation
	// MaxCards caps the zone size; zero means unlimited.
	MaxCards int
	// OpenAccess marks zones (discard piles) the opponent may legally
	// target without a card effect.
	OpenAccess bool
}

// CardTemplate is the immutable identity of a card: what is printed on it.
// Instances reference templates and never mutate them.
type CardTemplate struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Kind string            `json:"kind,omitempty"`
	Text string            `json:"text,omitempty"`
	Data map[string]string `json:"data,omitempty"`
}

// CardInstance is one physical card in play. The template reference is
// immutable; visibility, orientation, flags and counters mutate as the
// game progresses.
type CardInstance struct {
	InstanceID  string
	Template    *CardTemplate
	Visibility  [NumPlayers]bool
	Orientation Orientation
	// Flags hold transient per-turn markers such as "played_this_turn".
	Flags    map[string]bool
	Counters counters.Counters
}

// FlagPlayedThisTurn marks a card that entered a zone this turn. It is
// cleared by end_turn.
const FlagPlayedThisTurn = "played_this_turn"

// VisibleTo reports whether the given player may see the card's identity.
func (c *CardInstance) VisibleTo(player int) bool {
	if player < 0 || player >= NumPlayers {
		return false
	}
	return c.Visibility[player]
}

// Public reports whether both players may see the card's identity.
func (c *CardInstance) Public() bool {
	return c.Visibility[0] && c.Visibility[1]
}

// Zone is an ordered container of cards. Index 0 is the visual bottom; the
// last element is the visual top.
type Zone struct {
	Config ZoneConfig
	Cards  []*CardInstance
}

// Top returns the top-most card, or nil for an empty zone.
func (z *Zone) Top() *CardInstance {
	if len(z.Cards) == 0 {
		return nil
	}
	return z.Cards[len(z.Cards)-1]
}

// Contains reports whether the zone holds the given instance id, and at
// which index.
func (z *Zone) Contains(instanceID string) (int, bool) {
	for i, c := range z.Cards {
		if c.InstanceID == instanceID {
			return i, true
		}
	}
	return -1, false
}

// PlayerInfo records per-player bookkeeping that is not card state.
type PlayerInfo struct {
	Name      string
	SetupDone bool
}

// Turn records one turn: its number, the active player, and the ordered
// list of actions executed during it. Actions is append-only.
type Turn struct {
	Number       int
	ActivePlayer int
	Actions      []Action
	Ended        bool
}

// PendingDecision is a bounded sub-turn: control temporarily passes to the
// target player, optionally with zones revealed, until they acknowledge.
type PendingDecision struct {
	Creator       int
	Target        int
	Message       string
	RevealedZones []string
}

// Result is the terminal outcome of a game.
type Result struct {
	Winner int    `json:"winner"`
	Reason string `json:"reason"`
}

// GameConfig is everything needed to build a fresh GameState. Deck-list and
// playmat loaders produce one of these; the engine is unaware of how.
type GameConfig struct {
	PlayerNames [NumPlayers]string
	// PlayerZones are instantiated once per player under player{N}_ keys.
	PlayerZones []ZoneConfig
	// SharedZones are instantiated once under their bare id.
	SharedZones []ZoneConfig
	// DeckZone and HandZone name the per-player zone ids the draw action
	// operates on. Defaults: "deck" and "hand".
	DeckZone string
	HandZone string
}

func (c GameConfig) withDefaults() GameConfig {
	if c.DeckZone == "" {
		c.DeckZone = "deck"
	}
	if c.HandZone == "" {
		c.HandZone = "hand"
	}
	for i := range c.PlayerNames {
		if c.PlayerNames[i] == "" {
			c.PlayerNames[i] = fmt.Sprintf("Player %d", i+1)
		}
	}
	return c
}

// GameState is the single authoritative state of one game. It is owned by
// the GameLoop that wraps it and mutated in place by the reducer and by
// plugin hooks; it is only ever replaced wholesale by a rewind.
type GameState struct {
	TurnNumber   int
	ActivePlayer int
	Phase        Phase
	Zones        map[string]*Zone
	Players      [NumPlayers]PlayerInfo
	CurrentTurn  *Turn
	Pending      *PendingDecision
	Result       *Result
	// Log is the append-only human-readable game log. Blocked and warned
	// reasons land here so they can be shown directly to a player or fed
	// back to an AI agent.
	Log []string
	// PluginState is opaque storage owned by rule modules, keyed by
	// plugin-chosen names.
	PluginState map[string]any

	Config GameConfig

	ids idgen.Generator
	rng *rand.Rand
}

// StateOption customizes state construction.
type StateOption func(*GameState)

// WithIDGenerator injects the instance-id generator used by deck loading.
func WithIDGenerator(g idgen.Generator) StateOption {
	return func(s *GameState) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithRand injects the random source used by shuffles, so tests can make
// shuffle order deterministic.
func WithRand(r *rand.Rand) StateOption {
	return func(s *GameState) {
		if r != nil {
			s.rng = r
		}
	}
}

// NewGameState builds a fresh state from a GameConfig: one zone per
// configured player zone per player, plus each shared zone once. The game
// starts in the setup phase on turn 0 with player 0 active.
func NewGameState(cfg GameConfig, opts ...StateOption) *GameState {
	cfg = cfg.withDefaults()
	state := &GameState{
		TurnNumber:   0,
		ActivePlayer: 0,
		Phase:        PhaseSetup,
		Zones:        make(map[string]*Zone),
		CurrentTurn:  &Turn{Number: 0, ActivePlayer: 0},
		PluginState:  make(map[string]any),
		Config:       cfg,
		ids:          idgen.NewSequence(nil),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for i := range state.Players {
		state.Players[i] = PlayerInfo{Name: cfg.PlayerNames[i]}
	}
	for _, zc := range cfg.PlayerZones {
		zc.Shared = false
		for p := 0; p < NumPlayers; p++ {
			state.Zones[ZoneKey(p, zc.ID)] = &Zone{Config: zc}
		}
	}
	for _, zc := range cfg.SharedZones {
		zc.Shared = true
		state.Zones[zc.ID] = &Zone{Config: zc}
	}
	for _, opt := range opts {
		opt(state)
	}
	return state
}

// ZoneKey builds the key for a per-player zone. Player indexes are 0-based
// internally and 1-based in keys: player 0 owns "player1_deck".
func ZoneKey(player int, zoneID string) string {
	return fmt.Sprintf("player%d_%s", player+1, zoneID)
}

// ParseZoneKey splits a zone key into its owner (-1 for shared zones) and
// zone id. Malformed per-player keys are an error.
func ParseZoneKey(key string) (owner int, zoneID string, err error) {
	if !strings.HasPrefix(key, "player") {
		return -1, key, nil
	}
	rest := strings.TrimPrefix(key, "player")
	idx := strings.Index(rest, "_")
	if idx <= 0 {
		return -1, key, nil // bare shared zone that happens to start with "player"
	}
	n, convErr := strconv.Atoi(rest[:idx])
	if convErr != nil {
		return -1, key, nil
	}
	zoneID = rest[idx+1:]
	if zoneID == "" {
		return 0, "", fmt.Errorf("malformed zone key %q: empty zone id", key)
	}
	if n < 1 || n > NumPlayers {
		return 0, "", fmt.Errorf("malformed zone key %q: player index out of range", key)
	}
	return n - 1, zoneID, nil
}

// Zone resolves a zone key. Unknown keys are a structural error: the caller
// referenced a zone the playmat never configured.
func (s *GameState) Zone(key string) (*Zone, error) {
	z, ok := s.Zones[key]
	if !ok {
		return nil, fmt.Errorf("unknown zone %q", key)
	}
	return z, nil
}

// ZoneKeys returns all zone keys in sorted order, for deterministic
// iteration.
func (s *GameState) ZoneKeys() []string {
	keys := make([]string, 0, len(s.Zones))
	for k := range s.Zones {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FindCard locates an instance anywhere in the state. Zones are searched in
// sorted key order so results are deterministic.
func (s *GameState) FindCard(instanceID string) (zoneKey string, card *CardInstance, ok bool) {
	for _, key := range s.ZoneKeys() {
		if i, found := s.Zones[key].Contains(instanceID); found {
			return key, s.Zones[key].Cards[i], true
		}
	}
	return "", nil, false
}

// ZoneVisibility computes a card's default visibility tuple for a zone:
// public zones are visible to both players, owner zones only to their
// owner, hidden zones to nobody. Shared zones have no owner, so "owner"
// visibility degrades to hidden there.
func ZoneVisibility(cfg ZoneConfig, owner int) [NumPlayers]bool {
	switch cfg.Visibility {
	case VisibilityPublic:
		return [NumPlayers]bool{true, true}
	case VisibilityOwner:
		var v [NumPlayers]bool
		if owner >= 0 && owner < NumPlayers {
			v[owner] = true
		}
		return v
	default:
		return [NumPlayers]bool{}
	}
}

// LoadDeck instantiates one CardInstance per template and appends them to
// the zone, optionally shuffling first. Templates are shared, not copied.
func LoadDeck(s *GameState, zoneKey string, templates []*CardTemplate, shuffle bool) error {
	zone, err := s.Zone(zoneKey)
	if err != nil {
		return err
	}
	owner, _, err := ParseZoneKey(zoneKey)
	if err != nil {
		return err
	}
	cards := make([]*CardInstance, 0, len(templates))
	for _, tmpl := range templates {
		if tmpl == nil {
			return fmt.Errorf("nil template loading into %q", zoneKey)
		}
		cards = append(cards, &CardInstance{
			InstanceID:  s.ids.NextID(),
			Template:    tmpl,
			Visibility:  ZoneVisibility(zone.Config, owner),
			Orientation: zone.Config.Orientation,
			Flags:       make(map[string]bool),
			Counters:    counters.New(),
		})
	}
	if shuffle {
		s.rng.Shuffle(len(cards), func(i, j int) {
			cards[i], cards[j] = cards[j], cards[i]
		})
	}
	zone.Cards = append(zone.Cards, cards...)
	return nil
}

// appendLog appends a formatted entry to the game log.
func (s *GameState) appendLog(format string, args ...any) {
	s.Log = append(s.Log, fmt.Sprintf(format, args...))
}

// AppendLog appends an entry to the game log. Exposed for plugins that want
// their warnings in the same place the engine puts its own.
func (s *GameState) AppendLog(entry string) {
	s.Log = append(s.Log, entry)
}

// PlayerName returns a player's display name.
func (s *GameState) PlayerName(player int) string {
	if player < 0 || player >= NumPlayers {
		return fmt.Sprintf("player %d", player)
	}
	return s.Players[player].Name
}

// AllInstanceIDs returns every instance id across all zones, sorted. Useful
// for conservation checks.
func (s *GameState) AllInstanceIDs() []string {
	var ids []string
	for _, key := range s.ZoneKeys() {
		for _, c := range s.Zones[key].Cards {
			ids = append(ids, c.InstanceID)
		}
	}
	sort.Strings(ids)
	return ids
}

// opponent returns the other player's index.
func opponent(player int) int {
	return 1 - player
}

// cardLogName is how a card appears in the shared game log: its real name
// only when both players could already see it, otherwise "a card".
func cardLogName(c *CardInstance) string {
	if c.Public() {
		return c.Template.Name
	}
	return "a card"
}
