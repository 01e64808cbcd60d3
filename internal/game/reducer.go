package game

import (
	"errors"
	"fmt"
)

// RuleError is the Blocked channel: a game rule prevented execution. The
// loop converts these into log entries and action:blocked events instead
// of letting them escape. Reasons are written to be shown to a player or
// handed back to an AI agent as actionable feedback.
type RuleError struct {
	Reason string
}

func (e *RuleError) Error() string { return e.Reason }

// Blockedf builds a RuleError with a formatted reason.
func Blockedf(format string, args ...any) *RuleError {
	return &RuleError{Reason: fmt.Sprintf(format, args...)}
}

// IsRuleError reports whether err is a rule block, returning the reason.
func IsRuleError(err error) (string, bool) {
	var rerr *RuleError
	if errors.As(err, &rerr) {
		return rerr.Reason, true
	}
	return "", false
}

// ExecuteAction applies one action to the state, mutating it in place.
// Rule violations return a *RuleError, also appended to the state log, and
// leave the state unmodified. Structural failures (unknown zone, malformed
// zone key) return ordinary errors: those are caller or configuration
// bugs, not game outcomes.
//
// The type switch is exhaustive over the core union; actionDecoders and
// the actions test keep it that way when variants are added.
func ExecuteAction(s *GameState, a Action) error {
	switch act := a.(type) {
	case *DrawAction:
		return execDraw(s, act)
	case *MoveCardAction:
		return execMoveStack(s, act.ActionBase, []string{act.CardID}, act.From, act.To, act.Position)
	case *MoveCardStackAction:
		return execMoveStack(s, act.ActionBase, act.CardIDs, act.From, act.To, act.Position)
	case *PlaceOnZoneAction:
		return execPlaceOnZone(s, act)
	case *ShuffleAction:
		return execShuffle(s, act)
	case *FlipCardAction:
		return execFlipCard(s, act)
	case *AddCounterAction:
		return execCounterOp(s, act.ActionBase, act.CardID, act.Zone, func(c *CardInstance) string {
			c.Counters.Add(act.Counter, act.Amount)
			return fmt.Sprintf("%s adds %d %s counter(s) to %s", s.PlayerName(act.Player), act.Amount, act.Counter, cardLogName(c))
		})
	case *RemoveCounterAction:
		return execCounterOp(s, act.ActionBase, act.CardID, act.Zone, func(c *CardInstance) string {
			c.Counters.Remove(act.Counter, act.Amount)
			return fmt.Sprintf("%s removes %d %s counter(s) from %s", s.PlayerName(act.Player), act.Amount, act.Counter, cardLogName(c))
		})
	case *SetCounterAction:
		return execCounterOp(s, act.ActionBase, act.CardID, act.Zone, func(c *CardInstance) string {
			c.Counters.Set(act.Counter, act.Amount)
			return fmt.Sprintf("%s sets %s counters on %s to %d", s.PlayerName(act.Player), act.Counter, cardLogName(c), act.Amount)
		})
	case *EndTurnAction:
		return execEndTurn(s, act)
	case *CreateDecisionAction:
		return execCreateDecision(s, act.ActionBase, act.Target, act.Message, act.RevealZones)
	case *ResolveDecisionAction:
		return execResolveDecision(s, act)
	case *RevealHandAction:
		return execRevealHand(s, act)
	case *ConcedeAction:
		return execConcede(s, act)
	case *DeclareVictoryAction:
		return execDeclareVictory(s, act)
	case *CustomAction:
		return fmt.Errorf("no executor registered for custom action %q", act.Kind)
	default:
		return fmt.Errorf("unhandled action type %q", a.Type())
	}
}

// block records the reason in the game log and returns it as a RuleError.
func block(s *GameState, format string, args ...any) error {
	err := Blockedf(format, args...)
	s.AppendLog(err.Reason)
	return err
}

// consolidate moves every counter in a multi-card zone onto its top-most
// card, maintaining the invariant that counters ride the visible top of a
// stack.
func consolidate(z *Zone) {
	if len(z.Cards) < 2 {
		return
	}
	top := z.Top()
	for _, c := range z.Cards[:len(z.Cards)-1] {
		c.Counters.Drain(top.Counters)
	}
}

func execDraw(s *GameState, act *DrawAction) error {
	if act.Count <= 0 {
		return block(s, "%s cannot draw %d cards", s.PlayerName(act.Player), act.Count)
	}
	deckKey := ZoneKey(act.Player, s.Config.DeckZone)
	handKey := ZoneKey(act.Player, s.Config.HandZone)
	deck, err := s.Zone(deckKey)
	if err != nil {
		return err
	}
	hand, err := s.Zone(handKey)
	if err != nil {
		return err
	}
	// Partial draws from a short deck are fine, never an error.
	n := act.Count
	if n > len(deck.Cards) {
		n = len(deck.Cards)
	}
	drawn := deck.Cards[len(deck.Cards)-n:]
	deck.Cards = deck.Cards[:len(deck.Cards)-n]
	for _, c := range drawn {
		c.Visibility = ZoneVisibility(hand.Config, act.Player)
		c.Orientation = hand.Config.Orientation
	}
	hand.Cards = append(hand.Cards, drawn...)
	consolidate(deck)
	consolidate(hand)
	s.appendLog("%s draws %d card(s)", s.PlayerName(act.Player), n)
	return nil
}

// removeFromZone removes the named cards from a zone preserving their
// relative order. Counters the removed cards carried ride the source
// zone's new top when one exists; a card leaving an emptied zone keeps its
// own counters.
func removeFromZone(s *GameState, zoneKey string, zone *Zone, cardIDs []string) ([]*CardInstance, error) {
	removed := make([]*CardInstance, 0, len(cardIDs))
	want := make(map[string]bool, len(cardIDs))
	for _, id := range cardIDs {
		if _, ok := zone.Contains(id); !ok {
			return nil, Blockedf("card %s is not in zone %s", id, zoneKey)
		}
		want[id] = true
	}
	kept := zone.Cards[:0]
	for _, c := range zone.Cards {
		if want[c.InstanceID] {
			removed = append(removed, c)
		} else {
			kept = append(kept, c)
		}
	}
	zone.Cards = kept
	if top := zone.Top(); top != nil {
		for _, c := range removed {
			c.Counters.Drain(top.Counters)
		}
	}
	return removed, nil
}

// insertIntoZone places cards as a contiguous block at the given position
// and recomputes their visibility, orientation and per-turn flag for the
// destination.
func insertIntoZone(s *GameState, zoneKey string, zone *Zone, cards []*CardInstance, pos Position) error {
	owner, _, err := ParseZoneKey(zoneKey)
	if err != nil {
		return err
	}
	for _, c := range cards {
		c.Visibility = ZoneVisibility(zone.Config, owner)
		c.Orientation = zone.Config.Orientation
		if s.Phase == PhasePlaying {
			if c.Flags == nil {
				c.Flags = make(map[string]bool)
			}
			c.Flags[FlagPlayedThisTurn] = true
		}
	}
	at := len(zone.Cards)
	switch pos.Kind {
	case PositionKindBottom:
		at = 0
	case PositionKindIndex:
		at = pos.Index
		if at < 0 {
			at = 0
		}
		if at > len(zone.Cards) {
			at = len(zone.Cards)
		}
	}
	zone.Cards = append(zone.Cards[:at], append(append([]*CardInstance{}, cards...), zone.Cards[at:]...)...)
	consolidate(zone)
	return nil
}

func execMoveStack(s *GameState, base ActionBase, cardIDs []string, from, to string, pos Position) error {
	if len(cardIDs) == 0 {
		return block(s, "%s tried to move no cards", s.PlayerName(base.Player))
	}
	src, err := s.Zone(from)
	if err != nil {
		return err
	}
	dst, err := s.Zone(to)
	if err != nil {
		return err
	}
	if err := checkCapacity(s, to, countNewCards(s, cardIDs, to)); err != nil {
		return err
	}
	removed, err := removeFromZone(s, from, src, cardIDs)
	if err != nil {
		if reason, ok := IsRuleError(err); ok {
			return block(s, "%s", reason)
		}
		return err
	}
	names := make([]string, len(removed))
	for i, c := range removed {
		names[i] = cardLogName(c)
	}
	if err := insertIntoZone(s, to, dst, removed, pos); err != nil {
		return err
	}
	consolidate(src)
	if len(removed) == 1 {
		s.appendLog("%s moves %s from %s to %s (%s)", s.PlayerName(base.Player), names[0], from, to, pos)
	} else {
		s.appendLog("%s moves %d cards from %s to %s (%s)", s.PlayerName(base.Player), len(removed), from, to, pos)
	}
	return nil
}

func execPlaceOnZone(s *GameState, act *PlaceOnZoneAction) error {
	if len(act.CardIDs) == 0 {
		return block(s, "%s tried to place no cards", s.PlayerName(act.Player))
	}
	if act.Position.Kind == PositionKindIndex {
		return block(s, "place_on_zone only accepts top or bottom")
	}
	dst, err := s.Zone(act.To)
	if err != nil {
		return err
	}
	// Locate every card first so a bad id blocks before any mutation.
	sources := make(map[string][]string)
	for _, id := range act.CardIDs {
		zoneKey, _, ok := s.FindCard(id)
		if !ok {
			return block(s, "card %s does not exist in any zone", id)
		}
		sources[zoneKey] = append(sources[zoneKey], id)
	}
	if err := checkCapacity(s, act.To, countNewCards(s, act.CardIDs, act.To)); err != nil {
		return err
	}
	var moved []*CardInstance
	for _, zoneKey := range s.ZoneKeys() {
		ids, ok := sources[zoneKey]
		if !ok {
			continue
		}
		zone := s.Zones[zoneKey]
		removed, err := removeFromZone(s, zoneKey, zone, ids)
		if err != nil {
			return err
		}
		consolidate(zone)
		moved = append(moved, removed...)
	}
	if err := insertIntoZone(s, act.To, dst, moved, act.Position); err != nil {
		return err
	}
	s.appendLog("%s places %d card(s) on %s of %s", s.PlayerName(act.Player), len(moved), act.Position, act.To)
	return nil
}

func execShuffle(s *GameState, act *ShuffleAction) error {
	zone, err := s.Zone(act.Zone)
	if err != nil {
		return err
	}
	owner, _, err := ParseZoneKey(act.Zone)
	if err != nil {
		return err
	}
	// Reset to zone-default visibility first: this is how a privately
	// peeked card becomes hidden again.
	for _, c := range zone.Cards {
		c.Visibility = ZoneVisibility(zone.Config, owner)
	}
	s.rng.Shuffle(len(zone.Cards), func(i, j int) {
		zone.Cards[i], zone.Cards[j] = zone.Cards[j], zone.Cards[i]
	})
	consolidate(zone)
	s.appendLog("%s shuffles %s", s.PlayerName(act.Player), act.Zone)
	return nil
}

// resolveCardRef finds a card by id, constrained to a zone when one was
// given. A missing card is a rule error (actionable feedback); an unknown
// zone key is structural.
func resolveCardRef(s *GameState, cardID, zoneHint string) (string, *CardInstance, error) {
	if zoneHint != "" {
		zone, err := s.Zone(zoneHint)
		if err != nil {
			return "", nil, err
		}
		i, ok := zone.Contains(cardID)
		if !ok {
			return "", nil, Blockedf("card %s is not in zone %s", cardID, zoneHint)
		}
		return zoneHint, zone.Cards[i], nil
	}
	zoneKey, card, ok := s.FindCard(cardID)
	if !ok {
		return "", nil, Blockedf("card %s does not exist in any zone", cardID)
	}
	return zoneKey, card, nil
}

func execFlipCard(s *GameState, act *FlipCardAction) error {
	zoneKey, card, err := resolveCardRef(s, act.CardID, act.Zone)
	if err != nil {
		if reason, ok := IsRuleError(err); ok {
			return block(s, "%s", reason)
		}
		return err
	}
	zone := s.Zones[zoneKey]
	owner, _, _ := ParseZoneKey(zoneKey)
	next := act.Orientation
	if next == "" {
		if card.Orientation == OrientationFaceDown {
			next = OrientationFaceUp
		} else {
			next = OrientationFaceDown
		}
	}
	card.Orientation = next
	if next == OrientationFaceDown {
		card.Visibility = [NumPlayers]bool{}
	} else {
		card.Visibility = ZoneVisibility(zone.Config, owner)
	}
	s.appendLog("%s turns %s %s in %s", s.PlayerName(act.Player), cardLogName(card), next, zoneKey)
	return nil
}

func execCounterOp(s *GameState, base ActionBase, cardID, zoneHint string, apply func(*CardInstance) string) error {
	zoneKey, card, err := resolveCardRef(s, cardID, zoneHint)
	if err != nil {
		if reason, ok := IsRuleError(err); ok {
			return block(s, "%s", reason)
		}
		return err
	}
	entry := apply(card)
	consolidate(s.Zones[zoneKey])
	s.AppendLog(entry)
	return nil
}

func execEndTurn(s *GameState, act *EndTurnAction) error {
	// Safety net: ending the turn with a decision outstanding resolves the
	// decision instead of ending anything.
	if s.Pending != nil {
		d := s.Pending
		if err := unrevealZones(s, d.RevealedZones); err != nil {
			return err
		}
		s.ActivePlayer = d.Creator
		s.Pending = nil
		s.appendLog("pending decision auto-resolved; control returns to %s", s.PlayerName(d.Creator))
		return nil
	}

	if s.Phase == PhaseSetup {
		s.Players[act.Player].SetupDone = true
		other := opponent(act.Player)
		if !s.Players[other].SetupDone {
			s.ActivePlayer = other
			s.appendLog("%s finishes setup", s.PlayerName(act.Player))
			return nil
		}
		s.Phase = PhasePlaying
		s.TurnNumber = 1
		s.ActivePlayer = 0
		s.CurrentTurn = &Turn{Number: 1, ActivePlayer: 0}
		s.appendLog("setup complete; turn 1 begins for %s", s.PlayerName(0))
		return nil
	}

	s.CurrentTurn.Ended = true
	s.TurnNumber++
	s.ActivePlayer = opponent(s.ActivePlayer)
	for _, key := range s.ZoneKeys() {
		for _, c := range s.Zones[key].Cards {
			delete(c.Flags, FlagPlayedThisTurn)
		}
	}
	s.CurrentTurn = &Turn{Number: s.TurnNumber, ActivePlayer: s.ActivePlayer}
	s.appendLog("turn %d begins for %s", s.TurnNumber, s.PlayerName(s.ActivePlayer))
	return nil
}

func revealZones(s *GameState, zones []string, target int) error {
	for _, key := range zones {
		zone, err := s.Zone(key)
		if err != nil {
			return err
		}
		for _, c := range zone.Cards {
			c.Visibility[target] = true
		}
	}
	return nil
}

func unrevealZones(s *GameState, zones []string) error {
	for _, key := range zones {
		zone, err := s.Zone(key)
		if err != nil {
			return err
		}
		owner, _, err := ParseZoneKey(key)
		if err != nil {
			return err
		}
		for _, c := range zone.Cards {
			c.Visibility = ZoneVisibility(zone.Config, owner)
		}
	}
	return nil
}

func execCreateDecision(s *GameState, base ActionBase, target int, message string, reveal []string) error {
	if s.Pending != nil {
		return block(s, "a decision is already pending for %s", s.PlayerName(s.Pending.Target))
	}
	if target < 0 || target >= NumPlayers {
		return block(s, "decision target %d is not a player", target)
	}
	// Validate every zone before revealing anything.
	for _, key := range reveal {
		if _, err := s.Zone(key); err != nil {
			return err
		}
	}
	if err := revealZones(s, reveal, target); err != nil {
		return err
	}
	s.Pending = &PendingDecision{
		Creator:       base.Player,
		Target:        target,
		Message:       message,
		RevealedZones: append([]string(nil), reveal...),
	}
	s.ActivePlayer = target
	if message != "" {
		s.appendLog("%s to %s: %s", s.PlayerName(base.Player), s.PlayerName(target), message)
	} else {
		s.appendLog("%s awaits an acknowledgment from %s", s.PlayerName(base.Player), s.PlayerName(target))
	}
	return nil
}

func execResolveDecision(s *GameState, act *ResolveDecisionAction) error {
	if s.Pending == nil {
		return block(s, "no decision is pending")
	}
	d := s.Pending
	if err := unrevealZones(s, d.RevealedZones); err != nil {
		return err
	}
	s.Pending = nil
	s.ActivePlayer = d.Creator
	s.appendLog("%s acknowledges; control returns to %s", s.PlayerName(act.Player), s.PlayerName(d.Creator))
	return nil
}

func execRevealHand(s *GameState, act *RevealHandAction) error {
	message := act.Message
	if message == "" {
		message = fmt.Sprintf("%s reveals their hand", s.PlayerName(act.Player))
	}
	handKey := ZoneKey(act.Player, s.Config.HandZone)
	return execCreateDecision(s, act.ActionBase, opponent(act.Player), message, []string{handKey})
}

func finishGame(s *GameState, winner int, reason string) {
	s.Result = &Result{Winner: winner, Reason: reason}
	s.Pending = nil
	s.Phase = PhaseFinished
}

func execConcede(s *GameState, act *ConcedeAction) error {
	winner := opponent(act.Player)
	finishGame(s, winner, fmt.Sprintf("%s conceded", s.PlayerName(act.Player)))
	s.appendLog("%s concedes; %s wins", s.PlayerName(act.Player), s.PlayerName(winner))
	return nil
}

func execDeclareVictory(s *GameState, act *DeclareVictoryAction) error {
	if act.Winner < 0 || act.Winner >= NumPlayers {
		return block(s, "declared winner %d is not a player", act.Winner)
	}
	reason := act.Reason
	if reason == "" {
		reason = "victory declared"
	}
	finishGame(s, act.Winner, reason)
	s.appendLog("%s wins: %s", s.PlayerName(act.Winner), reason)
	return nil
}

// countNewCards counts how many of the given cards are not already in the
// destination zone, i.e. how many the action would actually add.
func countNewCards(s *GameState, cardIDs []string, dest string) int {
	n := 0
	for _, id := range cardIDs {
		zoneKey, _, ok := s.FindCard(id)
		if !ok || zoneKey != dest {
			n++
		}
	}
	return n
}

// checkCapacity rejects an insertion that would push a finite zone past its
// configured maximum, before any mutation happens.
func checkCapacity(s *GameState, zoneKey string, adding int) error {
	zone, err := s.Zone(zoneKey)
	if err != nil {
		return err
	}
	max := zone.Config.MaxCards
	if max <= 0 || adding <= 0 {
		return nil
	}
	if len(zone.Cards)+adding > max {
		return block(s, "zone %s is full (%d/%d)", zoneKey, len(zone.Cards), max)
	}
	return nil
}
