package game

import (
	"fmt"

	"go.uber.org/zap"
)

// LoopConfig bounds the action pipeline. Zero values take the defaults.
type LoopConfig struct {
	// MaxIterations caps how many actions one ProcessAll call may execute,
	// catching hook loops that feed the queue forever.
	MaxIterations int
	// MaxFollowUpDepth caps chained follow-ups from post-hooks.
	MaxFollowUpDepth int
	// MaxReplacements caps how many times replacement hooks may rewrite a
	// single submitted action.
	MaxReplacements int
}

const (
	defaultMaxIterations    = 1000
	defaultMaxFollowUpDepth = 25
	defaultMaxReplacements  = 10
)

func (c LoopConfig) withDefaults() LoopConfig {
	if c.MaxIterations <= 0 {
		c.MaxIterations = defaultMaxIterations
	}
	if c.MaxFollowUpDepth <= 0 {
		c.MaxFollowUpDepth = defaultMaxFollowUpDepth
	}
	if c.MaxReplacements <= 0 {
		c.MaxReplacements = defaultMaxReplacements
	}
	return c
}

// Validator checks an action before the hook pipeline sees it. A non-empty
// return rejects the action with that reason.
type Validator func(s *GameState, a Action) string

// StateObserver inspects the state after every executed action and may
// queue automatic reactions, e.g. a state-based win condition.
type StateObserver func(s *GameState) []Action

// ActionStatus is the outcome of one processed action.
type ActionStatus string

const (
	StatusExecuted ActionStatus = "executed"
	StatusRejected ActionStatus = "rejected"
	StatusBlocked  ActionStatus = "blocked"
)

// ActionResult reports what happened to one action.
type ActionResult struct {
	Action   Action
	Status   ActionStatus
	Reason   string
	Warnings []string
	// FollowUps is how many follow-up actions post-hooks queued.
	FollowUps int
}

// HistoryEntry pairs an executed action with the full state snapshot taken
// after it ran.
type HistoryEntry struct {
	Action   Action
	Snapshot *GameState
}

type queuedAction struct {
	action Action
	depth  int
}

// GameLoop owns the authoritative state and drives every mutation through
// the same pipeline: validate, pre-hooks, execute, snapshot, post-hooks.
// It is strictly single-threaded; callers serialize access.
type GameLoop struct {
	cfg     LoopConfig
	log     *zap.Logger
	state   *GameState
	plugins *PluginManager
	bus     *EventBus

	queue      []queuedAction
	history    []HistoryEntry
	initial    *GameState
	validators []Validator
	observers  []StateObserver
}

// NewGameLoop wraps a state. A nil manager gets an empty one; a nil logger
// logs nowhere.
func NewGameLoop(s *GameState, plugins *PluginManager, log *zap.Logger, cfg LoopConfig) *GameLoop {
	if log == nil {
		log = zap.NewNop()
	}
	if plugins == nil {
		plugins = NewPluginManager(log)
	}
	return &GameLoop{
		cfg:     cfg.withDefaults(),
		log:     log,
		state:   s,
		plugins: plugins,
		bus:     NewEventBus(),
		initial: Clone(s),
	}
}

// State returns the live authoritative state. Callers outside the hook
// pipeline must treat it as read-only.
func (l *GameLoop) State() *GameState { return l.state }

// Events returns the loop's event bus for subscriptions.
func (l *GameLoop) Events() *EventBus { return l.bus }

// History returns the executed-action history, oldest first.
func (l *GameLoop) History() []HistoryEntry { return l.history }

// AddValidator appends a validator run before the hook pipeline.
func (l *GameLoop) AddValidator(v Validator) { l.validators = append(l.validators, v) }

// AddObserver appends a post-execution state observer.
func (l *GameLoop) AddObserver(o StateObserver) { l.observers = append(l.observers, o) }

// Pending reports how many actions are queued.
func (l *GameLoop) Pending() int { return len(l.queue) }

// Submit appends an action to the queue. Nothing executes until
// ProcessNext or ProcessAll runs.
func (l *GameLoop) Submit(a Action) {
	l.queue = append(l.queue, queuedAction{action: a})
	l.publish(EventActionQueued, a, nil, "")
}

func (l *GameLoop) publish(t EventType, a, replacement Action, reason string) {
	l.bus.Publish(Event{
		Type:         t,
		Action:       a,
		Replacement:  replacement,
		Reason:       reason,
		Turn:         l.state.TurnNumber,
		ActivePlayer: l.state.ActivePlayer,
	})
}

// zoneRefs lists the zone keys an action explicitly targets, for the
// opponent-zone ownership check.
func zoneRefs(a Action) []string {
	switch act := a.(type) {
	case *MoveCardAction:
		return []string{act.From, act.To}
	case *MoveCardStackAction:
		return []string{act.From, act.To}
	case *PlaceOnZoneAction:
		return []string{act.To}
	case *ShuffleAction:
		return []string{act.Zone}
	case *FlipCardAction:
		if act.Zone != "" {
			return []string{act.Zone}
		}
	case *AddCounterAction:
		if act.Zone != "" {
			return []string{act.Zone}
		}
	case *RemoveCounterAction:
		if act.Zone != "" {
			return []string{act.Zone}
		}
	case *SetCounterAction:
		if act.Zone != "" {
			return []string{act.Zone}
		}
	}
	return nil
}

// checkZoneOwnership flags a player acting on an opponent-owned zone
// without permission. AI-sourced actions are blocked on it with a hint on
// how to retry; UI-sourced actions only get a warning, since a human at
// the table may be executing an effect the engine cannot see.
func (l *GameLoop) checkZoneOwnership(a Action) string {
	base := a.Base()
	if base.AllowedByCardEffect {
		return ""
	}
	for _, key := range zoneRefs(a) {
		owner, _, err := ParseZoneKey(key)
		if err != nil {
			continue // reducer reports the malformed key
		}
		if owner < 0 || owner == base.Player {
			continue
		}
		zone, err := l.state.Zone(key)
		if err != nil {
			continue
		}
		if zone.Config.OpenAccess {
			continue
		}
		reason := fmt.Sprintf("zone %s belongs to %s", key, l.state.PlayerName(owner))
		if base.Source == SourceAI {
			reason += "; retry with allowed_by_card_effect=true if a card effect permits this"
		}
		return reason
	}
	return ""
}

// capacityReason pre-checks whether the action would push its destination
// past a configured maximum, before any hook or reducer runs.
func (l *GameLoop) capacityReason(a Action) string {
	var dest string
	var adding int
	switch act := a.(type) {
	case *MoveCardAction:
		dest, adding = act.To, countNewCards(l.state, []string{act.CardID}, act.To)
	case *MoveCardStackAction:
		dest, adding = act.To, countNewCards(l.state, act.CardIDs, act.To)
	case *PlaceOnZoneAction:
		dest, adding = act.To, countNewCards(l.state, act.CardIDs, act.To)
	case *DrawAction:
		deck, err := l.state.Zone(ZoneKey(act.Player, l.state.Config.DeckZone))
		if err != nil {
			return ""
		}
		dest = ZoneKey(act.Player, l.state.Config.HandZone)
		adding = act.Count
		if adding > len(deck.Cards) {
			adding = len(deck.Cards)
		}
	default:
		return ""
	}
	zone, err := l.state.Zone(dest)
	if err != nil {
		return "" // reducer reports the unknown zone
	}
	max := zone.Config.MaxCards
	if max <= 0 || adding <= 0 {
		return ""
	}
	if len(zone.Cards)+adding > max {
		return fmt.Sprintf("zone %s is full (%d/%d)", dest, len(zone.Cards), max)
	}
	return ""
}

// ProcessNext pops and runs one queued action through the full pipeline.
// The bool reports whether anything was processed. An error means a
// structural failure, never a game-rule outcome; rules surface as Blocked
// or Rejected results and events.
func (l *GameLoop) ProcessNext() (*ActionResult, bool, error) {
	if len(l.queue) == 0 {
		return nil, false, nil
	}
	item := l.queue[0]
	l.queue = l.queue[1:]
	a := item.action

	l.publish(EventActionExecuting, a, nil, "")

	if l.state.Result != nil && a.Type() != ActionConcede {
		return l.blocked(a, "the game is over"), true, nil
	}
	var warnings []string
	if reason := l.checkZoneOwnership(a); reason != "" {
		l.state.AppendLog(reason)
		if a.Base().Source == SourceAI {
			return l.blocked(a, reason), true, nil
		}
		warnings = append(warnings, reason)
	}
	if reason := l.capacityReason(a); reason != "" {
		l.state.AppendLog(reason)
		return l.blockedWithWarnings(a, reason, warnings), true, nil
	}
	for _, v := range l.validators {
		if reason := v(l.state, a); reason != "" {
			l.publish(EventActionRejected, a, nil, reason)
			l.log.Debug("action rejected",
				zap.String("type", string(a.Type())), zap.String("reason", reason))
			return &ActionResult{Action: a, Status: StatusRejected, Reason: reason}, true, nil
		}
	}

	// Pre-hooks may rewrite the action; each replacement restarts the
	// pipeline from the universal checks so hooks see the final action.
	for replaced := 0; ; {
		res := l.plugins.RunPreHooks(l.state, a)
		switch res.Kind {
		case HookWarn:
			warnings = append(warnings, res.Message)
			l.state.AppendLog(res.Message)
		case HookBlock:
			l.state.AppendLog(res.Message)
			return l.blockedWithWarnings(a, res.Message, warnings), true, nil
		case HookReplace:
			replaced++
			if replaced > l.cfg.MaxReplacements {
				return nil, true, fmt.Errorf("action %s replaced more than %d times", a.Type(), l.cfg.MaxReplacements)
			}
			l.publish(EventActionReplaced, a, res.Replacement, res.Message)
			a = res.Replacement
			if reason := l.checkZoneOwnership(a); reason != "" {
				l.state.AppendLog(reason)
				if a.Base().Source == SourceAI {
					return l.blockedWithWarnings(a, reason, warnings), true, nil
				}
				warnings = append(warnings, reason)
			}
			if reason := l.capacityReason(a); reason != "" {
				l.state.AppendLog(reason)
				return l.blockedWithWarnings(a, reason, warnings), true, nil
			}
			continue
		}
		break
	}

	// end_turn swaps out CurrentTurn, so grab the record-keeping target
	// before executing.
	recordTurn := l.state.CurrentTurn
	turnBefore := l.state.TurnNumber
	activeBefore := l.state.ActivePlayer

	err := l.execute(a)
	if err != nil {
		if reason, ok := IsRuleError(err); ok {
			return l.blockedWithWarnings(a, reason, warnings), true, nil
		}
		return nil, true, err
	}

	if recordTurn != nil {
		recordTurn.Actions = append(recordTurn.Actions, a)
	}
	l.history = append(l.history, HistoryEntry{Action: a, Snapshot: Clone(l.state)})
	l.publish(EventActionExecuted, a, nil, "")

	followUps := l.plugins.RunPostHooks(l.state, a)
	var autos []Action
	for _, obs := range l.observers {
		autos = append(autos, obs(l.state)...)
	}
	if n := len(followUps) + len(autos); n > 0 && item.depth+1 > l.cfg.MaxFollowUpDepth {
		// The triggering action stands; only the over-deep chain is cut.
		l.log.Warn("follow-up chain too deep, dropping",
			zap.String("type", string(a.Type())),
			zap.Int("depth", item.depth),
			zap.Int("dropped", n))
		followUps, autos = nil, nil
	}
	if len(followUps)+len(autos) > 0 {
		queued := make([]queuedAction, 0, len(followUps)+len(autos))
		for _, f := range followUps {
			queued = append(queued, queuedAction{action: f, depth: item.depth + 1})
			l.publish(EventActionQueued, f, nil, "")
		}
		for _, auto := range autos {
			queued = append(queued, queuedAction{action: auto, depth: item.depth + 1})
			l.publish(EventAutoActionQueued, auto, nil, "")
		}
		// Depth-first: follow-ups and auto actions run before anything
		// already waiting.
		l.queue = append(queued, l.queue...)
	}

	if l.state.TurnNumber != turnBefore || l.state.ActivePlayer != activeBefore || a.Type() == ActionEndTurn {
		l.publish(EventTurnEnded, a, nil, "")
		l.publish(EventTurnStarted, nil, nil, "")
	}

	l.log.Debug("action executed",
		zap.String("type", string(a.Type())),
		zap.Int("player", a.Actor()),
		zap.Int("follow_ups", len(followUps)))
	return &ActionResult{
		Action:    a,
		Status:    StatusExecuted,
		Warnings:  warnings,
		FollowUps: len(followUps),
	}, true, nil
}

func (l *GameLoop) execute(a Action) error {
	if custom, ok := a.(*CustomAction); ok {
		exec, found := l.plugins.Executor(custom.Kind)
		if !found {
			return fmt.Errorf("no executor registered for custom action %q", custom.Kind)
		}
		return exec(l.state, custom)
	}
	return ExecuteAction(l.state, a)
}

func (l *GameLoop) blocked(a Action, reason string) *ActionResult {
	return l.blockedWithWarnings(a, reason, nil)
}

func (l *GameLoop) blockedWithWarnings(a Action, reason string, warnings []string) *ActionResult {
	l.publish(EventActionBlocked, a, nil, reason)
	l.log.Debug("action blocked",
		zap.String("type", string(a.Type())), zap.String("reason", reason))
	return &ActionResult{Action: a, Status: StatusBlocked, Reason: reason, Warnings: warnings}
}

// ProcessAll drains the queue, including follow-ups and auto actions
// queued along the way. Exceeding MaxIterations returns an error naming
// the last action, the usual sign of a hook feeding the queue forever.
func (l *GameLoop) ProcessAll() ([]ActionResult, error) {
	var results []ActionResult
	for i := 0; len(l.queue) > 0; i++ {
		if i >= l.cfg.MaxIterations {
			last := "none"
			if len(results) > 0 {
				last = string(results[len(results)-1].Action.Type())
			}
			return results, fmt.Errorf("stopped after %d actions without draining the queue (last action %s, %d still queued)",
				i, last, len(l.queue))
		}
		res, ok, err := l.ProcessNext()
		if err != nil {
			return results, err
		}
		if !ok {
			break
		}
		results = append(results, *res)
	}
	return results, nil
}

// Rewind discards the last n executed actions and restores the state to
// the snapshot before them. Rewinding past the first action restores the
// initial state. The queue is cleared; queued intentions aimed at a state
// that no longer exists are meaningless.
func (l *GameLoop) Rewind(n int) error {
	if n <= 0 {
		return fmt.Errorf("rewind count must be positive, got %d", n)
	}
	if n > len(l.history) {
		n = len(l.history)
	}
	l.history = l.history[:len(l.history)-n]
	if len(l.history) == 0 {
		l.state = Clone(l.initial)
	} else {
		l.state = Clone(l.history[len(l.history)-1].Snapshot)
	}
	l.queue = nil
	l.log.Info("rewound", zap.Int("actions", n), zap.Int("turn", l.state.TurnNumber))
	return nil
}

// RewindTo restores the state to just after history entry index, i.e.
// RewindTo(0) keeps only the first executed action. Index -1 restores the
// initial state.
func (l *GameLoop) RewindTo(index int) error {
	if index < -1 || index >= len(l.history) {
		return fmt.Errorf("history index %d out of range", index)
	}
	n := len(l.history) - index - 1
	if n == 0 {
		return nil
	}
	return l.Rewind(n)
}

// ReadableState projects the current state for one viewer and applies any
// registered plugin view modifiers.
func (l *GameLoop) ReadableState(viewer int) (*ReadableGameState, error) {
	view, err := ToReadableState(l.state, viewer)
	if err != nil {
		return nil, err
	}
	l.plugins.ApplyReadableModifiers(l.state, viewer, view)
	return view, nil
}
