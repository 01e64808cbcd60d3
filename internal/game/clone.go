package game

// Structural deep cloning for history snapshots. Every entity is copied
// field by field rather than round-tripped through a serializer, preserving
// strict snapshot isolation: mutating the live state can never affect a
// recorded snapshot.

// Cloneable lets plugin-owned state participate in deep cloning. Values in
// PluginState that implement it are cloned with it; plain maps, slices and
// scalars are copied structurally; anything else is shared by reference.
type Cloneable interface {
	CloneValue() any
}

// Clone deep-copies a GameState. Card templates are immutable and shared;
// the id generator and random source are shared as well, since a restored
// snapshot continues the same process-wide id sequence.
func Clone(s *GameState) *GameState {
	if s == nil {
		return nil
	}
	out := &GameState{
		TurnNumber:   s.TurnNumber,
		ActivePlayer: s.ActivePlayer,
		Phase:        s.Phase,
		Zones:        make(map[string]*Zone, len(s.Zones)),
		Players:      s.Players,
		CurrentTurn:  cloneTurn(s.CurrentTurn),
		Pending:      clonePending(s.Pending),
		Result:       cloneResult(s.Result),
		Log:          append([]string(nil), s.Log...),
		PluginState:  make(map[string]any, len(s.PluginState)),
		Config:       s.Config,
		ids:          s.ids,
		rng:          s.rng,
	}
	for key, zone := range s.Zones {
		out.Zones[key] = cloneZone(zone)
	}
	for key, val := range s.PluginState {
		out.PluginState[key] = clonePluginValue(val)
	}
	return out
}

func cloneZone(z *Zone) *Zone {
	out := &Zone{Config: z.Config, Cards: make([]*CardInstance, len(z.Cards))}
	for i, c := range z.Cards {
		out.Cards[i] = cloneCard(c)
	}
	return out
}

func cloneCard(c *CardInstance) *CardInstance {
	flags := make(map[string]bool, len(c.Flags))
	for k, v := range c.Flags {
		flags[k] = v
	}
	return &CardInstance{
		InstanceID:  c.InstanceID,
		Template:    c.Template,
		Visibility:  c.Visibility,
		Orientation: c.Orientation,
		Flags:       flags,
		Counters:    c.Counters.Copy(),
	}
}

func cloneTurn(t *Turn) *Turn {
	if t == nil {
		return nil
	}
	// Actions are immutable once submitted, so sharing the elements is
	// safe; only the slice header is copied.
	return &Turn{
		Number:       t.Number,
		ActivePlayer: t.ActivePlayer,
		Actions:      append([]Action(nil), t.Actions...),
		Ended:        t.Ended,
	}
}

func clonePending(p *PendingDecision) *PendingDecision {
	if p == nil {
		return nil
	}
	return &PendingDecision{
		Creator:       p.Creator,
		Target:        p.Target,
		Message:       p.Message,
		RevealedZones: append([]string(nil), p.RevealedZones...),
	}
}

func cloneResult(r *Result) *Result {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

func clonePluginValue(v any) any {
	switch val := v.(type) {
	case Cloneable:
		return val.CloneValue()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = clonePluginValue(item)
		}
		return out
	case map[string]int:
		out := make(map[string]int, len(val))
		for k, item := range val {
			out[k] = item
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			out[k] = item
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = clonePluginValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []int:
		return append([]int(nil), val...)
	default:
		// Scalars are value-copied by assignment; anything more exotic is
		// shared, and plugins needing isolation implement Cloneable.
		return v
	}
}
