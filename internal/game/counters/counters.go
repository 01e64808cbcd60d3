// Package counters implements the counter bags that ride on card stacks:
// damage, status markers and any plugin-defined counter type.
package counters

import "sort"

// Type identifies a kind of counter. The engine treats the value as opaque;
// well-known types exist only so rule modules and tests share spellings.
type Type string

const (
	TypeDamage Type = "damage"
	TypeBurn   Type = "burn"
	TypePoison Type = "poison"
	TypeEnergy Type = "energy"
)

// String returns the string representation of the counter type.
func (t Type) String() string {
	return string(t)
}

// Counters is a bag of counters keyed by type. A zero amount is never stored:
// removing down to zero or setting a non-positive value deletes the key, so
// iterating a Counters value only ever yields live counters.
type Counters map[Type]int

// New creates an empty counter bag.
func New() Counters {
	return make(Counters)
}

// Add adds amount counters of the given type. Non-positive amounts are ignored.
func (cs Counters) Add(t Type, amount int) {
	if amount <= 0 {
		return
	}
	cs[t] = cs[t] + amount
}

// Remove removes up to amount counters of the given type, clamping at zero.
// The key is deleted rather than left at zero.
func (cs Counters) Remove(t Type, amount int) {
	if amount <= 0 {
		return
	}
	current, ok := cs[t]
	if !ok {
		return
	}
	if amount >= current {
		delete(cs, t)
		return
	}
	cs[t] = current - amount
}

// Set sets the counter of the given type to exactly amount. A non-positive
// amount deletes the key.
func (cs Counters) Set(t Type, amount int) {
	if amount <= 0 {
		delete(cs, t)
		return
	}
	cs[t] = amount
}

// Count returns the number of counters of the given type.
func (cs Counters) Count(t Type) int {
	return cs[t]
}

// Total returns the total number of counters across all types.
func (cs Counters) Total() int {
	total := 0
	for _, n := range cs {
		total += n
	}
	return total
}

// Empty reports whether the bag holds no counters.
func (cs Counters) Empty() bool {
	return len(cs) == 0
}

// Copy creates a deep copy of the bag.
func (cs Counters) Copy() Counters {
	out := make(Counters, len(cs))
	for t, n := range cs {
		out[t] = n
	}
	return out
}

// Drain moves every counter from cs into dst, leaving cs empty. Used when a
// card leaves a stack and its counters must ride the remaining top card.
func (cs Counters) Drain(dst Counters) {
	for t, n := range cs {
		dst.Add(t, n)
		delete(cs, t)
	}
}

// Types returns the counter types present in the bag, sorted for
// deterministic output.
func (cs Counters) Types() []Type {
	out := make([]Type, 0, len(cs))
	for t := range cs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
