// Package idgen provides card instance id generation. Generators are passed
// into state construction and deck loading explicitly so tests can inject a
// deterministic source.
package idgen

import (
	"fmt"
	"sync"

	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// Generator produces instance ids unique within a process lifetime.
type Generator interface {
	NextID() string
}

// Sequence combines a monotonically increasing counter with a clock
// timestamp. Ids are unique per generator, not cryptographically unique.
type Sequence struct {
	mu    sync.Mutex
	clock quartz.Clock
	next  uint64
}

// NewSequence creates a sequence generator. A nil clock uses the real clock.
func NewSequence(clock quartz.Clock) *Sequence {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Sequence{clock: clock}
}

// NextID returns the next id, e.g. "card-1756339200000-42".
func (s *Sequence) NextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("card-%d-%d", s.clock.Now().UnixMilli(), s.next)
}

// UUID generates random uuid ids. Useful when instance ids must be unique
// across processes, e.g. when merging logs from several games.
type UUID struct{}

// NextID returns a random uuid string.
func (UUID) NextID() string {
	return uuid.NewString()
}
