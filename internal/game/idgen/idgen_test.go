package idgen

import (
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceDeterministicWithMockClock(t *testing.T) {
	clock := quartz.NewMock(t)
	gen := NewSequence(clock)

	first := gen.NextID()
	second := gen.NextID()

	require.NotEqual(t, first, second)
	// Same frozen clock, so only the counter component differs.
	assert.Regexp(t, `^card-\d+-1$`, first)
	assert.Regexp(t, `^card-\d+-2$`, second)
}

func TestSequenceUniqueAcrossMany(t *testing.T) {
	gen := NewSequence(nil)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.NextID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestUUIDGenerator(t *testing.T) {
	gen := UUID{}
	a := gen.NextID()
	b := gen.NextID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
