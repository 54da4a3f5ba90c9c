package scheduler

import (
	"testing"

	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinFairnessAdvanceAfterNexts(t *testing.T) {
	// Scenario 5: Insert streams {A,B,C}. Mode = advance-after-nexts,
	// threshold 1. Three calls to get_next(_) return A, B, C in order.
	// Fourth call returns A again.
	r := NewRoundRobin()
	r.AdvanceAfterNexts(1)
	a, b, c := protocol.StreamID(0), protocol.StreamID(4), protocol.StreamID(8)
	r.Insert(a)
	r.Insert(b)
	r.Insert(c)

	assert.Equal(t, a, r.GetNext(0))
	assert.Equal(t, b, r.GetNext(0))
	assert.Equal(t, c, r.GetNext(0))
	assert.Equal(t, a, r.GetNext(0))
}

func TestRoundRobinAdvanceAfterBytesThreshold(t *testing.T) {
	// Property 5: for mode bytes with threshold T, after feeding n streams
	// k bytes apiece (kn < T), peek still returns the first inserted
	// stream; once cumulative bytes >= T, peek advances exactly once.
	r := NewRoundRobin()
	r.AdvanceAfterBytes(100)
	ids := []protocol.StreamID{0, 4, 8}
	for _, id := range ids {
		r.Insert(id)
	}

	first := r.PeekNext()
	require.Equal(t, ids[0], first)

	r.Consume(40)
	assert.Equal(t, ids[0], r.PeekNext(), "under threshold: next unchanged")

	r.Consume(40)
	assert.Equal(t, ids[0], r.PeekNext(), "still under threshold")

	r.Consume(20) // cumulative 100 >= 100
	assert.Equal(t, ids[1], r.PeekNext(), "threshold reached: advances exactly once")
}

func TestRoundRobinInsertEraseRoundTrip(t *testing.T) {
	// insert(x); erase(x) returns the scheduler to its prior observable
	// state (position of next, counter, size).
	r := NewRoundRobin()
	r.Insert(0)
	r.Insert(4)
	r.Insert(8)
	r.Consume(0) // advance-after-nexts default threshold 1: moves next to 4

	before := r.PeekNext()
	beforeLen := r.Len()

	r.Insert(12)
	r.Erase(12)

	assert.Equal(t, before, r.PeekNext())
	assert.Equal(t, beforeLen, r.Len())
}

func TestRoundRobinEraseAdvancesNextAndResetsCounter(t *testing.T) {
	r := NewRoundRobin()
	r.AdvanceAfterNexts(5)
	r.Insert(0)
	r.Insert(4)
	r.Insert(8)
	r.Consume(0)
	r.Consume(0) // current = 2, well under threshold 5

	r.Erase(0) // erases current next
	assert.Equal(t, protocol.StreamID(4), r.PeekNext())

	// counter reset: three more consumes shouldn't reach the threshold of 5
	r.Consume(0)
	r.Consume(0)
	r.Consume(0)
	assert.Equal(t, protocol.StreamID(4), r.PeekNext())
}

func TestRoundRobinNewEntrantDoesNotSkipCurrentHolder(t *testing.T) {
	r := NewRoundRobin()
	r.Insert(0)
	r.Insert(4)
	require.Equal(t, protocol.StreamID(0), r.PeekNext())

	// A newly inserted stream enters directly before next, so the current
	// holder (0) is still served first.
	r.Insert(8)
	assert.Equal(t, protocol.StreamID(0), r.PeekNext())
}

func TestRoundRobinBuildsAndTearsDownIndex(t *testing.T) {
	r := NewRoundRobin()
	r.buildIndexThreshold = 3
	r.destroyIndexThreshold = 2

	r.Insert(0)
	r.Insert(4)
	assert.False(t, r.useIndex)

	r.Insert(8)
	assert.True(t, r.useIndex, "index builds once size reaches the threshold")

	r.Erase(0)
	assert.True(t, r.useIndex)

	r.Erase(4)
	assert.False(t, r.useIndex, "index torn down once size falls below destroy threshold")
}

func TestRoundRobinChangingModeResetsCounter(t *testing.T) {
	r := NewRoundRobin()
	r.Insert(0)
	r.Insert(4)
	r.AdvanceAfterBytes(100)
	r.Consume(50)

	r.AdvanceAfterNexts(3)
	assert.Equal(t, protocol.StreamID(0), r.PeekNext())

	r.Consume(0)
	r.Consume(0)
	assert.Equal(t, protocol.StreamID(0), r.PeekNext())
	r.Consume(0)
	assert.Equal(t, protocol.StreamID(4), r.PeekNext())
}

func TestRoundRobinInsertDuplicatePanics(t *testing.T) {
	r := NewRoundRobin()
	r.Insert(0)
	assert.Panics(t, func() { r.Insert(0) })
}

func TestPriorityQueueHigherUrgencyPreemptsLower(t *testing.T) {
	q := NewPriorityQueue()
	q.Insert(4, Priority{Urgency: 5})
	q.Insert(0, Priority{Urgency: 1})

	assert.Equal(t, protocol.StreamID(0), q.PeekNext())
}

func TestPriorityQueueRoundRobinsWithinLevel(t *testing.T) {
	q := NewPriorityQueue()
	q.Insert(0, Priority{Urgency: 3})
	q.Insert(4, Priority{Urgency: 3})

	first := q.GetNext(0)
	second := q.GetNext(0)
	assert.NotEqual(t, first, second)
}
