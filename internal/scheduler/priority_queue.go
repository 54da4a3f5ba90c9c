package scheduler

import (
	"sort"

	"github.com/DENGZEYI/mvfst/internal/protocol"
)

// Priority mirrors the urgency/incremental pair from HTTP/3 extensible
// priorities (mvfst's priority/HTTPPriorityQueue.h): lower Urgency values
// are served first, and Incremental selects whether same-urgency streams
// round-robin fairly (true) or are served strictly in insertion order until
// exhausted (false, handled here the same way since both still live in a
// RoundRobin level - incremental-false callers are expected to drain one
// stream to completion before calling GetNext again).
type Priority struct {
	Urgency     uint8
	Incremental bool
}

// PriorityQueue selects the next writable stream across every priority
// level: higher priorities (lower Urgency) always preempt lower ones, and
// within a level streams are served round-robin (spec.md section 4.F).
type PriorityQueue struct {
	levels   map[uint8]*RoundRobin
	location map[protocol.StreamID]uint8
}

// NewPriorityQueue returns an empty scheduler with no priority levels yet.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{
		levels:   make(map[uint8]*RoundRobin),
		location: make(map[protocol.StreamID]uint8),
	}
}

// Insert adds id to the queue at the given priority. Duplicates (even at a
// different priority) are forbidden; callers must Erase first to reprioritize.
func (q *PriorityQueue) Insert(id protocol.StreamID, pri Priority) {
	if _, ok := q.location[id]; ok {
		panic("scheduler: duplicate insert of stream already in priority queue")
	}
	level, ok := q.levels[pri.Urgency]
	if !ok {
		level = NewRoundRobin()
		q.levels[pri.Urgency] = level
	}
	level.Insert(id)
	q.location[id] = pri.Urgency
}

// Erase removes id from whichever level it's in. No-op if absent.
func (q *PriorityQueue) Erase(id protocol.StreamID) bool {
	urgency, ok := q.location[id]
	if !ok {
		return false
	}
	level := q.levels[urgency]
	level.Erase(id)
	delete(q.location, id)
	if level.Empty() {
		delete(q.levels, urgency)
	}
	return true
}

// Contains reports whether id is anywhere in the queue.
func (q *PriorityQueue) Contains(id protocol.StreamID) bool {
	_, ok := q.location[id]
	return ok
}

// Empty reports whether the queue holds no streams at all.
func (q *PriorityQueue) Empty() bool {
	return len(q.levels) == 0
}

// highestLevel returns the populated level with the lowest Urgency value,
// or nil if the queue is empty.
func (q *PriorityQueue) highestLevel() *RoundRobin {
	if len(q.levels) == 0 {
		return nil
	}
	urgencies := make([]uint8, 0, len(q.levels))
	for u := range q.levels {
		urgencies = append(urgencies, u)
	}
	sort.Slice(urgencies, func(i, j int) bool { return urgencies[i] < urgencies[j] })
	return q.levels[urgencies[0]]
}

// PeekNext returns the next stream the scheduler would hand out, without
// mutating any state. Panics if the queue is empty.
func (q *PriorityQueue) PeekNext() protocol.StreamID {
	level := q.highestLevel()
	if level == nil {
		panic("scheduler: PeekNext on empty priority queue")
	}
	return level.PeekNext()
}

// GetNext returns the next stream to write to and consumes bytes against
// that stream's priority level's fairness counter.
func (q *PriorityQueue) GetNext(bytes uint64) protocol.StreamID {
	level := q.highestLevel()
	if level == nil {
		panic("scheduler: GetNext on empty priority queue")
	}
	return level.GetNext(bytes)
}

// Consume charges bytes against the fairness counter of whichever level id
// (the stream just written to) lives in.
func (q *PriorityQueue) Consume(id protocol.StreamID, bytes uint64) {
	urgency, ok := q.location[id]
	if !ok {
		return
	}
	q.levels[urgency].Consume(bytes)
}
