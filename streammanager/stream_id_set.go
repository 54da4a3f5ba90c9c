// Package streammanager implements spec.md section 4.G: the stream set,
// the writable/deliverable/closed/stop-sending auxiliary sets, and the
// negotiated stream-count limits. Grounded on
// original_source/quic/state/QuicStreamManager.{h,cpp}.
package streammanager

import (
	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/utils"
)

// streamIDIncrement is the spacing between consecutive stream IDs of the
// same (type, initiator) class: the two low bits are reserved to encode
// that class (RFC 9000 section 2.1).
const streamIDIncrement = 4

// StreamIDSet is a space-efficient set of stream IDs drawn from a single
// (type, initiator) class, backed by an interval set over the IDs' 0-based
// sequence numbers within that class. A direct port of mvfst's StreamIdSet,
// which saves space when the set holds contiguous runs of IDs - the common
// case, since streams within a class are opened in order.
type StreamIDSet struct {
	base      protocol.StreamID
	sequences *utils.ByteIntervalSet
}

// NewStreamIDSet returns an empty set for the (type, initiator) class whose
// first stream ID is base.
func NewStreamIDSet(base protocol.StreamID) *StreamIDSet {
	return &StreamIDSet{base: base, sequences: utils.NewByteIntervalSet()}
}

func (s *StreamIDSet) sequence(id protocol.StreamID) int64 {
	return int64(id-s.base) / streamIDIncrement
}

// Add records id as a member of the set.
func (s *StreamIDSet) Add(id protocol.StreamID) {
	seq := s.sequence(id)
	s.sequences.Add(seq, seq)
}

// AddRange records every ID in [first, last] (inclusive, same class) as a
// member of the set in one call.
func (s *StreamIDSet) AddRange(first, last protocol.StreamID) {
	s.sequences.Add(s.sequence(first), s.sequence(last))
}

// Contains reports whether id is a member of the set.
func (s *StreamIDSet) Contains(id protocol.StreamID) bool {
	if id < s.base || (id-s.base)%streamIDIncrement != 0 {
		return false
	}
	seq := s.sequence(id)
	return s.sequences.ContainsRange(seq, seq)
}

// Len returns the number of member IDs. Intervals are walked linearly; sets
// used here stay small (one interval per gap, not per ID), so this is cheap
// in practice.
func (s *StreamIDSet) Len() int {
	total := 0
	for _, iv := range s.sequences.Intervals() {
		total += int(iv.End-iv.Start) + 1
	}
	return total
}
