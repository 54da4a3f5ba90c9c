package utils

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Min and Max are small generic helpers shared by the interval set's merge
// logic and by callers elsewhere (e.g. the worker loop's flow-control and
// congestion-window clamping) that would otherwise each hand-roll their own
// comparisons, mirroring the teacher's own use of Go generics
// (outgoingStreamsMap[T]).
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// ByteInterval is a closed, inclusive range [Start, End] of byte offsets.
type ByteInterval struct {
	Start, End int64
}

// ByteIntervalSet maintains an ordered set of disjoint, non-adjacent closed
// intervals, merging overlapping or touching ranges on insert. It backs
// acked_intervals (spec.md section 3) and the stream-id set the manager uses
// to enforce negotiated stream limits (spec.md section 4.G), the same way
// mvfst reuses folly::IntervalSet for both StreamIdSet and the stream's
// acked-byte bookkeeping.
type ByteIntervalSet struct {
	intervals []ByteInterval
}

// NewByteIntervalSet returns an empty set.
func NewByteIntervalSet() *ByteIntervalSet {
	return &ByteIntervalSet{}
}

// Add inserts [start, end] (inclusive), merging with any overlapping or
// adjacent existing interval.
func (s *ByteIntervalSet) Add(start, end int64) {
	if end < start {
		return
	}
	// Find the first interval whose End is >= start-1 (candidate for merge).
	i := sort.Search(len(s.intervals), func(i int) bool {
		return s.intervals[i].End >= start-1
	})
	if i == len(s.intervals) || s.intervals[i].Start > end+1 {
		// No overlap/adjacency: insert a new interval at position i.
		s.intervals = append(s.intervals, ByteInterval{})
		copy(s.intervals[i+1:], s.intervals[i:])
		s.intervals[i] = ByteInterval{Start: start, End: end}
		return
	}
	// Merge [start, end] into intervals[i], then absorb any further
	// intervals that now overlap or touch the merged range.
	mergedStart := Min(s.intervals[i].Start, start)
	mergedEnd := Max(s.intervals[i].End, end)
	j := i + 1
	for j < len(s.intervals) && s.intervals[j].Start <= mergedEnd+1 {
		mergedEnd = Max(mergedEnd, s.intervals[j].End)
		j++
	}
	s.intervals[i] = ByteInterval{Start: mergedStart, End: mergedEnd}
	s.intervals = append(s.intervals[:i+1], s.intervals[j:]...)
}

// Contains reports whether offset falls within some interval in the set.
func (s *ByteIntervalSet) Contains(offset int64) bool {
	i := sort.Search(len(s.intervals), func(i int) bool {
		return s.intervals[i].End >= offset
	})
	return i < len(s.intervals) && s.intervals[i].Start <= offset
}

// ContainsRange reports whether every offset in [start, end] is covered.
func (s *ByteIntervalSet) ContainsRange(start, end int64) bool {
	if end < start {
		return true
	}
	i := sort.Search(len(s.intervals), func(i int) bool {
		return s.intervals[i].End >= start
	})
	return i < len(s.intervals) && s.intervals[i].Start <= start && s.intervals[i].End >= end
}

// Intervals returns the disjoint intervals in increasing order. The returned
// slice must not be mutated by the caller.
func (s *ByteIntervalSet) Intervals() []ByteInterval {
	return s.intervals
}

// Empty reports whether the set contains no intervals.
func (s *ByteIntervalSet) Empty() bool {
	return len(s.intervals) == 0
}
