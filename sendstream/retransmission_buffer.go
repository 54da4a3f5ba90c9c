package sendstream

import (
	"fmt"

	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/qerr"
)

// bufferedRange is an in-flight, unacknowledged byte range with its data
// attached (spec.md section 4.B).
type bufferedRange struct {
	offset protocol.ByteCount
	data   []byte
	eof    bool
}

func (r *bufferedRange) length() protocol.ByteCount { return protocol.ByteCount(len(r.data)) }

// Record inserts a transmitted range into the retransmission buffer. It
// fails if an overlapping key already exists (spec.md section 4.B).
func (s *SendStream) Record(offset protocol.ByteCount, data []byte, fin bool) error {
	if _, ok := s.retransmissionBuffer[offset]; ok {
		return qerr.NewInternalError(fmt.Sprintf("stream %d: retransmission buffer already has an entry at offset %d", s.id, offset))
	}
	s.retransmissionBuffer[offset] = &bufferedRange{offset: offset, data: data, eof: fin}
	return nil
}

// Ack locates the range transmitted at offset and retires it: the ACK
// descriptor's length and FIN flag must match the stored range exactly -
// any mismatch is a contract violation, not a protocol error, since it
// means the sender itself lost track of what it sent (spec.md section 4.B,
// 7).
func (s *SendStream) Ack(offset, length protocol.ByteCount, fin bool) error {
	if r, ok := s.retransmissionBuffer[offset]; ok {
		if r.length() != length || r.eof != fin {
			return qerr.NewInternalError(fmt.Sprintf(
				"stream %d: ACK at offset %d has len=%d fin=%t, retransmission buffer has len=%d fin=%t",
				s.id, offset, length, fin, r.length(), r.eof))
		}
		s.updateAckedIntervals(offset, length, fin)
		delete(s.retransmissionBuffer, offset)
		return nil
	}
	// Acking a range we never recorded - and that isn't already accounted
	// for in acked_intervals (a duplicate ACK) - is a contract violation.
	if s.ackedIntervals.ContainsRange(int64(offset), int64(offset+length-1)) {
		return nil
	}
	return qerr.NewInternalError(fmt.Sprintf("stream %d: ACK of unknown range offset=%d len=%d fin=%t", s.id, offset, length, fin))
}

func (s *SendStream) updateAckedIntervals(offset, length protocol.ByteCount, fin bool) {
	if length > 0 {
		s.ackedIntervals.Add(int64(offset), int64(offset+length-1))
	}
	if fin {
		s.finAcked = true
	}
}

// Loss marks a previously recorded range for re-send: it's removed from the
// retransmission buffer and reinserted at the head of pendingWrites with
// its original offset preserved (spec.md section 4.B).
func (s *SendStream) Loss(offset protocol.ByteCount) error {
	if r, ok := s.retransmissionBuffer[offset]; ok {
		delete(s.retransmissionBuffer, offset)
		s.pendingWrites.PushFront(&pendingWrite{offset: r.offset, data: r.data, fin: r.eof})
		return nil
	}
	return qerr.NewInternalError(fmt.Sprintf("stream %d: loss() of unknown range at offset %d", s.id, offset))
}

// RetransmissionBufferSize returns the number of in-flight ranges, used by
// tests and invariant checks (spec.md invariant 3, 6).
func (s *SendStream) RetransmissionBufferSize() int {
	return len(s.retransmissionBuffer)
}

// PendingWritesLen returns the number of queued, unsent byte ranges.
func (s *SendStream) PendingWritesLen() int {
	return s.pendingWrites.Len()
}
