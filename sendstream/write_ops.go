package sendstream

import (
	"fmt"

	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/qerr"
	"github.com/DENGZEYI/mvfst/internal/wire"
)

// Write enqueues bytes for sending, optionally marking them as the final
// bytes of the stream. Invariant 2 (spec.md section 3): once the stream has
// left Open for Closed or ResetSent, no new bytes may enter pendingWrites.
func (s *SendStream) Write(data []byte, fin bool) error {
	if s.sendState == Closed || s.sendState == ResetSent {
		// Silently ignored: the application may race a Write with a Reset
		// or a peer-driven Close; spec.md section 7 confines local recovery
		// to "ignoring duplicate events in terminal states".
		return nil
	}
	if s.sendState == Invalid {
		return qerr.NewTransportError(qerr.StreamStateError, fmt.Sprintf("write on invalid (receive-only) stream %d", s.id))
	}
	if s.finalWriteOffset != nil {
		return qerr.NewInternalError(fmt.Sprintf("stream %d: write after FIN already queued", s.id))
	}
	offset := s.writeOffset
	if len(data) > 0 {
		buf := make([]byte, len(data))
		copy(buf, data)
		s.pendingWrites.PushBack(&pendingWrite{offset: offset, data: buf, fin: fin})
	} else if fin {
		s.pendingWrites.PushBack(&pendingWrite{offset: offset, data: nil, fin: true})
	}
	s.writeOffset += protocol.ByteCount(len(data))
	if fin {
		finOffset := s.writeOffset
		s.finalWriteOffset = &finOffset
	}
	return nil
}

// PopFrame removes up to maxBytes of the oldest pending write and returns a
// STREAM frame describing it, recording the range into the retransmission
// buffer. It respects the per-stream and connection flow-control credit the
// caller has already computed into maxBytes. Returns ok=false if there's
// nothing to send.
func (s *SendStream) PopFrame(maxBytes protocol.ByteCount) (frame *wire.StreamFrame, ok bool) {
	front := s.pendingWrites.Front()
	if front == nil {
		return nil, false
	}
	pw := front.Value.(*pendingWrite)

	if protocol.ByteCount(len(pw.data)) <= maxBytes {
		s.pendingWrites.Remove(front)
		fin := pw.fin
		if err := s.Record(pw.offset, pw.data, fin); err != nil {
			panic(err) // duplicate offset in retransmission buffer is a logic bug in this package, not a caller contract violation
		}
		s.flowController.AddBytesSent(protocol.ByteCount(len(pw.data)))
		return &wire.StreamFrame{StreamID: s.id, Offset: pw.offset, Data: pw.data, Fin: fin}, true
	}

	// Partial send: split the pending write, keep the remainder queued.
	head := pw.data[:maxBytes]
	tail := pw.data[maxBytes:]
	if err := s.Record(pw.offset, head, false); err != nil {
		panic(err)
	}
	s.flowController.AddBytesSent(protocol.ByteCount(len(head)))
	pw.offset += maxBytes
	pw.data = tail
	return &wire.StreamFrame{StreamID: s.id, Offset: front.Value.(*pendingWrite).offset - maxBytes, Data: head, Fin: false}, true
}

// NextWriteLen returns the number of bytes the next pending write would
// contribute if nothing constrained it, or 0 if there's nothing queued.
// Used by the scheduler/worker to decide how large a send opportunity to
// ask for.
func (s *SendStream) NextWriteLen() protocol.ByteCount {
	front := s.pendingWrites.Front()
	if front == nil {
		return 0
	}
	return protocol.ByteCount(len(front.Value.(*pendingWrite).data))
}
