// This file is the send state machine of spec.md section 4.C, ported
// handler-for-handler from _examples/original_source/quic/state/stream/
// StreamSendHandlers.cpp: sendStopSendingSMHandler, sendRstSMHandler,
// sendAckSMHandler and sendRstAckSMHandler become the four methods below.
package sendstream

import (
	"fmt"

	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/qerr"
	"github.com/DENGZEYI/mvfst/internal/wire"
)

// HandleStopSending processes a peer STOP_SENDING frame (spec.md section
// 4.C, row "peer STOP_SENDING"). In Open it's recorded for the application
// to see and the stream remains Open - the application typically responds
// with a matching Reset. It's a no-op in ResetSent/Closed, and a protocol
// error in Invalid: a peer can't ask a receive-only stream's absent send
// half to stop.
func (s *SendStream) HandleStopSending(frame *wire.StopSendingFrame) error {
	switch s.sendState {
	case Open:
		s.stopSending = &StopSendingError{ErrorCode: frame.ErrorCode}
		s.logger.Debugf("stream %d: recorded STOP_SENDING(%#x), remaining Open", s.id, frame.ErrorCode)
		return nil
	case ResetSent, Closed:
		return nil
	case Invalid:
		return qerr.NewTransportError(qerr.StreamStateError,
			fmt.Sprintf("STOP_SENDING on stream %d which has no send state", s.id))
	default:
		panic("unreachable send state")
	}
}

// IssueReset is the application-initiated reset event (spec.md section 4.C,
// row "app reset(err, rsize)"; section 4.E). See reset.go for the
// monotonicity contract this enforces.
func (s *SendStream) IssueReset(errorCode protocol.ApplicationErrorCode, reliableSize *protocol.ByteCount) error {
	switch s.sendState {
	case Open:
		if err := s.validateAndApplyReset(errorCode, reliableSize); err != nil {
			return err
		}
		// Drop queued bytes beyond the reliable size: anything at or past
		// it will never be sent.
		s.dropPendingWritesBeyond(s.effectiveReliableSize())
		s.sendState = ResetSent
		s.logger.Debugf("stream %d: Open -> ResetSent (err=%#x, reliableSize=%v)", s.id, errorCode, reliableSize)
		return nil
	case ResetSent:
		// Idempotent only if the error code is unchanged and the reliable
		// size isn't increasing; reset.go's validateAndApplyReset enforces
		// that and returns a fatal error otherwise.
		return s.validateAndApplyReset(errorCode, reliableSize)
	case Closed, Invalid:
		// Ignored: resetting an already-terminal stream is a no-op per
		// spec.md section 7's local-recovery list.
		return nil
	default:
		panic("unreachable send state")
	}
}

// HandleAck processes an ACK covering a previously sent STREAM frame
// (spec.md section 4.C, row "ACK of stream data").
func (s *SendStream) HandleAck(offset, length protocol.ByteCount, fin bool) error {
	switch s.sendState {
	case Open, ResetSent:
		if err := s.Ack(offset, length, fin); err != nil {
			return err
		}
		if s.reachedClosed() {
			prev := s.sendState
			s.sendState = Closed
			s.logger.Debugf("stream %d: %s -> Closed (ack complete)", s.id, prev)
		}
		return nil
	case Closed:
		if s.RetransmissionBufferSize() != 0 || s.PendingWritesLen() != 0 {
			return qerr.NewInternalError(fmt.Sprintf("stream %d: Closed stream has non-empty buffers", s.id))
		}
		return nil
	case Invalid:
		return qerr.NewTransportError(qerr.StreamStateError, fmt.Sprintf("ACK of stream data on stream %d which has no send state", s.id))
	default:
		panic("unreachable send state")
	}
}

// HandleResetAcked processes an ACK of the pending RESET_STREAM(_AT) frame
// itself (spec.md section 4.C, row "ACK of reset"; section 4.E).
func (s *SendStream) HandleResetAcked(reliableSize *protocol.ByteCount) error {
	switch s.sendState {
	case ResetSent:
		var rs protocol.ByteCount
		if reliableSize != nil {
			rs = *reliableSize
		}
		if s.minReliableSizeAcked == nil {
			s.minReliableSizeAcked = &rs
		} else if rs < *s.minReliableSizeAcked {
			s.minReliableSizeAcked = &rs
		}
		if s.reachedClosed() {
			s.sendState = Closed
			s.logger.Debugf("stream %d: ResetSent -> Closed (reset ack complete)", s.id)
		}
		return nil
	case Closed:
		return nil
	case Open, Invalid:
		return qerr.NewTransportError(qerr.StreamStateError, fmt.Sprintf("ACK of reset on stream %d in state %s", s.id, s.sendState))
	default:
		panic("unreachable send state")
	}
}

// reachedClosed reports whether the Closed transition condition of spec.md
// section 4.C holds: either every byte till FIN is acked, or a reset's
// acked reliable prefix is fully delivered (an acked reset with reliable
// size 0 suffices on its own).
func (s *SendStream) reachedClosed() bool {
	if s.allBytesTillFinAcked() {
		return true
	}
	if s.minReliableSizeAcked == nil {
		return false
	}
	threshold := *s.minReliableSizeAcked
	if threshold == 0 {
		return true
	}
	return s.allBytesAckedTill(threshold - 1)
}

func (s *SendStream) dropPendingWritesBeyond(reliableSize protocol.ByteCount) {
	for e := s.pendingWrites.Front(); e != nil; {
		next := e.Next()
		pw := e.Value.(*pendingWrite)
		if pw.offset >= reliableSize {
			s.pendingWrites.Remove(e)
		} else if pw.offset+protocol.ByteCount(len(pw.data)) > reliableSize {
			pw.data = pw.data[:reliableSize-pw.offset]
			pw.fin = false
		}
		e = next
	}
}
