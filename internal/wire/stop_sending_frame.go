package wire

import "github.com/DENGZEYI/mvfst/internal/protocol"

// StopSendingFrame is sent by a receiver that wants the sender to abandon a
// stream; it's consumed by the send side (spec.md section 4.C).
type StopSendingFrame struct {
	StreamID  protocol.StreamID
	ErrorCode protocol.ApplicationErrorCode
}

func (f *StopSendingFrame) frame() {}
