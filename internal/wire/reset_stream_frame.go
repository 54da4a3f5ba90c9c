package wire

import "github.com/DENGZEYI/mvfst/internal/protocol"

// ResetStreamFrame asks the peer to abandon reading a stream without any
// delivery commitment (spec.md section 6, RESET_STREAM).
type ResetStreamFrame struct {
	StreamID  protocol.StreamID
	ErrorCode protocol.ApplicationErrorCode
	FinalSize protocol.ByteCount
}

func (f *ResetStreamFrame) frame() {}

// ResetStreamAtFrame is the reliable-reset variant: every byte below
// ReliableSize must still be delivered before the sender abandons the rest
// (spec.md section 4.E, the "reliable reset" feature).
type ResetStreamAtFrame struct {
	StreamID      protocol.StreamID
	ErrorCode     protocol.ApplicationErrorCode
	FinalSize     protocol.ByteCount
	ReliableSize  protocol.ByteCount
}

func (f *ResetStreamAtFrame) frame() {}
