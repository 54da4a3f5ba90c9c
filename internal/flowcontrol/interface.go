// Package flowcontrol implements the connection- and stream-level credit
// accounting of spec.md section 4.D: writable credit is peer_max_offset -
// sent, clamped at zero, and a blocked signal latches once so the transport
// emits DATA_BLOCKED / STREAM_DATA_BLOCKED only once per exhaustion.
package flowcontrol

import "github.com/DENGZEYI/mvfst/internal/protocol"

type flowController interface {
	// SendWindowSize is the number of bytes that may still be sent.
	SendWindowSize() protocol.ByteCount
	// UpdateSendWindow raises the peer-advertised maximum offset. Returns
	// false if the new value isn't actually larger (a no-op, not an error:
	// MAX_DATA/MAX_STREAM_DATA frames may arrive out of order).
	UpdateSendWindow(protocol.ByteCount) (updated bool)
	AddBytesSent(protocol.ByteCount)
	// IsNewlyBlocked reports - and clears - whether the controller became
	// blocked since the last call, and at what offset.
	IsNewlyBlocked() (bool, protocol.ByteCount)
}

// StreamFlowController is the per-stream flow controller (spec.md section
// 4.D, the "stream-level" layer).
type StreamFlowController interface {
	flowController
}

// ConnectionFlowController is the connection-wide flow controller (spec.md
// section 4.D, the "connection-level" layer).
type ConnectionFlowController interface {
	flowController
}
