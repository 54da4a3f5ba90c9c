// Package congestion declares the narrow boundary between the send-side
// state machine in sendstream and a pluggable congestion controller.
// Congestion control algorithms themselves (Cubic, NewReno, BBR, Copa) are
// out of scope (spec.md section 1); only their hook points are named here,
// per spec.md section 9's "dynamic dispatch on congestion controllers
// becomes a narrow behavior" design note.
package congestion

import (
	"time"

	"github.com/DENGZEYI/mvfst/internal/protocol"
)

// Controller is the hook surface the worker loop drives. A tagged variant
// of a concrete algorithm satisfies this; none are implemented here.
type Controller interface {
	OnPacketSent(protocol.PacketNumber, protocol.ByteCount, time.Time)
	OnAck(protocol.PacketNumber, protocol.ByteCount, time.Time)
	OnLoss(protocol.PacketNumber, protocol.ByteCount)
	CanSend(protocol.ByteCount) bool
	GetCongestionWindow() protocol.ByteCount
	Stats() Stats
}

// Stats reports the slow-start loss bookkeeping a controller exposes for
// diagnostics, matching the teacher's connectionStats shape.
type Stats struct {
	SlowstartPacketsLost protocol.PacketNumber
	SlowstartBytesLost   protocol.ByteCount
}
