// Package ackhandler is the outstanding-packets registry spec.md section 6
// refers to: it maps a sent packet number to the frames that packet
// carried, so that an ACK or a declared loss can be translated back into
// per-stream events (HandleAck/Loss in sendstream) without the sender
// having to re-derive which bytes went out in which packet.
package ackhandler

import (
	"time"

	"github.com/DENGZEYI/mvfst/internal/protocol"
)

// FrameHandler is notified when the packet carrying it is acknowledged or
// declared lost. sendstream.SendStream's PopFrame return value is wrapped
// in one of these before the packet is considered sent.
type FrameHandler interface {
	OnAcked()
	OnLost()
}

// Frame pairs a FrameHandler with enough bookkeeping for congestion control
// or retransmission accounting to treat it opaquely.
type Frame struct {
	Handler FrameHandler
}

// Packet is a single outstanding (sent, not yet acked or lost) packet.
type Packet struct {
	PacketNumber protocol.PacketNumber
	SendTime     time.Time
	Length       protocol.ByteCount
	Frames       []Frame
}
