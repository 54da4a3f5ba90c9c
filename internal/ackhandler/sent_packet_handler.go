package ackhandler

import (
	"fmt"
	"time"

	"github.com/DENGZEYI/mvfst/congestion"
	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/qerr"
	"github.com/DENGZEYI/mvfst/internal/utils"
	"github.com/DENGZEYI/mvfst/internal/wire"
)

// SentPacketHandler owns the outstanding-packets registry for one
// connection. It's driven exclusively by the connection's single worker
// goroutine (spec.md section 5), so - like sendstream.SendStream - it
// carries no internal locking.
type SentPacketHandler struct {
	outstanding map[protocol.PacketNumber]*Packet
	congestion  congestion.Controller
	logger      utils.Logger
}

// NewSentPacketHandler returns an empty registry driving controller's
// OnPacketSent/OnAck/OnLoss hooks as packets are sent, acked, and lost.
func NewSentPacketHandler(controller congestion.Controller) *SentPacketHandler {
	return &SentPacketHandler{
		outstanding: make(map[protocol.PacketNumber]*Packet),
		congestion:  controller,
		logger:      utils.NopLogger,
	}
}

// SetLogger installs a leveled logger for packet lifecycle events.
func (h *SentPacketHandler) SetLogger(l utils.Logger) { h.logger = l }

// SentPacket records a newly sent packet and the frames it carried.
func (h *SentPacketHandler) SentPacket(pn protocol.PacketNumber, length protocol.ByteCount, frames []Frame, sentTime time.Time) {
	h.outstanding[pn] = &Packet{PacketNumber: pn, SendTime: sentTime, Length: length, Frames: frames}
	if h.congestion != nil {
		h.congestion.OnPacketSent(pn, length, sentTime)
	}
	h.logger.Debugf("ackhandler: sent packet %d (%d bytes, %d frames)", pn, length, len(frames))
}

// ReceivedAck retires a single acknowledged packet number: every frame it
// carried has OnAcked called, in the order they were recorded. A repeat ACK
// of an already-retired packet number is a no-op, not an error - ACK frames
// routinely re-cover previously acked ranges.
func (h *SentPacketHandler) ReceivedAck(pn protocol.PacketNumber, ackTime time.Time) {
	p, ok := h.outstanding[pn]
	if !ok {
		return
	}
	delete(h.outstanding, pn)
	if h.congestion != nil {
		h.congestion.OnAck(pn, p.Length, ackTime)
	}
	for _, f := range p.Frames {
		f.Handler.OnAcked()
	}
	h.logger.Debugf("ackhandler: acked packet %d", pn)
}

// ReceivedAckRange retires every packet number in [rng.First, rng.Last].
func (h *SentPacketHandler) ReceivedAckRange(rng wire.AckRange, ackTime time.Time) error {
	if rng.Last < rng.First {
		return qerr.NewInternalError(fmt.Sprintf("ackhandler: ack range [%d,%d] is inverted", rng.First, rng.Last))
	}
	for pn := rng.First; pn <= rng.Last; pn++ {
		h.ReceivedAck(pn, ackTime)
	}
	return nil
}

// DeclareLost marks pn as lost (via loss detection, not an ACK): every
// frame it carried has OnLost called, and the packet is retired from the
// outstanding set. A no-op if pn is unknown (already acked, or already
// declared lost).
func (h *SentPacketHandler) DeclareLost(pn protocol.PacketNumber) {
	p, ok := h.outstanding[pn]
	if !ok {
		return
	}
	delete(h.outstanding, pn)
	if h.congestion != nil {
		h.congestion.OnLoss(pn, p.Length)
	}
	for _, f := range p.Frames {
		f.Handler.OnLost()
	}
	h.logger.Debugf("ackhandler: declared packet %d lost", pn)
}

// OutstandingCount returns the number of packets sent but neither acked nor
// declared lost.
func (h *SentPacketHandler) OutstandingCount() int {
	return len(h.outstanding)
}
