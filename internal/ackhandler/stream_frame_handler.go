package ackhandler

import (
	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/utils"
	"github.com/DENGZEYI/mvfst/sendstream"
)

// StreamFrameHandler dispatches a sent STREAM frame's ACK/loss outcome into
// the owning stream's send state machine (modules B and C), then drains any
// delivery callbacks the ACK resolved (module H).
type StreamFrameHandler struct {
	Stream *sendstream.SendStream
	Offset protocol.ByteCount
	Length protocol.ByteCount
	Fin    bool

	// Synced is called after the stream's state changes, so the owning
	// stream manager can recompute writable/deliverable/closed membership
	// (streammanager.Manager.Sync). May be nil in tests.
	Synced func(*sendstream.SendStream)

	logger utils.Logger
}

// NewStreamFrameHandler wraps a just-sent STREAM frame for the outstanding-
// packets registry.
func NewStreamFrameHandler(s *sendstream.SendStream, offset, length protocol.ByteCount, fin bool, synced func(*sendstream.SendStream)) *StreamFrameHandler {
	return &StreamFrameHandler{Stream: s, Offset: offset, Length: length, Fin: fin, Synced: synced, logger: utils.NopLogger}
}

func (h *StreamFrameHandler) OnAcked() {
	if err := h.Stream.HandleAck(h.Offset, h.Length, h.Fin); err != nil {
		h.logger.Infof("ackhandler: stream %d ack handling failed: %v", h.Stream.ID(), err)
	}
	h.Stream.DrainDeliveries()
	if h.Synced != nil {
		h.Synced(h.Stream)
	}
}

func (h *StreamFrameHandler) OnLost() {
	if err := h.Stream.Loss(h.Offset); err != nil {
		h.logger.Infof("ackhandler: stream %d loss handling failed: %v", h.Stream.ID(), err)
	}
	if h.Synced != nil {
		h.Synced(h.Stream)
	}
}

var _ FrameHandler = (*StreamFrameHandler)(nil)
