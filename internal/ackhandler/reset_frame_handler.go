package ackhandler

import (
	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/utils"
	"github.com/DENGZEYI/mvfst/sendstream"
)

// ResetFrameHandler dispatches a sent RESET_STREAM(_AT) frame's ACK outcome
// into the owning stream's reset logic (module E). The worker loop re-emits
// the reset off the connection's pending-resets queue on every write
// opportunity until the stream is terminal, lost or not; there's no per-byte
// retransmission buffer for a reset the way there is for stream data, so
// OnLost is a no-op here.
type ResetFrameHandler struct {
	Stream       *sendstream.SendStream
	ReliableSize *protocol.ByteCount
	Synced       func(*sendstream.SendStream)

	logger utils.Logger
}

func NewResetFrameHandler(s *sendstream.SendStream, reliableSize *protocol.ByteCount, synced func(*sendstream.SendStream)) *ResetFrameHandler {
	return &ResetFrameHandler{Stream: s, ReliableSize: reliableSize, Synced: synced, logger: utils.NopLogger}
}

func (h *ResetFrameHandler) OnAcked() {
	if err := h.Stream.HandleResetAcked(h.ReliableSize); err != nil {
		h.logger.Infof("ackhandler: stream %d reset-ack handling failed: %v", h.Stream.ID(), err)
	}
	if h.Synced != nil {
		h.Synced(h.Stream)
	}
}

func (h *ResetFrameHandler) OnLost() {
	// The worker loop re-offers this stream's reset from the pending-resets
	// queue (streammanager.PendingResets) until the stream is terminal;
	// nothing to do here.
}

var _ FrameHandler = (*ResetFrameHandler)(nil)
