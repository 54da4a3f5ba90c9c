package flowcontrol

import (
	"sync"

	"github.com/DENGZEYI/mvfst/internal/protocol"
)

// baseFlowController holds the send-side accounting shared by the stream-
// and connection-level controllers: bytes sent so far and the highest
// offset the peer has granted us (spec.md section 4.D).
type baseFlowController struct {
	mutex sync.Mutex

	sent              protocol.ByteCount
	peerMaxOffset     protocol.ByteCount
	blocked           bool
	blockedSentOffset protocol.ByteCount
}

func newBaseFlowController(initialMaxOffset protocol.ByteCount) baseFlowController {
	return baseFlowController{peerMaxOffset: initialMaxOffset}
}

func (c *baseFlowController) sendWindowSize() protocol.ByteCount {
	if c.sent >= c.peerMaxOffset {
		return 0
	}
	return c.peerMaxOffset - c.sent
}

// updateSendWindow raises peerMaxOffset if offset is larger than the
// current value. A peer MAX_DATA/MAX_STREAM_DATA carrying a smaller or
// equal offset is a no-op - not an error, since these frames may be
// reordered or duplicated on the wire.
func (c *baseFlowController) updateSendWindow(offset protocol.ByteCount) bool {
	if offset <= c.peerMaxOffset {
		return false
	}
	c.peerMaxOffset = offset
	if c.sent < c.peerMaxOffset {
		c.blocked = false
	}
	return true
}

func (c *baseFlowController) addBytesSent(n protocol.ByteCount) {
	c.sent += n
	if c.sendWindowSizeLocked() == 0 {
		c.latchBlocked()
	}
}

func (c *baseFlowController) sendWindowSizeLocked() protocol.ByteCount {
	return c.sendWindowSize()
}

// latchBlocked records that credit is exhausted, so the caller emits a
// single DATA_BLOCKED / STREAM_DATA_BLOCKED frame rather than one per send
// attempt (spec.md section 4.D).
func (c *baseFlowController) latchBlocked() {
	if c.blocked && c.blockedSentOffset == c.peerMaxOffset {
		return
	}
	c.blocked = true
	c.blockedSentOffset = c.peerMaxOffset
}

// isNewlyBlocked reports the latched blocked signal and clears it - it
// fires at most once per exhaustion, per spec.md section 7's "coalescing
// repeated blocked signals".
func (c *baseFlowController) isNewlyBlocked() (bool, protocol.ByteCount) {
	if !c.blocked {
		return false, 0
	}
	c.blocked = false
	return true, c.blockedSentOffset
}
