package mvfst

import (
	"context"
	"time"

	"github.com/DENGZEYI/mvfst/internal/ackhandler"
	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/utils"
	"github.com/DENGZEYI/mvfst/internal/wire"
	"github.com/DENGZEYI/mvfst/sendstream"
)

// Run is the connection's single worker goroutine: it drains app
// operations, peer frames and timer fires, one at a time, until ctx is
// canceled or the connection is closed (spec.md section 2's dataflow,
// section 5's single-writer discipline). Every other exported method on
// Connection and Stream submits work here rather than mutating state from
// the caller's own goroutine.
func (c *Connection) Run(ctx context.Context) error {
	defer close(c.done)
	c.idleTimer.Reset(time.Now().Add(c.idleTimeout))
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-c.closed:
			return nil
		case op := <-c.appOps:
			op()
		case frame := <-c.peerFrames:
			c.handlePeerFrame(frame)
		case <-c.idleTimer.Chan():
			c.idleTimer.SetRead()
			c.onIdleTimeout()
		}
		c.idleTimer.Reset(time.Now().Add(c.idleTimeout))
	}
}

// onIdleTimeout fires when no activity has touched the connection within
// idleTimeout. Real idle-timeout handling involves PING probes and a
// transport-parameter-negotiated duration, both out of scope here (spec.md
// section 1 excludes transport-parameter negotiation); this just tears the
// connection down.
func (c *Connection) onIdleTimeout() {
	c.logger.Infof("connection: idle timeout, shutting down")
	c.shutdown()
}

// popWriteOpportunity must run on the worker goroutine. It assembles up to
// one packet's worth of frames: every pending reset first (module E),
// then stream data via the scheduler (module F) clamped by the stream's
// and connection's flow-control credit (module D) and by the congestion
// controller's window.
func (c *Connection) popWriteOpportunity(budgetBytes protocol.ByteCount) ([]wire.Frame, []ackhandler.Frame) {
	budget := budgetBytes
	if c.congestion != nil {
		if !c.congestion.CanSend(0) {
			return nil, nil
		}
		if cw := c.congestion.GetCongestionWindow(); cw < budget {
			budget = cw
		}
	}

	var wireFrames []wire.Frame
	var ackFrames []ackhandler.Frame

	for _, id := range c.manager.PendingResets().Streams() {
		s, ok := c.manager.GetStream(id)
		if !ok {
			c.manager.PendingResets().Remove(id)
			continue
		}
		errorCode, _ := s.AppErrorCodeToPeer()
		finalSize := s.WriteOffset()

		// A reset with reliable size 0 commits to delivering nothing, so it
		// goes out as a plain RESET_STREAM.
		var reliableSize *protocol.ByteCount
		if rs, ok := s.ReliableSizeToPeer(); ok && rs > 0 {
			reliableSize = &rs
			wireFrames = append(wireFrames, &wire.ResetStreamAtFrame{
				StreamID: id, ErrorCode: errorCode, FinalSize: finalSize, ReliableSize: rs,
			})
		} else {
			wireFrames = append(wireFrames, &wire.ResetStreamFrame{
				StreamID: id, ErrorCode: errorCode, FinalSize: finalSize,
			})
		}
		wire.LogFrame(c.logger, wireFrames[len(wireFrames)-1], true)
		ackFrames = append(ackFrames, ackhandler.Frame{
			Handler: ackhandler.NewResetFrameHandler(s, reliableSize, c.syncStream),
		})
	}

	// blocked tracks streams the scheduler has already handed back this pass
	// without making progress (flow-control blocked, or nothing queued) -
	// without it, a single such stream left at the head of its round-robin
	// level would spin this loop forever instead of yielding once budget or
	// the scheduler itself runs dry.
	blocked := make(map[protocol.StreamID]bool)
	for budget > 0 {
		id, ok := c.manager.TakeWriteOpportunity(uint64(budget))
		if !ok || blocked[id] {
			break
		}
		s, ok := c.manager.GetStream(id)
		if !ok {
			continue
		}

		allowed := utils.Min(budget, s.SendWindowSize())
		allowed = utils.Min(allowed, c.connFlowController.SendWindowSize())
		if allowed <= 0 {
			blocked[id] = true
			c.manager.Sync(s)
			continue
		}

		frame, ok := s.PopFrame(allowed)
		if !ok {
			blocked[id] = true
			c.manager.Sync(s)
			continue
		}
		c.connFlowController.AddBytesSent(protocol.ByteCount(len(frame.Data)))
		budget -= protocol.ByteCount(len(frame.Data))

		wireFrames = append(wireFrames, frame)
		wire.LogFrame(c.logger, frame, true)
		ackFrames = append(ackFrames, ackhandler.Frame{
			Handler: ackhandler.NewStreamFrameHandler(s, frame.Offset, protocol.ByteCount(len(frame.Data)), frame.Fin, c.syncStream),
		})
		c.manager.Sync(s)
	}

	return wireFrames, ackFrames
}

// syncStream is handed to ackhandler frame handlers as their post-mutation
// hook; it always runs on the worker goroutine, since ack/loss delivery
// (ReceivedAckRange, DeclareLost) is itself only ever invoked from there.
func (c *Connection) syncStream(s *sendstream.SendStream) {
	c.manager.Sync(s)
	if st, ok := c.streams[s.ID()]; ok {
		st.checkTerminal()
	}
}
