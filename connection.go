package mvfst

import (
	"time"

	"github.com/DENGZEYI/mvfst/config"
	"github.com/DENGZEYI/mvfst/congestion"
	"github.com/DENGZEYI/mvfst/internal/ackhandler"
	"github.com/DENGZEYI/mvfst/internal/flowcontrol"
	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/qerr"
	"github.com/DENGZEYI/mvfst/internal/scheduler"
	"github.com/DENGZEYI/mvfst/internal/utils"
	"github.com/DENGZEYI/mvfst/internal/wire"
	"github.com/DENGZEYI/mvfst/sendstream"
	"github.com/DENGZEYI/mvfst/streammanager"
)

// errConnectionClosed is returned by any operation submitted to a
// Connection after it has shut down.
var errConnectionClosed = qerr.NewInternalError("connection is closed")

// Connection owns one QUIC connection's send-side state: the stream
// manager (module G, which in turn owns the scheduler and the pending-
// resets queue), the connection-level flow controller (the other half of
// module D), and the outstanding-packets registry. Every mutation happens
// on a single worker goroutine (spec.md section 5); everything else -
// Stream.Write, ReceivedFrame, PopWriteOpportunity - submits a closure and
// waits for it to run there instead of touching state directly.
//
// UDP I/O, packet framing/protection and congestion/loss-detection
// algorithms are out of this package's scope (spec.md section 1); the
// worker loop only produces and consumes the frame/ack/loss events that
// those out-of-scope collaborators would feed in and read out.
type Connection struct {
	perspective protocol.Perspective
	config      *config.Config

	manager            *streammanager.Manager
	connFlowController flowcontrol.ConnectionFlowController
	sentPackets        *ackhandler.SentPacketHandler
	congestion         congestion.Controller

	streams map[protocol.StreamID]*Stream

	appOps     chan func()
	peerFrames chan wire.Frame

	idleTimer   *utils.Timer
	idleTimeout time.Duration

	nextPacketNumber protocol.PacketNumber

	closed chan struct{}
	done   chan struct{}

	logger utils.Logger
}

// NewConnection builds a Connection acting as perspective, configured per
// cfg, driving controller's hooks for every packet sent/acked/lost.
// controller may be nil, in which case sends are never congestion-limited
// (useful in tests that don't care about congestion control at all).
func NewConnection(perspective protocol.Perspective, cfg *config.Config, controller congestion.Controller, logger utils.Logger) *Connection {
	if logger == nil {
		logger = utils.NopLogger
	}
	newFC := func(id protocol.StreamID) flowcontrol.StreamFlowController {
		limit := cfg.StreamDataLimit(id.Type(), id.InitiatedBy(), perspective)
		return flowcontrol.NewStreamFlowController(limit)
	}
	manager := streammanager.NewManager(perspective, cfg.InitialMaxStreamsBidi, cfg.InitialMaxStreamsUni, newFC)
	manager.SetLogger(logger)

	sentPackets := ackhandler.NewSentPacketHandler(controller)
	sentPackets.SetLogger(logger)

	c := &Connection{
		perspective:        perspective,
		config:             cfg,
		manager:            manager,
		connFlowController: flowcontrol.NewConnectionFlowController(cfg.InitialMaxData),
		sentPackets:        sentPackets,
		congestion:         controller,
		streams:            make(map[protocol.StreamID]*Stream),
		appOps:             make(chan func(), 64),
		peerFrames:         make(chan wire.Frame, 64),
		idleTimer:          utils.NewTimer(),
		idleTimeout:        30 * time.Second,
		closed:             make(chan struct{}),
		done:               make(chan struct{}),
		logger:             logger,
	}
	return c
}

// enqueue runs op on the worker goroutine and blocks until it has, or
// returns errConnectionClosed if the connection shuts down first.
func (c *Connection) enqueue(op func()) error {
	done := make(chan struct{})
	wrapped := func() {
		op()
		close(done)
	}
	select {
	case c.appOps <- wrapped:
	case <-c.closed:
		return errConnectionClosed
	}
	select {
	case <-done:
		return nil
	case <-c.closed:
		return errConnectionClosed
	}
}

// OpenStream opens a new locally-initiated stream of the given type at
// default priority.
func (c *Connection) OpenStream(direction protocol.StreamType) (*Stream, error) {
	var stream *Stream
	var openErr error
	err := c.enqueue(func() {
		s, e := c.manager.OpenStream(direction)
		if e != nil {
			openErr = e
			return
		}
		stream = c.adopt(s)
	})
	if err != nil {
		return nil, err
	}
	return stream, openErr
}

// OpenStreamInGroup opens a stream tagged with groupID (a supplemental
// feature over the core state machine; see streammanager.OpenStreamInGroup).
func (c *Connection) OpenStreamInGroup(direction protocol.StreamType, groupID protocol.StreamID) (*Stream, error) {
	var stream *Stream
	var openErr error
	err := c.enqueue(func() {
		s, e := c.manager.OpenStreamInGroup(direction, groupID)
		if e != nil {
			openErr = e
			return
		}
		stream = c.adopt(s)
	})
	if err != nil {
		return nil, err
	}
	return stream, openErr
}

// OpenStreamWithPriority opens a stream scheduled at a specific urgency
// level rather than the default (spec.md §4.F's "higher priorities preempt
// lower", via internal/scheduler.PriorityQueue).
func (c *Connection) OpenStreamWithPriority(direction protocol.StreamType, pri scheduler.Priority) (*Stream, error) {
	var stream *Stream
	var openErr error
	err := c.enqueue(func() {
		s, e := c.manager.OpenStreamWithPriority(direction, pri)
		if e != nil {
			openErr = e
			return
		}
		stream = c.adopt(s)
	})
	if err != nil {
		return nil, err
	}
	return stream, openErr
}

// NewStreamGroup allocates a new local stream group identifier.
func (c *Connection) NewStreamGroup() (protocol.StreamID, error) {
	var id protocol.StreamID
	err := c.enqueue(func() {
		id = c.manager.NewStreamGroup()
	})
	return id, err
}

// adopt wraps a freshly opened sendstream.SendStream in the application
// facade and registers it, must run on the worker goroutine.
func (c *Connection) adopt(s *sendstream.SendStream) *Stream {
	stream := newStream(s, c.enqueue, c.manager.Sync)
	c.streams[s.ID()] = stream
	c.manager.Sync(s)
	return stream
}

// ReceivedFrame delivers a peer-sent application-level frame (STOP_SENDING,
// MAX_DATA, MAX_STREAM_DATA, DATA_BLOCKED, STREAM_DATA_BLOCKED) to the
// worker loop. Frame decoding itself is out of scope (spec.md section 1);
// the caller is expected to have already parsed the packet.
func (c *Connection) ReceivedFrame(frame wire.Frame) error {
	return c.enqueue(func() { c.handlePeerFrame(frame) })
}

func (c *Connection) handlePeerFrame(frame wire.Frame) {
	wire.LogFrame(c.logger, frame, false)
	switch f := frame.(type) {
	case *wire.StopSendingFrame:
		s, ok := c.manager.GetStream(f.StreamID)
		if !ok {
			c.logger.Infof("connection: STOP_SENDING for unknown stream %d", f.StreamID)
			return
		}
		if err := s.HandleStopSending(f); err != nil {
			c.logger.Infof("connection: STOP_SENDING handling failed for stream %d: %v", f.StreamID, err)
		}
		c.manager.Sync(s)
	case *wire.MaxDataFrame:
		c.connFlowController.UpdateSendWindow(f.MaximumData)
	case *wire.MaxStreamDataFrame:
		s, ok := c.manager.GetStream(f.StreamID)
		if !ok {
			c.logger.Infof("connection: MAX_STREAM_DATA for unknown stream %d", f.StreamID)
			return
		}
		if s.UpdateSendWindow(f.MaximumStreamData) {
			c.manager.Sync(s)
		}
	case *wire.ConnectionCloseFrame:
		c.shutdown()
	default:
		c.logger.Infof("connection: unhandled peer frame %T", frame)
	}
}

// ReceivedAckRange retires every packet in the range as acknowledged,
// replaying each carried frame's outcome into its owning stream.
func (c *Connection) ReceivedAckRange(rng wire.AckRange, ackTime time.Time) error {
	return c.enqueue(func() {
		if err := c.sentPackets.ReceivedAckRange(rng, ackTime); err != nil {
			c.logger.Infof("connection: ack range rejected: %v", err)
		}
	})
}

// DeclareLost marks pn lost, re-queuing whatever it carried for resend.
func (c *Connection) DeclareLost(pn protocol.PacketNumber) error {
	return c.enqueue(func() { c.sentPackets.DeclareLost(pn) })
}

// RemoveClosedStream drops bookkeeping for a stream once the application
// has observed its terminal state.
func (c *Connection) RemoveClosedStream(id protocol.StreamID) error {
	return c.enqueue(func() {
		if err := c.manager.RemoveClosedStream(id); err != nil {
			c.logger.Infof("connection: %v", err)
			return
		}
		delete(c.streams, id)
	})
}

// PopWriteOpportunity produces up to one packet's worth of frames: pending
// resets first, then stream data up to budgetBytes and whatever the
// congestion controller currently allows. The caller (an out-of-scope
// packetizer) is responsible for wrapping the returned frames into an
// actual packet and handing its assigned packet number to RecordSent.
func (c *Connection) PopWriteOpportunity(budgetBytes protocol.ByteCount) ([]wire.Frame, []ackhandler.Frame, bool) {
	var wireFrames []wire.Frame
	var ackFrames []ackhandler.Frame
	err := c.enqueue(func() {
		wireFrames, ackFrames = c.popWriteOpportunity(budgetBytes)
	})
	if err != nil || len(wireFrames) == 0 {
		return nil, nil, false
	}
	return wireFrames, ackFrames, true
}

// RecordSent tells the outstanding-packets registry that frames (as
// returned by PopWriteOpportunity) were just sent as packet pn at sentTime.
func (c *Connection) RecordSent(pn protocol.PacketNumber, length protocol.ByteCount, frames []ackhandler.Frame, sentTime time.Time) error {
	return c.enqueue(func() {
		c.sentPackets.SentPacket(pn, length, frames, sentTime)
	})
}

// NextPacketNumber hands out the next packet number for a packet this
// connection is about to send; real packet-number encoding/decoding is out
// of scope (spec.md section 1), this is bookkeeping only.
func (c *Connection) NextPacketNumber() (protocol.PacketNumber, error) {
	var pn protocol.PacketNumber
	err := c.enqueue(func() {
		pn = c.nextPacketNumber
		c.nextPacketNumber++
	})
	return pn, err
}

// Close tears the connection down: every pending app operation fails with
// errConnectionClosed, and Run returns once its loop observes the signal.
func (c *Connection) Close() {
	c.shutdown()
}

func (c *Connection) shutdown() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

