package mvfst

import (
	"context"

	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/sendstream"
)

// Stream is the application-facing handle onto one QUIC stream's send half.
// Its receive half is out of this spec's scope (spec.md section 1's
// non-goals exclude the receiver-side read state machine beyond the events
// it raises into the sender) and is represented here only as far as
// StopSendingReceived - enough for an application to notice a peer asked it
// to stop and react with its own Reset.
//
// Write is fire-and-forget: it enqueues bytes into the send state machine
// (module A) and returns immediately, mirroring mvfst's asynchronous
// writeChain rather than net.Conn's blocking Write - there is no connected
// socket here for a write call to block on (spec.md section 1 scopes UDP
// I/O out).
type Stream struct {
	ctx       context.Context
	ctxCancel context.CancelFunc

	send *sendstream.SendStream

	// enqueue runs a closure on the owning connection's single worker
	// goroutine and blocks until it has run, preserving the single-writer
	// discipline spec.md section 5 requires even though Write/Close/reset
	// are called from arbitrary application goroutines.
	enqueue func(func()) error

	// sync notifies the owning connection's stream manager that this
	// stream's writable/deliverable/terminal status may have changed
	// (spec.md section 2 dataflow: "(G) registers the stream as writable").
	// Always called from inside an enqueued closure, so it's safe for sync
	// to touch connection state directly.
	sync func(*sendstream.SendStream)
}

// newStream wraps send as the application's handle to it. enqueue and sync
// are supplied by the owning Connection.
func newStream(send *sendstream.SendStream, enqueue func(func()) error, sync func(*sendstream.SendStream)) *Stream {
	ctx, cancel := context.WithCancel(context.Background())
	return &Stream{ctx: ctx, ctxCancel: cancel, send: send, enqueue: enqueue, sync: sync}
}

// StreamID returns the stream's wire identifier.
func (s *Stream) StreamID() protocol.StreamID { return s.send.ID() }

// Context is canceled once the stream reaches a terminal send state.
func (s *Stream) Context() context.Context { return s.ctx }

// Write enqueues p for sending, without blocking on delivery. Use
// RegisterDeliveryCB to learn when a given offset has actually been
// acknowledged.
func (s *Stream) Write(p []byte) (int, error) {
	var writeErr error
	if err := s.enqueue(func() {
		writeErr = s.send.Write(p, false)
		s.sync(s.send)
		s.checkTerminal()
	}); err != nil {
		return 0, err
	}
	if writeErr != nil {
		return 0, writeErr
	}
	return len(p), nil
}

// Close queues a FIN: no further Write calls are accepted once this returns.
func (s *Stream) Close() error {
	var writeErr error
	if err := s.enqueue(func() {
		writeErr = s.send.Write(nil, true)
		s.sync(s.send)
		s.checkTerminal()
	}); err != nil {
		return err
	}
	return writeErr
}

// CancelWrite abandons the stream with the given application error code,
// with no reliable-delivery commitment.
func (s *Stream) CancelWrite(errorCode protocol.ApplicationErrorCode) error {
	return s.reset(errorCode, nil)
}

// CancelWriteReliably abandons the stream but guarantees bytes below
// reliableSize are still delivered before the abandonment takes effect
// (spec.md section 4.E, RESET_STREAM_AT).
func (s *Stream) CancelWriteReliably(errorCode protocol.ApplicationErrorCode, reliableSize protocol.ByteCount) error {
	return s.reset(errorCode, &reliableSize)
}

func (s *Stream) reset(errorCode protocol.ApplicationErrorCode, reliableSize *protocol.ByteCount) error {
	var resetErr error
	err := s.enqueue(func() {
		resetErr = s.send.IssueReset(errorCode, reliableSize)
		s.sync(s.send)
		s.checkTerminal()
	})
	if err != nil {
		return err
	}
	return resetErr
}

// StopSendingReceived reports whether the peer sent STOP_SENDING, and its
// error code. The application is expected to respond with CancelWrite using
// a matching or related code.
func (s *Stream) StopSendingReceived() (protocol.ApplicationErrorCode, bool) {
	return s.send.StopSendingReceived()
}

// RegisterDeliveryCB registers cb to fire once offset is either delivered
// or resolved as unreachable by a reset (spec.md section 4.H).
func (s *Stream) RegisterDeliveryCB(offset protocol.ByteCount, cb sendstream.DeliveryCallback) error {
	return s.enqueue(func() {
		s.send.RegisterDeliveryCB(offset, cb)
		s.sync(s.send)
	})
}

// checkTerminal cancels the stream's Context once its send state reaches
// Closed or Invalid; called by the connection worker after every Sync.
func (s *Stream) checkTerminal() {
	if s.send.IsTerminal() {
		s.ctxCancel()
	}
}
