// Package sendstream implements the per-stream send-side state machine of
// spec.md sections 3 and 4.A-4.C and 4.E/4.H: the stream state record, the
// retransmission buffer, the Open/ResetSent/Closed/Invalid state machine,
// reliable-reset handling, and delivery callback dispatch. It's grounded on
// _examples/original_source/quic/state/stream/StreamSendHandlers.cpp.
package sendstream

import (
	"container/list"

	"github.com/DENGZEYI/mvfst/internal/flowcontrol"
	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/utils"
)

// SendState is one of the four states in spec.md section 4.C.
type SendState uint8

const (
	// Open is the initial state of any sendable stream.
	Open SendState = iota
	// ResetSent is entered once the application has queued a reset.
	ResetSent
	// Closed is terminal: every byte up to FIN (or the reliable prefix of a
	// reset) has been acknowledged.
	Closed
	// Invalid marks the absent half of a unidirectional stream (spec.md
	// section 3, invariant 1).
	Invalid
)

func (s SendState) String() string {
	switch s {
	case Open:
		return "Open"
	case ResetSent:
		return "ResetSent"
	case Closed:
		return "Closed"
	case Invalid:
		return "Invalid"
	default:
		return "unknown send state"
	}
}

// pendingWrite is an unsent, ordered byte range queued by the application.
type pendingWrite struct {
	offset protocol.ByteCount
	data   []byte
	fin    bool
}

// StopSendingError records a peer STOP_SENDING event (spec.md section 4.C)
// so the application can be notified and typically respond with a matching
// reset.
type StopSendingError struct {
	ErrorCode protocol.ApplicationErrorCode
}

// DeliveryCallback fires when the registered offset has been delivered
// (acked_intervals covers it) or reset (the offset lies at or above the
// reliable prefix of an issued reset). Exactly one of the two fires, exactly once
// (spec.md section 4.H).
type DeliveryCallback func(result DeliveryResult)

// DeliveryResult is passed to a DeliveryCallback when it fires.
type DeliveryResult struct {
	Offset protocol.ByteCount
	// Reset is true if the byte at Offset will never be delivered because
	// the stream was reset below it having a reliable size that excludes it.
	Reset     bool
	ErrorCode protocol.ApplicationErrorCode
}

type deliveryRegistration struct {
	offset protocol.ByteCount
	cb     DeliveryCallback
}

// SendStream is the per-stream send-side state record of spec.md section 3.
// It's mutated exclusively by its owning connection's single worker
// goroutine; no internal locking is performed (spec.md section 5).
type SendStream struct {
	id          protocol.StreamID
	direction   protocol.StreamType
	initiator   protocol.Perspective
	sendState   SendState

	writeOffset      protocol.ByteCount
	finalWriteOffset *protocol.ByteCount
	// finAcked is set once the FIN-bearing frame itself has been acked.
	// Needed on top of ackedIntervals because a zero-length FIN carries no
	// byte range of its own to add to that set (spec.md section 8, "Zero-
	// length write with FIN").
	finAcked bool

	pendingWrites *list.List // of *pendingWrite, ordered by offset

	retransmissionBuffer map[protocol.ByteCount]*bufferedRange
	ackedIntervals       *utils.ByteIntervalSet

	appErrorCodeToPeer   *protocol.ApplicationErrorCode
	reliableSizeToPeer   *protocol.ByteCount
	minReliableSizeAcked *protocol.ByteCount

	stopSending *StopSendingError

	flowController flowcontrol.StreamFlowController

	deliveries []deliveryRegistration

	// groupID is set when the stream was opened into a stream group (a
	// supplemental feature beyond the core send state machine, spec.md
	// section 9's open-question area; see streammanager.OpenStreamInGroup).
	groupID *protocol.StreamID

	logger utils.Logger
}

// NewSendStream creates a stream in the Open state. Pass direction ==
// protocol.StreamTypeUni and initiator == the *peer's* perspective to get a
// receive-only unidirectional stream's send half, which New callers should
// instead construct via NewInvalidSendStream.
func NewSendStream(id protocol.StreamID, direction protocol.StreamType, initiator protocol.Perspective, fc flowcontrol.StreamFlowController) *SendStream {
	return &SendStream{
		id:                   id,
		direction:            direction,
		initiator:            initiator,
		sendState:            Open,
		pendingWrites:        list.New(),
		retransmissionBuffer: make(map[protocol.ByteCount]*bufferedRange),
		ackedIntervals:       utils.NewByteIntervalSet(),
		flowController:       fc,
		logger:               utils.NopLogger,
	}
}

// NewInvalidSendStream creates a stream with no send half: a receive-only
// unidirectional stream from this endpoint's perspective (spec.md section
// 3, invariant 1).
func NewInvalidSendStream(id protocol.StreamID) *SendStream {
	return &SendStream{
		id:            id,
		direction:     protocol.StreamTypeUni,
		sendState:     Invalid,
		pendingWrites: list.New(),
		logger:        utils.NopLogger,
	}
}

// SetLogger installs a leveled logger for this stream's state transitions.
func (s *SendStream) SetLogger(l utils.Logger) { s.logger = l }

func (s *SendStream) ID() protocol.StreamID   { return s.id }
func (s *SendStream) State() SendState        { return s.sendState }
func (s *SendStream) WriteOffset() protocol.ByteCount { return s.writeOffset }

// FinalWriteOffset returns the offset set when the application closes the
// write side (FIN queued), and whether it has been set at all.
func (s *SendStream) FinalWriteOffset() (protocol.ByteCount, bool) {
	if s.finalWriteOffset == nil {
		return 0, false
	}
	return *s.finalWriteOffset, true
}

// AppErrorCodeToPeer returns the error code queued on a RESET_STREAM(_AT),
// and whether a reset has been issued at all.
func (s *SendStream) AppErrorCodeToPeer() (protocol.ApplicationErrorCode, bool) {
	if s.appErrorCodeToPeer == nil {
		return 0, false
	}
	return *s.appErrorCodeToPeer, true
}

// ReliableSizeToPeer returns the reliable-delivery commitment of the most
// recent reset, if any.
func (s *SendStream) ReliableSizeToPeer() (protocol.ByteCount, bool) {
	if s.reliableSizeToPeer == nil {
		return 0, false
	}
	return *s.reliableSizeToPeer, true
}

// StopSendingReceived returns the peer's STOP_SENDING error code, if one has
// been recorded.
func (s *SendStream) StopSendingReceived() (protocol.ApplicationErrorCode, bool) {
	if s.stopSending == nil {
		return 0, false
	}
	return s.stopSending.ErrorCode, true
}

// SendWindowSize exposes the stream-level flow-control credit remaining
// (spec.md section 4.D), so the worker loop can clamp how many bytes it
// asks PopFrame for without this package needing to know about connection-
// level credit too.
func (s *SendStream) SendWindowSize() protocol.ByteCount {
	return s.flowController.SendWindowSize()
}

// UpdateSendWindow applies a peer-advertised MAX_STREAM_DATA increase.
func (s *SendStream) UpdateSendWindow(maxStreamData protocol.ByteCount) bool {
	return s.flowController.UpdateSendWindow(maxStreamData)
}

// HasWritableBytes reports whether the stream has queued application bytes
// not yet emitted. Used by the stream manager to decide scheduler
// membership (spec.md invariant 7).
func (s *SendStream) HasWritableBytes() bool {
	return s.pendingWrites.Len() > 0
}

// HasPendingReset reports whether a reset has been queued but not yet fully
// acknowledged (spec.md invariant 7, the second disjunct of scheduler
// membership).
func (s *SendStream) HasPendingReset() bool {
	return s.sendState == ResetSent
}

// IsTerminal reports whether the send side has reached Closed or Invalid.
func (s *SendStream) IsTerminal() bool {
	return s.sendState == Closed || s.sendState == Invalid
}

// AckedIntervals exposes the acknowledged-offset set for inspection (tests,
// delivery dispatch).
func (s *SendStream) AckedIntervals() *utils.ByteIntervalSet {
	return s.ackedIntervals
}

// HasPendingDeliveries reports whether any delivery callback is still
// waiting on an unresolved offset; backs the stream manager's `deliverable`
// set (spec.md section 4.G).
func (s *SendStream) HasPendingDeliveries() bool {
	return len(s.deliveries) > 0
}

// GroupID returns the stream group this stream was opened into, if any.
func (s *SendStream) GroupID() (protocol.StreamID, bool) {
	if s.groupID == nil {
		return 0, false
	}
	return *s.groupID, true
}

// SetGroupID assigns the stream group this stream belongs to. Called once
// by the stream manager at creation time.
func (s *SendStream) SetGroupID(id protocol.StreamID) {
	s.groupID = &id
}

// allBytesAckedTill reports whether every byte offset in [0, offset] has
// been acknowledged. A negative offset (an empty prefix) trivially holds;
// offset == 0 still needs byte 0 acked.
func (s *SendStream) allBytesAckedTill(offset protocol.ByteCount) bool {
	if offset < 0 {
		return true
	}
	return s.ackedIntervals.ContainsRange(0, int64(offset))
}

// allBytesTillFinAcked reports whether a FIN has been queued and every byte
// up to and including it has been acknowledged.
func (s *SendStream) allBytesTillFinAcked() bool {
	if s.finalWriteOffset == nil || !s.finAcked {
		return false
	}
	fin := *s.finalWriteOffset
	if fin == 0 {
		return true
	}
	return s.ackedIntervals.ContainsRange(0, int64(fin-1))
}
