// Package qerr defines the two error families a QUIC sender can raise:
// protocol errors, which close the connection with a transport error code
// the peer can see on the wire, and internal errors, which mark a sender-side
// contract violation and are always fatal.
package qerr

import (
	"errors"
	"fmt"

	"github.com/DENGZEYI/mvfst/internal/protocol"
)

// TransportErrorCode is one of the error codes surfaced in spec.md section 6.
type TransportErrorCode uint64

const (
	NoError TransportErrorCode = iota
	InternalError
	_
	FlowControlError
	StreamLimitError
	StreamStateError
	FinalSizeError
	_
	ProtocolViolation
)

func (c TransportErrorCode) String() string {
	switch c {
	case NoError:
		return "NO_ERROR"
	case InternalError:
		return "INTERNAL_ERROR"
	case FlowControlError:
		return "FLOW_CONTROL_ERROR"
	case StreamLimitError:
		return "STREAM_LIMIT_ERROR"
	case StreamStateError:
		return "STREAM_STATE_ERROR"
	case FinalSizeError:
		return "FINAL_SIZE_ERROR"
	case ProtocolViolation:
		return "PROTOCOL_VIOLATION"
	default:
		return fmt.Sprintf("unknown error code 0x%x", uint64(c))
	}
}

// TransportError is a peer-induced protocol error (spec.md section 7): an
// invalid frame, a state-illegal event, or a flow-control overrun. It closes
// the connection with the matching transport error code.
type TransportError struct {
	ErrorCode    TransportErrorCode
	ErrorMessage string
}

func (e *TransportError) Error() string {
	if e.ErrorMessage == "" {
		return e.ErrorCode.String()
	}
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.ErrorMessage)
}

func NewTransportError(code TransportErrorCode, msg string) *TransportError {
	return &TransportError{ErrorCode: code, ErrorMessage: msg}
}

// InternalErr is a sender-side contract violation (spec.md section 7): an
// increasing reliable size, a changed reset error code, an ACK of an
// unknown or mismatched range. These indicate a logic error in the caller
// and are always fatal; there is no silent recovery.
type InternalErr struct {
	Reason string
}

func (e *InternalErr) Error() string {
	return "INTERNAL_ERROR: " + e.Reason
}

func NewInternalError(reason string) *InternalErr {
	return &InternalErr{Reason: reason}
}

// ApplicationError is the error carried on RESET_STREAM / STOP_SENDING
// frames, surfaced to the application that owns the affected stream.
type ApplicationError struct {
	ErrorCode protocol.ApplicationErrorCode
	StreamID  protocol.StreamID
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("stream %d reset with error code %d", e.StreamID, e.ErrorCode)
}

// Sentinel errors callers can match with errors.Is.
var (
	ErrStreamLimitExceeded = errors.New("quic: peer's stream limit exceeded")
	ErrFinalSizeMismatch   = errors.New("quic: peer disagreed on the stream's final size")
)
