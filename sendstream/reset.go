// Reset / reliable-reset validation (spec.md section 4.E), ported from
// sendRstSMHandler in StreamSendHandlers.cpp. The monotonic-shrink and
// unchanged-error-code checks there are CHECK()s (process aborts); here
// they're InternalErr returns, since this is a library and the caller - the
// connection's worker loop - decides how to escalate a contract violation.
package sendstream

import (
	"fmt"

	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/qerr"
)

// validateAndApplyReset enforces spec.md section 4.E's contracts and, if
// they hold, records the new appErrorCodeToPeer/reliableSizeToPeer.
//
// Open Question (spec.md section 9) resolved as an error: when a reset is
// reissued while already in ResetSent and reliableSizeToPeer was never set
// (a prior non-reliable reset, which has an implicit reliable size of 0),
// attempting to set reliableSize > 0 now would be silently raising the
// reliable commitment. Per spec.md's explicit instruction ("Treat as an
// error until clarified by the protocol maintainers") this is rejected
// rather than guessing the source's zero-default comparison was intentional.
func (s *SendStream) validateAndApplyReset(errorCode protocol.ApplicationErrorCode, reliableSize *protocol.ByteCount) error {
	if s.appErrorCodeToPeer != nil && *s.appErrorCodeToPeer != errorCode {
		return qerr.NewInternalError(fmt.Sprintf(
			"stream %d: cannot change application error code in a reset (had %#x, got %#x)",
			s.id, *s.appErrorCodeToPeer, errorCode))
	}

	if reliableSize != nil {
		if s.reliableSizeToPeer != nil {
			if *reliableSize > *s.reliableSizeToPeer {
				return qerr.NewInternalError(fmt.Sprintf(
					"stream %d: it is illegal to increase the reliable size (had %d, got %d)",
					s.id, *s.reliableSizeToPeer, *reliableSize))
			}
		} else if s.sendState == ResetSent {
			// A non-reliable RESET_STREAM was previously sent (implicit
			// reliable size 0); raising it now would grow the commitment.
			if *reliableSize > 0 {
				return qerr.NewInternalError(fmt.Sprintf(
					"stream %d: RESET_STREAM frame was previously sent with no reliable size, and the new reset raises it to %d",
					s.id, *reliableSize))
			}
		}
	}

	s.appErrorCodeToPeer = &errorCode
	// A reset without a reliable size has an implicit reliable size of 0, so
	// omitting it on a reissue can only shrink the commitment.
	rs := protocol.ByteCount(0)
	if reliableSize != nil {
		rs = *reliableSize
	}
	s.reliableSizeToPeer = &rs
	return nil
}

// effectiveReliableSize returns the reliable size in effect after the most
// recent (valid) reset - 0 if no reliable size was ever set explicitly,
// matching spec.md section 4.E's "a non-reliable reset has an implicit
// reliable size of 0".
func (s *SendStream) effectiveReliableSize() protocol.ByteCount {
	if s.reliableSizeToPeer == nil {
		return 0
	}
	return *s.reliableSizeToPeer
}
