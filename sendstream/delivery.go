// Delivery callback dispatch (spec.md section 4.H): a callback registered
// against an offset fires at most once, when that offset is either
// delivered (covered by acked_intervals) or reset away (a reset has been
// issued whose reliable prefix excludes the offset; the reset need not be
// acked yet). Firing is deferred to a drain step so it stays out of the
// ACK-processing critical path (spec.md section 5).
package sendstream

import "github.com/DENGZEYI/mvfst/internal/protocol"

// RegisterDeliveryCB registers cb to fire, edge-triggered, once offset is
// resolved one way or the other.
func (s *SendStream) RegisterDeliveryCB(offset protocol.ByteCount, cb DeliveryCallback) {
	s.deliveries = append(s.deliveries, deliveryRegistration{offset: offset, cb: cb})
}

// DrainDeliveries fires every registered callback whose offset has been
// resolved, and removes them from the pending set, firing them in
// increasing offset order (spec.md section 5's ordering guarantee). Called
// after each acknowledged STREAM frame is processed
// (ackhandler.StreamFrameHandler.OnAcked).
func (s *SendStream) DrainDeliveries() {
	if len(s.deliveries) == 0 {
		return
	}
	remaining := s.deliveries[:0]
	resolved := make([]deliveryRegistration, 0, len(s.deliveries))
	for _, reg := range s.deliveries {
		if s.offsetResolved(reg.offset) {
			resolved = append(resolved, reg)
		} else {
			remaining = append(remaining, reg)
		}
	}
	s.deliveries = remaining

	sortDeliveriesByOffset(resolved)
	for _, reg := range resolved {
		reg.cb(s.resultFor(reg.offset))
	}
}

func (s *SendStream) offsetResolved(offset protocol.ByteCount) bool {
	if s.ackedIntervals.Contains(int64(offset)) {
		return true
	}
	if s.reliableSizeToPeer != nil && offset >= *s.reliableSizeToPeer {
		// A reset has been issued - reliableSizeToPeer is set the moment
		// IssueReset validates it and only ever shrinks afterward, so every
		// offset at or above it is already known to never be sent. Resolve
		// the notification now rather than waiting for the peer to ACK the
		// RESET_STREAM(_AT) frame, matching original_source's
		// handleCancelByteEventCallbacks, which cancels byte-event callbacks
		// as soon as the reset is pending, not once it's confirmed.
		return true
	}
	return false
}

func (s *SendStream) resultFor(offset protocol.ByteCount) DeliveryResult {
	if s.ackedIntervals.Contains(int64(offset)) {
		return DeliveryResult{Offset: offset, Reset: false}
	}
	var errorCode protocol.ApplicationErrorCode
	if s.appErrorCodeToPeer != nil {
		errorCode = *s.appErrorCodeToPeer
	}
	return DeliveryResult{Offset: offset, Reset: true, ErrorCode: errorCode}
}

func sortDeliveriesByOffset(regs []deliveryRegistration) {
	// insertion sort: registration counts per drain are small and usually
	// already near-sorted (offsets are registered in roughly the order the
	// application writes them).
	for i := 1; i < len(regs); i++ {
		for j := i; j > 0 && regs[j].offset < regs[j-1].offset; j-- {
			regs[j], regs[j-1] = regs[j-1], regs[j]
		}
	}
}
