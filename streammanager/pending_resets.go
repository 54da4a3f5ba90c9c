package streammanager

import "github.com/DENGZEYI/mvfst/internal/protocol"

// PendingResets is the connection-wide queue of streams with a RESET_STREAM
// (or RESET_STREAM_AT) frame queued but not yet acknowledged. Mentioned by
// spec.md section 4.E but not detailed there; supplemented from
// original_source's appendPendingStreamReset (QuicStreamFunctions.cpp,
// referenced by StreamSendHandlers.cpp around its sendRstSMHandler). The
// worker loop emits a reset frame for every entry on each write
// opportunity; an entry stays until its stream reaches a terminal send
// state (Manager.Sync), even after a reset frame has been acked.
type PendingResets struct {
	pending map[protocol.StreamID]struct{}
}

// NewPendingResets returns an empty queue.
func NewPendingResets() *PendingResets {
	return &PendingResets{pending: make(map[protocol.StreamID]struct{})}
}

// Add marks id as having a reset frame to (re-)send.
func (p *PendingResets) Add(id protocol.StreamID) {
	p.pending[id] = struct{}{}
}

// Remove clears id; Manager.Sync calls it once the stream is terminal.
func (p *PendingResets) Remove(id protocol.StreamID) {
	delete(p.pending, id)
}

// Contains reports whether id has a reset frame outstanding.
func (p *PendingResets) Contains(id protocol.StreamID) bool {
	_, ok := p.pending[id]
	return ok
}

// Len returns the number of streams with a pending reset frame.
func (p *PendingResets) Len() int {
	return len(p.pending)
}

// Streams returns every stream ID with a pending reset frame. The caller
// must not retain the result across a subsequent Add/Remove.
func (p *PendingResets) Streams() []protocol.StreamID {
	ids := make([]protocol.StreamID, 0, len(p.pending))
	for id := range p.pending {
		ids = append(ids, id)
	}
	return ids
}
