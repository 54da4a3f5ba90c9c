package wire

import "github.com/DENGZEYI/mvfst/internal/protocol"

// StreamFrame carries application data for a stream (spec.md section 6).
type StreamFrame struct {
	StreamID protocol.StreamID
	Offset   protocol.ByteCount
	Data     []byte
	Fin      bool

	// FromBufMeta marks a frame emitted from a metadata-only
	// retransmission-buffer entry. This module has no such entries and never
	// sets it, so it is always false here.
	FromBufMeta bool
}

func (f *StreamFrame) frame() {}

// DataLen is the number of bytes this frame covers.
func (f *StreamFrame) DataLen() protocol.ByteCount {
	return protocol.ByteCount(len(f.Data))
}

// LastByteOffset is the offset of the last byte covered by this frame. For
// an empty frame (e.g. a bare FIN) it is Offset-1, or 0 when Offset is 0.
func (f *StreamFrame) LastByteOffset() protocol.ByteCount {
	if f.DataLen() == 0 {
		if f.Offset == 0 {
			return 0
		}
		return f.Offset - 1
	}
	return f.Offset + f.DataLen() - 1
}
