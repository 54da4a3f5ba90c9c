package wire

import "github.com/DENGZEYI/mvfst/internal/protocol"

// MaxDataFrame raises the connection-level flow-control window.
type MaxDataFrame struct {
	MaximumData protocol.ByteCount
}

func (f *MaxDataFrame) frame() {}

// MaxStreamDataFrame raises a single stream's flow-control window.
type MaxStreamDataFrame struct {
	StreamID          protocol.StreamID
	MaximumStreamData protocol.ByteCount
}

func (f *MaxStreamDataFrame) frame() {}

// DataBlockedFrame tells the peer the connection-level window is the
// bottleneck preventing further sends.
type DataBlockedFrame struct {
	MaximumData protocol.ByteCount
}

func (f *DataBlockedFrame) frame() {}

// StreamDataBlockedFrame tells the peer a single stream's window is the
// bottleneck preventing further sends on that stream.
type StreamDataBlockedFrame struct {
	StreamID          protocol.StreamID
	MaximumStreamData protocol.ByteCount
}

func (f *StreamDataBlockedFrame) frame() {}
