// Package config holds the transport-parameter inputs spec.md section 4
// lists as negotiated before any stream opens and immutable thereafter.
package config

import "github.com/DENGZEYI/mvfst/internal/protocol"

// Config mirrors the negotiated transport parameters this implementation's
// send-side state machine and scheduler depend on. Everything here is
// immutable once the connection has started sending - there is no live
// config-reload path, matching spec.md's explicit scoping of QLog,
// telemetry and CLI/config loading out (section 1).
type Config struct {
	// InitialMaxData is the connection-level send credit (spec.md section
	// 4.D, the "connection-level" layer).
	InitialMaxData protocol.ByteCount

	// InitialMaxStreamDataBidiLocal seeds the stream flow controller for a
	// bidirectional stream this endpoint opens.
	InitialMaxStreamDataBidiLocal protocol.ByteCount
	// InitialMaxStreamDataBidiRemote seeds the stream flow controller for
	// the send half of a bidirectional stream the peer opens.
	InitialMaxStreamDataBidiRemote protocol.ByteCount
	// InitialMaxStreamDataUni seeds the stream flow controller for a
	// unidirectional stream this endpoint opens.
	InitialMaxStreamDataUni protocol.ByteCount

	// InitialMaxStreamsBidi / InitialMaxStreamsUni are the negotiated
	// max_local_bidi_streams / max_local_uni_streams limits the stream
	// manager enforces (spec.md section 4.G).
	InitialMaxStreamsBidi uint64
	InitialMaxStreamsUni  uint64

	// ReliableStreamReset advertises support for RESET_STREAM_AT (spec.md
	// section 4.E). Nothing reads this field: IssueReset and
	// Stream.CancelWriteReliably accept a reliable size whether it is true
	// or false.
	ReliableStreamReset bool
}

// Default returns baseline settings loosely matching common QUIC stacks'
// defaults: generous enough that flow control rarely becomes the binding
// constraint in ordinary tests, with reliable reset enabled.
func Default() *Config {
	return &Config{
		InitialMaxData:                 1 << 20,
		InitialMaxStreamDataBidiLocal:  1 << 18,
		InitialMaxStreamDataBidiRemote: 1 << 18,
		InitialMaxStreamDataUni:        1 << 18,
		InitialMaxStreamsBidi:          100,
		InitialMaxStreamsUni:           100,
		ReliableStreamReset:            true,
	}
}

// StreamDataLimit returns the initial flow-control limit that applies to a
// stream of the given type and initiator, from this endpoint's perspective.
func (c *Config) StreamDataLimit(direction protocol.StreamType, initiator, self protocol.Perspective) protocol.ByteCount {
	if direction == protocol.StreamTypeUni {
		return c.InitialMaxStreamDataUni
	}
	if initiator == self {
		return c.InitialMaxStreamDataBidiLocal
	}
	return c.InitialMaxStreamDataBidiRemote
}
