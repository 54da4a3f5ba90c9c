package wire

import "github.com/DENGZEYI/mvfst/internal/protocol"

// AckRange is a contiguous range of acknowledged packet numbers, as carried
// by an ACK frame. The outstanding-packets registry (spec.md section 6) uses
// these to look up which frames - and therefore which stream offsets - a
// given ACK retires.
type AckRange struct {
	First protocol.PacketNumber
	Last  protocol.PacketNumber
}
