package ackhandler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/wire"
)

type fakeHandler struct {
	acked, lost int
}

func (f *fakeHandler) OnAcked() { f.acked++ }
func (f *fakeHandler) OnLost()  { f.lost++ }

func TestSentPacketAckedCallsFrameHandler(t *testing.T) {
	h := NewSentPacketHandler(nil)
	fh := &fakeHandler{}
	now := time.Unix(0, 0)
	h.SentPacket(1, 100, []Frame{{Handler: fh}}, now)
	assert.Equal(t, 1, h.OutstandingCount())

	h.ReceivedAck(1, now)
	assert.Equal(t, 1, fh.acked)
	assert.Equal(t, 0, h.OutstandingCount())

	h.ReceivedAck(1, now)
	assert.Equal(t, 1, fh.acked, "repeat ack of a retired packet is a no-op")
}

func TestSentPacketLostCallsFrameHandler(t *testing.T) {
	h := NewSentPacketHandler(nil)
	fh := &fakeHandler{}
	now := time.Unix(0, 0)
	h.SentPacket(1, 100, []Frame{{Handler: fh}}, now)

	h.DeclareLost(1)
	assert.Equal(t, 1, fh.lost)
	assert.Equal(t, 0, h.OutstandingCount())
}

func TestReceivedAckRangeRetiresEveryPacket(t *testing.T) {
	h := NewSentPacketHandler(nil)
	now := time.Unix(0, 0)
	handlers := make([]*fakeHandler, 3)
	for i := range handlers {
		handlers[i] = &fakeHandler{}
		h.SentPacket(protocol.PacketNumber(i), 10, []Frame{{Handler: handlers[i]}}, now)
	}

	require.NoError(t, h.ReceivedAckRange(wire.AckRange{First: 0, Last: 2}, now))
	for _, fh := range handlers {
		assert.Equal(t, 1, fh.acked)
	}
	assert.Equal(t, 0, h.OutstandingCount())
}

func TestReceivedAckRangeRejectsInverted(t *testing.T) {
	h := NewSentPacketHandler(nil)
	err := h.ReceivedAckRange(wire.AckRange{First: 5, Last: 1}, time.Unix(0, 0))
	require.Error(t, err)
}
