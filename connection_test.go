package mvfst

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DENGZEYI/mvfst/config"
	"github.com/DENGZEYI/mvfst/internal/protocol"
	"github.com/DENGZEYI/mvfst/internal/scheduler"
	"github.com/DENGZEYI/mvfst/internal/wire"
	"github.com/DENGZEYI/mvfst/sendstream"
)

func newTestConnection(t *testing.T) (*Connection, context.CancelFunc) {
	t.Helper()
	c := NewConnection(protocol.PerspectiveClient, config.Default(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(cancel)
	return c, cancel
}

func TestOpenStreamWriteAndAckDeliversCallback(t *testing.T) {
	c, _ := newTestConnection(t)

	stream, err := c.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)

	delivered := make(chan sendstream.DeliveryResult, 1)
	require.NoError(t, stream.RegisterDeliveryCB(0, func(r sendstream.DeliveryResult) {
		delivered <- r
	}))

	n, err := stream.Write([]byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	frames, ackFrames, ok := c.PopWriteOpportunity(1500)
	require.True(t, ok)
	require.Len(t, frames, 1)
	sf, isStream := frames[0].(*wire.StreamFrame)
	require.True(t, isStream)
	assert.Equal(t, protocol.ByteCount(0), sf.Offset)
	assert.Equal(t, []byte("hi"), sf.Data)

	pn, err := c.NextPacketNumber()
	require.NoError(t, err)
	require.NoError(t, c.RecordSent(pn, 2, ackFrames, time.Now()))
	require.NoError(t, c.ReceivedAckRange(wire.AckRange{First: pn, Last: pn}, time.Now()))

	select {
	case r := <-delivered:
		assert.Equal(t, protocol.ByteCount(0), r.Offset)
		assert.False(t, r.Reset)
	default:
		t.Fatal("delivery callback did not fire")
	}
}

func TestReliableResetClosesStreamAndCancelsContext(t *testing.T) {
	c, _ := newTestConnection(t)

	stream, err := c.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)

	data := make([]byte, 500)
	_, err = stream.Write(data)
	require.NoError(t, err)

	require.NoError(t, stream.CancelWriteReliably(7, 300))

	frames, ackFrames, ok := c.PopWriteOpportunity(2000)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(frames), 2)

	var sawReset, sawStream bool
	for _, f := range frames {
		switch v := f.(type) {
		case *wire.ResetStreamAtFrame:
			sawReset = true
			assert.Equal(t, protocol.ByteCount(300), v.ReliableSize)
		case *wire.StreamFrame:
			sawStream = true
			assert.Equal(t, protocol.ByteCount(300), v.DataLen())
		}
	}
	assert.True(t, sawReset, "expected a RESET_STREAM_AT frame")
	assert.True(t, sawStream, "expected the reliable prefix's STREAM frame")

	pn, err := c.NextPacketNumber()
	require.NoError(t, err)
	require.NoError(t, c.RecordSent(pn, 300, ackFrames, time.Now()))
	require.NoError(t, c.ReceivedAckRange(wire.AckRange{First: pn, Last: pn}, time.Now()))

	select {
	case <-stream.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("stream context was not canceled after reaching Closed")
	}
}

func TestStopSendingFromPeerIsObservable(t *testing.T) {
	c, _ := newTestConnection(t)

	stream, err := c.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)

	require.NoError(t, c.ReceivedFrame(&wire.StopSendingFrame{StreamID: stream.StreamID(), ErrorCode: 42}))

	code, ok := stream.StopSendingReceived()
	require.True(t, ok)
	assert.Equal(t, protocol.ApplicationErrorCode(42), code)
}

func TestHigherUrgencyStreamIsServedFirst(t *testing.T) {
	c, _ := newTestConnection(t)

	low, err := c.OpenStreamWithPriority(protocol.StreamTypeBidi, scheduler.Priority{Urgency: 7, Incremental: true})
	require.NoError(t, err)
	high, err := c.OpenStreamWithPriority(protocol.StreamTypeBidi, scheduler.Priority{Urgency: 1, Incremental: true})
	require.NoError(t, err)

	_, err = low.Write([]byte("low"))
	require.NoError(t, err)
	_, err = high.Write([]byte("high"))
	require.NoError(t, err)

	frames, _, ok := c.PopWriteOpportunity(4)
	require.True(t, ok)
	require.Len(t, frames, 1)
	sf, isStream := frames[0].(*wire.StreamFrame)
	require.True(t, isStream)
	assert.Equal(t, high.StreamID(), sf.StreamID)
	assert.Equal(t, []byte("high"), sf.Data)
}

func TestStreamLimitExceededSurfacesFromOpenStream(t *testing.T) {
	cfg := config.Default()
	cfg.InitialMaxStreamsBidi = 1
	c := NewConnection(protocol.PerspectiveClient, cfg, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(cancel)

	_, err := c.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)

	_, err = c.OpenStream(protocol.StreamTypeBidi)
	require.Error(t, err)
}
