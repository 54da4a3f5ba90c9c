package sendstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DENGZEYI/mvfst/internal/protocol"
)

func TestDeliveryCallbackFiresOnAck(t *testing.T) {
	s := newTestStream(4)
	require.NoError(t, s.Write([]byte("hello"), true))

	var result *DeliveryResult
	s.RegisterDeliveryCB(4, func(r DeliveryResult) { result = &r })

	s.DrainDeliveries()
	assert.Nil(t, result, "not yet acked")

	frame, ok := s.PopFrame(1 << 20)
	require.True(t, ok)
	require.NoError(t, s.HandleAck(frame.Offset, frame.DataLen(), frame.Fin))

	s.DrainDeliveries()
	require.NotNil(t, result)
	assert.False(t, result.Reset)
	assert.Equal(t, protocol.ByteCount(4), result.Offset)
}

func TestDeliveryCallbackFiresAsResetAboveReliablePrefix(t *testing.T) {
	s := newTestStream(4)
	payload := make([]byte, 500)
	require.NoError(t, s.Write(payload, false))

	var result *DeliveryResult
	rsz := protocol.ByteCount(300)
	s.RegisterDeliveryCB(400, func(r DeliveryResult) { result = &r })

	require.NoError(t, s.IssueReset(9, &rsz))
	frame, ok := s.PopFrame(1 << 20)
	require.True(t, ok)
	require.NoError(t, s.HandleAck(frame.Offset, frame.DataLen(), frame.Fin))
	require.NoError(t, s.HandleResetAcked(&rsz))
	require.Equal(t, Closed, s.State())

	s.DrainDeliveries()
	require.NotNil(t, result)
	assert.True(t, result.Reset)
	assert.Equal(t, protocol.ApplicationErrorCode(9), result.ErrorCode)
}

func TestDeliveryCallbackFiresOnResetBeforeAck(t *testing.T) {
	s := newTestStream(4)
	payload := make([]byte, 500)
	require.NoError(t, s.Write(payload, false))

	var result *DeliveryResult
	rsz := protocol.ByteCount(300)
	s.RegisterDeliveryCB(400, func(r DeliveryResult) { result = &r })

	require.NoError(t, s.IssueReset(9, &rsz))
	require.Equal(t, ResetSent, s.State(), "reset is only pending, not yet acked")

	s.DrainDeliveries()
	require.NotNil(t, result, "offset above the reliable prefix resolves as soon as the reset is issued")
	assert.True(t, result.Reset)
	assert.Equal(t, protocol.ApplicationErrorCode(9), result.ErrorCode)
}

func TestDeliveryCallbacksFireInIncreasingOffsetOrder(t *testing.T) {
	s := newTestStream(4)
	require.NoError(t, s.Write([]byte("0123456789"), true))

	var fired []protocol.ByteCount
	s.RegisterDeliveryCB(8, func(r DeliveryResult) { fired = append(fired, r.Offset) })
	s.RegisterDeliveryCB(2, func(r DeliveryResult) { fired = append(fired, r.Offset) })
	s.RegisterDeliveryCB(5, func(r DeliveryResult) { fired = append(fired, r.Offset) })

	frame, ok := s.PopFrame(1 << 20)
	require.True(t, ok)
	require.NoError(t, s.HandleAck(frame.Offset, frame.DataLen(), frame.Fin))

	s.DrainDeliveries()
	require.Equal(t, []protocol.ByteCount{2, 5, 8}, fired)
}
