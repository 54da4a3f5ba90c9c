package streammanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DENGZEYI/mvfst/internal/flowcontrol"
	"github.com/DENGZEYI/mvfst/internal/protocol"
)

func newTestManager(maxBidi, maxUni uint64) *Manager {
	return NewManager(protocol.PerspectiveClient, maxBidi, maxUni, func(protocol.StreamID) flowcontrol.StreamFlowController {
		return flowcontrol.NewStreamFlowController(1 << 20)
	})
}

func TestOpenStreamAssignsIncreasingIDs(t *testing.T) {
	m := newTestManager(10, 10)
	s1, err := m.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)
	s2, err := m.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)
	assert.Less(t, int64(s1.ID()), int64(s2.ID()))
	assert.Equal(t, protocol.PerspectiveClient, s1.ID().InitiatedBy())
}

func TestOpenStreamEnforcesLimit(t *testing.T) {
	m := newTestManager(1, 0)
	_, err := m.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)

	_, err = m.OpenStream(protocol.StreamTypeBidi)
	require.Error(t, err)
	var limitErr *StreamLimitExceededError
	assert.ErrorAs(t, err, &limitErr)

	_, err = m.OpenStream(protocol.StreamTypeUni)
	require.Error(t, err)
}

func TestSyncAddsToWritableAndScheduler(t *testing.T) {
	m := newTestManager(10, 10)
	s, err := m.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)

	m.Sync(s)
	assert.Empty(t, m.WritableStreams(), "nothing queued yet")

	require.NoError(t, s.Write([]byte("hi"), false))
	m.Sync(s)
	assert.Contains(t, m.WritableStreams(), s.ID())
	id, ok := m.NextWritableStream()
	require.True(t, ok)
	assert.Equal(t, s.ID(), id)
}

func TestSyncMovesTerminalStreamToClosed(t *testing.T) {
	m := newTestManager(10, 10)
	s, err := m.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)
	require.NoError(t, s.Write([]byte("hi"), true))
	m.Sync(s)

	frame, ok := s.PopFrame(1 << 20)
	require.True(t, ok)
	require.NoError(t, s.HandleAck(frame.Offset, frame.DataLen(), frame.Fin))
	m.Sync(s)

	assert.NotContains(t, m.WritableStreams(), s.ID())
	assert.Contains(t, m.ClosedStreams(), s.ID())
	_, ok = m.NextWritableStream()
	assert.False(t, ok)
}

func TestSyncTracksPendingReset(t *testing.T) {
	m := newTestManager(10, 10)
	s, err := m.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)
	require.NoError(t, s.IssueReset(1, nil))
	m.Sync(s)

	assert.True(t, m.PendingResets().Contains(s.ID()))
	assert.Contains(t, m.WritableStreams(), s.ID(), "pending reset keeps the stream scheduled")
}

func TestRemoveClosedStreamRequiresTerminal(t *testing.T) {
	m := newTestManager(10, 10)
	s, err := m.OpenStream(protocol.StreamTypeBidi)
	require.NoError(t, err)

	err = m.RemoveClosedStream(s.ID())
	require.Error(t, err)

	require.NoError(t, s.Write(nil, true))
	frame, ok := s.PopFrame(1 << 20)
	require.True(t, ok)
	require.NoError(t, s.HandleAck(frame.Offset, 0, true))
	m.Sync(s)

	require.NoError(t, m.RemoveClosedStream(s.ID()))
	_, ok = m.GetStream(s.ID())
	assert.False(t, ok)
}

func TestOpenStreamInGroupRequiresExistingGroup(t *testing.T) {
	m := newTestManager(10, 10)
	_, err := m.OpenStreamInGroup(protocol.StreamTypeBidi, 999)
	require.Error(t, err)

	group := m.NewStreamGroup()
	s, err := m.OpenStreamInGroup(protocol.StreamTypeBidi, group)
	require.NoError(t, err)
	got, ok := s.GroupID()
	require.True(t, ok)
	assert.Equal(t, group, got)
}
