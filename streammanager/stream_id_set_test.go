package streammanager

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DENGZEYI/mvfst/internal/protocol"
)

func TestStreamIDSetAddContains(t *testing.T) {
	s := NewStreamIDSet(0)
	s.Add(0)
	s.Add(4)
	s.Add(8)
	assert.True(t, s.Contains(0))
	assert.True(t, s.Contains(4))
	assert.True(t, s.Contains(8))
	assert.False(t, s.Contains(12))
	assert.Equal(t, 3, s.Len())
}

func TestStreamIDSetAddRangeIsContiguous(t *testing.T) {
	s := NewStreamIDSet(0)
	s.AddRange(0, protocol.StreamID(396))
	assert.Equal(t, 100, s.Len())
	assert.True(t, s.Contains(400-4))
	assert.False(t, s.Contains(400))
}

func TestStreamIDSetRespectsBase(t *testing.T) {
	s := NewStreamIDSet(1)
	s.Add(1)
	s.Add(5)
	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(5))
	assert.False(t, s.Contains(0))
	assert.Equal(t, 2, s.Len())
}
