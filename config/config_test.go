package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DENGZEYI/mvfst/internal/protocol"
)

func TestStreamDataLimitPicksLocalVsRemote(t *testing.T) {
	c := Default()
	c.InitialMaxStreamDataBidiLocal = 100
	c.InitialMaxStreamDataBidiRemote = 200
	c.InitialMaxStreamDataUni = 300

	assert.Equal(t, protocol.ByteCount(100), c.StreamDataLimit(protocol.StreamTypeBidi, protocol.PerspectiveClient, protocol.PerspectiveClient))
	assert.Equal(t, protocol.ByteCount(200), c.StreamDataLimit(protocol.StreamTypeBidi, protocol.PerspectiveServer, protocol.PerspectiveClient))
	assert.Equal(t, protocol.ByteCount(300), c.StreamDataLimit(protocol.StreamTypeUni, protocol.PerspectiveClient, protocol.PerspectiveClient))
}
