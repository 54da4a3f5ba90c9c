package flowcontrol

import "github.com/DENGZEYI/mvfst/internal/protocol"

// StreamFlowControllerImpl is the per-stream half of spec.md section 4.D's
// two-layer credit model.
type StreamFlowControllerImpl struct {
	baseFlowController
}

var _ StreamFlowController = &StreamFlowControllerImpl{}

// NewStreamFlowController creates a stream-level flow controller seeded
// with the negotiated initial_max_stream_data_* transport parameter for
// this stream's direction.
func NewStreamFlowController(initialMaxStreamData protocol.ByteCount) *StreamFlowControllerImpl {
	return &StreamFlowControllerImpl{baseFlowController: newBaseFlowController(initialMaxStreamData)}
}

func (c *StreamFlowControllerImpl) SendWindowSize() protocol.ByteCount {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.sendWindowSize()
}

func (c *StreamFlowControllerImpl) UpdateSendWindow(offset protocol.ByteCount) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.updateSendWindow(offset)
}

func (c *StreamFlowControllerImpl) AddBytesSent(n protocol.ByteCount) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.addBytesSent(n)
}

func (c *StreamFlowControllerImpl) IsNewlyBlocked() (bool, protocol.ByteCount) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.isNewlyBlocked()
}
