package flowcontrol

import "github.com/DENGZEYI/mvfst/internal/protocol"

// ConnectionFlowControllerImpl is the connection-wide half of spec.md
// section 4.D's two-layer credit model: every stream's sent bytes are also
// charged against this shared budget.
type ConnectionFlowControllerImpl struct {
	baseFlowController
}

var _ ConnectionFlowController = &ConnectionFlowControllerImpl{}

// NewConnectionFlowController creates a connection-level flow controller
// seeded with the negotiated initial_max_data transport parameter.
func NewConnectionFlowController(initialMaxData protocol.ByteCount) *ConnectionFlowControllerImpl {
	return &ConnectionFlowControllerImpl{baseFlowController: newBaseFlowController(initialMaxData)}
}

func (c *ConnectionFlowControllerImpl) SendWindowSize() protocol.ByteCount {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.sendWindowSize()
}

func (c *ConnectionFlowControllerImpl) UpdateSendWindow(offset protocol.ByteCount) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.updateSendWindow(offset)
}

func (c *ConnectionFlowControllerImpl) AddBytesSent(n protocol.ByteCount) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.addBytesSent(n)
}

func (c *ConnectionFlowControllerImpl) IsNewlyBlocked() (bool, protocol.ByteCount) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.isNewlyBlocked()
}
