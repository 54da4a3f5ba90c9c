package wire

// ConnectionCloseFrame terminates a connection. IsApplicationError
// distinguishes an application-triggered close from a transport-triggered
// one. On receipt the worker loop shuts the connection down; streams are not
// individually notified, so their send state and Context stay as they were.
type ConnectionCloseFrame struct {
	IsApplicationError bool
	ErrorCode          uint64
	ReasonPhrase       string
}

func (f *ConnectionCloseFrame) frame() {}
