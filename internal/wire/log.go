package wire

import "github.com/DENGZEYI/mvfst/internal/utils"

// LogFrame logs a frame at debug level, tagging it sent or received. It
// mirrors the teacher's Debugf-gated LogFrame: the switch is skipped
// entirely if debug logging isn't enabled, since formatting stream data is
// not free.
func LogFrame(logger utils.Logger, frame Frame, sent bool) {
	if !logger.Debug() {
		return
	}
	dir := "<-"
	if sent {
		dir = "->"
	}
	switch f := frame.(type) {
	case *StreamFrame:
		logger.Debugf("\t%s &wire.StreamFrame{StreamID: %d, Fin: %t, Offset: %d, Data length: %d, Offset + Data length: %d}",
			dir, f.StreamID, f.Fin, f.Offset, f.DataLen(), f.Offset+f.DataLen())
	case *ResetStreamFrame:
		logger.Debugf("\t%s &wire.ResetStreamFrame{StreamID: %d, ErrorCode: %#x, FinalSize: %d}",
			dir, f.StreamID, f.ErrorCode, f.FinalSize)
	case *ResetStreamAtFrame:
		logger.Debugf("\t%s &wire.ResetStreamAtFrame{StreamID: %d, ErrorCode: %#x, FinalSize: %d, ReliableSize: %d}",
			dir, f.StreamID, f.ErrorCode, f.FinalSize, f.ReliableSize)
	case *StopSendingFrame:
		logger.Debugf("\t%s &wire.StopSendingFrame{StreamID: %d, ErrorCode: %#x}", dir, f.StreamID, f.ErrorCode)
	case *MaxDataFrame:
		logger.Debugf("\t%s &wire.MaxDataFrame{MaximumData: %d}", dir, f.MaximumData)
	case *MaxStreamDataFrame:
		logger.Debugf("\t%s &wire.MaxStreamDataFrame{StreamID: %d, MaximumStreamData: %d}", dir, f.StreamID, f.MaximumStreamData)
	case *DataBlockedFrame:
		logger.Debugf("\t%s &wire.DataBlockedFrame{MaximumData: %d}", dir, f.MaximumData)
	case *StreamDataBlockedFrame:
		logger.Debugf("\t%s &wire.StreamDataBlockedFrame{StreamID: %d, MaximumStreamData: %d}", dir, f.StreamID, f.MaximumStreamData)
	case *ConnectionCloseFrame:
		logger.Debugf("\t%s &wire.ConnectionCloseFrame{IsApplicationError: %t, ErrorCode: %#x, ReasonPhrase: %s}",
			dir, f.IsApplicationError, f.ErrorCode, f.ReasonPhrase)
	default:
		logger.Debugf("\t%s %#v", dir, frame)
	}
}
