package ackhandler

import (
	"reflect"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/DENGZEYI/mvfst/congestion"
	"github.com/DENGZEYI/mvfst/internal/protocol"
)

// mockController is a hand-written gomock double for congestion.Controller,
// following the same shape `mockgen` would produce - this package has no
// generate directive wired up (no real congestion controller exists yet to
// reflect over), so it's kept by hand instead.
type mockController struct {
	ctrl     *gomock.Controller
	recorder *mockControllerRecorder
}

type mockControllerRecorder struct {
	mock *mockController
}

func newMockController(ctrl *gomock.Controller) *mockController {
	m := &mockController{ctrl: ctrl}
	m.recorder = &mockControllerRecorder{m}
	return m
}

func (m *mockController) EXPECT() *mockControllerRecorder { return m.recorder }

func (m *mockController) OnPacketSent(pn protocol.PacketNumber, size protocol.ByteCount, sentTime time.Time) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnPacketSent", pn, size, sentTime)
}

func (mr *mockControllerRecorder) OnPacketSent(pn, size, sentTime interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnPacketSent", reflect.TypeOf((*mockController)(nil).OnPacketSent), pn, size, sentTime)
}

func (m *mockController) OnAck(pn protocol.PacketNumber, size protocol.ByteCount, ackTime time.Time) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnAck", pn, size, ackTime)
}

func (mr *mockControllerRecorder) OnAck(pn, size, ackTime interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnAck", reflect.TypeOf((*mockController)(nil).OnAck), pn, size, ackTime)
}

func (m *mockController) OnLoss(pn protocol.PacketNumber, size protocol.ByteCount) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnLoss", pn, size)
}

func (mr *mockControllerRecorder) OnLoss(pn, size interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnLoss", reflect.TypeOf((*mockController)(nil).OnLoss), pn, size)
}

func (m *mockController) CanSend(size protocol.ByteCount) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CanSend", size)
	return ret[0].(bool)
}

func (mr *mockControllerRecorder) CanSend(size interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CanSend", reflect.TypeOf((*mockController)(nil).CanSend), size)
}

func (m *mockController) GetCongestionWindow() protocol.ByteCount {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCongestionWindow")
	return ret[0].(protocol.ByteCount)
}

func (mr *mockControllerRecorder) GetCongestionWindow() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCongestionWindow", reflect.TypeOf((*mockController)(nil).GetCongestionWindow))
}

func (m *mockController) Stats() congestion.Stats {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Stats")
	return ret[0].(congestion.Stats)
}

func (mr *mockControllerRecorder) Stats() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Stats", reflect.TypeOf((*mockController)(nil).Stats))
}

var _ congestion.Controller = (*mockController)(nil)
