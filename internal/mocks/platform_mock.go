// Mocks of github.com/orizon-iot/iotcore/internal/platform (interfaces: Platform,Timer).

// Package mocks hosts hand-maintained go.uber.org/mock doubles for the
// platform.Platform and platform.Timer interfaces, in the shape `mockgen`
// itself would emit (this module has no go:generate wiring for mockgen
// since the core ships no build step beyond `go build`; the mocks below
// are written by hand against that same generated shape).
package mocks

import (
	"reflect"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/orizon-iot/iotcore/internal/platform"
)

// MockTimer is a mock of the platform.Timer interface.
type MockTimer struct {
	ctrl     *gomock.Controller
	recorder *MockTimerMockRecorder
}

// MockTimerMockRecorder is the mock recorder for MockTimer.
type MockTimerMockRecorder struct {
	mock *MockTimer
}

// NewMockTimer creates a new mock instance.
func NewMockTimer(ctrl *gomock.Controller) *MockTimer {
	mock := &MockTimer{ctrl: ctrl}
	mock.recorder = &MockTimerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTimer) EXPECT() *MockTimerMockRecorder {
	return m.recorder
}

// Stop mocks base method.
func (m *MockTimer) Stop() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Stop")
}

// Stop indicates an expected call of Stop.
func (mr *MockTimerMockRecorder) Stop() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Stop", reflect.TypeOf((*MockTimer)(nil).Stop))
}

// MockPlatform is a mock of the platform.Platform interface.
type MockPlatform struct {
	ctrl     *gomock.Controller
	recorder *MockPlatformMockRecorder
}

// MockPlatformMockRecorder is the mock recorder for MockPlatform.
type MockPlatformMockRecorder struct {
	mock *MockPlatform
}

// NewMockPlatform creates a new mock instance.
func NewMockPlatform(ctrl *gomock.Controller) *MockPlatform {
	mock := &MockPlatform{ctrl: ctrl}
	mock.recorder = &MockPlatformMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockPlatform) EXPECT() *MockPlatformMockRecorder {
	return m.recorder
}

// Now mocks base method.
func (m *MockPlatform) Now() time.Time {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Now")
	ret0, _ := ret[0].(time.Time)
	return ret0
}

// Now indicates an expected call of Now.
func (mr *MockPlatformMockRecorder) Now() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Now", reflect.TypeOf((*MockPlatform)(nil).Now))
}

// NewTimer mocks base method.
func (m *MockPlatform) NewTimer(d time.Duration, cb func()) platform.Timer {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NewTimer", d, cb)
	ret0, _ := ret[0].(platform.Timer)
	return ret0
}

// NewTimer indicates an expected call of NewTimer.
func (mr *MockPlatformMockRecorder) NewTimer(d, cb any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NewTimer", reflect.TypeOf((*MockPlatform)(nil).NewTimer), d, cb)
}

// Rand mocks base method.
func (m *MockPlatform) Rand() uint64 {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Rand")
	ret0, _ := ret[0].(uint64)
	return ret0
}

// Rand indicates an expected call of Rand.
func (mr *MockPlatformMockRecorder) Rand() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Rand", reflect.TypeOf((*MockPlatform)(nil).Rand))
}

// CriticalError mocks base method.
func (m *MockPlatform) CriticalError(err error) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "CriticalError", err)
}

// CriticalError indicates an expected call of CriticalError.
func (mr *MockPlatformMockRecorder) CriticalError(err any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CriticalError", reflect.TypeOf((*MockPlatform)(nil).CriticalError), err)
}
