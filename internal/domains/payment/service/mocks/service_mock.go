// Code generated by MockGen. DO NOT EDIT.
// Source: ./service.go
//
// Generated by this command:
//
//	mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"
	model "roamstay/internal/domains/booking/model"
	model0 "roamstay/internal/domains/payment/model"
	dto "roamstay/internal/domains/payment/model/dto"

	gomock "go.uber.org/mock/gomock"
)

// MockPayment is a mock of Payment interface.
type MockPayment struct {
	ctrl     *gomock.Controller
	recorder *MockPaymentMockRecorder
	isgomock struct{}
}

// MockPaymentMockRecorder is the mock recorder for MockPayment.
type MockPaymentMockRecorder struct {
	mock *MockPayment
}

// NewMockPayment creates a new mock instance.
func NewMockPayment(ctrl *gomock.Controller) *MockPayment {
	mock := &MockPayment{ctrl: ctrl}
	mock.recorder = &MockPaymentMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockPayment) EXPECT() *MockPaymentMockRecorder {
	return m.recorder
}

// CancelForBooking mocks base method.
func (m *MockPayment) CancelForBooking(ctx context.Context, bookingID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CancelForBooking", ctx, bookingID)
	ret0, _ := ret[0].(error)
	return ret0
}

// CancelForBooking indicates an expected call of CancelForBooking.
func (mr *MockPaymentMockRecorder) CancelForBooking(ctx, bookingID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CancelForBooking", reflect.TypeOf((*MockPayment)(nil).CancelForBooking), ctx, bookingID)
}

// CreateAndInitiate mocks base method.
func (m *MockPayment) CreateAndInitiate(ctx context.Context, booking model.Booking, customerPhone string) (model0.Payment, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateAndInitiate", ctx, booking, customerPhone)
	ret0, _ := ret[0].(model0.Payment)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CreateAndInitiate indicates an expected call of CreateAndInitiate.
func (mr *MockPaymentMockRecorder) CreateAndInitiate(ctx, booking, customerPhone any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateAndInitiate", reflect.TypeOf((*MockPayment)(nil).CreateAndInitiate), ctx, booking, customerPhone)
}

// GetByBooking mocks base method.
func (m *MockPayment) GetByBooking(ctx context.Context, bookingID string) (dto.PaymentResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByBooking", ctx, bookingID)
	ret0, _ := ret[0].(dto.PaymentResponse)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByBooking indicates an expected call of GetByBooking.
func (mr *MockPaymentMockRecorder) GetByBooking(ctx, bookingID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByBooking", reflect.TypeOf((*MockPayment)(nil).GetByBooking), ctx, bookingID)
}

// HandleWebhook mocks base method.
func (m *MockPayment) HandleWebhook(ctx context.Context, payload []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HandleWebhook", ctx, payload)
	ret0, _ := ret[0].(error)
	return ret0
}

// HandleWebhook indicates an expected call of HandleWebhook.
func (mr *MockPaymentMockRecorder) HandleWebhook(ctx, payload any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HandleWebhook", reflect.TypeOf((*MockPayment)(nil).HandleWebhook), ctx, payload)
}

// Initiate mocks base method.
func (m *MockPayment) Initiate(ctx context.Context, req dto.InitiatePaymentRequest) (dto.PaymentResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Initiate", ctx, req)
	ret0, _ := ret[0].(dto.PaymentResponse)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Initiate indicates an expected call of Initiate.
func (mr *MockPaymentMockRecorder) Initiate(ctx, req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Initiate", reflect.TypeOf((*MockPayment)(nil).Initiate), ctx, req)
}

// Status mocks base method.
func (m *MockPayment) Status(ctx context.Context, paymentID string) (dto.PaymentStatusResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Status", ctx, paymentID)
	ret0, _ := ret[0].(dto.PaymentStatusResponse)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Status indicates an expected call of Status.
func (mr *MockPaymentMockRecorder) Status(ctx, paymentID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Status", reflect.TypeOf((*MockPayment)(nil).Status), ctx, paymentID)
}

// Verify mocks base method.
func (m *MockPayment) Verify(ctx context.Context, req dto.VerifyPaymentRequest) (dto.PaymentResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Verify", ctx, req)
	ret0, _ := ret[0].(dto.PaymentResponse)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Verify indicates an expected call of Verify.
func (mr *MockPaymentMockRecorder) Verify(ctx, req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Verify", reflect.TypeOf((*MockPayment)(nil).Verify), ctx, req)
}
