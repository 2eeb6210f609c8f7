package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roamstay/infras/chapa"
	bookingModel "roamstay/internal/domains/booking/model"
	"roamstay/internal/domains/payment/model"
	"roamstay/internal/domains/payment/service"
)

func TestMapGatewayStatus(t *testing.T) {
	tests := []struct {
		gateway string
		want    string
	}{
		{"success", model.StatusCompleted},
		{"failed", model.StatusFailed},
		{"pending", model.StatusProcessing},
		{"cancelled", model.StatusCancelled},
		{"something-new", model.StatusFailed},
		{"", model.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.gateway, func(t *testing.T) {
			assert.Equal(t, tt.want, service.MapGatewayStatus(tt.gateway))
		})
	}
}

func TestMapGatewayMethod(t *testing.T) {
	tests := []struct {
		gateway string
		want    string
	}{
		{"telebirr", model.MethodMobile},
		{"mpesa", model.MethodMobile},
		{"visa", model.MethodCard},
		{"mastercard", model.MethodCard},
		{"bank", model.MethodBank},
		{"unknown-channel", model.MethodMobile},
	}

	for _, tt := range tests {
		t.Run(tt.gateway, func(t *testing.T) {
			assert.Equal(t, tt.want, service.MapGatewayMethod(tt.gateway))
		})
	}
}

func TestReconcile(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	paidAt := now.Add(-time.Minute)

	tests := []struct {
		name    string
		payment model.Payment
		verify  chapa.VerifyResult
		want    service.ReconcileResult
	}{
		{
			name:    "processing to completed confirms the booking",
			payment: model.Payment{Status: model.StatusProcessing},
			verify: chapa.VerifyResult{
				Status:        "success",
				TransactionID: "txn-1",
				Method:        "telebirr",
				PaidAt:        &paidAt,
			},
			want: service.ReconcileResult{
				PaymentStatus:       model.StatusCompleted,
				Method:              model.MethodMobile,
				GatewayTxnID:        "txn-1",
				PaymentDate:         &paidAt,
				BookingStatus:       bookingModel.StatusConfirmed,
				CompletedTransition: true,
			},
		},
		{
			name:    "completed stays completed when gateway reports failed",
			payment: model.Payment{Status: model.StatusCompleted},
			verify: chapa.VerifyResult{
				Status:        "failed",
				TransactionID: "txn-stale",
			},
			want: service.ReconcileResult{
				PaymentStatus: model.StatusCompleted,
			},
		},
		{
			name:    "re-verifying a completed payment does not re-notify",
			payment: model.Payment{Status: model.StatusCompleted},
			verify: chapa.VerifyResult{
				Status:        "success",
				TransactionID: "txn-1",
				Method:        "telebirr",
				PaidAt:        &paidAt,
			},
			want: service.ReconcileResult{
				PaymentStatus:       model.StatusCompleted,
				Method:              model.MethodMobile,
				GatewayTxnID:        "txn-1",
				PaymentDate:         &paidAt,
				BookingStatus:       bookingModel.StatusConfirmed,
				CompletedTransition: false,
			},
		},
		{
			name:    "failure carries the gateway reason",
			payment: model.Payment{Status: model.StatusProcessing},
			verify: chapa.VerifyResult{
				Status:        "failed",
				FailureReason: "insufficient funds",
			},
			want: service.ReconcileResult{
				PaymentStatus: model.StatusFailed,
				FailureReason: "insufficient funds",
				BookingStatus: bookingModel.StatusPaymentFailed,
			},
		},
		{
			name:    "failure without a reason gets the default",
			payment: model.Payment{Status: model.StatusPending},
			verify:  chapa.VerifyResult{Status: "failed"},
			want: service.ReconcileResult{
				PaymentStatus: model.StatusFailed,
				FailureReason: "payment failed at gateway",
				BookingStatus: bookingModel.StatusPaymentFailed,
			},
		},
		{
			name:    "pending gateway state leaves the booking alone",
			payment: model.Payment{Status: model.StatusPending},
			verify:  chapa.VerifyResult{Status: "pending", TransactionID: "txn-2"},
			want: service.ReconcileResult{
				PaymentStatus: model.StatusProcessing,
				GatewayTxnID:  "txn-2",
			},
		},
		{
			name:    "completed without paid_at falls back to now",
			payment: model.Payment{Status: model.StatusProcessing},
			verify: chapa.VerifyResult{
				Status: "success",
				Method: "visa",
			},
			want: service.ReconcileResult{
				PaymentStatus:       model.StatusCompleted,
				Method:              model.MethodCard,
				PaymentDate:         &now,
				BookingStatus:       bookingModel.StatusConfirmed,
				CompletedTransition: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.Reconcile(tt.payment, tt.verify, now)
			assert.Equal(t, tt.want, got)
		})
	}
}
