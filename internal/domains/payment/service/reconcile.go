package service

import (
	bookingModel "roamstay/internal/domains/booking/model"
	"roamstay/internal/domains/payment/model"
	"roamstay/infras/chapa"
	"time"
)

const defaultFailureReason = "payment failed at gateway"

// gatewayStatusMap normalizes gateway statuses into payment statuses. Anything
// unrecognized maps to failed so a gateway contract change can never leave a
// payment looking successful.
var gatewayStatusMap = map[string]string{
	"success":   model.StatusCompleted,
	"failed":    model.StatusFailed,
	"pending":   model.StatusProcessing,
	"cancelled": model.StatusCancelled,
}

var gatewayMethodMap = map[string]string{
	"telebirr":   model.MethodMobile,
	"cbebirr":    model.MethodMobile,
	"ebirr":      model.MethodMobile,
	"mpesa":      model.MethodMobile,
	"visa":       model.MethodCard,
	"mastercard": model.MethodCard,
	"amex":       model.MethodCard,
	"bank":       model.MethodBank,
}

// ReconcileResult captures the outcome of matching a payment row against a
// fresh gateway verification.
type ReconcileResult struct {
	PaymentStatus string
	Method        string
	GatewayTxnID  string
	FailureReason string
	PaymentDate   *time.Time

	// BookingStatus is empty when the booking should be left untouched.
	BookingStatus string

	// CompletedTransition is true only when this reconciliation moved the
	// payment into completed. Re-applying the same verification result keeps
	// it false, which is what gates duplicate notifications.
	CompletedTransition bool
}

// MapGatewayStatus normalizes a gateway transaction status.
func MapGatewayStatus(status string) string {
	if mapped, ok := gatewayStatusMap[status]; ok {
		return mapped
	}

	return model.StatusFailed
}

// MapGatewayMethod normalizes a gateway payment channel.
func MapGatewayMethod(method string) string {
	if mapped, ok := gatewayMethodMap[method]; ok {
		return mapped
	}

	return model.MethodMobile
}

// Reconcile is a pure transform from (stored payment, gateway verification) to
// the updates both records need. Callers persist the payment first, then the
// booking.
func Reconcile(payment model.Payment, verify chapa.VerifyResult, now time.Time) ReconcileResult {
	res := ReconcileResult{
		PaymentStatus: MapGatewayStatus(verify.Status),
		GatewayTxnID:  verify.TransactionID,
	}

	// A completed payment is final. Stale or contradictory verifications must
	// not unwind it.
	if payment.Status == model.StatusCompleted && res.PaymentStatus != model.StatusCompleted {
		res.PaymentStatus = model.StatusCompleted
		res.GatewayTxnID = ""

		return res
	}

	switch res.PaymentStatus {
	case model.StatusCompleted:
		res.Method = MapGatewayMethod(verify.Method)
		res.BookingStatus = bookingModel.StatusConfirmed

		paidAt := now
		if verify.PaidAt != nil {
			paidAt = *verify.PaidAt
		}

		res.PaymentDate = &paidAt
		res.CompletedTransition = payment.Status != model.StatusCompleted
	case model.StatusFailed:
		res.FailureReason = verify.FailureReason
		if res.FailureReason == "" {
			res.FailureReason = defaultFailureReason
		}

		res.BookingStatus = bookingModel.StatusPaymentFailed
	case model.StatusProcessing, model.StatusCancelled:
		// Payment mirrors the gateway; the booking keeps waiting.
	}

	return res
}
