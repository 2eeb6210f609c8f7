package dto

import (
	"roamstay/internal/domains/payment/model"
	"roamstay/shared/constant"
	gDto "roamstay/shared/dto"
	"roamstay/shared/timezone"
)

type InitiatePaymentRequest struct {
	BookingID     string `json:"booking_id"     validate:"required"`
	CustomerPhone string `json:"customer_phone" validate:"omitempty,max=20"`
}

type VerifyPaymentRequest struct {
	TxRef string `json:"tx_ref" validate:"required"`
}

// WebhookPayload is whatever the gateway pushes. Only tx_ref is read; status
// is never trusted and is always re-fetched from the gateway instead.
type WebhookPayload struct {
	TxRef     string `json:"tx_ref"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Event     string `json:"event"`
}

type PaymentResponse struct {
	ID            string  `json:"id"`
	BookingID     string  `json:"booking_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	Method        string  `json:"method,omitempty"`
	GatewayTxnID  string  `json:"gateway_txn_id,omitempty"`
	CheckoutURL   string  `json:"checkout_url,omitempty"`
	Reference     string  `json:"reference"`
	CustomerEmail string  `json:"customer_email"`
	PaymentDate   string  `json:"payment_date,omitempty"`
	FailureReason string  `json:"failure_reason,omitempty"`
	gDto.Metadata
}

func (r *PaymentResponse) FromModel(model model.Payment) {
	r.ID = model.ID
	r.BookingID = model.BookingID
	r.Amount = model.Amount
	r.Currency = model.Currency
	r.Status = model.Status
	r.Reference = model.Reference
	r.CustomerEmail = model.CustomerEmail

	if model.Method != nil {
		r.Method = *model.Method
	}

	if model.GatewayTxnID != nil {
		r.GatewayTxnID = *model.GatewayTxnID
	}

	if model.CheckoutURL != nil {
		r.CheckoutURL = *model.CheckoutURL
	}

	if model.PaymentDate != nil {
		r.PaymentDate = timezone.Format(*model.PaymentDate, constant.DateFormat)
	}

	if model.FailureReason != nil {
		r.FailureReason = *model.FailureReason
	}

	r.Metadata.FromModel(model.Metadata)
}

type PaymentStatusResponse struct {
	PaymentID     string `json:"payment_id"`
	BookingID     string `json:"booking_id"`
	Status        string `json:"status"`
	BookingStatus string `json:"booking_status"`
	Reference     string `json:"reference"`
}
