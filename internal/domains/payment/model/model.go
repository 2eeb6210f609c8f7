package model

import (
	"roamstay/shared/model"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	TableName  = "payments"
	EntityName = "payment"

	FieldID            = "id"
	FieldBookingID     = "booking_id"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldStatus        = "status"
	FieldMethod        = "method"
	FieldGatewayTxnID  = "gateway_txn_id"
	FieldCheckoutURL   = "checkout_url"
	FieldReference     = "reference"
	FieldCustomerEmail = "customer_email"
	FieldCustomerPhone = "customer_phone"
	FieldCustomerName  = "customer_name"
	FieldPaymentDate   = "payment_date"
	FieldFailureReason = "failure_reason"
	FieldWebhookData   = "webhook_data"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

const (
	MethodMobile = "mobile"
	MethodCard   = "card"
	MethodBank   = "bank"
)

const referencePrefix = "RST"

type Payment struct {
	ID            string     `db:"id"`
	BookingID     string     `db:"booking_id"`
	Amount        float64    `db:"amount"`
	Currency      string     `db:"currency"`
	Status        string     `db:"status"`
	Method        *string    `db:"method"`
	GatewayTxnID  *string    `db:"gateway_txn_id"`
	CheckoutURL   *string    `db:"checkout_url"`
	Reference     string     `db:"reference"`
	CustomerEmail string     `db:"customer_email"`
	CustomerPhone *string    `db:"customer_phone"`
	CustomerName  *string    `db:"customer_name"`
	PaymentDate   *time.Time `db:"payment_date"`
	FailureReason *string    `db:"failure_reason"`
	WebhookData   *string    `db:"webhook_data"`
	model.Metadata
}

// InFlight reports whether the payment can still move to a final state.
func (p *Payment) InFlight() bool {
	return p.Status == StatusPending || p.Status == StatusProcessing
}

// NewReference derives a transaction reference from the booking it pays for.
// References are unique by DB constraint; collisions regenerate once with a
// random suffix instead.
func NewReference(bookingID string, now time.Time) string {
	short := bookingID
	if len(short) > 8 {
		short = short[:8]
	}

	return referencePrefix + "-" + short + "-" + strconv.FormatInt(now.Unix(), 10)
}

// NewReferenceWithSuffix is the collision fallback, salted with a random
// fragment so a same-second retry cannot collide again.
func NewReferenceWithSuffix(bookingID string, now time.Time) string {
	return NewReference(bookingID, now) + "-" + uuid.NewString()[:6]
}
