package model

import (
	"roamstay/shared/model"
	"time"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID              = "id"
	FieldListingID       = "listing_id"
	FieldUserID          = "user_id"
	FieldCheckInDate     = "check_in_date"
	FieldCheckOutDate    = "check_out_date"
	FieldGuests          = "guests"
	FieldTotalPrice      = "total_price"
	FieldStatus          = "status"
	FieldSpecialRequests = "special_requests"
)

const (
	StatusPaymentPending = "payment_pending"
	StatusPending        = "pending"
	StatusConfirmed      = "confirmed"
	StatusCancelled      = "cancelled"
	StatusCompleted      = "completed"
	StatusPaymentFailed  = "payment_failed"
)

// allowedTransitions is the booking status state machine. Terminal states
// (cancelled, completed) have no outgoing edges.
var allowedTransitions = map[string][]string{
	StatusPaymentPending: {StatusPending, StatusConfirmed, StatusPaymentFailed, StatusCancelled},
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusCompleted, StatusCancelled},
	StatusPaymentFailed:  {StatusPaymentPending, StatusCancelled},
}

func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// ActiveStatuses are booking states that hold dates against a listing.
func ActiveStatuses() []string {
	return []string{StatusPaymentPending, StatusPending, StatusConfirmed}
}

type Booking struct {
	ID              string    `db:"id"`
	ListingID       string    `db:"listing_id"`
	UserID          string    `db:"user_id"`
	CheckInDate     time.Time `db:"check_in_date"`
	CheckOutDate    time.Time `db:"check_out_date"`
	Guests          int       `db:"guests"`
	TotalPrice      float64   `db:"total_price"`
	Status          string    `db:"status"`
	SpecialRequests string    `db:"special_requests"`
	model.Metadata
}

// Nights returns the stay length in whole nights.
func (b *Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
}
