package dto

import (
	"roamstay/internal/domains/booking/model"
	"roamstay/shared"
	gDto "roamstay/shared/dto"
	gModel "roamstay/shared/model"
	"roamstay/shared/timezone"
	"time"

	"github.com/google/uuid"
)

const dateFormat = "2006-01-02"

type CreateBookingRequest struct {
	ListingID       string `json:"listing_id"       validate:"required"`
	CheckInDate     string `json:"check_in_date"    validate:"required"`
	CheckOutDate    string `json:"check_out_date"   validate:"required"`
	Guests          int    `json:"guests"           validate:"required,min=1"`
	SpecialRequests string `json:"special_requests" validate:"omitempty"`
	CustomerPhone   string `json:"customer_phone"   validate:"omitempty,max=20"`
}

func (c *CreateBookingRequest) ToModel(user string) (model.Booking, error) {
	checkIn, err := time.Parse(dateFormat, c.CheckInDate)
	if err != nil {
		return model.Booking{}, err
	}

	checkOut, err := time.Parse(dateFormat, c.CheckOutDate)
	if err != nil {
		return model.Booking{}, err
	}

	return model.Booking{
		ID:              uuid.NewString(),
		ListingID:       c.ListingID,
		UserID:          user,
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		Guests:          c.Guests,
		Status:          model.StatusPaymentPending,
		SpecialRequests: c.SpecialRequests,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, nil
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=payment_pending pending confirmed cancelled completed payment_failed"`
}

type BookingResponse struct {
	ID              string  `json:"id"`
	ListingID       string  `json:"listing_id"`
	UserID          string  `json:"user_id"`
	CheckInDate     string  `json:"check_in_date"`
	CheckOutDate    string  `json:"check_out_date"`
	Guests          int     `json:"guests"`
	TotalPrice      float64 `json:"total_price"`
	Status          string  `json:"status"`
	SpecialRequests string  `json:"special_requests"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.ListingID = model.ListingID
	r.UserID = model.UserID
	r.CheckInDate = model.CheckInDate.Format(dateFormat)
	r.CheckOutDate = model.CheckOutDate.Format(dateFormat)
	r.Guests = model.Guests
	r.TotalPrice = model.TotalPrice
	r.Status = model.Status
	r.SpecialRequests = model.SpecialRequests
	r.Metadata.FromModel(model.Metadata)
}

// BookingPayment is the payment block carried on a create response. Booking
// creation succeeds even when the gateway initialization does not, so the
// payment outcome travels separately from the booking itself.
type BookingPayment struct {
	PaymentID     string `json:"payment_id"`
	Status        string `json:"status"`
	Reference     string `json:"reference"`
	CheckoutURL   string `json:"checkout_url,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

type BookingCreatedResponse struct {
	Booking BookingResponse `json:"booking"`
	Payment BookingPayment  `json:"payment"`
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
