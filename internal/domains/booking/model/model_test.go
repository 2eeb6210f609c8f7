package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roamstay/internal/domains/booking/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{model.StatusPaymentPending, model.StatusConfirmed, true},
		{model.StatusPaymentPending, model.StatusPaymentFailed, true},
		{model.StatusPaymentPending, model.StatusCancelled, true},
		{model.StatusPaymentPending, model.StatusCompleted, false},
		{model.StatusPending, model.StatusConfirmed, true},
		{model.StatusPending, model.StatusCompleted, false},
		{model.StatusConfirmed, model.StatusCompleted, true},
		{model.StatusConfirmed, model.StatusCancelled, true},
		{model.StatusConfirmed, model.StatusPending, false},
		{model.StatusPaymentFailed, model.StatusPaymentPending, true},
		{model.StatusCancelled, model.StatusConfirmed, false},
		{model.StatusCompleted, model.StatusCancelled, false},
		{model.StatusCompleted, model.StatusPending, false},
		{"bogus", model.StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, model.CanTransition(tt.from, tt.to))
		})
	}
}

func TestActiveStatuses(t *testing.T) {
	active := model.ActiveStatuses()

	assert.Contains(t, active, model.StatusPaymentPending)
	assert.Contains(t, active, model.StatusPending)
	assert.Contains(t, active, model.StatusConfirmed)
	assert.NotContains(t, active, model.StatusCancelled)
	assert.NotContains(t, active, model.StatusCompleted)
	assert.NotContains(t, active, model.StatusPaymentFailed)
}

func TestBooking_Nights(t *testing.T) {
	booking := model.Booking{
		CheckInDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate: time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, 3, booking.Nights())
}
