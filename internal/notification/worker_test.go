package notification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"roamstay/config"
	kafkaMocks "roamstay/infras/kafka/mocks"
	"roamstay/infras/otel/mocks"
	bookingMocks "roamstay/internal/domains/booking/mocks"
	bookingModel "roamstay/internal/domains/booking/model"
	listingMocks "roamstay/internal/domains/listing/mocks"
	listingModel "roamstay/internal/domains/listing/model"
	paymentMocks "roamstay/internal/domains/payment/mocks"
	paymentModel "roamstay/internal/domains/payment/model"
	userMocks "roamstay/internal/domains/user/mocks"
	userModel "roamstay/internal/domains/user/model"
	"roamstay/internal/notification"
	notificationMocks "roamstay/internal/notification/mocks"
	"roamstay/shared/timezone"
)

type workerMocks struct {
	client      *kafkaMocks.MockClient
	dispatcher  *notificationMocks.MockDispatcher
	sender      *notificationMocks.MockSender
	bookingRepo *bookingMocks.MockBooking
	paymentRepo *paymentMocks.MockPayment
	listingRepo *listingMocks.MockListing
	userRepo    *userMocks.MockUser
}

func newWorker(t *testing.T) (*notification.Worker, workerMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := workerMocks{
		client:      kafkaMocks.NewMockClient(ctrl),
		dispatcher:  notificationMocks.NewMockDispatcher(ctrl),
		sender:      notificationMocks.NewMockSender(ctrl),
		bookingRepo: bookingMocks.NewMockBooking(ctrl),
		paymentRepo: paymentMocks.NewMockPayment(ctrl),
		listingRepo: listingMocks.NewMockListing(ctrl),
		userRepo:    userMocks.NewMockUser(ctrl),
	}

	cfg := &config.Config{}
	cfg.Notification.MaxRetries = 3
	cfg.Notification.RetryBackoffSeconds = 60
	cfg.Notification.PendingBookingTTL = 24
	cfg.Kafka.Topics.Notifications = "roamstay.notifications"

	worker := notification.NewWorker(
		m.client, m.dispatcher, m.sender,
		m.bookingRepo, m.paymentRepo, m.listingRepo, m.userRepo,
		cfg, mocks.NewOtel(),
	)

	return worker, m
}

func TestWorker_Process(t *testing.T) {
	booking := bookingModel.Booking{
		ID:           "booking-1",
		ListingID:    "listing-1",
		UserID:       "user-1",
		CheckInDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate: time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
		Guests:       2,
		TotalPrice:   500,
		Status:       bookingModel.StatusConfirmed,
	}

	listing := listingModel.Listing{
		ID:     "listing-1",
		HostID: "host-1",
		Name:   "Lakeside Cottage",
	}

	guest := userModel.User{ID: "user-1", Email: "guest@example.com"}
	host := userModel.User{ID: "host-1", Email: "host@example.com"}

	t.Run("booking confirmation goes to the guest", func(t *testing.T) {
		worker, m := newWorker(t)

		m.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.listingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listing, nil)
		m.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(guest, nil)

		m.sender.EXPECT().
			Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, email notification.Email) error {
				assert.Equal(t, "guest@example.com", email.To)
				assert.Contains(t, email.Body, "Lakeside Cottage")
				assert.Contains(t, email.Body, "2026-09-01")

				return nil
			})

		err := worker.Process(context.Background(), notification.Job{
			Type:     notification.JobBookingConfirmation,
			EntityID: "booking-1",
		})

		assert.NoError(t, err)
	})

	t.Run("host notification goes to the host", func(t *testing.T) {
		worker, m := newWorker(t)

		m.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.listingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listing, nil)
		m.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(host, nil)

		m.sender.EXPECT().
			Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, email notification.Email) error {
				assert.Equal(t, "host@example.com", email.To)
				assert.Contains(t, email.Subject, "New booking")

				return nil
			})

		err := worker.Process(context.Background(), notification.Job{
			Type:     notification.JobHostNotification,
			EntityID: "booking-1",
		})

		assert.NoError(t, err)
	})

	t.Run("payment confirmation renders from the payment", func(t *testing.T) {
		worker, m := newWorker(t)

		m.paymentRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(paymentModel.Payment{
				ID:            "payment-1",
				BookingID:     "booking-1",
				Amount:        500,
				Currency:      "ETB",
				Reference:     "RST-booking-1",
				CustomerEmail: "guest@example.com",
			}, nil)

		m.sender.EXPECT().
			Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, email notification.Email) error {
				assert.Equal(t, "guest@example.com", email.To)
				assert.Contains(t, email.Body, "500.00 ETB")
				assert.Contains(t, email.Body, "RST-booking-1")

				return nil
			})

		err := worker.Process(context.Background(), notification.Job{
			Type:     notification.JobPaymentConfirmation,
			EntityID: "payment-1",
		})

		assert.NoError(t, err)
	})

	t.Run("missing entity is terminal", func(t *testing.T) {
		worker, m := newWorker(t)

		m.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(bookingModel.Booking{}, nil)

		err := worker.Process(context.Background(), notification.Job{
			Type:     notification.JobBookingConfirmation,
			EntityID: "gone",
		})

		assert.NoError(t, err)
	})

	t.Run("unknown job type is dropped", func(t *testing.T) {
		worker, _ := newWorker(t)

		err := worker.Process(context.Background(), notification.Job{
			Type:     "carrier_pigeon",
			EntityID: "booking-1",
		})

		assert.NoError(t, err)
	})

	t.Run("send failure propagates for retry", func(t *testing.T) {
		worker, m := newWorker(t)

		m.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.listingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listing, nil)
		m.userRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(guest, nil)

		m.sender.EXPECT().
			Send(gomock.Any(), gomock.Any()).
			Return(errors.New("smtp: connection refused"))

		err := worker.Process(context.Background(), notification.Job{
			Type:     notification.JobBookingConfirmation,
			EntityID: "booking-1",
		})

		assert.Error(t, err)
	})
}

func TestWorker_ExpireStaleBookings(t *testing.T) {
	worker, m := newWorker(t)

	stale := []bookingModel.Booking{
		{ID: "booking-old-1", Status: bookingModel.StatusPaymentPending},
		{ID: "booking-old-2", Status: bookingModel.StatusPaymentPending},
	}

	m.bookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(stale, nil)

	m.bookingRepo.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, updates map[string]any, _ any) error {
			assert.Equal(t, bookingModel.StatusCancelled, updates[bookingModel.FieldStatus])

			return nil
		}).
		Times(2)

	m.paymentRepo.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, updates map[string]any, _ any) error {
			assert.Equal(t, paymentModel.StatusCancelled, updates[paymentModel.FieldStatus])

			return nil
		}).
		Times(2)

	m.dispatcher.EXPECT().
		Schedule(gomock.Any(), notification.JobBookingCancellation, "booking-old-1").
		Return(nil)

	m.dispatcher.EXPECT().
		Schedule(gomock.Any(), notification.JobBookingCancellation, "booking-old-2").
		Return(nil)

	assert.NoError(t, worker.ExpireStaleBookings(context.Background()))
}

func TestWorker_ExpireStaleBookings_ContinuesOnUpdateFailure(t *testing.T) {
	worker, m := newWorker(t)

	stale := []bookingModel.Booking{
		{ID: "booking-old-1", Status: bookingModel.StatusPaymentPending},
		{ID: "booking-old-2", Status: bookingModel.StatusPaymentPending},
	}

	m.bookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(stale, nil)

	first := m.bookingRepo.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("deadlock detected"))

	m.bookingRepo.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		After(first)

	m.paymentRepo.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	m.dispatcher.EXPECT().
		Schedule(gomock.Any(), notification.JobBookingCancellation, "booking-old-2").
		Return(nil)

	assert.NoError(t, worker.ExpireStaleBookings(context.Background()))
}

func TestWorker_SendCheckInReminders(t *testing.T) {
	worker, m := newWorker(t)

	tomorrow := timezone.Now().Truncate(24 * time.Hour).Add(24 * time.Hour)

	upcoming := []bookingModel.Booking{
		{ID: "booking-1", Status: bookingModel.StatusConfirmed, CheckInDate: tomorrow},
		{ID: "booking-2", Status: bookingModel.StatusConfirmed, CheckInDate: tomorrow.Add(6 * time.Hour)},
	}

	m.bookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(upcoming, nil)

	m.dispatcher.EXPECT().
		Schedule(gomock.Any(), notification.JobBookingReminder, "booking-1").
		Return(nil)

	m.dispatcher.EXPECT().
		Schedule(gomock.Any(), notification.JobBookingReminder, "booking-2").
		Return(nil)

	assert.NoError(t, worker.SendCheckInReminders(context.Background()))
}
