package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"roamstay/config"
	"roamstay/infras/otel/mocks"
	bookingMocks "roamstay/internal/domains/booking/mocks"
	"roamstay/internal/domains/booking/model"
	"roamstay/internal/domains/booking/model/dto"
	"roamstay/internal/domains/booking/repository"
	"roamstay/internal/domains/booking/service"
	paymentModel "roamstay/internal/domains/payment/model"
	paymentMocks "roamstay/internal/domains/payment/service/mocks"
	notificationMocks "roamstay/internal/notification/mocks"
	cacheMocks "roamstay/shared/cache/mocks"
	"roamstay/shared/constant"
	"roamstay/shared/failure"
	gModel "roamstay/shared/model"
	"roamstay/shared/timezone"
)

const dateFormat = "2006-01-02"

func futureDate(days int) string {
	return timezone.Now().AddDate(0, 0, days).Format(dateFormat)
}

func TestBookingService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockPayments := paymentMocks.NewMockPayment(ctrl)
	mockDispatcher := notificationMocks.NewMockDispatcher(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockPayments, mockDispatcher, cfg, mockCache, mockOtel)

	// The post-commit notifications and cache invalidation run on a detached
	// goroutine, so the test cannot rely on them happening before it finishes.
	mockDispatcher.EXPECT().Schedule(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	checkoutURL := "https://checkout.chapa.co/pay/abc"

	tests := []struct {
		name         string
		req          dto.CreateBookingRequest
		setupMock    func()
		wantErr      bool
		wantErrCode  int
		wantStatus   string
		wantCheckout string
	}{
		{
			name: "successful booking with checkout",
			req: dto.CreateBookingRequest{
				ListingID:    "listing-1",
				CheckInDate:  futureDate(2),
				CheckOutDate: futureDate(4),
				Guests:       2,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					InsertWithAvailabilityCheck(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, booking model.Booking) (model.Booking, error) {
						booking.TotalPrice = 500
						return booking, nil
					})

				mockPayments.EXPECT().
					CreateAndInitiate(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(paymentModel.Payment{
						ID:          "payment-1",
						Status:      paymentModel.StatusProcessing,
						Reference:   "RST-abc-123",
						CheckoutURL: &checkoutURL,
					}, nil)
			},
			wantStatus:   model.StatusPaymentPending,
			wantCheckout: checkoutURL,
		},
		{
			name: "invalid date format",
			req: dto.CreateBookingRequest{
				ListingID:    "listing-1",
				CheckInDate:  "25-08-2026",
				CheckOutDate: futureDate(4),
				Guests:       2,
			},
			setupMock:   func() {},
			wantErr:     true,
			wantErrCode: 400,
		},
		{
			name: "check out before check in",
			req: dto.CreateBookingRequest{
				ListingID:    "listing-1",
				CheckInDate:  futureDate(4),
				CheckOutDate: futureDate(2),
				Guests:       2,
			},
			setupMock:   func() {},
			wantErr:     true,
			wantErrCode: 400,
		},
		{
			name: "check in in the past",
			req: dto.CreateBookingRequest{
				ListingID:    "listing-1",
				CheckInDate:  "2020-01-01",
				CheckOutDate: "2020-01-03",
				Guests:       2,
			},
			setupMock:   func() {},
			wantErr:     true,
			wantErrCode: 400,
		},
		{
			name: "listing not found",
			req: dto.CreateBookingRequest{
				ListingID:    "missing-listing",
				CheckInDate:  futureDate(2),
				CheckOutDate: futureDate(4),
				Guests:       2,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					InsertWithAvailabilityCheck(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, repository.ErrListingNotFound)
			},
			wantErr:     true,
			wantErrCode: 404,
		},
		{
			name: "dates overlap",
			req: dto.CreateBookingRequest{
				ListingID:    "listing-1",
				CheckInDate:  futureDate(2),
				CheckOutDate: futureDate(4),
				Guests:       2,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					InsertWithAvailabilityCheck(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, repository.ErrDatesOverlap)
			},
			wantErr:     true,
			wantErrCode: 409,
		},
		{
			name: "too many guests",
			req: dto.CreateBookingRequest{
				ListingID:    "listing-1",
				CheckInDate:  futureDate(2),
				CheckOutDate: futureDate(4),
				Guests:       20,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					InsertWithAvailabilityCheck(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, repository.ErrTooManyGuests)
			},
			wantErr:     true,
			wantErrCode: 400,
		},
		{
			name: "payment initiation fails but booking survives",
			req: dto.CreateBookingRequest{
				ListingID:    "listing-1",
				CheckInDate:  futureDate(2),
				CheckOutDate: futureDate(4),
				Guests:       2,
			},
			setupMock: func() {
				mockRepo.EXPECT().
					InsertWithAvailabilityCheck(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, booking model.Booking) (model.Booking, error) {
						return booking, nil
					})

				mockPayments.EXPECT().
					CreateAndInitiate(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(paymentModel.Payment{}, errors.New("gateway unreachable"))

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantStatus: model.StatusPaymentFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")
			res, err := svc.Create(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantErrCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Booking.Status)
			assert.Equal(t, tt.wantCheckout, res.Payment.CheckoutURL)
		})
	}
}

func TestBookingService_UpdateStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockPayments := paymentMocks.NewMockPayment(ctrl)
	mockDispatcher := notificationMocks.NewMockDispatcher(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}

	svc := service.New(mockRepo, mockPayments, mockDispatcher, cfg, mockCache, mockOtel)

	mockDispatcher.EXPECT().Schedule(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	stored := func(status string) model.Booking {
		return model.Booking{
			ID:           "booking-1",
			ListingID:    "listing-1",
			UserID:       "user-1",
			CheckInDate:  timezone.Now().AddDate(0, 0, 2),
			CheckOutDate: timezone.Now().AddDate(0, 0, 4),
			Guests:       2,
			Status:       status,
			Metadata: gModel.Metadata{
				CreatedAt:  timezone.Now(),
				ModifiedAt: timezone.Now(),
			},
		}
	}

	tests := []struct {
		name        string
		newStatus   string
		setupMock   func()
		wantErr     bool
		wantErrCode int
	}{
		{
			name:      "pending to confirmed",
			newStatus: model.StatusConfirmed,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusPending), nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name:      "confirmed to cancelled releases payment",
			newStatus: model.StatusCancelled,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusConfirmed), nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				mockPayments.EXPECT().
					CancelForBooking(gomock.Any(), "booking-1").
					Return(nil)
			},
		},
		{
			name:      "same status is a no-op",
			newStatus: model.StatusConfirmed,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusConfirmed), nil)
			},
		},
		{
			name:      "completed cannot go back to pending",
			newStatus: model.StatusPending,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusCompleted), nil)
			},
			wantErr:     true,
			wantErrCode: 400,
		},
		{
			name:      "booking not found",
			newStatus: model.StatusConfirmed,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr:     true,
			wantErrCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "host-1")
			ctx = context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleHost)

			err := svc.UpdateStatus(ctx, dto.UpdateBookingStatusRequest{Status: tt.newStatus}, "booking-1")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantErrCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockPayments := paymentMocks.NewMockPayment(ctrl)
	mockDispatcher := notificationMocks.NewMockDispatcher(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}

	svc := service.New(mockRepo, mockPayments, mockDispatcher, cfg, mockCache, mockOtel)

	mockDispatcher.EXPECT().Schedule(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	stored := func(status, userID string) model.Booking {
		return model.Booking{
			ID:        "booking-1",
			ListingID: "listing-1",
			UserID:    userID,
			Status:    status,
		}
	}

	tests := []struct {
		name        string
		userID      string
		role        string
		setupMock   func()
		wantErr     bool
		wantErrCode int
	}{
		{
			name:   "owner cancels pending booking",
			userID: "user-1",
			role:   constant.RoleGuest,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusPending, "user-1"), nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				mockPayments.EXPECT().
					CancelForBooking(gomock.Any(), "booking-1").
					Return(nil)
			},
		},
		{
			name:   "completed booking cannot be cancelled",
			userID: "user-1",
			role:   constant.RoleGuest,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusCompleted, "user-1"), nil)
			},
			wantErr:     true,
			wantErrCode: 400,
		},
		{
			name:   "already cancelled",
			userID: "user-1",
			role:   constant.RoleGuest,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusCancelled, "user-1"), nil)
			},
			wantErr:     true,
			wantErrCode: 400,
		},
		{
			name:   "stranger cannot cancel",
			userID: "user-2",
			role:   constant.RoleGuest,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored(model.StatusPending, "user-1"), nil)
			},
			wantErr:     true,
			wantErrCode: 403,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, tt.userID)
			ctx = context.WithValue(ctx, constant.ContextKeyUserRole, tt.role)

			err := svc.Cancel(ctx, "booking-1")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantErrCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// goroutines scheduled during the table runs
	time.Sleep(10 * time.Millisecond)
}
