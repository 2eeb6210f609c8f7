package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"roamstay/config"
	"roamstay/infras/otel/mocks"
	bookingMocks "roamstay/internal/domains/booking/mocks"
	bookingModel "roamstay/internal/domains/booking/model"
	listingMocks "roamstay/internal/domains/listing/mocks"
	reviewMocks "roamstay/internal/domains/review/mocks"
	"roamstay/internal/domains/review/model"
	"roamstay/internal/domains/review/model/dto"
	"roamstay/internal/domains/review/service"
	cacheMocks "roamstay/shared/cache/mocks"
	"roamstay/shared/constant"
	"roamstay/shared/failure"
)

func stringPtr(s string) *string {
	return &s
}

func TestReviewService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := reviewMocks.NewMockReview(ctrl)
	mockListingRepo := listingMocks.NewMockListing(ctrl)
	mockBookingRepo := bookingMocks.NewMockBooking(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}

	svc := service.New(mockRepo, mockListingRepo, mockBookingRepo, cfg, mockCache, mockOtel)

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	completedBooking := bookingModel.Booking{
		ID:        "booking-1",
		ListingID: "listing-1",
		UserID:    "user-1",
		Status:    bookingModel.StatusCompleted,
	}

	tests := []struct {
		name        string
		req         dto.CreateReviewRequest
		setupMock   func()
		wantErr     bool
		wantErrCode int
	}{
		{
			name: "successful review",
			req: dto.CreateReviewRequest{
				ListingID: "listing-1",
				Rating:    5,
				Comment:   "Great stay",
			},
			setupMock: func() {
				mockListingRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)

				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, review model.Review) error {
						assert.Equal(t, "user-1", review.UserID)
						assert.Equal(t, 5, review.Rating)

						return nil
					})
			},
		},
		{
			name: "listing not found",
			req: dto.CreateReviewRequest{
				ListingID: "missing",
				Rating:    4,
			},
			setupMock: func() {
				mockListingRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr:     true,
			wantErrCode: 404,
		},
		{
			name: "duplicate review is rejected",
			req: dto.CreateReviewRequest{
				ListingID: "listing-1",
				Rating:    4,
			},
			setupMock: func() {
				mockListingRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)
			},
			wantErr:     true,
			wantErrCode: 409,
		},
		{
			name: "booking-tied review for completed stay",
			req: dto.CreateReviewRequest{
				ListingID: "listing-1",
				BookingID: stringPtr("booking-1"),
				Rating:    5,
			},
			setupMock: func() {
				mockListingRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)

				mockBookingRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(completedBooking, nil)

				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name: "someone else's booking",
			req: dto.CreateReviewRequest{
				ListingID: "listing-1",
				BookingID: stringPtr("booking-1"),
				Rating:    5,
			},
			setupMock: func() {
				mockListingRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)

				other := completedBooking
				other.UserID = "user-2"

				mockBookingRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(other, nil)
			},
			wantErr:     true,
			wantErrCode: 403,
		},
		{
			name: "booking for a different listing",
			req: dto.CreateReviewRequest{
				ListingID: "listing-1",
				BookingID: stringPtr("booking-1"),
				Rating:    5,
			},
			setupMock: func() {
				mockListingRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)

				other := completedBooking
				other.ListingID = "listing-2"

				mockBookingRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(other, nil)
			},
			wantErr:     true,
			wantErrCode: 400,
		},
		{
			name: "stay not completed yet",
			req: dto.CreateReviewRequest{
				ListingID: "listing-1",
				BookingID: stringPtr("booking-1"),
				Rating:    5,
			},
			setupMock: func() {
				mockListingRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				mockRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)

				pending := completedBooking
				pending.Status = bookingModel.StatusConfirmed

				mockBookingRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pending, nil)
			},
			wantErr:     true,
			wantErrCode: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")
			err := svc.Create(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantErrCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReviewService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := reviewMocks.NewMockReview(ctrl)
	mockListingRepo := listingMocks.NewMockListing(ctrl)
	mockBookingRepo := bookingMocks.NewMockBooking(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}

	svc := service.New(mockRepo, mockListingRepo, mockBookingRepo, cfg, mockCache, mockOtel)

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	stored := model.Review{
		ID:        "review-1",
		ListingID: "listing-1",
		UserID:    "user-1",
		Rating:    3,
	}

	rating := 5

	tests := []struct {
		name        string
		userID      string
		role        string
		setupMock   func()
		wantErr     bool
		wantErrCode int
	}{
		{
			name:   "author updates own review",
			userID: "user-1",
			role:   constant.RoleGuest,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored, nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name:   "admin updates any review",
			userID: "admin-1",
			role:   constant.RoleAdmin,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored, nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
		},
		{
			name:   "stranger is rejected",
			userID: "user-2",
			role:   constant.RoleGuest,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(stored, nil)
			},
			wantErr:     true,
			wantErrCode: 403,
		},
		{
			name:   "review not found",
			userID: "user-1",
			role:   constant.RoleGuest,
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Review{}, nil)
			},
			wantErr:     true,
			wantErrCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, tt.userID)
			ctx = context.WithValue(ctx, constant.ContextKeyUserRole, tt.role)

			err := svc.Update(ctx, dto.UpdateReviewRequest{Rating: &rating}, "review-1")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantErrCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
