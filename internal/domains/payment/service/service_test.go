package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"roamstay/config"
	"roamstay/infras/chapa"
	chapaMocks "roamstay/infras/chapa/mocks"
	"roamstay/infras/otel/mocks"
	bookingMocks "roamstay/internal/domains/booking/mocks"
	bookingModel "roamstay/internal/domains/booking/model"
	paymentMocks "roamstay/internal/domains/payment/mocks"
	"roamstay/internal/domains/payment/model"
	"roamstay/internal/domains/payment/model/dto"
	"roamstay/internal/domains/payment/service"
	userMocks "roamstay/internal/domains/user/mocks"
	userModel "roamstay/internal/domains/user/model"
	notificationMocks "roamstay/internal/notification/mocks"
	"roamstay/shared/constant"
	"roamstay/shared/failure"
)

type paymentServiceMocks struct {
	repo        *paymentMocks.MockPayment
	bookingRepo *bookingMocks.MockBooking
	userRepo    *userMocks.MockUser
	gateway     *chapaMocks.MockClient
	dispatcher  *notificationMocks.MockDispatcher
}

func newPaymentService(t *testing.T) (service.Payment, paymentServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := paymentServiceMocks{
		repo:        paymentMocks.NewMockPayment(ctrl),
		bookingRepo: bookingMocks.NewMockBooking(ctrl),
		userRepo:    userMocks.NewMockUser(ctrl),
		gateway:     chapaMocks.NewMockClient(ctrl),
		dispatcher:  notificationMocks.NewMockDispatcher(ctrl),
	}

	cfg := &config.Config{}
	cfg.Payment.Currency = "ETB"
	cfg.App.FrontendURL = "https://app.example.com"

	svc := service.New(m.repo, m.bookingRepo, m.userRepo, cfg, m.gateway, m.dispatcher, mocks.NewOtel())

	return svc, m
}

func stringPtr(s string) *string {
	return &s
}

func TestPaymentService_CreateAndInitiate(t *testing.T) {
	booking := bookingModel.Booking{
		ID:         "booking-1",
		UserID:     "user-1",
		TotalPrice: 750,
	}

	user := userModel.User{
		ID:       "user-1",
		Email:    "guest@example.com",
		FullName: stringPtr("Abebe Bikila"),
		Phone:    stringPtr("+251911000000"),
	}

	t.Run("successful checkout", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.userRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(user, nil)

		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(nil)

		m.gateway.EXPECT().
			Initialize(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req chapa.InitializeRequest) (chapa.InitializeResult, error) {
				assert.Equal(t, 750.0, req.Amount)
				assert.Equal(t, "ETB", req.Currency)
				assert.Equal(t, "guest@example.com", req.Email)
				assert.Equal(t, "Abebe", req.FirstName)
				assert.Equal(t, "Bikila", req.LastName)
				assert.Equal(t, "https://app.example.com/bookings/booking-1", req.ReturnURL)

				return chapa.InitializeResult{CheckoutURL: "https://checkout.chapa.co/pay/xyz"}, nil
			})

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		payment, err := svc.CreateAndInitiate(context.Background(), booking, "")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusProcessing, payment.Status)
		assert.NotNil(t, payment.CheckoutURL)
		assert.Equal(t, "https://checkout.chapa.co/pay/xyz", *payment.CheckoutURL)
		assert.Contains(t, payment.Reference, "RST-booking-")
	})

	t.Run("gateway failure is recorded on the payment", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.userRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(user, nil)

		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(nil)

		m.gateway.EXPECT().
			Initialize(gomock.Any(), gomock.Any()).
			Return(chapa.InitializeResult{}, chapa.ErrGatewayUnavailable)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		payment, err := svc.CreateAndInitiate(context.Background(), booking, "")

		assert.ErrorIs(t, err, chapa.ErrGatewayUnavailable)
		assert.Equal(t, model.StatusFailed, payment.Status)
		assert.NotNil(t, payment.FailureReason)
	})

	t.Run("reference collision regenerates once", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.userRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(user, nil)

		uniqueViolation := &pq.Error{Code: pq.ErrorCode(constant.PqErrorCodeUniqueViolation)}

		first := m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(uniqueViolation)

		var retried model.Payment
		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, payment model.Payment) error {
				retried = payment
				return nil
			}).
			After(first)

		m.gateway.EXPECT().
			Initialize(gomock.Any(), gomock.Any()).
			Return(chapa.InitializeResult{CheckoutURL: "https://checkout.chapa.co/pay/xyz"}, nil)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		_, err := svc.CreateAndInitiate(context.Background(), booking, "")

		assert.NoError(t, err)
		// the salted reference is strictly longer than the deterministic one
		assert.Greater(t, len(retried.Reference), len(model.NewReference(booking.ID, time.Now())))
	})

	t.Run("explicit phone overrides the profile phone", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.userRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(user, nil)

		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(nil)

		m.gateway.EXPECT().
			Initialize(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req chapa.InitializeRequest) (chapa.InitializeResult, error) {
				assert.Equal(t, "+251922111111", req.PhoneNumber)

				return chapa.InitializeResult{CheckoutURL: "https://checkout.chapa.co/pay/xyz"}, nil
			})

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		_, err := svc.CreateAndInitiate(context.Background(), booking, "+251922111111")

		assert.NoError(t, err)
	})
}

func TestPaymentService_Initiate(t *testing.T) {
	booking := bookingModel.Booking{ID: "booking-1", UserID: "user-1"}

	t.Run("booking not found", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.bookingRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(bookingModel.Booking{}, nil)

		_, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{BookingID: "booking-1"})

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("already paid booking is rejected", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.bookingRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(booking, nil)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Payment{ID: "payment-1", Status: model.StatusCompleted}, nil)

		_, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{BookingID: "booking-1"})

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("existing payment restarts checkout", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.bookingRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(booking, nil)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Payment{
				ID:            "payment-1",
				BookingID:     "booking-1",
				Status:        model.StatusFailed,
				Reference:     "RST-booking-1",
				CustomerEmail: "guest@example.com",
			}, nil)

		m.gateway.EXPECT().
			Initialize(gomock.Any(), gomock.Any()).
			Return(chapa.InitializeResult{CheckoutURL: "https://checkout.chapa.co/pay/retry"}, nil)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		res, err := svc.Initiate(context.Background(), dto.InitiatePaymentRequest{BookingID: "booking-1"})

		assert.NoError(t, err)
		assert.Equal(t, model.StatusProcessing, res.Status)
		assert.Equal(t, "https://checkout.chapa.co/pay/retry", res.CheckoutURL)
	})
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	storedPayment := model.Payment{
		ID:        "payment-1",
		BookingID: "booking-1",
		Status:    model.StatusProcessing,
		Reference: "RST-booking-1",
	}

	t.Run("invalid json is rejected", func(t *testing.T) {
		svc, _ := newPaymentService(t)

		err := svc.HandleWebhook(context.Background(), []byte("{not json"))

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("missing reference is rejected", func(t *testing.T) {
		svc, _ := newPaymentService(t)

		err := svc.HandleWebhook(context.Background(), []byte(`{"status":"success"}`))

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("unknown reference is swallowed", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Payment{}, nil)

		err := svc.HandleWebhook(context.Background(), []byte(`{"tx_ref":"RST-unknown"}`))

		assert.NoError(t, err)
	})

	t.Run("pushed status is never trusted", func(t *testing.T) {
		svc, m := newPaymentService(t)

		// the payload claims success but the gateway says failed
		payload := []byte(`{"tx_ref":"RST-booking-1","status":"success"}`)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(storedPayment, nil).
			Times(2)

		m.gateway.EXPECT().
			Verify(gomock.Any(), "RST-booking-1").
			Return(chapa.VerifyResult{Status: "failed", FailureReason: "declined"}, nil)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, updates map[string]any, _ any) error {
				assert.Equal(t, model.StatusFailed, updates[model.FieldStatus])
				assert.Equal(t, string(payload), updates[model.FieldWebhookData])

				return nil
			})

		m.bookingRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, updates map[string]any, _ any) error {
				assert.Equal(t, bookingModel.StatusPaymentFailed, updates[bookingModel.FieldStatus])

				return nil
			})

		err := svc.HandleWebhook(context.Background(), payload)

		assert.NoError(t, err)
	})

	t.Run("completed transition confirms booking and notifies", func(t *testing.T) {
		svc, m := newPaymentService(t)

		payload := []byte(`{"tx_ref":"RST-booking-1","status":"success"}`)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(storedPayment, nil).
			Times(2)

		m.gateway.EXPECT().
			Verify(gomock.Any(), "RST-booking-1").
			Return(chapa.VerifyResult{Status: "success", TransactionID: "txn-9", Method: "telebirr"}, nil)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		m.bookingRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		notified := make(chan struct{})
		m.dispatcher.EXPECT().
			Schedule(gomock.Any(), "payment_confirmation", "payment-1").
			DoAndReturn(func(context.Context, string, string) error {
				close(notified)
				return nil
			})

		err := svc.HandleWebhook(context.Background(), payload)

		assert.NoError(t, err)

		select {
		case <-notified:
		case <-time.After(time.Second):
			t.Fatal("payment confirmation was never scheduled")
		}
	})
}

func TestPaymentService_CancelForBooking(t *testing.T) {
	t.Run("in-flight payment is cancelled", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Payment{ID: "payment-1", Status: model.StatusProcessing}, nil)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, updates map[string]any, _ any) error {
				assert.Equal(t, model.StatusCancelled, updates[model.FieldStatus])

				return nil
			})

		assert.NoError(t, svc.CancelForBooking(context.Background(), "booking-1"))
	})

	t.Run("completed payment is left alone", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Payment{ID: "payment-1", Status: model.StatusCompleted}, nil)

		assert.NoError(t, svc.CancelForBooking(context.Background(), "booking-1"))
	})

	t.Run("no payment is a no-op", func(t *testing.T) {
		svc, m := newPaymentService(t)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Payment{}, nil)

		assert.NoError(t, svc.CancelForBooking(context.Background(), "booking-1"))
	})
}
