package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"roamstay/config"
	"roamstay/infras/chapa"
	"roamstay/infras/otel"
	bookingModel "roamstay/internal/domains/booking/model"
	bookingRepo "roamstay/internal/domains/booking/repository"
	"roamstay/internal/domains/payment/model"
	"roamstay/internal/domains/payment/model/dto"
	"roamstay/internal/domains/payment/repository"
	userModel "roamstay/internal/domains/user/model"
	userRepo "roamstay/internal/domains/user/repository"
	"roamstay/internal/notification"
	"roamstay/shared"
	"roamstay/shared/constant"
	"roamstay/shared/failure"
	"roamstay/shared/timezone"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"
	gModel "roamstay/shared/model"

	"github.com/rs/zerolog/log"
)

type Payment interface {
	CreateAndInitiate(ctx context.Context, booking bookingModel.Booking, customerPhone string) (model.Payment, error)
	Initiate(ctx context.Context, req dto.InitiatePaymentRequest) (dto.PaymentResponse, error)
	Verify(ctx context.Context, req dto.VerifyPaymentRequest) (dto.PaymentResponse, error)
	Status(ctx context.Context, paymentID string) (dto.PaymentStatusResponse, error)
	HandleWebhook(ctx context.Context, payload []byte) error
	CancelForBooking(ctx context.Context, bookingID string) error
	GetByBooking(ctx context.Context, bookingID string) (dto.PaymentResponse, error)
}

type serviceImpl struct {
	repo        repository.Payment
	bookingRepo bookingRepo.Booking
	userRepo    userRepo.User
	cfg         *config.Config
	gateway     chapa.Client
	dispatcher  notification.Dispatcher
	otel        otel.Otel

	// applyMu serializes verify and webhook processing per payment so
	// concurrent deliveries cannot interleave their read-reconcile-write.
	// Entries are refcounted and evicted when the last holder releases.
	applyMu   map[string]*paymentLock
	applyMuMu sync.Mutex
}

type paymentLock struct {
	mu   sync.Mutex
	refs int
}

func New(
	repo repository.Payment,
	bookingRepo bookingRepo.Booking,
	userRepo userRepo.User,
	cfg *config.Config,
	gateway chapa.Client,
	dispatcher notification.Dispatcher,
	otel otel.Otel,
) Payment {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		cfg:         cfg,
		gateway:     gateway,
		dispatcher:  dispatcher,
		otel:        otel,
		applyMu:     map[string]*paymentLock{},
	}
}

func (s *serviceImpl) lockPayment(id string) (unlock func()) {
	s.applyMuMu.Lock()

	entry, ok := s.applyMu[id]
	if !ok {
		entry = &paymentLock{}
		s.applyMu[id] = entry
	}

	entry.refs++
	s.applyMuMu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		s.applyMuMu.Lock()
		defer s.applyMuMu.Unlock()

		entry.refs--
		if entry.refs == 0 {
			delete(s.applyMu, id)
		}
	}
}

// CreateAndInitiate creates the payment snapshot for a freshly created booking
// and runs the gateway checkout initialization. A gateway failure is recorded
// on the payment and returned so the booking orchestrator can mark the booking
// payment_failed; it is not a hard error for booking creation.
func (s *serviceImpl) CreateAndInitiate(ctx context.Context, booking bookingModel.Booking, customerPhone string) (payment model.Payment, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CreateAndInitiate")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.userRepo.Get(ctx, shared.FilterByID(booking.UserID, userModel.FieldID, userModel.TableName))
	if err != nil {
		return payment, fmt.Errorf("failed to get booking user: %w", err)
	}

	if user.ID == constant.Empty {
		return payment, failure.NotFound("booking user not found") // nolint:wrapcheck
	}

	phone := user.Phone
	if customerPhone != constant.Empty {
		phone = &customerPhone
	}

	payment = model.Payment{
		ID:            uuid.NewString(),
		BookingID:     booking.ID,
		Amount:        booking.TotalPrice,
		Currency:      s.cfg.Payment.Currency,
		Status:        model.StatusPending,
		Reference:     model.NewReference(booking.ID, timezone.Now()),
		CustomerEmail: user.Email,
		CustomerPhone: phone,
		CustomerName:  user.FullName,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  booking.UserID,
			ModifiedBy: booking.UserID,
		},
	}

	if err = s.insertWithReferenceRetry(ctx, &payment); err != nil {
		return payment, err
	}

	return s.startCheckout(ctx, payment)
}

// insertWithReferenceRetry inserts the payment, regenerating the reference
// once with a random suffix if the unique constraint rejects it.
func (s *serviceImpl) insertWithReferenceRetry(ctx context.Context, payment *model.Payment) error {
	err := s.repo.Insert(ctx, *payment)
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeUniqueViolation {
		log.Warn().Str("reference", payment.Reference).Msg("payment reference collision, regenerating")

		payment.Reference = model.NewReferenceWithSuffix(payment.BookingID, timezone.Now())

		if err := s.repo.Insert(ctx, *payment); err != nil {
			return fmt.Errorf("failed to create payment after reference retry: %w", err)
		}

		return nil
	}

	return fmt.Errorf("failed to create payment: %w", err)
}

func (s *serviceImpl) startCheckout(ctx context.Context, payment model.Payment) (model.Payment, error) {
	firstName, lastName := splitName(payment.CustomerName)

	req := chapa.InitializeRequest{
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Email:     payment.CustomerEmail,
		FirstName: firstName,
		LastName:  lastName,
		TxRef:     payment.Reference,
		ReturnURL: s.cfg.App.FrontendURL + "/bookings/" + payment.BookingID,
	}

	if payment.CustomerPhone != nil {
		req.PhoneNumber = *payment.CustomerPhone
	}

	result, gatewayErr := s.gateway.Initialize(ctx, req)
	if gatewayErr != nil {
		reason := gatewayErr.Error()
		payment.Status = model.StatusFailed
		payment.FailureReason = &reason

		updates := map[string]any{
			model.FieldStatus:        model.StatusFailed,
			model.FieldFailureReason: reason,
			constant.FieldModifiedAt: timezone.Now(),
		}
		if err := s.repo.Update(ctx, updates, shared.FilterByID(payment.ID, model.FieldID, model.TableName)); err != nil {
			log.Error().Err(err).Str("payment_id", payment.ID).Msg("failed to record gateway failure")
		}

		return payment, gatewayErr
	}

	payment.Status = model.StatusProcessing
	payment.CheckoutURL = &result.CheckoutURL

	updates := map[string]any{
		model.FieldStatus:        model.StatusProcessing,
		model.FieldCheckoutURL:   result.CheckoutURL,
		constant.FieldModifiedAt: timezone.Now(),
	}
	if err := s.repo.Update(ctx, updates, shared.FilterByID(payment.ID, model.FieldID, model.TableName)); err != nil {
		return payment, fmt.Errorf("failed to persist checkout url: %w", err)
	}

	return payment, nil
}

func (s *serviceImpl) Initiate(ctx context.Context, req dto.InitiatePaymentRequest) (res dto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Initiate")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.bookingRepo.Get(ctx, shared.FilterByID(req.BookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	payment, err := s.repo.Get(ctx, shared.FilterByID(req.BookingID, model.FieldBookingID, model.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.ID != constant.Empty {
		if payment.Status == model.StatusCompleted {
			return res, failure.BadRequestFromString("booking is already paid") // nolint:wrapcheck
		}

		payment, err = s.startCheckout(ctx, payment)
		if err != nil {
			log.Error().Err(err).Str("payment_id", payment.ID).Msg("gateway initialization failed")
		}

		res.FromModel(payment)

		return res, nil
	}

	payment, err = s.CreateAndInitiate(ctx, booking, req.CustomerPhone)
	if err != nil && !errors.Is(err, chapa.ErrGatewayDeclined) && !errors.Is(err, chapa.ErrGatewayUnavailable) {
		return res, err
	}

	res.FromModel(payment)

	return res, nil
}

func (s *serviceImpl) Verify(ctx context.Context, req dto.VerifyPaymentRequest) (res dto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Verify")
	defer scope.End()
	defer scope.TraceIfError(err)

	payment, err := s.repo.Get(ctx, shared.FilterByID(req.TxRef, model.FieldReference, model.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.ID == constant.Empty {
		return res, failure.NotFound("payment not found") // nolint:wrapcheck
	}

	payment, err = s.applyVerification(ctx, payment, nil)
	if err != nil {
		return res, err
	}

	res.FromModel(payment)

	return res, nil
}

// HandleWebhook processes a gateway push. The pushed status is never trusted;
// the transaction is always re-verified against the gateway. Unknown
// references are logged and swallowed so the gateway stops redelivering.
func (s *serviceImpl) HandleWebhook(ctx context.Context, payload []byte) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".HandleWebhook")
	defer scope.End()
	defer scope.TraceIfError(err)

	var parsed dto.WebhookPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		log.Warn().Err(err).Msg("webhook payload is not valid JSON")

		return failure.BadRequestFromString("invalid webhook payload") // nolint:wrapcheck
	}

	reference := parsed.TxRef
	if reference == constant.Empty {
		reference = parsed.Reference
	}

	if reference == constant.Empty {
		log.Warn().Msg("webhook payload missing transaction reference")

		return failure.BadRequestFromString("webhook payload missing tx_ref") // nolint:wrapcheck
	}

	scope.SetAttribute("payment.tx_ref", reference)

	payment, err := s.repo.Get(ctx, shared.FilterByID(reference, model.FieldReference, model.TableName))
	if err != nil {
		return fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.ID == constant.Empty {
		log.Warn().Str("tx_ref", reference).Msg("webhook for unknown payment reference, ignoring")

		return nil
	}

	if _, err = s.applyVerification(ctx, payment, payload); err != nil {
		return err
	}

	return nil
}

// applyVerification re-verifies the payment against the gateway and persists
// the reconciled state, payment row first, booking second. webhookData is
// stored when non-nil. Safe to call repeatedly.
func (s *serviceImpl) applyVerification(ctx context.Context, payment model.Payment, webhookData []byte) (model.Payment, error) {
	unlock := s.lockPayment(payment.ID)
	defer unlock()

	// Reload under the lock; a concurrent delivery may have already applied.
	payment, err := s.repo.Get(ctx, shared.FilterByID(payment.ID, model.FieldID, model.TableName))
	if err != nil {
		return payment, fmt.Errorf("failed to reload payment: %w", err)
	}

	verify, err := s.gateway.Verify(ctx, payment.Reference)
	if err != nil {
		return payment, fmt.Errorf("failed to verify payment with gateway: %w", err)
	}

	result := Reconcile(payment, verify, timezone.Now())

	updates := map[string]any{
		model.FieldStatus:        result.PaymentStatus,
		constant.FieldModifiedAt: timezone.Now(),
	}

	if result.GatewayTxnID != constant.Empty {
		updates[model.FieldGatewayTxnID] = result.GatewayTxnID
	}

	if result.Method != constant.Empty {
		updates[model.FieldMethod] = result.Method
	}

	if result.FailureReason != constant.Empty {
		updates[model.FieldFailureReason] = result.FailureReason
	}

	if result.PaymentDate != nil {
		updates[model.FieldPaymentDate] = *result.PaymentDate
	}

	if webhookData != nil {
		updates[model.FieldWebhookData] = string(webhookData)
	}

	if err := s.repo.Update(ctx, updates, shared.FilterByID(payment.ID, model.FieldID, model.TableName)); err != nil {
		return payment, fmt.Errorf("failed to persist reconciled payment: %w", err)
	}

	if result.BookingStatus != constant.Empty {
		bookingUpdates := map[string]any{
			bookingModel.FieldStatus: result.BookingStatus,
			constant.FieldModifiedAt: timezone.Now(),
		}

		filter := shared.FilterByID(payment.BookingID, bookingModel.FieldID, bookingModel.TableName)
		if err := s.bookingRepo.Update(ctx, bookingUpdates, filter); err != nil {
			return payment, fmt.Errorf("failed to persist booking status: %w", err)
		}
	}

	if result.CompletedTransition {
		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.dispatcher.Schedule(c, notification.JobPaymentConfirmation, payment.ID); err != nil {
				log.Error().Err(err).Str("payment_id", payment.ID).Msg("failed to schedule payment confirmation")
			}
		}()
	}

	payment.Status = result.PaymentStatus
	if result.Method != constant.Empty {
		payment.Method = &result.Method
	}

	if result.GatewayTxnID != constant.Empty {
		payment.GatewayTxnID = &result.GatewayTxnID
	}

	if result.FailureReason != constant.Empty {
		payment.FailureReason = &result.FailureReason
	}

	payment.PaymentDate = result.PaymentDate

	return payment, nil
}

func (s *serviceImpl) Status(ctx context.Context, paymentID string) (res dto.PaymentStatusResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Status")
	defer scope.End()
	defer scope.TraceIfError(err)

	payment, err := s.repo.Get(ctx, shared.FilterByID(paymentID, model.FieldID, model.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.ID == constant.Empty {
		return res, failure.NotFound("payment not found") // nolint:wrapcheck
	}

	if payment.InFlight() {
		refreshed, err := s.applyVerification(ctx, payment, nil)
		if err != nil {
			log.Warn().Err(err).Str("payment_id", paymentID).Msg("could not refresh payment status from gateway")
		} else {
			payment = refreshed
		}
	}

	booking, err := s.bookingRepo.Get(ctx, shared.FilterByID(payment.BookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	res = dto.PaymentStatusResponse{
		PaymentID:     payment.ID,
		BookingID:     payment.BookingID,
		Status:        payment.Status,
		BookingStatus: booking.Status,
		Reference:     payment.Reference,
	}

	return res, nil
}

// CancelForBooking cancels an in-flight payment when its booking is cancelled.
// Completed payments are left alone; refunds are a separate concern.
func (s *serviceImpl) CancelForBooking(ctx context.Context, bookingID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CancelForBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	payment, err := s.repo.Get(ctx, shared.FilterByID(bookingID, model.FieldBookingID, model.TableName))
	if err != nil {
		return fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.ID == constant.Empty || !payment.InFlight() {
		return nil
	}

	updates := map[string]any{
		model.FieldStatus:        model.StatusCancelled,
		constant.FieldModifiedAt: timezone.Now(),
	}

	if err := s.repo.Update(ctx, updates, shared.FilterByID(payment.ID, model.FieldID, model.TableName)); err != nil {
		return fmt.Errorf("failed to cancel payment: %w", err)
	}

	return nil
}

func (s *serviceImpl) GetByBooking(ctx context.Context, bookingID string) (res dto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetByBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	payment, err := s.repo.Get(ctx, shared.FilterByID(bookingID, model.FieldBookingID, model.TableName))
	if err != nil {
		return res, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.ID == constant.Empty {
		return res, failure.NotFound("payment not found") // nolint:wrapcheck
	}

	res.FromModel(payment)

	return res, nil
}

func splitName(fullName *string) (string, string) {
	if fullName == nil {
		return constant.Empty, constant.Empty
	}

	parts := strings.Fields(*fullName)
	if len(parts) == 0 {
		return constant.Empty, constant.Empty
	}

	if len(parts) == 1 {
		return parts[0], constant.Empty
	}

	return parts[0], strings.Join(parts[1:], " ")
}
