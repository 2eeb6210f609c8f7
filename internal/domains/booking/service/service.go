package service

import (
	"context"
	"errors"
	"fmt"
	"roamstay/config"
	"roamstay/infras/otel"
	"roamstay/internal/domains/booking/model"
	"roamstay/internal/domains/booking/model/dto"
	"roamstay/internal/domains/booking/repository"
	paymentService "roamstay/internal/domains/payment/service"
	"roamstay/internal/notification"
	"roamstay/shared"
	"roamstay/shared/cache"
	"roamstay/shared/constant"
	gDto "roamstay/shared/dto"
	"roamstay/shared/failure"
	"roamstay/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingCreatedResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	UpdateStatus(ctx context.Context, req dto.UpdateBookingStatusRequest, id string) error
	Cancel(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo       repository.Booking
	payments   paymentService.Payment
	dispatcher notification.Dispatcher
	cfg        *config.Config
	cache      cache.RedisCache
	otel       otel.Otel
}

func New(
	repo repository.Booking,
	payments paymentService.Payment,
	dispatcher notification.Dispatcher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:       repo,
		payments:   payments,
		dispatcher: dispatcher,
		cfg:        cfg,
		cache:      cache,
		otel:       otel,
	}
}

// Create books the listing and initiates the payment checkout in one call.
// The booking is committed before the gateway is contacted, so a gateway
// outage degrades to a payment_failed booking instead of losing the booking.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingCreatedResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := req.ToModel(user)
	if err != nil {
		return res, failure.BadRequestFromString("invalid date format, expected YYYY-MM-DD") // nolint:wrapcheck
	}

	if !booking.CheckOutDate.After(booking.CheckInDate) {
		return res, failure.BadRequestFromString("check_out_date must be after check_in_date") // nolint:wrapcheck
	}

	today := timezone.Now().Truncate(24 * time.Hour)
	if booking.CheckInDate.Before(today) {
		return res, failure.BadRequestFromString("check_in_date must not be in the past") // nolint:wrapcheck
	}

	booking, err = s.repo.InsertWithAvailabilityCheck(ctx, booking)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrListingNotFound):
			return res, failure.NotFound("listing not found") // nolint:wrapcheck
		case errors.Is(err, repository.ErrListingUnavailable), errors.Is(err, repository.ErrTooManyGuests):
			return res, failure.BadRequestFromString(err.Error()) // nolint:wrapcheck
		case errors.Is(err, repository.ErrDatesOverlap):
			return res, failure.Conflict(err.Error()) // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	scope.AddEvent("booking created")

	payment, err := s.payments.CreateAndInitiate(ctx, booking, req.CustomerPhone)
	if err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("payment initiation failed, marking booking payment_failed")

		booking.Status = model.StatusPaymentFailed

		updates := map[string]any{
			model.FieldStatus:        model.StatusPaymentFailed,
			constant.FieldModifiedAt: timezone.Now(),
		}
		if updateErr := s.repo.Update(ctx, updates, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); updateErr != nil {
			log.Error().Err(updateErr).Str("booking_id", booking.ID).Msg("failed to mark booking payment_failed")
		}
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.dispatcher.Schedule(c, notification.JobBookingConfirmation, booking.ID); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to schedule booking confirmation")
		}

		if err := s.dispatcher.Schedule(c, notification.JobHostNotification, booking.ID); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to schedule host notification")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()

	res.Booking.FromModel(booking)
	res.Payment = dto.BookingPayment{
		PaymentID: payment.ID,
		Status:    payment.Status,
		Reference: payment.Reference,
	}

	if payment.CheckoutURL != nil {
		res.Payment.CheckoutURL = *payment.CheckoutURL
	}

	if payment.FailureReason != nil {
		res.Payment.FailureReason = *payment.FailureReason
	}

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.getOwned(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

// UpdateStatus moves the booking through its status state machine. Host and
// admin only; guests cancel through Cancel instead.
func (s *serviceImpl) UpdateStatus(ctx context.Context, req dto.UpdateBookingStatusRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return failure.NotFound("booking not found") // nolint:wrapcheck
	}

	if booking.Status == req.Status {
		return nil
	}

	if !model.CanTransition(booking.Status, req.Status) {
		return failure.BadRequestFromString(fmt.Sprintf("cannot transition booking from %s to %s", booking.Status, req.Status)) // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	updates := map[string]any{
		model.FieldStatus:        req.Status,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	if err := s.repo.Update(ctx, updates, filter); err != nil {
		log.Error().Err(err).Msg("failed to update booking status")

		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if req.Status == model.StatusCancelled {
		if err := s.payments.CancelForBooking(ctx, booking.ID); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to cancel payment for booking")
		}
	}

	go func() {
		c := context.WithoutCancel(ctx)

		switch req.Status {
		case model.StatusConfirmed:
			if err := s.dispatcher.Schedule(c, notification.JobBookingConfirmation, booking.ID); err != nil {
				log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to schedule booking confirmation")
			}
		case model.StatusCancelled:
			if err := s.dispatcher.Schedule(c, notification.JobBookingCancellation, booking.ID); err != nil {
				log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to schedule booking cancellation")
			}
		}

		s.invalidate(c, booking.ID)
	}()

	return nil
}

// Cancel is the guest-facing cancellation. Completed stays have already
// happened and cancelled bookings stay cancelled.
func (s *serviceImpl) Cancel(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.getOwned(ctx, id)
	if err != nil {
		return err
	}

	switch booking.Status {
	case model.StatusCompleted:
		return failure.BadRequestFromString("completed bookings cannot be cancelled") // nolint:wrapcheck
	case model.StatusCancelled:
		return failure.BadRequestFromString("booking is already cancelled") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	updates := map[string]any{
		model.FieldStatus:        model.StatusCancelled,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	if err := s.repo.Update(ctx, updates, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to cancel booking")

		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	if err := s.payments.CancelForBooking(ctx, booking.ID); err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to cancel payment for booking")
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.dispatcher.Schedule(c, notification.JobBookingCancellation, booking.ID); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to schedule booking cancellation")
		}

		s.invalidate(c, booking.ID)
	}()

	return nil
}

// getOwned fetches the booking and enforces that the caller owns it, unless
// the caller is host or admin.
func (s *serviceImpl) getOwned(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	if booking.UserID != user && role != constant.RoleAdmin && role != constant.RoleHost {
		return booking, failure.ResourceRestrictedError // nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
		log.Error().Err(err).Msg("failed to delete booking from cache")
	}

	shared.InvalidateCaches(ctx, s.cache, cacheGetAllBooking)
	shared.InvalidateCaches(ctx, s.cache, cacheCountBooking)
}
