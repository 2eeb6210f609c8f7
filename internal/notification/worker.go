package notification

import (
	"context"
	"fmt"
	"roamstay/config"
	"roamstay/infras/kafka"
	"roamstay/infras/otel"
	bookingModel "roamstay/internal/domains/booking/model"
	bookingRepo "roamstay/internal/domains/booking/repository"
	listingModel "roamstay/internal/domains/listing/model"
	listingRepo "roamstay/internal/domains/listing/repository"
	paymentModel "roamstay/internal/domains/payment/model"
	paymentRepo "roamstay/internal/domains/payment/repository"
	userModel "roamstay/internal/domains/user/model"
	userRepo "roamstay/internal/domains/user/repository"
	"roamstay/shared"
	"roamstay/shared/constant"
	gDto "roamstay/shared/dto"
	"roamstay/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
)

const sweepBatchLimit = 100

// Worker consumes notification jobs from Kafka, renders the emails, and runs
// the periodic sweeps (stale booking expiry, check-in reminders).
type Worker struct {
	client      kafka.Client
	dispatcher  Dispatcher
	sender      Sender
	bookingRepo bookingRepo.Booking
	paymentRepo paymentRepo.Payment
	listingRepo listingRepo.Listing
	userRepo    userRepo.User
	cfg         *config.Config
	otel        otel.Otel
}

func NewWorker(
	client kafka.Client,
	dispatcher Dispatcher,
	sender Sender,
	bookingRepo bookingRepo.Booking,
	paymentRepo paymentRepo.Payment,
	listingRepo listingRepo.Listing,
	userRepo userRepo.User,
	cfg *config.Config,
	otel otel.Otel,
) *Worker {
	return &Worker{
		client:      client,
		dispatcher:  dispatcher,
		sender:      sender,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		cfg:         cfg,
		otel:        otel,
	}
}

// Run blocks consuming the notifications topic until the context is done.
func (w *Worker) Run(ctx context.Context) {
	w.client.Consume(ctx, w.cfg.Kafka.ConsumerGroup, w.cfg.Kafka.Topics.Notifications, func(message kafkaGo.Message) {
		decoded, err := kafka.DecodeKafkaMessage[Job](message)
		if err != nil {
			log.Error().Err(err).Msg("failed to decode notification job, dropping")

			return
		}

		job, _ := decoded.Value.(Job)

		if err := w.Process(ctx, job); err != nil {
			w.retry(ctx, job, err)
		}
	})
}

// Process executes one job. A missing entity is terminal: the email can never
// be rendered, so retrying is pointless.
func (w *Worker) Process(ctx context.Context, job Job) (err error) {
	ctx, scope := w.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".Process")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttributes(map[string]any{
		"job.type":      job.Type,
		"job.entity_id": job.EntityID,
		"job.attempt":   job.Attempt,
	})

	if wait := time.Until(job.ScheduledAt); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err() // nolint:wrapcheck
		case <-time.After(wait):
		}
	}

	var (
		email Email
		found bool
	)

	switch job.Type {
	case JobPaymentConfirmation:
		email, found, err = w.paymentConfirmationEmail(ctx, job.EntityID)
	case JobBookingConfirmation, JobBookingCancellation, JobHostNotification, JobBookingReminder:
		email, found, err = w.bookingEmail(ctx, job.Type, job.EntityID)
	default:
		log.Warn().Str("type", job.Type).Msg("unknown notification job type, dropping")

		return nil
	}

	if err != nil {
		return err
	}

	if !found {
		log.Warn().Str("type", job.Type).Str("entity_id", job.EntityID).Msg("notification entity no longer exists, dropping job")

		return nil
	}

	if err = w.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send %s email: %w", job.Type, err)
	}

	log.Info().Str("type", job.Type).Str("entity_id", job.EntityID).Msg("notification sent")

	return nil
}

// retry republishes the failed job with a backoff until the attempt budget is
// spent.
func (w *Worker) retry(ctx context.Context, job Job, cause error) {
	if job.Attempt+1 >= w.cfg.Notification.MaxRetries {
		log.Error().Err(cause).
			Str("type", job.Type).
			Str("entity_id", job.EntityID).
			Int("attempts", job.Attempt+1).
			Msg("notification job exhausted retries, giving up")

		return
	}

	job.Attempt++
	job.ScheduledAt = timezone.Now().Add(time.Duration(w.cfg.Notification.RetryBackoffSeconds) * time.Second)

	message := kafka.Message{
		Key:   job.EntityID,
		Value: job,
	}

	if err := w.client.SendMessages(ctx, w.cfg.Kafka.Topics.Notifications, message); err != nil {
		log.Error().Err(err).Str("type", job.Type).Str("entity_id", job.EntityID).Msg("failed to requeue notification job")
	}
}

func (w *Worker) bookingEmail(ctx context.Context, jobType, bookingID string) (email Email, found bool, err error) {
	booking, err := w.bookingRepo.Get(ctx, shared.FilterByID(bookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		return email, false, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return email, false, nil
	}

	listing, err := w.listingRepo.Get(ctx, shared.FilterByID(booking.ListingID, listingModel.FieldID, listingModel.TableName))
	if err != nil {
		return email, false, fmt.Errorf("failed to get listing: %w", err)
	}

	recipientID := booking.UserID
	if jobType == JobHostNotification {
		recipientID = listing.HostID
	}

	recipient, err := w.userRepo.Get(ctx, shared.FilterByID(recipientID, userModel.FieldID, userModel.TableName))
	if err != nil {
		return email, false, fmt.Errorf("failed to get recipient: %w", err)
	}

	if recipient.ID == constant.Empty {
		return email, false, nil
	}

	email = renderBookingEmail(jobType, recipient.Email, booking, listing)

	return email, true, nil
}

func (w *Worker) paymentConfirmationEmail(ctx context.Context, paymentID string) (email Email, found bool, err error) {
	payment, err := w.paymentRepo.Get(ctx, shared.FilterByID(paymentID, paymentModel.FieldID, paymentModel.TableName))
	if err != nil {
		return email, false, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.ID == constant.Empty {
		return email, false, nil
	}

	email = Email{
		To:      payment.CustomerEmail,
		Subject: "Payment received",
		Body: fmt.Sprintf(
			"Hello,\n\nWe have received your payment of %.2f %s (reference %s) for booking %s.\n\nThank you for booking with us.",
			payment.Amount, payment.Currency, payment.Reference, payment.BookingID,
		),
	}

	return email, true, nil
}

func renderBookingEmail(jobType, to string, booking bookingModel.Booking, listing listingModel.Listing) Email {
	checkIn := booking.CheckInDate.Format("2006-01-02")
	checkOut := booking.CheckOutDate.Format("2006-01-02")

	switch jobType {
	case JobBookingCancellation:
		return Email{
			To:      to,
			Subject: "Booking cancelled",
			Body: fmt.Sprintf(
				"Hello,\n\nYour booking at %s (%s to %s) has been cancelled.\n\nIf this was not you, please contact support.",
				listing.Name, checkIn, checkOut,
			),
		}
	case JobHostNotification:
		return Email{
			To:      to,
			Subject: "New booking for " + listing.Name,
			Body: fmt.Sprintf(
				"Hello,\n\nYour listing %s has a new booking from %s to %s for %d guest(s).\n\nTotal: %.2f.",
				listing.Name, checkIn, checkOut, booking.Guests, booking.TotalPrice,
			),
		}
	case JobBookingReminder:
		return Email{
			To:      to,
			Subject: "Your stay at " + listing.Name + " starts tomorrow",
			Body: fmt.Sprintf(
				"Hello,\n\nA reminder that your stay at %s begins on %s.\n\nWe wish you a pleasant trip.",
				listing.Name, checkIn,
			),
		}
	default:
		return Email{
			To:      to,
			Subject: "Booking received",
			Body: fmt.Sprintf(
				"Hello,\n\nYour booking at %s from %s to %s for %d guest(s) has been received.\nTotal: %.2f. Current status: %s.",
				listing.Name, checkIn, checkOut, booking.Guests, booking.TotalPrice, booking.Status,
			),
		}
	}
}

// ExpireStaleBookings cancels payment_pending bookings older than the
// configured TTL and releases their in-flight payments.
func (w *Worker) ExpireStaleBookings(ctx context.Context) (err error) {
	ctx, scope := w.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".ExpireStaleBookings")
	defer scope.End()
	defer scope.TraceIfError(err)

	cutoff := timezone.Now().Add(-time.Duration(w.cfg.Notification.PendingBookingTTL) * time.Hour)

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: bookingModel.FieldStatus, Value: bookingModel.StatusPaymentPending, Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName},
			gDto.Filter{Field: constant.FieldCreatedAt, Value: cutoff, Operator: gDto.FilterOperatorLessEq, Table: bookingModel.TableName},
		},
	}

	params := gDto.QueryParams{Page: 1, Limit: sweepBatchLimit, SortBy: constant.FieldCreatedAt, SortDir: gDto.SortDirAsc}

	stale, err := w.bookingRepo.GetAll(ctx, params, filter)
	if err != nil {
		return fmt.Errorf("failed to list stale bookings: %w", err)
	}

	for _, booking := range stale {
		updates := map[string]any{
			bookingModel.FieldStatus: bookingModel.StatusCancelled,
			constant.FieldModifiedAt: timezone.Now(),
		}

		if err := w.bookingRepo.Update(ctx, updates, shared.FilterByID(booking.ID, bookingModel.FieldID, bookingModel.TableName)); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to expire stale booking")

			continue
		}

		w.releasePayment(ctx, booking.ID)

		if err := w.dispatcher.Schedule(ctx, JobBookingCancellation, booking.ID); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to schedule cancellation email")
		}

		log.Info().Str("booking_id", booking.ID).Msg("expired stale payment_pending booking")
	}

	return nil
}

func (w *Worker) releasePayment(ctx context.Context, bookingID string) {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: paymentModel.FieldBookingID, Value: bookingID, Operator: gDto.FilterOperatorEq, Table: paymentModel.TableName},
			gDto.Filter{Field: paymentModel.FieldStatus, Value: []string{paymentModel.StatusPending, paymentModel.StatusProcessing}, Operator: gDto.FilterOperatorIn, Table: paymentModel.TableName},
		},
	}

	updates := map[string]any{
		paymentModel.FieldStatus: paymentModel.StatusCancelled,
		constant.FieldModifiedAt: timezone.Now(),
	}

	if err := w.paymentRepo.Update(ctx, updates, filter); err != nil {
		log.Error().Err(err).Str("booking_id", bookingID).Msg("failed to cancel payment for expired booking")
	}
}

// SendCheckInReminders schedules a reminder for every confirmed booking whose
// stay begins tomorrow.
func (w *Worker) SendCheckInReminders(ctx context.Context) (err error) {
	ctx, scope := w.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".SendCheckInReminders")
	defer scope.End()
	defer scope.TraceIfError(err)

	tomorrow := timezone.Now().Truncate(24 * time.Hour).Add(24 * time.Hour)

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: bookingModel.FieldStatus, Value: bookingModel.StatusConfirmed, Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName},
			gDto.Filter{ArgName: "check_in_from", Field: bookingModel.FieldCheckInDate, Value: tomorrow, Operator: gDto.FilterOperatorGreaterEq, Table: bookingModel.TableName},
			gDto.Filter{ArgName: "check_in_to", Field: bookingModel.FieldCheckInDate, Value: tomorrow.Add(24*time.Hour - time.Nanosecond), Operator: gDto.FilterOperatorLessEq, Table: bookingModel.TableName},
		},
	}

	params := gDto.QueryParams{Page: 1, Limit: sweepBatchLimit, SortBy: bookingModel.FieldCheckInDate, SortDir: gDto.SortDirAsc}

	upcoming, err := w.bookingRepo.GetAll(ctx, params, filter)
	if err != nil {
		return fmt.Errorf("failed to list upcoming bookings: %w", err)
	}

	for _, booking := range upcoming {
		if err := w.dispatcher.Schedule(ctx, JobBookingReminder, booking.ID); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to schedule check-in reminder")
		}
	}

	return nil
}
