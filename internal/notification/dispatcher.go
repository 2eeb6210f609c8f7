package notification

//go:generate go run go.uber.org/mock/mockgen -source=./dispatcher.go -destination=./mocks/dispatcher_mock.go -package=mocks

import (
	"context"
	"fmt"
	"roamstay/config"
	"roamstay/infras/kafka"
	"roamstay/infras/otel"
	"roamstay/shared/constant"
	"roamstay/shared/timezone"
	"time"
)

const (
	JobBookingConfirmation = "booking_confirmation"
	JobBookingCancellation = "booking_cancellation"
	JobPaymentConfirmation = "payment_confirmation"
	JobHostNotification    = "host_notification"
	JobBookingReminder     = "booking_reminder"
)

// Job is the unit of work published to the notifications topic. EntityID is a
// booking ID for booking jobs and a payment ID for payment jobs.
type Job struct {
	Type        string    `json:"type"`
	EntityID    string    `json:"entity_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Attempt     int       `json:"attempt"`
}

type Dispatcher interface {
	Schedule(ctx context.Context, jobType, entityID string) error
}

type kafkaDispatcher struct {
	client kafka.Client
	cfg    *config.Config
	otel   otel.Otel
}

func NewDispatcher(client kafka.Client, cfg *config.Config, otel otel.Otel) Dispatcher {
	return &kafkaDispatcher{
		client: client,
		cfg:    cfg,
		otel:   otel,
	}
}

// Schedule publishes a job keyed by entity id so retries for the same entity
// land on the same partition.
func (d *kafkaDispatcher) Schedule(ctx context.Context, jobType, entityID string) (err error) {
	ctx, scope := d.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".Schedule")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttributes(map[string]any{
		"job.type":      jobType,
		"job.entity_id": entityID,
	})

	job := Job{
		Type:        jobType,
		EntityID:    entityID,
		ScheduledAt: timezone.Now(),
	}

	message := kafka.Message{
		Key:   entityID,
		Value: job,
	}

	if err = d.client.SendMessages(ctx, d.cfg.Kafka.Topics.Notifications, message); err != nil {
		return fmt.Errorf("failed to schedule %s job: %w", jobType, err)
	}

	return nil
}
