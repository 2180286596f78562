package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/domain/booking"
	"github.com/salonflow/platform/internal/domain/notification"
	"github.com/salonflow/platform/internal/events"
	"github.com/salonflow/platform/pkg/kafka"
)

// BookingEventConsumer listens to booking lifecycle events, records customer
// notifications and schedules reminder tasks.
type BookingEventConsumer struct {
	consumer   *kafka.Consumer
	dispatcher *Dispatcher
	tasks      *asynq.Client
	logger     *zap.Logger
}

// NewBookingEventConsumer creates a consumer for booking events.
func NewBookingEventConsumer(
	brokers []string,
	groupID string,
	dispatcher *Dispatcher,
	tasks *asynq.Client,
	logger *zap.Logger,
) *BookingEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicBookingEvents, logger)
	return &BookingEventConsumer{
		consumer:   consumer,
		dispatcher: dispatcher,
		tasks:      tasks,
		logger:     logger,
	}
}

// Start begins consuming booking events. It blocks until the context is cancelled.
func (c *BookingEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *BookingEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *BookingEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from booking topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	var event events.BookingEvent
	if err := cloudEvent.ParseData(&event); err != nil {
		c.logger.Error("failed to parse booking event data", zap.Error(err))
		return err
	}

	c.logger.Info("received booking event",
		zap.String("type", cloudEvent.Type),
		zap.String("booking_id", event.BookingID.String()),
	)

	switch {
	case strings.EqualFold(cloudEvent.Type, events.BookingConfirmed):
		return c.handleConfirmed(ctx, event)
	case strings.EqualFold(cloudEvent.Type, events.BookingCancelled):
		return c.handleCancelled(ctx, event)
	case strings.EqualFold(cloudEvent.Type, events.BookingCompleted):
		return c.handleCompleted(ctx, event)
	default:
		return nil
	}
}

func (c *BookingEventConsumer) handleConfirmed(ctx context.Context, event events.BookingEvent) error {
	subject := "Booking confirmed"
	body := fmt.Sprintf("Your appointment on %s is confirmed.", event.StartTime.Format(time.RFC1123))
	if err := c.dispatcher.Dispatch(ctx, event.CustomerID, event.BookingID, notification.KindBookingConfirmed, subject, body); err != nil {
		return err
	}

	payload := BookingTaskPayload{
		BookingID:  event.BookingID,
		CustomerID: event.CustomerID,
		StartTime:  event.StartTime,
	}
	task, opts, err := NewBookingReminderTask(payload)
	if err != nil {
		return err
	}
	if _, err := c.tasks.EnqueueContext(ctx, task, opts...); err != nil {
		c.logger.Error("failed to enqueue booking reminder",
			zap.String("booking_id", event.BookingID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (c *BookingEventConsumer) handleCancelled(ctx context.Context, event events.BookingEvent) error {
	subject := "Booking cancelled"
	body := fmt.Sprintf("Your appointment on %s was cancelled.", event.StartTime.Format(time.RFC1123))
	if event.Reason != "" {
		body += " Reason: " + event.Reason
	}
	return c.dispatcher.Dispatch(ctx, event.CustomerID, event.BookingID, notification.KindBookingCancelled, subject, body)
}

func (c *BookingEventConsumer) handleCompleted(ctx context.Context, event events.BookingEvent) error {
	payload := BookingTaskPayload{
		BookingID:  event.BookingID,
		CustomerID: event.CustomerID,
		StartTime:  event.StartTime,
	}
	task, opts, err := NewReviewPromptTask(payload)
	if err != nil {
		return err
	}
	if _, err := c.tasks.EnqueueContext(ctx, task, opts...); err != nil {
		c.logger.Error("failed to enqueue review prompt",
			zap.String("booking_id", event.BookingID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// PaymentEventConsumer listens to payment events and notifies customers about
// failed payments.
type PaymentEventConsumer struct {
	consumer   *kafka.Consumer
	dispatcher *Dispatcher
	bookings   booking.Repository
	logger     *zap.Logger
}

// NewPaymentEventConsumer creates a consumer for payment events.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	dispatcher *Dispatcher,
	bookings booking.Repository,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer:   consumer,
		dispatcher: dispatcher,
		bookings:   bookings,
		logger:     logger,
	}
}

// Start begins consuming payment events. It blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	if !strings.EqualFold(cloudEvent.Type, events.PaymentFailed) {
		return nil
	}

	var event events.PaymentEvent
	if err := cloudEvent.ParseData(&event); err != nil {
		c.logger.Error("failed to parse payment event data", zap.Error(err))
		return err
	}

	// Payment events carry the booking, not the customer; resolve it.
	b, err := c.bookings.FindByID(ctx, event.BookingID)
	if err != nil {
		c.logger.Warn("could not resolve booking for failed payment",
			zap.String("booking_id", event.BookingID.String()),
			zap.Error(err),
		)
		return nil
	}

	subject := "Payment failed"
	body := "Your payment could not be completed."
	if event.Reason != "" {
		body += " " + event.Reason
	}
	return c.dispatcher.Dispatch(ctx, b.CustomerID(), event.BookingID, notification.KindPaymentFailed, subject, body)
}
