package application

import (
	"context"

	"github.com/salonflow/platform/pkg/kafka"
)

// EventPublisher is the outbound event seam. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}
