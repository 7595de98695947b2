package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/logger"
	"campus-rides/pkg/rabbitmq"
)

// RabbitEventPublisher publishes ride domain events to the ride topic
// exchange. The event type doubles as the routing key.
type RabbitEventPublisher struct {
	conn *rabbitmq.Connection
	log  logger.Logger
}

func NewRabbitEventPublisher(conn *rabbitmq.Connection, log logger.Logger) *RabbitEventPublisher {
	return &RabbitEventPublisher{
		conn: conn,
		log:  log,
	}
}

// Publish marshals the event and hands it to RabbitMQ. Delivery is
// fire-and-forget; the triggering ride mutation never blocks on it.
func (p *RabbitEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}

	if err := p.conn.Publish(ctx, rabbitmq.RideEventsExchange, event.EventType(), body); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}

	p.log.WithFields(logger.LogFields{
		"event_type": event.EventType(),
	}).Debug("event_published", "Domain event published")
	return nil
}
