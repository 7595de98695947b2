package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"campus-rides/internal/notification/service"
	ridedomain "campus-rides/internal/ride/domain"
	"campus-rides/pkg/logger"
	"campus-rides/pkg/rabbitmq"
)

// EventConsumer turns ride lifecycle events into notifications. It is the
// asynchronous half of the dispatch path: the lifecycle engine publishes and
// returns, this consumer fans out.
type EventConsumer struct {
	rabbit     *rabbitmq.Connection
	dispatcher *service.Dispatcher
	log        logger.Logger
}

func New(rabbit *rabbitmq.Connection, dispatcher *service.Dispatcher, log logger.Logger) *EventConsumer {
	return &EventConsumer{
		rabbit:     rabbit,
		dispatcher: dispatcher,
		log:        log,
	}
}

// StartConsuming subscribes to the ride events queue.
func (c *EventConsumer) StartConsuming(ctx context.Context) error {
	err := c.rabbit.Consume(rabbitmq.NotificationsQueue, func(msg amqp.Delivery) {
		if err := c.handleEvent(ctx, msg.RoutingKey, msg.Body); err != nil {
			c.log.WithFields(logger.LogFields{
				"routing_key": msg.RoutingKey,
			}).Error("handle_event_failed", err)
			msg.Nack(false, false)
			return
		}
		msg.Ack(false)
	})
	if err != nil {
		return fmt.Errorf("failed to start ride events consumer: %w", err)
	}

	c.log.Info("consumers_started", "Ride events consumer started")
	return nil
}

func (c *EventConsumer) handleEvent(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case "ride.booked":
		var event ridedomain.RideBookedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("unmarshal booked event: %w", err)
		}
		c.dispatcher.NotifyRideBooked(ctx, event.Ride, event.PassengerID)

	case "ride.booking.cancelled":
		var event ridedomain.BookingCancelledEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("unmarshal cancellation event: %w", err)
		}
		c.dispatcher.NotifyStatusChange(ctx, event.Ride)

	case "ride.passenger.removed":
		var event ridedomain.PassengerRemovedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("unmarshal removal event: %w", err)
		}
		c.dispatcher.NotifyStatusChange(ctx, event.Ride)

	case "ride.status.changed":
		var event ridedomain.RideStatusChangedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("unmarshal status event: %w", err)
		}
		c.dispatcher.NotifyStatusChange(ctx, event.Ride)

	case "ride.departure.reminder":
		var event ridedomain.DepartureReminderEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("unmarshal reminder event: %w", err)
		}
		c.dispatcher.SendDepartureReminder(ctx, event.Ride)

	default:
		// Unknown event types are acked and dropped; a new producer must
		// not wedge the queue.
		c.log.WithFields(logger.LogFields{
			"routing_key": routingKey,
		}).Debug("event_ignored", "No handler for event type")
	}

	return nil
}
