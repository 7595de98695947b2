package service

import (
	"context"
	"time"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/logger"
)

// CancelBookingCommand represents the input for giving up a seat
type CancelBookingCommand struct {
	RideID      string
	PassengerID string
}

// CancelBookingUseCase handles the business workflow for a passenger
// cancelling their own booking
type CancelBookingUseCase struct {
	rideRepo       domain.RideRepository
	eventPublisher EventPublisher
	logger         logger.Logger
}

// NewCancelBookingUseCase creates a new use case instance
func NewCancelBookingUseCase(
	rideRepo domain.RideRepository,
	eventPublisher EventPublisher,
	logger logger.Logger,
) *CancelBookingUseCase {
	return &CancelBookingUseCase{
		rideRepo:       rideRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Execute runs the use case
func (uc *CancelBookingUseCase) Execute(ctx context.Context, cmd CancelBookingCommand) (*RideDTO, error) {
	ride, err := mutateRide(ctx, uc.rideRepo, cmd.RideID, func(r *domain.Ride) error {
		return r.CancelBooking(cmd.PassengerID)
	})
	if err != nil {
		uc.logger.WithFields(logger.LogFields{
			"ride_id": cmd.RideID,
			"user_id": cmd.PassengerID,
		}).Error("cancel_booking_failed", err)
		return nil, err
	}

	uc.logger.WithFields(logger.LogFields{
		"ride_id":         ride.ID(),
		"user_id":         cmd.PassengerID,
		"available_seats": ride.AvailableSeats(),
	}).Info("booking_cancelled", "Booking cancelled")

	event := domain.BookingCancelledEvent{
		Ride:        ride.Snapshot(),
		PassengerID: cmd.PassengerID,
		CancelledAt: time.Now(),
	}
	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		uc.logger.WithFields(logger.LogFields{
			"ride_id": ride.ID(),
			"error":   err.Error(),
		}).Error("publish_cancellation_event_failed", err)
	}

	return toRideDTO(ride), nil
}
