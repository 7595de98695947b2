package service

import (
	"context"
	"time"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/logger"
)

// BookRideCommand represents the input for booking a seat
type BookRideCommand struct {
	RideID      string
	PassengerID string
}

// BookRideUseCase handles the business workflow for booking a seat
type BookRideUseCase struct {
	rideRepo       domain.RideRepository
	eventPublisher EventPublisher
	logger         logger.Logger
}

// NewBookRideUseCase creates a new use case instance
func NewBookRideUseCase(
	rideRepo domain.RideRepository,
	eventPublisher EventPublisher,
	logger logger.Logger,
) *BookRideUseCase {
	return &BookRideUseCase{
		rideRepo:       rideRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Execute runs the use case
func (uc *BookRideUseCase) Execute(ctx context.Context, cmd BookRideCommand) (*RideDTO, error) {
	ride, err := mutateRide(ctx, uc.rideRepo, cmd.RideID, func(r *domain.Ride) error {
		return r.Book(cmd.PassengerID, time.Now())
	})
	if err != nil {
		uc.logger.WithFields(logger.LogFields{
			"ride_id": cmd.RideID,
			"user_id": cmd.PassengerID,
		}).Error("book_ride_failed", err)
		return nil, err
	}

	uc.logger.WithFields(logger.LogFields{
		"ride_id":         ride.ID(),
		"user_id":         cmd.PassengerID,
		"available_seats": ride.AvailableSeats(),
	}).Info("ride_booked", "Seat booked")

	event := domain.RideBookedEvent{
		Ride:        ride.Snapshot(),
		PassengerID: cmd.PassengerID,
		BookedAt:    time.Now(),
	}
	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		// Log but don't fail the request - the booking is already saved
		uc.logger.WithFields(logger.LogFields{
			"ride_id": ride.ID(),
			"error":   err.Error(),
		}).Error("publish_booked_event_failed", err)
	}

	return toRideDTO(ride), nil
}
