package service

import (
	"context"
	"time"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/logger"
)

// RemovePassengerCommand represents the input for a driver removing a
// passenger from their ride
type RemovePassengerCommand struct {
	RideID      string
	DriverID    string
	PassengerID string
}

// RemovePassengerUseCase handles the driver-initiated removal workflow
type RemovePassengerUseCase struct {
	rideRepo       domain.RideRepository
	eventPublisher EventPublisher
	logger         logger.Logger
}

// NewRemovePassengerUseCase creates a new use case instance
func NewRemovePassengerUseCase(
	rideRepo domain.RideRepository,
	eventPublisher EventPublisher,
	logger logger.Logger,
) *RemovePassengerUseCase {
	return &RemovePassengerUseCase{
		rideRepo:       rideRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Execute runs the use case
func (uc *RemovePassengerUseCase) Execute(ctx context.Context, cmd RemovePassengerCommand) (*RideDTO, error) {
	ride, err := mutateRide(ctx, uc.rideRepo, cmd.RideID, func(r *domain.Ride) error {
		return r.RemovePassenger(cmd.DriverID, cmd.PassengerID)
	})
	if err != nil {
		uc.logger.WithFields(logger.LogFields{
			"ride_id": cmd.RideID,
			"user_id": cmd.DriverID,
		}).Error("remove_passenger_failed", err)
		return nil, err
	}

	uc.logger.WithFields(logger.LogFields{
		"ride_id":         ride.ID(),
		"user_id":         cmd.PassengerID,
		"available_seats": ride.AvailableSeats(),
	}).Info("passenger_removed", "Passenger removed by driver")

	event := domain.PassengerRemovedEvent{
		Ride:        ride.Snapshot(),
		PassengerID: cmd.PassengerID,
		RemovedAt:   time.Now(),
	}
	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		uc.logger.WithFields(logger.LogFields{
			"ride_id": ride.ID(),
			"error":   err.Error(),
		}).Error("publish_removal_event_failed", err)
	}

	return toRideDTO(ride), nil
}
