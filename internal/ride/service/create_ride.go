package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/logger"
)

// CreateRideCommand represents the input for offering a ride
type CreateRideCommand struct {
	DriverID      string
	Origin        string
	Destination   string
	DepartureTime time.Time
	Seats         int
	Price         float64
	Details       domain.RideDetails
}

// CreateRideUseCase handles the business workflow for offering a ride
type CreateRideUseCase struct {
	rideRepo domain.RideRepository
	logger   logger.Logger
}

// NewCreateRideUseCase creates a new use case instance
func NewCreateRideUseCase(rideRepo domain.RideRepository, logger logger.Logger) *CreateRideUseCase {
	return &CreateRideUseCase{
		rideRepo: rideRepo,
		logger:   logger,
	}
}

// Execute runs the use case
func (uc *CreateRideUseCase) Execute(ctx context.Context, cmd CreateRideCommand) (*RideDTO, error) {
	ride, err := domain.NewRide(
		cmd.DriverID,
		cmd.Origin,
		cmd.Destination,
		cmd.DepartureTime,
		cmd.Seats,
		cmd.Price,
		cmd.Details,
	)
	if err != nil {
		uc.logger.Error("create_ride_entity_failed", err)
		return nil, err
	}

	ride.SetID(uuid.NewString())

	if err := uc.rideRepo.Save(ctx, ride); err != nil {
		uc.logger.Error("save_ride_failed", err)
		return nil, fmt.Errorf("failed to save ride: %w", err)
	}

	uc.logger.WithFields(logger.LogFields{
		"ride_id": ride.ID(),
		"user_id": cmd.DriverID,
		"seats":   cmd.Seats,
	}).Info("ride_created", "Ride offered")

	return toRideDTO(ride), nil
}
