package service

import (
	"context"
	"fmt"
	"time"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/apperr"
	"campus-rides/pkg/logger"
)

// SearchRidesUseCase is the read-only filtered, paginated view over rides
type SearchRidesUseCase struct {
	rideRepo domain.RideRepository
	logger   logger.Logger
}

// NewSearchRidesUseCase creates a new use case instance
func NewSearchRidesUseCase(rideRepo domain.RideRepository, logger logger.Logger) *SearchRidesUseCase {
	return &SearchRidesUseCase{
		rideRepo: rideRepo,
		logger:   logger,
	}
}

// Execute runs the search with defaults applied
func (uc *SearchRidesUseCase) Execute(ctx context.Context, q domain.SearchQuery) (*RidePageDTO, error) {
	q = q.Normalized(time.Now())

	rides, total, err := uc.rideRepo.Search(ctx, q)
	if err != nil {
		uc.logger.Error("search_rides_failed", err)
		return nil, fmt.Errorf("failed to search rides: %w", err)
	}

	return &RidePageDTO{
		Rides:      toRideDTOs(rides),
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
	}, nil
}

// GetRideUseCase fetches a single ride by id
type GetRideUseCase struct {
	rideRepo domain.RideRepository
}

func NewGetRideUseCase(rideRepo domain.RideRepository) *GetRideUseCase {
	return &GetRideUseCase{rideRepo: rideRepo}
}

func (uc *GetRideUseCase) Execute(ctx context.Context, rideID string) (*RideDTO, error) {
	ride, err := uc.rideRepo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	return toRideDTO(ride), nil
}

// ListPassengersUseCase returns the passenger set of a ride, driver-only
type ListPassengersUseCase struct {
	rideRepo domain.RideRepository
}

func NewListPassengersUseCase(rideRepo domain.RideRepository) *ListPassengersUseCase {
	return &ListPassengersUseCase{rideRepo: rideRepo}
}

func (uc *ListPassengersUseCase) Execute(ctx context.Context, rideID, callerID string) ([]string, error) {
	ride, err := uc.rideRepo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.IsDriver(callerID) {
		return nil, apperr.Unauthorized("you are not the driver of this ride")
	}
	return ride.Passengers(), nil
}
