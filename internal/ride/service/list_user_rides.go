package service

import (
	"context"
	"fmt"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/logger"
)

// ListUserRidesCommand represents the input for listing a user's rides
type ListUserRidesCommand struct {
	UserID   string
	AsDriver bool
	Statuses []domain.RideStatus
	Page     int
	PageSize int
}

// ListUserRidesUseCase lists rides the user offers or rides in
type ListUserRidesUseCase struct {
	rideRepo domain.RideRepository
	logger   logger.Logger
}

// NewListUserRidesUseCase creates a new use case instance
func NewListUserRidesUseCase(rideRepo domain.RideRepository, logger logger.Logger) *ListUserRidesUseCase {
	return &ListUserRidesUseCase{
		rideRepo: rideRepo,
		logger:   logger,
	}
}

// Execute runs the use case
func (uc *ListUserRidesUseCase) Execute(ctx context.Context, cmd ListUserRidesCommand) (*RidePageDTO, error) {
	page := domain.Page{Number: cmd.Page, Size: cmd.PageSize}
	if page.Number < 0 {
		page.Number = 0
	}
	if page.Size < 1 {
		page.Size = domain.DefaultPageSize
	}
	if page.Size > domain.MaxPageSize {
		page.Size = domain.MaxPageSize
	}

	rides, total, err := uc.rideRepo.FindByUser(ctx, cmd.UserID, cmd.AsDriver, cmd.Statuses, page)
	if err != nil {
		uc.logger.Error("list_user_rides_failed", err)
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}

	return &RidePageDTO{
		Rides:      toRideDTOs(rides),
		TotalCount: total,
		Page:       page.Number,
		PageSize:   page.Size,
	}, nil
}
