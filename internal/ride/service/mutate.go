package service

import (
	"context"
	"errors"
	"fmt"

	"campus-rides/internal/ride/domain"
)

const maxMutationAttempts = 5

// mutateRide is the single atomic mutation primitive for a ride: re-read,
// re-validate through the mutate closure, conditional write, retry on
// version conflict. Both request handling and the scheduler go through it,
// so the capacity and transition logic lives in exactly one place.
func mutateRide(ctx context.Context, repo domain.RideRepository, rideID string, mutate func(*domain.Ride) error) (*domain.Ride, error) {
	var lastErr error
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		ride, err := repo.FindByID(ctx, rideID)
		if err != nil {
			return nil, err
		}

		if err := mutate(ride); err != nil {
			return nil, err
		}

		err = repo.Update(ctx, ride)
		if err == nil {
			return ride, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to update ride: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("ride %s: %w after %d attempts", rideID, lastErr, maxMutationAttempts)
}
