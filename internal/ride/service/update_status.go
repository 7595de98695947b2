package service

import (
	"context"
	"time"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/apperr"
	"campus-rides/pkg/logger"
)

// UpdateStatusCommand represents the input for a driver-initiated
// lifecycle transition
type UpdateStatusCommand struct {
	RideID    string
	DriverID  string
	NewStatus domain.RideStatus
}

// UpdateStatusUseCase owns the ride lifecycle transitions. The scheduler's
// reconciliation goes through ForceComplete so that both code paths share
// the exact same transition and persistence primitive.
type UpdateStatusUseCase struct {
	rideRepo       domain.RideRepository
	eventPublisher EventPublisher
	logger         logger.Logger
}

// NewUpdateStatusUseCase creates a new use case instance
func NewUpdateStatusUseCase(
	rideRepo domain.RideRepository,
	eventPublisher EventPublisher,
	logger logger.Logger,
) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{
		rideRepo:       rideRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Execute runs the driver-initiated transition
func (uc *UpdateStatusUseCase) Execute(ctx context.Context, cmd UpdateStatusCommand) (*RideDTO, error) {
	return uc.transition(ctx, cmd.RideID, cmd.NewStatus, &cmd.DriverID)
}

// ForceComplete transitions a ride to COMPLETED on behalf of the system,
// bypassing driver authorization but never transition legality. Used only
// by the daily reconciliation for abandoned IN_PROGRESS rides.
func (uc *UpdateStatusUseCase) ForceComplete(ctx context.Context, rideID string) (*RideDTO, error) {
	return uc.transition(ctx, rideID, domain.StatusCompleted, nil)
}

func (uc *UpdateStatusUseCase) transition(ctx context.Context, rideID string, newStatus domain.RideStatus, callerID *string) (*RideDTO, error) {
	var oldStatus domain.RideStatus
	var changed bool

	ride, err := mutateRide(ctx, uc.rideRepo, rideID, func(r *domain.Ride) error {
		if callerID != nil && !r.IsDriver(*callerID) {
			return apperr.Unauthorized("you are not the driver of this ride")
		}
		oldStatus = r.Status()
		var err error
		changed, err = r.ChangeStatus(newStatus)
		return err
	})
	if err != nil {
		uc.logger.WithFields(logger.LogFields{
			"ride_id": rideID,
			"status":  newStatus.String(),
		}).Error("update_status_failed", err)
		return nil, err
	}

	if !changed {
		// Idempotent same-state transition, nothing to announce.
		uc.logger.WithFields(logger.LogFields{
			"ride_id": rideID,
			"status":  newStatus.String(),
		}).Debug("update_status_noop", "Ride already in requested status")
		return toRideDTO(ride), nil
	}

	uc.logger.WithFields(logger.LogFields{
		"ride_id":    ride.ID(),
		"old_status": oldStatus.String(),
		"new_status": newStatus.String(),
	}).Info("ride_status_updated", "Ride status updated")

	now := time.Now()
	event := domain.RideStatusChangedEvent{
		Ride:      ride.Snapshot(),
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedAt: now,
	}
	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		uc.logger.WithFields(logger.LogFields{
			"ride_id": ride.ID(),
			"error":   err.Error(),
		}).Error("publish_status_event_failed", err)
	}

	// Departure starts now: remind everyone immediately, not only via the
	// scheduled sweep.
	if newStatus == domain.StatusInProgress {
		reminder := domain.DepartureReminderEvent{
			Ride:       ride.Snapshot(),
			RemindedAt: now,
		}
		if err := uc.eventPublisher.Publish(ctx, reminder); err != nil {
			uc.logger.WithFields(logger.LogFields{
				"ride_id": ride.ID(),
				"error":   err.Error(),
			}).Error("publish_reminder_event_failed", err)
		}
	}

	return toRideDTO(ride), nil
}
