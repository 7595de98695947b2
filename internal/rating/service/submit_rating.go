package service

import (
	"context"

	"github.com/google/uuid"

	"campus-rides/internal/rating/domain"
	rideDomain "campus-rides/internal/ride/domain"
	userDomain "campus-rides/internal/user/domain"
	"campus-rides/pkg/apperr"
	"campus-rides/pkg/logger"
)

// SubmitRatingCommand represents the input for rating a counterparty
type SubmitRatingCommand struct {
	RideID     string
	FromUserID string
	ToUserID   string
	Score      int
	Comment    string
}

// SubmitRatingUseCase handles the business workflow for submitting a rating
// and keeping the rated user's reputation fields in sync.
type SubmitRatingUseCase struct {
	ratingRepo domain.RatingRepository
	rideRepo   rideDomain.RideRepository
	userRepo   userDomain.UserRepository
	logger     logger.Logger
}

// NewSubmitRatingUseCase creates a new use case instance
func NewSubmitRatingUseCase(
	ratingRepo domain.RatingRepository,
	rideRepo rideDomain.RideRepository,
	userRepo userDomain.UserRepository,
	logger logger.Logger,
) *SubmitRatingUseCase {
	return &SubmitRatingUseCase{
		ratingRepo: ratingRepo,
		rideRepo:   rideRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// Execute runs the use case. Eligibility is checked in a fixed order so each
// failure mode surfaces as its own error.
func (uc *SubmitRatingUseCase) Execute(ctx context.Context, cmd SubmitRatingCommand) (*domain.Rating, error) {
	rating, err := domain.NewRating(cmd.RideID, cmd.FromUserID, cmd.ToUserID, cmd.Score, cmd.Comment)
	if err != nil {
		return nil, err
	}

	ride, err := uc.rideRepo.FindByID(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.userRepo.FindByID(ctx, cmd.ToUserID); err != nil {
		return nil, err
	}

	if ride.Status() != rideDomain.StatusCompleted {
		return nil, apperr.Invalid("ratings can only be submitted for completed rides")
	}
	if err := validateDirection(ride, cmd.FromUserID, cmd.ToUserID); err != nil {
		return nil, err
	}

	exists, err := uc.ratingRepo.Exists(ctx, cmd.RideID, cmd.FromUserID, cmd.ToUserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("you have already rated this user for this ride")
	}

	rating.ID = uuid.NewString()
	if err := uc.ratingRepo.Save(ctx, rating); err != nil {
		return nil, err
	}

	// Recompute the full aggregate rather than patching it incrementally.
	average, total, err := uc.ratingRepo.StatsForUser(ctx, cmd.ToUserID)
	if err != nil {
		uc.logger.WithFields(logger.LogFields{"user_id": cmd.ToUserID}).Error("rating_stats_failed", err)
		return rating, nil
	}
	if err := uc.userRepo.UpdateRatingStats(ctx, cmd.ToUserID, average, total); err != nil {
		uc.logger.WithFields(logger.LogFields{"user_id": cmd.ToUserID}).Error("rating_stats_update_failed", err)
		return rating, nil
	}

	uc.logger.WithFields(logger.LogFields{
		"ride_id":        cmd.RideID,
		"user_id":        cmd.FromUserID,
		"rated_user_id":  cmd.ToUserID,
		"score":          cmd.Score,
		"average_rating": average,
		"total_ratings":  total,
	}).Info("rating_submitted", "Rating recorded")

	return rating, nil
}

// validateDirection checks both users participated in the ride and sit on
// opposite sides of it. Membership is evaluated against the current passenger
// set, so a passenger who cancelled before completion cannot rate or be rated.
func validateDirection(ride *rideDomain.Ride, fromUserID, toUserID string) error {
	fromIsDriver := ride.IsDriver(fromUserID)
	fromIsPassenger := ride.HasPassenger(fromUserID)
	if !fromIsDriver && !fromIsPassenger {
		return apperr.Unauthorized("you did not take part in this ride")
	}

	if fromIsDriver {
		if !ride.HasPassenger(toUserID) {
			return apperr.Invalid("drivers can only rate passengers of their ride")
		}
		return nil
	}
	if !ride.IsDriver(toUserID) {
		return apperr.Invalid("passengers can only rate the driver of their ride")
	}
	return nil
}
