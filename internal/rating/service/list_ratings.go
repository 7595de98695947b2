package service

import (
	"context"

	"campus-rides/internal/rating/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// RatingPageDTO is a page of ratings plus the total match count.
type RatingPageDTO struct {
	Ratings    []*domain.Rating `json:"ratings"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// ListRatingsUseCase serves the rating read paths.
type ListRatingsUseCase struct {
	ratingRepo domain.RatingRepository
}

func NewListRatingsUseCase(ratingRepo domain.RatingRepository) *ListRatingsUseCase {
	return &ListRatingsUseCase{ratingRepo: ratingRepo}
}

// ForRide returns all ratings attached to a ride, newest first.
func (uc *ListRatingsUseCase) ForRide(ctx context.Context, rideID string) ([]*domain.Rating, error) {
	ratings, err := uc.ratingRepo.FindByRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ratings == nil {
		ratings = []*domain.Rating{}
	}
	return ratings, nil
}

// HasRated reports whether the rater already rated the counterparty for
// this ride.
func (uc *ListRatingsUseCase) HasRated(ctx context.Context, rideID, fromUserID, toUserID string) (bool, error) {
	return uc.ratingRepo.Exists(ctx, rideID, fromUserID, toUserID)
}

// ReceivedBy returns the ratings a user has received.
func (uc *ListRatingsUseCase) ReceivedBy(ctx context.Context, userID string, page domain.Page) (*RatingPageDTO, error) {
	return uc.page(ctx, userID, page, uc.ratingRepo.FindReceivedByUser)
}

// GivenBy returns the ratings a user has submitted.
func (uc *ListRatingsUseCase) GivenBy(ctx context.Context, userID string, page domain.Page) (*RatingPageDTO, error) {
	return uc.page(ctx, userID, page, uc.ratingRepo.FindGivenByUser)
}

func (uc *ListRatingsUseCase) page(
	ctx context.Context,
	userID string,
	page domain.Page,
	find func(context.Context, string, domain.Page) ([]*domain.Rating, int64, error),
) (*RatingPageDTO, error) {
	if page.Number < 0 {
		page.Number = 0
	}
	if page.Size < 1 || page.Size > maxPageSize {
		page.Size = defaultPageSize
	}

	ratings, total, err := find(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	if ratings == nil {
		ratings = []*domain.Rating{}
	}
	return &RatingPageDTO{
		Ratings:    ratings,
		TotalCount: total,
		Page:       page.Number,
		PageSize:   page.Size,
	}, nil
}
