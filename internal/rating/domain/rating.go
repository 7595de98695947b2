package domain

import (
	"context"
	"time"

	"campus-rides/pkg/apperr"
)

// Rating is one directed endorsement from a rater to a counterparty for a
// specific ride. The (RideID, FromUserID, ToUserID) triple is unique.
type Rating struct {
	ID         string    `json:"id"`
	RideID     string    `json:"ride_id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Score      int       `json:"score"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRating validates and builds a rating record.
func NewRating(rideID, fromUserID, toUserID string, score int, comment string) (*Rating, error) {
	if rideID == "" || fromUserID == "" || toUserID == "" {
		return nil, apperr.Invalid("ride, rater and rated user are required")
	}
	if fromUserID == toUserID {
		return nil, apperr.Invalid("you cannot rate yourself")
	}
	if score < 1 || score > 5 {
		return nil, apperr.Invalid("score must be between 1 and 5")
	}
	return &Rating{
		RideID:     rideID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Score:      score,
		Comment:    comment,
		CreatedAt:  time.Now(),
	}, nil
}

// Page is a zero-based page window.
type Page struct {
	Number int
	Size   int
}

// RatingRepository is the persistence port for ratings.
// Save returns apperr.Conflict for a duplicate (ride, from, to) triple.
type RatingRepository interface {
	Save(ctx context.Context, rating *Rating) error
	FindByRide(ctx context.Context, rideID string) ([]*Rating, error)
	FindReceivedByUser(ctx context.Context, userID string, page Page) ([]*Rating, int64, error)
	FindGivenByUser(ctx context.Context, userID string, page Page) ([]*Rating, int64, error)
	Exists(ctx context.Context, rideID, fromUserID, toUserID string) (bool, error)
	// StatsForUser recomputes the average score and count over the full
	// set of ratings the user has received.
	StatsForUser(ctx context.Context, userID string) (average float64, total int, err error)
}
