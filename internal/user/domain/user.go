package domain

import (
	"context"
	"time"
)

// User is an account holder. AverageRating and TotalRatings are derived
// fields owned exclusively by the rating aggregator; nothing else writes
// them.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FullName      string    `json:"full_name,omitempty"`
	Department    string    `json:"department,omitempty"`
	Role          string    `json:"role"`
	AverageRating float64   `json:"average_rating"`
	TotalRatings  int       `json:"total_ratings"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserRepository is the persistence port for accounts
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// UpdateRatingStats overwrites the derived reputation fields. The
	// aggregator recomputes them from the full rating set, never patches.
	UpdateRatingStats(ctx context.Context, userID string, average float64, total int) error
}
