package domain

import (
	"context"
	"errors"
	"time"
)

// ErrVersionConflict is returned by Update when the stored ride changed
// since it was read. Callers re-read and retry.
var ErrVersionConflict = errors.New("ride was modified concurrently")

// Page is a zero-based page window.
type Page struct {
	Number int
	Size   int
}

// RideRepository is the interface (port) for ride persistence
// This belongs in domain layer - implementation is in infrastructure
type RideRepository interface {
	// Save persists a new ride
	Save(ctx context.Context, ride *Ride) error

	// Update conditionally writes the ride against the version it was read
	// at. Returns ErrVersionConflict if a concurrent writer got there first.
	Update(ctx context.Context, ride *Ride) error

	// FindByID retrieves a ride by its ID (apperr.NotFound when absent)
	FindByID(ctx context.Context, rideID string) (*Ride, error)

	// Search returns the page of rides matching the query plus the total
	// match count over the same predicate.
	Search(ctx context.Context, q SearchQuery) ([]*Ride, int64, error)

	// FindByUser lists rides the user drives or rides in, newest departure
	// first, optionally filtered by status.
	FindByUser(ctx context.Context, userID string, asDriver bool, statuses []RideStatus, page Page) ([]*Ride, int64, error)

	// FindDepartingBetween returns SCHEDULED rides with departure time in
	// [from, to). Used by the reminder sweep.
	FindDepartingBetween(ctx context.Context, from, to time.Time) ([]*Ride, error)

	// FindStaleInProgress returns IN_PROGRESS rides that departed before
	// the cutoff. Used by the daily reconciliation.
	FindStaleInProgress(ctx context.Context, departedBefore time.Time) ([]*Ride, error)

	// DeleteTerminalBefore permanently removes COMPLETED/CANCELLED rides
	// that departed before the cutoff and returns the deleted count.
	DeleteTerminalBefore(ctx context.Context, departedBefore time.Time) (int64, error)
}
