package service

import (
	"context"
	"sync"
	"time"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/apperr"
	"campus-rides/pkg/logger"
)

// memoryRideRepo is an in-memory RideRepository with the same conditional
// write semantics as the Postgres implementation.
type memoryRideRepo struct {
	mu    sync.Mutex
	rides map[string]*domain.Ride

	// When > 0, the next Update calls fail with ErrVersionConflict.
	forcedConflicts int
}

func newMemoryRideRepo() *memoryRideRepo {
	return &memoryRideRepo{rides: make(map[string]*domain.Ride)}
}

func copyRide(r *domain.Ride) *domain.Ride {
	return domain.ReconstructRide(
		r.ID(), r.DriverID(), r.Origin(), r.Destination(), r.DepartureTime(),
		r.Price(), r.Status(), r.AvailableSeats(), r.MaxPassengers(),
		r.Passengers(), r.Details(), r.Version(), r.CreatedAt(), r.UpdatedAt(),
	)
}

func bumpVersion(r *domain.Ride) *domain.Ride {
	return domain.ReconstructRide(
		r.ID(), r.DriverID(), r.Origin(), r.Destination(), r.DepartureTime(),
		r.Price(), r.Status(), r.AvailableSeats(), r.MaxPassengers(),
		r.Passengers(), r.Details(), r.Version()+1, r.CreatedAt(), r.UpdatedAt(),
	)
}

func (m *memoryRideRepo) Save(ctx context.Context, ride *domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID()] = copyRide(ride)
	return nil
}

func (m *memoryRideRepo) Update(ctx context.Context, ride *domain.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedConflicts > 0 {
		m.forcedConflicts--
		return domain.ErrVersionConflict
	}
	stored, ok := m.rides[ride.ID()]
	if !ok {
		return apperr.NotFound("ride not found")
	}
	if stored.Version() != ride.Version() {
		return domain.ErrVersionConflict
	}
	m.rides[ride.ID()] = bumpVersion(ride)
	return nil
}

func (m *memoryRideRepo) FindByID(ctx context.Context, rideID string) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, apperr.NotFound("ride not found")
	}
	return copyRide(ride), nil
}

func (m *memoryRideRepo) Search(ctx context.Context, q domain.SearchQuery) ([]*domain.Ride, int64, error) {
	return nil, 0, nil
}

func (m *memoryRideRepo) FindByUser(ctx context.Context, userID string, asDriver bool, statuses []domain.RideStatus, page domain.Page) ([]*domain.Ride, int64, error) {
	return nil, 0, nil
}

func (m *memoryRideRepo) FindDepartingBetween(ctx context.Context, from, to time.Time) ([]*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Ride
	for _, r := range m.rides {
		if r.Status() != domain.StatusScheduled {
			continue
		}
		d := r.DepartureTime()
		if !d.Before(from) && d.Before(to) {
			out = append(out, copyRide(r))
		}
	}
	return out, nil
}

func (m *memoryRideRepo) FindStaleInProgress(ctx context.Context, departedBefore time.Time) ([]*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Ride
	for _, r := range m.rides {
		if r.Status() == domain.StatusInProgress && r.DepartureTime().Before(departedBefore) {
			out = append(out, copyRide(r))
		}
	}
	return out, nil
}

func (m *memoryRideRepo) DeleteTerminalBefore(ctx context.Context, departedBefore time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, r := range m.rides {
		if r.Status().IsTerminal() && r.DepartureTime().Before(departedBefore) {
			delete(m.rides, id)
			deleted++
		}
	}
	return deleted, nil
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

func testLogger() logger.Logger {
	return logger.NewLogger("test")
}
