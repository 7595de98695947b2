package domain

import (
	"fmt"
	"strings"
	"time"

	"campus-rides/pkg/apperr"
)

// RideStatus represents the lifecycle state of a ride
type RideStatus string

const (
	StatusScheduled  RideStatus = "SCHEDULED"
	StatusInProgress RideStatus = "IN_PROGRESS"
	StatusCompleted  RideStatus = "COMPLETED"
	StatusCancelled  RideStatus = "CANCELLED"
)

// String returns string representation of status
func (s RideStatus) String() string {
	return string(s)
}

// IsValid checks if status is valid
func (s RideStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (s RideStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo validates a lifecycle transition. A same-state transition
// is legal so that retried status updates stay idempotent.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusScheduled:
		return next == StatusInProgress || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted
	}
	return false
}

// ParseStatus converts a string to a RideStatus, rejecting unknown values.
func ParseStatus(s string) (RideStatus, error) {
	status := RideStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", apperr.Invalid("unknown ride status %q", s)
	}
	return status, nil
}

// RideDetails carries the descriptive metadata of a ride. None of these
// fields participate in the capacity or lifecycle invariants.
type RideDetails struct {
	CampusLocation       string   `json:"campus_location,omitempty"`
	BuildingName         string   `json:"building_name,omitempty"`
	ScheduleType         string   `json:"schedule_type,omitempty"`
	RecurringDays        []string `json:"recurring_days,omitempty"`
	VehicleType          string   `json:"vehicle_type,omitempty"`
	VehicleNumber        string   `json:"vehicle_number,omitempty"`
	IsCarpool            bool     `json:"is_carpool,omitempty"`
	PreferredDepartments []string `json:"preferred_departments,omitempty"`
	Notes                string   `json:"notes,omitempty"`
}

// Ride is the core domain entity. All mutation of status, availableSeats
// and passengers goes through the methods below, which together maintain
// the capacity invariant:
//
//	availableSeats + len(passengers) == maxPassengers
//
// while the ride is in SCHEDULED or IN_PROGRESS state.
type Ride struct {
	id             string
	driverID       string
	origin         string
	destination    string
	departureTime  time.Time
	price          float64
	status         RideStatus
	availableSeats int
	maxPassengers  int
	passengers     []string
	details        RideDetails
	version        int64
	createdAt      time.Time
	updatedAt      time.Time
}

// NewRide creates a new ride in SCHEDULED state with an empty passenger set.
// A negative price is clamped to zero rather than rejected.
func NewRide(driverID, origin, destination string, departureTime time.Time, seats int, price float64, details RideDetails) (*Ride, error) {
	if driverID == "" {
		return nil, apperr.Invalid("driver is required")
	}
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return nil, apperr.Invalid("origin and destination are required")
	}
	if departureTime.IsZero() {
		return nil, apperr.Invalid("departure time is required")
	}
	if seats < 1 {
		return nil, apperr.Invalid("at least 1 seat must be offered")
	}
	if price < 0 {
		price = 0
	}

	now := time.Now()
	return &Ride{
		driverID:       driverID,
		origin:         origin,
		destination:    destination,
		departureTime:  departureTime,
		price:          price,
		status:         StatusScheduled,
		availableSeats: seats,
		maxPassengers:  seats,
		passengers:     []string{},
		details:        details,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructRide reconstructs a ride from persistence (used by repository)
func ReconstructRide(
	id string,
	driverID string,
	origin string,
	destination string,
	departureTime time.Time,
	price float64,
	status RideStatus,
	availableSeats int,
	maxPassengers int,
	passengers []string,
	details RideDetails,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Ride {
	return &Ride{
		id:             id,
		driverID:       driverID,
		origin:         origin,
		destination:    destination,
		departureTime:  departureTime,
		price:          price,
		status:         status,
		availableSeats: availableSeats,
		maxPassengers:  maxPassengers,
		passengers:     passengers,
		details:        details,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// Business methods

// Book adds a passenger and takes one seat. The precondition checks run in
// a fixed order so each failure mode surfaces as its own error.
func (r *Ride) Book(passengerID string, now time.Time) error {
	if passengerID == "" {
		return apperr.Invalid("passenger is required")
	}
	if r.status != StatusScheduled {
		return apperr.Conflict(fmt.Sprintf("ride is not bookable in current state (%s)", r.status))
	}
	if !r.departureTime.After(now) {
		return apperr.Conflict("cannot book a ride that has already departed")
	}
	if r.availableSeats <= 0 {
		return apperr.Conflict("no seats available")
	}
	if r.HasPassenger(passengerID) {
		return apperr.Conflict("you have already booked this ride")
	}
	// Second source of truth for the same capacity invariant.
	if len(r.passengers) >= r.maxPassengers {
		return apperr.Conflict("ride is full")
	}

	r.passengers = append(r.passengers, passengerID)
	r.availableSeats--
	r.updatedAt = now
	return nil
}

// CancelBooking removes a passenger at their own request and frees the seat.
func (r *Ride) CancelBooking(passengerID string) error {
	if !r.HasPassenger(passengerID) {
		return apperr.Conflict("you have not booked this ride")
	}
	r.removePassenger(passengerID)
	return nil
}

// RemovePassenger removes a passenger on behalf of the driver.
func (r *Ride) RemovePassenger(callerID, passengerID string) error {
	if callerID != r.driverID {
		return apperr.Unauthorized("you are not the driver of this ride")
	}
	if !r.HasPassenger(passengerID) {
		return apperr.Invalid("passenger is not booked on this ride")
	}
	r.removePassenger(passengerID)
	return nil
}

func (r *Ride) removePassenger(passengerID string) {
	kept := r.passengers[:0]
	for _, p := range r.passengers {
		if p != passengerID {
			kept = append(kept, p)
		}
	}
	r.passengers = kept
	r.availableSeats++
	r.updatedAt = time.Now()
}

// ChangeStatus applies a lifecycle transition. It returns changed=false for
// a same-state no-op and an InvalidRequest error naming both states for an
// illegal transition. Driver authorization is the caller's concern.
func (r *Ride) ChangeStatus(newStatus RideStatus) (changed bool, err error) {
	if !newStatus.IsValid() {
		return false, apperr.Invalid("unknown ride status %q", newStatus)
	}
	if r.status == newStatus {
		return false, nil
	}
	if !r.status.CanTransitionTo(newStatus) {
		return false, apperr.Invalid("invalid status transition from %s to %s", r.status, newStatus)
	}
	r.status = newStatus
	r.updatedAt = time.Now()
	return true, nil
}

// Query methods

// HasPassenger reports whether the user currently occupies a seat.
func (r *Ride) HasPassenger(userID string) bool {
	for _, p := range r.passengers {
		if p == userID {
			return true
		}
	}
	return false
}

// IsDriver reports whether the user is the offering driver.
func (r *Ride) IsDriver(userID string) bool {
	return userID == r.driverID
}

// Getters (encapsulation)

func (r *Ride) ID() string               { return r.id }
func (r *Ride) DriverID() string         { return r.driverID }
func (r *Ride) Origin() string           { return r.origin }
func (r *Ride) Destination() string      { return r.destination }
func (r *Ride) DepartureTime() time.Time { return r.departureTime }
func (r *Ride) Price() float64           { return r.price }
func (r *Ride) Status() RideStatus       { return r.status }
func (r *Ride) AvailableSeats() int      { return r.availableSeats }
func (r *Ride) MaxPassengers() int       { return r.maxPassengers }
func (r *Ride) Details() RideDetails     { return r.details }
func (r *Ride) Version() int64           { return r.version }
func (r *Ride) CreatedAt() time.Time     { return r.createdAt }
func (r *Ride) UpdatedAt() time.Time     { return r.updatedAt }

// Passengers returns a copy of the passenger set.
func (r *Ride) Passengers() []string {
	out := make([]string, len(r.passengers))
	copy(out, r.passengers)
	return out
}

// PassengerCount returns the number of booked passengers.
func (r *Ride) PassengerCount() int {
	return len(r.passengers)
}

// SetID sets the ride ID (used after persistence)
func (r *Ride) SetID(id string) {
	r.id = id
}
