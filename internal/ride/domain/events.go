package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// RideSnapshot is the slice of ride state carried by every event. It is
// everything the notification side needs without reading the store again.
type RideSnapshot struct {
	RideID         string     `json:"ride_id"`
	DriverID       string     `json:"driver_id"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	DepartureTime  time.Time  `json:"departure_time"`
	Status         RideStatus `json:"status"`
	Passengers     []string   `json:"passengers"`
	AvailableSeats int        `json:"available_seats"`
}

// Snapshot captures the ride's current state for event payloads.
func (r *Ride) Snapshot() RideSnapshot {
	return RideSnapshot{
		RideID:         r.id,
		DriverID:       r.driverID,
		Origin:         r.origin,
		Destination:    r.destination,
		DepartureTime:  r.departureTime,
		Status:         r.status,
		Passengers:     r.Passengers(),
		AvailableSeats: r.availableSeats,
	}
}

// RideBookedEvent is raised when a passenger takes a seat
type RideBookedEvent struct {
	Ride        RideSnapshot `json:"ride"`
	PassengerID string       `json:"passenger_id"`
	BookedAt    time.Time    `json:"booked_at"`
}

func (e RideBookedEvent) EventType() string {
	return "ride.booked"
}

func (e RideBookedEvent) OccurredAt() time.Time {
	return e.BookedAt
}

// BookingCancelledEvent is raised when a passenger gives up their seat
type BookingCancelledEvent struct {
	Ride        RideSnapshot `json:"ride"`
	PassengerID string       `json:"passenger_id"`
	CancelledAt time.Time    `json:"cancelled_at"`
}

func (e BookingCancelledEvent) EventType() string {
	return "ride.booking.cancelled"
}

func (e BookingCancelledEvent) OccurredAt() time.Time {
	return e.CancelledAt
}

// PassengerRemovedEvent is raised when the driver removes a passenger
type PassengerRemovedEvent struct {
	Ride        RideSnapshot `json:"ride"`
	PassengerID string       `json:"passenger_id"`
	RemovedAt   time.Time    `json:"removed_at"`
}

func (e PassengerRemovedEvent) EventType() string {
	return "ride.passenger.removed"
}

func (e PassengerRemovedEvent) OccurredAt() time.Time {
	return e.RemovedAt
}

// RideStatusChangedEvent is raised when ride status changes
type RideStatusChangedEvent struct {
	Ride      RideSnapshot `json:"ride"`
	OldStatus RideStatus   `json:"old_status"`
	NewStatus RideStatus   `json:"new_status"`
	ChangedAt time.Time    `json:"changed_at"`
}

func (e RideStatusChangedEvent) EventType() string {
	return "ride.status.changed"
}

func (e RideStatusChangedEvent) OccurredAt() time.Time {
	return e.ChangedAt
}

// DepartureReminderEvent is raised shortly before departure, either by the
// reminder sweep or immediately when a ride goes IN_PROGRESS
type DepartureReminderEvent struct {
	Ride       RideSnapshot `json:"ride"`
	RemindedAt time.Time    `json:"reminded_at"`
}

func (e DepartureReminderEvent) EventType() string {
	return "ride.departure.reminder"
}

func (e DepartureReminderEvent) OccurredAt() time.Time {
	return e.RemindedAt
}
