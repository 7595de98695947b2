package service

import (
	"context"
	"time"

	"campus-rides/internal/ride/domain"
)

// EventPublisher is the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
}

// RideDTO represents the output data transfer object
type RideDTO struct {
	ID             string             `json:"id"`
	DriverID       string             `json:"driver_id"`
	Origin         string             `json:"origin"`
	Destination    string             `json:"destination"`
	DepartureTime  string             `json:"departure_time"`
	Price          float64            `json:"price"`
	Status         string             `json:"status"`
	AvailableSeats int                `json:"available_seats"`
	MaxPassengers  int                `json:"max_passengers"`
	Passengers     []string           `json:"passengers"`
	Details        domain.RideDetails `json:"details"`
	CreatedAt      string             `json:"created_at"`
}

// toRideDTO converts domain entity to DTO
func toRideDTO(ride *domain.Ride) *RideDTO {
	return &RideDTO{
		ID:             ride.ID(),
		DriverID:       ride.DriverID(),
		Origin:         ride.Origin(),
		Destination:    ride.Destination(),
		DepartureTime:  ride.DepartureTime().Format(time.RFC3339),
		Price:          ride.Price(),
		Status:         ride.Status().String(),
		AvailableSeats: ride.AvailableSeats(),
		MaxPassengers:  ride.MaxPassengers(),
		Passengers:     ride.Passengers(),
		Details:        ride.Details(),
		CreatedAt:      ride.CreatedAt().Format(time.RFC3339),
	}
}

func toRideDTOs(rides []*domain.Ride) []*RideDTO {
	out := make([]*RideDTO, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideDTO(r))
	}
	return out
}

// RidePageDTO is a page of rides plus the total match count for
// pagination math.
type RidePageDTO struct {
	Rides      []*RideDTO `json:"rides"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}
