package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/apperr"
)

// PostgresRideRepository implements domain.RideRepository
type PostgresRideRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRideRepository creates a new PostgreSQL repository
func NewPostgresRideRepository(db *pgxpool.Pool) *PostgresRideRepository {
	return &PostgresRideRepository{
		db: db,
	}
}

const rideColumns = `
	id, driver_id, origin, destination, departure_time, price, status,
	available_seats, max_passengers, passengers,
	COALESCE(campus_location, ''), COALESCE(building_name, ''),
	COALESCE(schedule_type, ''), recurring_days,
	COALESCE(vehicle_type, ''), COALESCE(vehicle_number, ''),
	is_carpool, preferred_departments, COALESCE(notes, ''),
	version, created_at, updated_at`

// Save persists a new ride
func (r *PostgresRideRepository) Save(ctx context.Context, ride *domain.Ride) error {
	details := ride.Details()
	_, err := r.db.Exec(ctx, `
		INSERT INTO rides (
			id, driver_id, origin, destination, departure_time, price, status,
			available_seats, max_passengers, passengers,
			campus_location, building_name, schedule_type, recurring_days,
			vehicle_type, vehicle_number, is_carpool, preferred_departments, notes,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18, $19,
			$20, $21, $22
		)
	`,
		ride.ID(),
		ride.DriverID(),
		ride.Origin(),
		ride.Destination(),
		ride.DepartureTime(),
		ride.Price(),
		ride.Status().String(),
		ride.AvailableSeats(),
		ride.MaxPassengers(),
		ride.Passengers(),
		details.CampusLocation,
		details.BuildingName,
		details.ScheduleType,
		details.RecurringDays,
		details.VehicleType,
		details.VehicleNumber,
		details.IsCarpool,
		details.PreferredDepartments,
		details.Notes,
		ride.Version(),
		ride.CreatedAt(),
		ride.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("insert ride: %w", err)
	}
	return nil
}

// Update conditionally writes the mutable ride state against the version it
// was read at. A zero row count means a concurrent writer won the race.
func (r *PostgresRideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE rides
		SET
			status = $1,
			available_seats = $2,
			passengers = $3,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $4 AND version = $5
	`,
		ride.Status().String(),
		ride.AvailableSeats(),
		ride.Passengers(),
		ride.ID(),
		ride.Version(),
	)
	if err != nil {
		return fmt.Errorf("update ride: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

// FindByID retrieves a ride by its ID
func (r *PostgresRideRepository) FindByID(ctx context.Context, rideID string) (*domain.Ride, error) {
	row := r.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, rideID)
	ride, err := scanRide(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("ride not found")
		}
		return nil, fmt.Errorf("query ride: %w", err)
	}
	return ride, nil
}

// Search returns one page of rides matching the (already normalized) query
// plus the total count computed over the same predicate.
func (r *PostgresRideRepository) Search(ctx context.Context, q domain.SearchQuery) ([]*domain.Ride, int64, error) {
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Origin != "" {
		conds = append(conds, "origin ILIKE "+arg("%"+q.Origin+"%"))
	}
	if q.Destination != "" {
		conds = append(conds, "destination ILIKE "+arg("%"+q.Destination+"%"))
	}
	if q.DepartFrom != nil {
		conds = append(conds, "departure_time >= "+arg(*q.DepartFrom))
	}
	if q.DepartTo != nil {
		conds = append(conds, "departure_time <= "+arg(*q.DepartTo))
	}
	if q.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*q.MaxPrice))
	}
	if q.MinSeats != nil {
		conds = append(conds, "available_seats >= "+arg(*q.MinSeats))
	} else if !q.IncludeFull {
		conds = append(conds, "available_seats > 0")
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			statuses = append(statuses, s.String())
		}
		conds = append(conds, "status = ANY("+arg(statuses)+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM rides"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rides: %w", err)
	}

	// SortBy comes from the domain whitelist, never straight from a request.
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	query := fmt.Sprintf(
		"SELECT %s FROM rides%s ORDER BY %s %s LIMIT %s OFFSET %s",
		rideColumns, where, q.SortBy, dir,
		arg(q.PageSize), arg(q.Page*q.PageSize),
	)

	rides, err := r.queryRides(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

// FindByUser lists rides the user drives or rides in
func (r *PostgresRideRepository) FindByUser(ctx context.Context, userID string, asDriver bool, statuses []domain.RideStatus, page domain.Page) ([]*domain.Ride, int64, error) {
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if asDriver {
		conds = append(conds, "driver_id = "+arg(userID))
	} else {
		conds = append(conds, arg(userID)+" = ANY(passengers)")
	}
	if len(statuses) > 0 {
		ss := make([]string, 0, len(statuses))
		for _, s := range statuses {
			ss = append(ss, s.String())
		}
		conds = append(conds, "status = ANY("+arg(ss)+")")
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM rides"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count user rides: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM rides%s ORDER BY departure_time DESC LIMIT %s OFFSET %s",
		rideColumns, where,
		arg(page.Size), arg(page.Number*page.Size),
	)

	rides, err := r.queryRides(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

// FindDepartingBetween returns SCHEDULED rides departing in [from, to)
func (r *PostgresRideRepository) FindDepartingBetween(ctx context.Context, from, to time.Time) ([]*domain.Ride, error) {
	return r.queryRides(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE status = 'SCHEDULED' AND departure_time >= $1 AND departure_time < $2
		ORDER BY departure_time
	`, from, to)
}

// FindStaleInProgress returns IN_PROGRESS rides that departed before the cutoff
func (r *PostgresRideRepository) FindStaleInProgress(ctx context.Context, departedBefore time.Time) ([]*domain.Ride, error) {
	return r.queryRides(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE status = 'IN_PROGRESS' AND departure_time < $1
		ORDER BY departure_time
	`, departedBefore)
}

// DeleteTerminalBefore permanently removes old terminal-state rides
func (r *PostgresRideRepository) DeleteTerminalBefore(ctx context.Context, departedBefore time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM rides
		WHERE status IN ('COMPLETED', 'CANCELLED') AND departure_time < $1
	`, departedBefore)
	if err != nil {
		return 0, fmt.Errorf("delete old rides: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRideRepository) queryRides(ctx context.Context, query string, args ...interface{}) ([]*domain.Ride, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rides: %w", err)
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rides: %w", err)
	}
	return rides, nil
}

func scanRide(row pgx.Row) (*domain.Ride, error) {
	var (
		id             string
		driverID       string
		origin         string
		destination    string
		departureTime  time.Time
		price          float64
		status         string
		availableSeats int
		maxPassengers  int
		passengers     []string
		details        domain.RideDetails
		version        int64
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&id, &driverID, &origin, &destination, &departureTime, &price, &status,
		&availableSeats, &maxPassengers, &passengers,
		&details.CampusLocation, &details.BuildingName,
		&details.ScheduleType, &details.RecurringDays,
		&details.VehicleType, &details.VehicleNumber,
		&details.IsCarpool, &details.PreferredDepartments, &details.Notes,
		&version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if passengers == nil {
		passengers = []string{}
	}

	return domain.ReconstructRide(
		id,
		driverID,
		origin,
		destination,
		departureTime,
		price,
		domain.RideStatus(status),
		availableSeats,
		maxPassengers,
		passengers,
		details,
		version,
		createdAt,
		updatedAt,
	), nil
}
