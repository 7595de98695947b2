package domain

import (
	"strings"
	"testing"
	"time"

	"campus-rides/pkg/apperr"
)

func newTestRide(t *testing.T, seats int) *Ride {
	t.Helper()
	ride, err := NewRide("driver-1", "North Campus", "Engineering Building", time.Now().Add(2*time.Hour), seats, 3.50, RideDetails{})
	if err != nil {
		t.Fatalf("NewRide: %v", err)
	}
	ride.SetID("ride-1")
	return ride
}

func TestNewRideValidation(t *testing.T) {
	departure := time.Now().Add(time.Hour)

	cases := []struct {
		name        string
		driver      string
		origin      string
		destination string
		departure   time.Time
		seats       int
	}{
		{"missing driver", "", "A", "B", departure, 3},
		{"missing origin", "d", "  ", "B", departure, 3},
		{"missing destination", "d", "A", "", departure, 3},
		{"zero departure", "d", "A", "B", time.Time{}, 3},
		{"zero seats", "d", "A", "B", departure, 0},
		{"negative seats", "d", "A", "B", departure, -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRide(tc.driver, tc.origin, tc.destination, tc.departure, tc.seats, 1, RideDetails{})
			if !apperr.IsKind(err, apperr.KindInvalid) {
				t.Fatalf("expected invalid error, got %v", err)
			}
		})
	}
}

func TestNewRideClampsNegativePrice(t *testing.T) {
	ride, err := NewRide("d", "A", "B", time.Now().Add(time.Hour), 2, -5, RideDetails{})
	if err != nil {
		t.Fatalf("NewRide: %v", err)
	}
	if ride.Price() != 0 {
		t.Fatalf("expected price clamped to 0, got %v", ride.Price())
	}
}

func TestBookTakesSeatAndAddsPassenger(t *testing.T) {
	ride := newTestRide(t, 2)

	if err := ride.Book("p1", time.Now()); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if ride.AvailableSeats() != 1 {
		t.Fatalf("expected 1 seat left, got %d", ride.AvailableSeats())
	}
	if !ride.HasPassenger("p1") {
		t.Fatal("expected p1 to be a passenger")
	}
	if got := ride.AvailableSeats() + ride.PassengerCount(); got != ride.MaxPassengers() {
		t.Fatalf("capacity invariant broken: seats+passengers=%d, max=%d", got, ride.MaxPassengers())
	}
}

func TestBookPreconditionOrder(t *testing.T) {
	now := time.Now()

	t.Run("empty passenger", func(t *testing.T) {
		ride := newTestRide(t, 2)
		if err := ride.Book("", now); !apperr.IsKind(err, apperr.KindInvalid) {
			t.Fatalf("expected invalid, got %v", err)
		}
	})

	t.Run("not scheduled", func(t *testing.T) {
		ride := newTestRide(t, 2)
		if _, err := ride.ChangeStatus(StatusCancelled); err != nil {
			t.Fatalf("ChangeStatus: %v", err)
		}
		err := ride.Book("p1", now)
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if !strings.Contains(err.Error(), "not bookable") {
			t.Fatalf("unexpected message: %v", err)
		}
	})

	t.Run("already departed", func(t *testing.T) {
		ride := newTestRide(t, 2)
		err := ride.Book("p1", ride.DepartureTime().Add(time.Minute))
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if !strings.Contains(err.Error(), "departed") {
			t.Fatalf("unexpected message: %v", err)
		}
	})

	t.Run("no seats", func(t *testing.T) {
		ride := newTestRide(t, 1)
		if err := ride.Book("p1", now); err != nil {
			t.Fatalf("Book: %v", err)
		}
		err := ride.Book("p2", now)
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if !strings.Contains(err.Error(), "no seats") {
			t.Fatalf("unexpected message: %v", err)
		}
	})

	t.Run("duplicate booking", func(t *testing.T) {
		ride := newTestRide(t, 2)
		if err := ride.Book("p1", now); err != nil {
			t.Fatalf("Book: %v", err)
		}
		err := ride.Book("p1", now)
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if !strings.Contains(err.Error(), "already booked") {
			t.Fatalf("unexpected message: %v", err)
		}
	})
}

func TestCancelBookingFreesSeat(t *testing.T) {
	ride := newTestRide(t, 1)
	if err := ride.Book("p1", time.Now()); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if err := ride.CancelBooking("p1"); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if ride.AvailableSeats() != 1 {
		t.Fatalf("expected seat freed, got %d", ride.AvailableSeats())
	}
	if ride.HasPassenger("p1") {
		t.Fatal("p1 should no longer be a passenger")
	}

	// Freed seat can be rebooked.
	if err := ride.Book("p2", time.Now()); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

func TestCancelBookingNotAMember(t *testing.T) {
	ride := newTestRide(t, 2)
	if err := ride.CancelBooking("stranger"); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRemovePassenger(t *testing.T) {
	ride := newTestRide(t, 2)
	if err := ride.Book("p1", time.Now()); err != nil {
		t.Fatalf("Book: %v", err)
	}

	if err := ride.RemovePassenger("not-the-driver", "p1"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := ride.RemovePassenger("driver-1", "p2"); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid for non-member, got %v", err)
	}

	if err := ride.RemovePassenger("driver-1", "p1"); err != nil {
		t.Fatalf("RemovePassenger: %v", err)
	}
	if ride.HasPassenger("p1") || ride.AvailableSeats() != 2 {
		t.Fatalf("removal did not free the seat: seats=%d", ride.AvailableSeats())
	}
}

func TestStatusTransitions(t *testing.T) {
	legal := []struct {
		from, to RideStatus
	}{
		{StatusScheduled, StatusInProgress},
		{StatusScheduled, StatusCancelled},
		{StatusInProgress, StatusCompleted},
	}
	for _, tc := range legal {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Errorf("%s -> %s should be legal", tc.from, tc.to)
		}
	}

	illegal := []struct {
		from, to RideStatus
	}{
		{StatusScheduled, StatusCompleted},
		{StatusInProgress, StatusScheduled},
		{StatusInProgress, StatusCancelled},
		{StatusCompleted, StatusScheduled},
		{StatusCompleted, StatusInProgress},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusScheduled},
		{StatusCancelled, StatusInProgress},
		{StatusCancelled, StatusCompleted},
	}
	for _, tc := range illegal {
		if tc.from.CanTransitionTo(tc.to) {
			t.Errorf("%s -> %s should be illegal", tc.from, tc.to)
		}
	}

	// Same-state transitions are always legal.
	for _, s := range []RideStatus{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled} {
		if !s.CanTransitionTo(s) {
			t.Errorf("%s -> %s should be a legal no-op", s, s)
		}
	}
}

func TestChangeStatusNoOp(t *testing.T) {
	ride := newTestRide(t, 2)
	changed, err := ride.ChangeStatus(StatusScheduled)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if changed {
		t.Fatal("same-state transition must report changed=false")
	}
}

func TestChangeStatusIllegalNamesBothStates(t *testing.T) {
	ride := newTestRide(t, 2)
	_, err := ride.ChangeStatus(StatusCompleted)
	if !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "SCHEDULED") || !strings.Contains(err.Error(), "COMPLETED") {
		t.Fatalf("error should name both states: %v", err)
	}
}

func TestChangeStatusFullLifecycle(t *testing.T) {
	ride := newTestRide(t, 2)
	for _, next := range []RideStatus{StatusInProgress, StatusCompleted} {
		changed, err := ride.ChangeStatus(next)
		if err != nil || !changed {
			t.Fatalf("transition to %s: changed=%v err=%v", next, changed, err)
		}
	}
	if !ride.Status().IsTerminal() {
		t.Fatalf("completed ride should be terminal, got %s", ride.Status())
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("in_progress")
	if err != nil || status != StatusInProgress {
		t.Fatalf("ParseStatus: %v %v", status, err)
	}
	if _, err := ParseStatus("WAITING"); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid for unknown status, got %v", err)
	}
}
