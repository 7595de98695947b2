package service

import (
	"context"
	"testing"

	"campus-rides/internal/ride/domain"
	"campus-rides/pkg/apperr"
)

func TestUpdateStatusDriverOnly(t *testing.T) {
	repo := newMemoryRideRepo()
	pub := &recordingPublisher{}
	seedRide(t, repo, 2)

	uc := NewUpdateStatusUseCase(repo, pub, testLogger())
	_, err := uc.Execute(context.Background(), UpdateStatusCommand{
		RideID:    "ride-1",
		DriverID:  "someone-else",
		NewStatus: domain.StatusInProgress,
	})
	if !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(pub.eventTypes()) != 0 {
		t.Fatal("rejected transition must not publish")
	}
}

func TestUpdateStatusPublishesChangeAndReminder(t *testing.T) {
	repo := newMemoryRideRepo()
	pub := &recordingPublisher{}
	seedRide(t, repo, 2)

	uc := NewUpdateStatusUseCase(repo, pub, testLogger())
	dto, err := uc.Execute(context.Background(), UpdateStatusCommand{
		RideID:    "ride-1",
		DriverID:  "driver-1",
		NewStatus: domain.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if dto.Status != "IN_PROGRESS" {
		t.Fatalf("expected IN_PROGRESS, got %s", dto.Status)
	}

	types := pub.eventTypes()
	if len(types) != 2 || types[0] != "ride.status.changed" || types[1] != "ride.departure.reminder" {
		t.Fatalf("expected status change plus reminder, got %v", types)
	}
}

func TestUpdateStatusIdempotentNoOp(t *testing.T) {
	repo := newMemoryRideRepo()
	pub := &recordingPublisher{}
	seedRide(t, repo, 2)

	uc := NewUpdateStatusUseCase(repo, pub, testLogger())
	dto, err := uc.Execute(context.Background(), UpdateStatusCommand{
		RideID:    "ride-1",
		DriverID:  "driver-1",
		NewStatus: domain.StatusScheduled,
	})
	if err != nil {
		t.Fatalf("same-state transition must succeed, got %v", err)
	}
	if dto.Status != "SCHEDULED" {
		t.Fatalf("expected SCHEDULED, got %s", dto.Status)
	}
	if len(pub.eventTypes()) != 0 {
		t.Fatal("no-op transition must not publish")
	}
}

func TestUpdateStatusIllegalTransition(t *testing.T) {
	repo := newMemoryRideRepo()
	pub := &recordingPublisher{}
	seedRide(t, repo, 2)

	uc := NewUpdateStatusUseCase(repo, pub, testLogger())
	_, err := uc.Execute(context.Background(), UpdateStatusCommand{
		RideID:    "ride-1",
		DriverID:  "driver-1",
		NewStatus: domain.StatusCompleted,
	})
	if !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestForceCompleteBypassesDriverCheckOnly(t *testing.T) {
	repo := newMemoryRideRepo()
	pub := &recordingPublisher{}
	seedRide(t, repo, 2)

	uc := NewUpdateStatusUseCase(repo, pub, testLogger())

	// SCHEDULED -> COMPLETED is still illegal even for the system.
	if _, err := uc.ForceComplete(context.Background(), "ride-1"); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}

	if _, err := uc.Execute(context.Background(), UpdateStatusCommand{
		RideID: "ride-1", DriverID: "driver-1", NewStatus: domain.StatusInProgress,
	}); err != nil {
		t.Fatalf("start ride: %v", err)
	}

	dto, err := uc.ForceComplete(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("ForceComplete: %v", err)
	}
	if dto.Status != "COMPLETED" {
		t.Fatalf("expected COMPLETED, got %s", dto.Status)
	}
}
