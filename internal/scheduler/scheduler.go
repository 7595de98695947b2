package scheduler

import (
	"context"
	"sync"
	"time"

	rideDomain "campus-rides/internal/ride/domain"
	"campus-rides/internal/ride/service"
	"campus-rides/pkg/config"
	"campus-rides/pkg/logger"
)

// RideCompleter is the slice of the status use case the reconciliation
// needs. It routes through the same transition primitive as driver requests.
type RideCompleter interface {
	ForceComplete(ctx context.Context, rideID string) (*service.RideDTO, error)
}

// Scheduler runs the background maintenance jobs: the departure reminder
// sweep and the daily reconciliation.
type Scheduler struct {
	rideRepo       rideDomain.RideRepository
	completer      RideCompleter
	eventPublisher service.EventPublisher
	logger         logger.Logger

	reminderInterval   time.Duration
	reminderWindow     time.Duration
	reconciliationHour int
	staleRideAge       time.Duration
	retentionAge       time.Duration

	now func() time.Time

	mu       sync.Mutex
	reminded map[string]time.Time // ride ID -> departure time, cleared after departure
}

func NewScheduler(
	rideRepo rideDomain.RideRepository,
	completer RideCompleter,
	eventPublisher service.EventPublisher,
	cfg *config.Config,
	logger logger.Logger,
) *Scheduler {
	return &Scheduler{
		rideRepo:           rideRepo,
		completer:          completer,
		eventPublisher:     eventPublisher,
		logger:             logger,
		reminderInterval:   cfg.Scheduler.ReminderInterval,
		reminderWindow:     cfg.Scheduler.ReminderWindow,
		reconciliationHour: cfg.Scheduler.ReconciliationHour,
		staleRideAge:       cfg.Scheduler.StaleRideAge,
		retentionAge:       cfg.Scheduler.RetentionAge,
		now:                time.Now,
		reminded:           make(map[string]time.Time),
	}
}

// Start launches both job loops. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.reminderLoop(ctx)
	go s.reconciliationLoop(ctx)
	s.logger.WithFields(logger.LogFields{
		"reminder_interval":   s.reminderInterval.String(),
		"reminder_window":     s.reminderWindow.String(),
		"reconciliation_hour": s.reconciliationHour,
	}).Info("scheduler_started", "Background jobs running")
}

func (s *Scheduler) reminderLoop(ctx context.Context) {
	ticker := time.NewTicker(s.reminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunReminderSweep(ctx)
		}
	}
}

func (s *Scheduler) reconciliationLoop(ctx context.Context) {
	for {
		wait := s.untilNextReconciliation()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunReconciliation(ctx)
		}
	}
}

// untilNextReconciliation returns the time until the next occurrence of the
// configured hour, local time.
func (s *Scheduler) untilNextReconciliation() time.Duration {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.reconciliationHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// RunReminderSweep publishes a departure reminder for every scheduled ride
// departing within the reminder window. Each ride is reminded at most once
// per departure.
func (s *Scheduler) RunReminderSweep(ctx context.Context) {
	now := s.now()
	rides, err := s.rideRepo.FindDepartingBetween(ctx, now, now.Add(s.reminderWindow))
	if err != nil {
		s.logger.Error("reminder_sweep_failed", err)
		return
	}

	sent := 0
	for _, ride := range rides {
		if !s.markReminded(ride.ID(), ride.DepartureTime()) {
			continue
		}
		event := rideDomain.DepartureReminderEvent{
			Ride:       ride.Snapshot(),
			RemindedAt: now,
		}
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.WithFields(logger.LogFields{
				"ride_id": ride.ID(),
			}).Error("publish_reminder_failed", err)
			s.unmarkReminded(ride.ID())
			continue
		}
		sent++
	}

	if sent > 0 {
		s.logger.WithFields(logger.LogFields{
			"reminders_sent":  sent,
			"rides_in_window": len(rides),
		}).Info("reminder_sweep_done", "Departure reminders published")
	}
	s.pruneReminded(now)
}

// markReminded records the ride as reminded. Returns false if it already was.
func (s *Scheduler) markReminded(rideID string, departure time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reminded[rideID]; ok {
		return false
	}
	s.reminded[rideID] = departure
	return true
}

func (s *Scheduler) unmarkReminded(rideID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reminded, rideID)
}

func (s *Scheduler) pruneReminded(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, departure := range s.reminded {
		if departure.Before(now) {
			delete(s.reminded, id)
		}
	}
}

// RunReconciliation completes abandoned IN_PROGRESS rides and prunes old
// terminal rides. A failure on one ride never stops the rest of the batch.
func (s *Scheduler) RunReconciliation(ctx context.Context) {
	now := s.now()

	stale, err := s.rideRepo.FindStaleInProgress(ctx, now.Add(-s.staleRideAge))
	if err != nil {
		s.logger.Error("reconciliation_query_failed", err)
	} else {
		completed := 0
		for _, ride := range stale {
			if _, err := s.completer.ForceComplete(ctx, ride.ID()); err != nil {
				s.logger.WithFields(logger.LogFields{
					"ride_id": ride.ID(),
				}).Error("force_complete_failed", err)
				continue
			}
			completed++
		}
		if len(stale) > 0 {
			s.logger.WithFields(logger.LogFields{
				"stale_rides": len(stale),
				"completed":   completed,
			}).Info("reconciliation_done", "Stale in-progress rides completed")
		}
	}

	deleted, err := s.rideRepo.DeleteTerminalBefore(ctx, now.Add(-s.retentionAge))
	if err != nil {
		s.logger.Error("retention_prune_failed", err)
		return
	}
	if deleted > 0 {
		s.logger.WithFields(logger.LogFields{
			"deleted_rides": deleted,
		}).Info("retention_prune_done", "Old terminal rides deleted")
	}
}
