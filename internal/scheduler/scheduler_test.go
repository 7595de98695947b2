package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	rideDomain "campus-rides/internal/ride/domain"
	"campus-rides/internal/ride/service"
	"campus-rides/pkg/config"
	"campus-rides/pkg/logger"
)

type fakeRideRepo struct {
	mu       sync.Mutex
	rides    map[string]*rideDomain.Ride
	deleted  int64
	queryErr error
}

func (f *fakeRideRepo) Save(ctx context.Context, ride *rideDomain.Ride) error   { return nil }
func (f *fakeRideRepo) Update(ctx context.Context, ride *rideDomain.Ride) error { return nil }
func (f *fakeRideRepo) FindByID(ctx context.Context, rideID string) (*rideDomain.Ride, error) {
	return f.rides[rideID], nil
}
func (f *fakeRideRepo) Search(ctx context.Context, q rideDomain.SearchQuery) ([]*rideDomain.Ride, int64, error) {
	return nil, 0, nil
}
func (f *fakeRideRepo) FindByUser(ctx context.Context, userID string, asDriver bool, statuses []rideDomain.RideStatus, page rideDomain.Page) ([]*rideDomain.Ride, int64, error) {
	return nil, 0, nil
}

func (f *fakeRideRepo) FindDepartingBetween(ctx context.Context, from, to time.Time) ([]*rideDomain.Ride, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []*rideDomain.Ride
	for _, r := range f.rides {
		if r.Status() != rideDomain.StatusScheduled {
			continue
		}
		d := r.DepartureTime()
		if !d.Before(from) && d.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRideRepo) FindStaleInProgress(ctx context.Context, departedBefore time.Time) ([]*rideDomain.Ride, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []*rideDomain.Ride
	for _, r := range f.rides {
		if r.Status() == rideDomain.StatusInProgress && r.DepartureTime().Before(departedBefore) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRideRepo) DeleteTerminalBefore(ctx context.Context, departedBefore time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.rides {
		if r.Status().IsTerminal() && r.DepartureTime().Before(departedBefore) {
			delete(f.rides, id)
			n++
		}
	}
	f.deleted = n
	return n, nil
}

type fakeCompleter struct {
	mu        sync.Mutex
	completed []string
	failFor   string
}

func (f *fakeCompleter) ForceComplete(ctx context.Context, rideID string) (*service.RideDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rideID == f.failFor {
		return nil, errors.New("forced failure")
	}
	f.completed = append(f.completed, rideID)
	return &service.RideDTO{ID: rideID, Status: "COMPLETED"}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []rideDomain.DomainEvent
}

func (p *fakePublisher) Publish(ctx context.Context, event rideDomain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func buildRide(id string, status rideDomain.RideStatus, departure time.Time) *rideDomain.Ride {
	return rideDomain.ReconstructRide(
		id, "driver-1", "Dorm A", "Main Library", departure, 2.0, status,
		1, 2, []string{"p1"}, rideDomain.RideDetails{}, 1,
		departure.Add(-48*time.Hour), departure.Add(-48*time.Hour),
	)
}

func newTestScheduler(repo *fakeRideRepo, completer *fakeCompleter, pub *fakePublisher, now time.Time) *Scheduler {
	cfg := &config.Config{}
	cfg.Scheduler.ReminderInterval = 5 * time.Minute
	cfg.Scheduler.ReminderWindow = 30 * time.Minute
	cfg.Scheduler.ReconciliationHour = 1
	cfg.Scheduler.StaleRideAge = 24 * time.Hour
	cfg.Scheduler.RetentionAge = 30 * 24 * time.Hour

	s := NewScheduler(repo, completer, pub, cfg, logger.NewLogger("test"))
	s.now = func() time.Time { return now }
	return s
}

func TestReminderSweepSelectsWindow(t *testing.T) {
	now := time.Now()
	repo := &fakeRideRepo{rides: map[string]*rideDomain.Ride{
		"soon":        buildRide("soon", rideDomain.StatusScheduled, now.Add(10*time.Minute)),
		"later":       buildRide("later", rideDomain.StatusScheduled, now.Add(2*time.Hour)),
		"in_progress": buildRide("in_progress", rideDomain.StatusInProgress, now.Add(10*time.Minute)),
	}}
	pub := &fakePublisher{}
	s := newTestScheduler(repo, &fakeCompleter{}, pub, now)

	s.RunReminderSweep(context.Background())

	if pub.count() != 1 {
		t.Fatalf("expected exactly one reminder, got %d", pub.count())
	}
	event, ok := pub.events[0].(rideDomain.DepartureReminderEvent)
	if !ok {
		t.Fatalf("expected DepartureReminderEvent, got %T", pub.events[0])
	}
	if event.Ride.RideID != "soon" {
		t.Fatalf("expected reminder for ride soon, got %s", event.Ride.RideID)
	}
}

func TestReminderSweepDeduplicates(t *testing.T) {
	now := time.Now()
	repo := &fakeRideRepo{rides: map[string]*rideDomain.Ride{
		"soon": buildRide("soon", rideDomain.StatusScheduled, now.Add(10*time.Minute)),
	}}
	pub := &fakePublisher{}
	s := newTestScheduler(repo, &fakeCompleter{}, pub, now)

	s.RunReminderSweep(context.Background())
	s.RunReminderSweep(context.Background())

	if pub.count() != 1 {
		t.Fatalf("ride must be reminded once per departure, got %d reminders", pub.count())
	}
}

func TestReconciliationCompletesStaleRides(t *testing.T) {
	now := time.Now()
	repo := &fakeRideRepo{rides: map[string]*rideDomain.Ride{
		"stale":  buildRide("stale", rideDomain.StatusInProgress, now.Add(-48*time.Hour)),
		"active": buildRide("active", rideDomain.StatusInProgress, now.Add(-2*time.Hour)),
	}}
	completer := &fakeCompleter{}
	s := newTestScheduler(repo, completer, &fakePublisher{}, now)

	s.RunReconciliation(context.Background())

	if len(completer.completed) != 1 || completer.completed[0] != "stale" {
		t.Fatalf("expected only the stale ride completed, got %v", completer.completed)
	}
}

func TestReconciliationIsolatesFailures(t *testing.T) {
	now := time.Now()
	repo := &fakeRideRepo{rides: map[string]*rideDomain.Ride{
		"bad":  buildRide("bad", rideDomain.StatusInProgress, now.Add(-48*time.Hour)),
		"good": buildRide("good", rideDomain.StatusInProgress, now.Add(-72*time.Hour)),
	}}
	completer := &fakeCompleter{failFor: "bad"}
	s := newTestScheduler(repo, completer, &fakePublisher{}, now)

	s.RunReconciliation(context.Background())

	if len(completer.completed) != 1 || completer.completed[0] != "good" {
		t.Fatalf("one failure must not stop the batch, got %v", completer.completed)
	}
}

func TestReconciliationPrunesOldTerminalRides(t *testing.T) {
	now := time.Now()
	repo := &fakeRideRepo{rides: map[string]*rideDomain.Ride{
		"ancient": buildRide("ancient", rideDomain.StatusCompleted, now.Add(-45*24*time.Hour)),
		"recent":  buildRide("recent", rideDomain.StatusCompleted, now.Add(-2*24*time.Hour)),
	}}
	s := newTestScheduler(repo, &fakeCompleter{}, &fakePublisher{}, now)

	s.RunReconciliation(context.Background())

	if repo.deleted != 1 {
		t.Fatalf("expected one pruned ride, got %d", repo.deleted)
	}
	if _, ok := repo.rides["recent"]; !ok {
		t.Fatal("recent terminal ride must be kept")
	}
}

func TestUntilNextReconciliation(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	s := newTestScheduler(&fakeRideRepo{}, &fakeCompleter{}, &fakePublisher{}, now)

	if got := s.untilNextReconciliation(); got != 2*time.Hour {
		t.Fatalf("expected 2h until 01:00, got %s", got)
	}

	s.now = func() time.Time { return time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC) }
	if got := s.untilNextReconciliation(); got != 24*time.Hour {
		t.Fatalf("expected 24h when exactly at the hour, got %s", got)
	}
}
