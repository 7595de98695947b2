package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus-rides/internal/notification/domain"
	ridedomain "campus-rides/internal/ride/domain"
	"campus-rides/pkg/apperr"
	"campus-rides/pkg/logger"
)

type memoryNotifRepo struct {
	saved   []*domain.Notification
	failFor string // user ID whose Save calls fail
}

func (m *memoryNotifRepo) Save(ctx context.Context, n *domain.Notification) error {
	if n.UserID == m.failFor {
		return errors.New("forced failure")
	}
	m.saved = append(m.saved, n)
	return nil
}

func (m *memoryNotifRepo) FindByUser(ctx context.Context, userID string, page domain.Page) ([]*domain.Notification, int64, error) {
	var out []*domain.Notification
	for _, n := range m.saved {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryNotifRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.saved {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *memoryNotifRepo) MarkRead(ctx context.Context, notificationID, userID string) error {
	for _, n := range m.saved {
		if n.ID == notificationID && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return apperr.NotFound("notification not found")
}

func (m *memoryNotifRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var updated int64
	for _, n := range m.saved {
		if n.UserID == userID && !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

func (m *memoryNotifRepo) recipients() []string {
	out := make([]string, 0, len(m.saved))
	for _, n := range m.saved {
		out = append(out, n.UserID)
	}
	return out
}

type memoryPrefRepo struct {
	prefs map[string]*domain.NotificationPreference
}

func (m *memoryPrefRepo) FindByUser(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	pref, ok := m.prefs[userID]
	if !ok {
		return nil, apperr.NotFound("notification preferences not found")
	}
	return pref, nil
}

func (m *memoryPrefRepo) Upsert(ctx context.Context, pref *domain.NotificationPreference) error {
	m.prefs[pref.UserID] = pref
	return nil
}

type recordingPusher struct {
	pushed []string
}

func (p *recordingPusher) SendToUser(userID string, message interface{}) error {
	p.pushed = append(p.pushed, userID)
	return nil
}

func snapshot(passengers ...string) ridedomain.RideSnapshot {
	return ridedomain.RideSnapshot{
		RideID:        "ride-1",
		DriverID:      "driver-1",
		Origin:        "Dorm A",
		Destination:   "Main Library",
		DepartureTime: time.Now().Add(20 * time.Minute),
		Status:        ridedomain.StatusScheduled,
		Passengers:    passengers,
	}
}

func newTestDispatcher(notifs *memoryNotifRepo, prefs *memoryPrefRepo, push Pusher) *Dispatcher {
	if prefs == nil {
		prefs = &memoryPrefRepo{prefs: map[string]*domain.NotificationPreference{}}
	}
	return NewDispatcher(notifs, prefs, push, logger.NewLogger("test"))
}

func TestNotifyRideBookedReachesBothSides(t *testing.T) {
	notifs := &memoryNotifRepo{}
	d := newTestDispatcher(notifs, nil, nil)

	d.NotifyRideBooked(context.Background(), snapshot("p1"), "p1")

	got := notifs.recipients()
	if len(got) != 2 || got[0] != "driver-1" || got[1] != "p1" {
		t.Fatalf("expected driver and passenger notified, got %v", got)
	}
	if notifs.saved[0].Type != domain.TypeRideBooked || notifs.saved[1].Type != domain.TypeBookingConfirmed {
		t.Fatalf("unexpected types: %v %v", notifs.saved[0].Type, notifs.saved[1].Type)
	}
}

func TestNotifyRideBookedHonorsPreference(t *testing.T) {
	notifs := &memoryNotifRepo{}
	prefs := &memoryPrefRepo{prefs: map[string]*domain.NotificationPreference{
		"driver-1": {UserID: "driver-1", BookingConfirmationEnabled: false},
	}}
	d := newTestDispatcher(notifs, prefs, nil)

	d.NotifyRideBooked(context.Background(), snapshot("p1"), "p1")

	got := notifs.recipients()
	if len(got) != 1 || got[0] != "p1" {
		t.Fatalf("driver opted out, expected only passenger, got %v", got)
	}
}

func TestNotifyStatusChangeFansOutToParticipants(t *testing.T) {
	notifs := &memoryNotifRepo{}
	d := newTestDispatcher(notifs, nil, nil)

	d.NotifyStatusChange(context.Background(), snapshot("p1", "p2", "p3"))

	got := notifs.recipients()
	if len(got) != 4 || got[0] != "driver-1" {
		t.Fatalf("expected driver plus 3 passengers, got %v", got)
	}
}

func TestFanOutIsolatesFailedRecipient(t *testing.T) {
	notifs := &memoryNotifRepo{failFor: "p2"}
	d := newTestDispatcher(notifs, nil, nil)

	d.NotifyStatusChange(context.Background(), snapshot("p1", "p2", "p3"))

	got := notifs.recipients()
	if len(got) != 3 || got[0] != "driver-1" || got[1] != "p1" || got[2] != "p3" {
		t.Fatalf("one failed recipient must not stop the rest, got %v", got)
	}
}

func TestSendDepartureReminderIncludesDriver(t *testing.T) {
	notifs := &memoryNotifRepo{}
	d := newTestDispatcher(notifs, nil, nil)

	d.SendDepartureReminder(context.Background(), snapshot("p1"))

	got := notifs.recipients()
	if len(got) != 2 || got[0] != "driver-1" || got[1] != "p1" {
		t.Fatalf("expected driver and passenger reminded, got %v", got)
	}
	if notifs.saved[0].Type != domain.TypeRideReminder {
		t.Fatalf("unexpected type %v", notifs.saved[0].Type)
	}
}

func TestEmitPushesToConnectedUser(t *testing.T) {
	notifs := &memoryNotifRepo{}
	pusher := &recordingPusher{}
	d := newTestDispatcher(notifs, nil, pusher)

	if err := d.Emit(context.Background(), "p1", "t", "m", domain.TypeRideBooked, "ride-1"); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(pusher.pushed) != 1 || pusher.pushed[0] != "p1" {
		t.Fatalf("expected push to p1, got %v", pusher.pushed)
	}
}

func TestEmitSkipsPushWhenDisabled(t *testing.T) {
	notifs := &memoryNotifRepo{}
	pusher := &recordingPusher{}
	prefs := &memoryPrefRepo{prefs: map[string]*domain.NotificationPreference{
		"p1": {UserID: "p1", PushEnabled: false, BookingConfirmationEnabled: true},
	}}
	d := newTestDispatcher(notifs, prefs, pusher)

	if err := d.Emit(context.Background(), "p1", "t", "m", domain.TypeRideBooked, "ride-1"); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(notifs.saved) != 1 {
		t.Fatal("row must still be stored")
	}
	if len(pusher.pushed) != 0 {
		t.Fatalf("push disabled, got %v", pusher.pushed)
	}
}

func TestUpdatePreferencesValidation(t *testing.T) {
	d := newTestDispatcher(&memoryNotifRepo{}, nil, nil)

	err := d.UpdatePreferences(context.Background(), domain.NotificationPreference{ReminderMinutesBefore: 10})
	if !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid for missing user, got %v", err)
	}

	err = d.UpdatePreferences(context.Background(), domain.NotificationPreference{UserID: "p1", ReminderMinutesBefore: -5})
	if !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid for negative minutes, got %v", err)
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	notifs := &memoryNotifRepo{}
	d := newTestDispatcher(notifs, nil, nil)

	for i := 0; i < 3; i++ {
		if err := d.Emit(context.Background(), "p1", "t", "m", domain.TypeRideBooked, ""); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}

	count, err := d.UnreadCount(context.Background(), "p1")
	if err != nil || count != 3 {
		t.Fatalf("expected 3 unread, got %d (%v)", count, err)
	}

	if err := d.MarkRead(context.Background(), notifs.saved[0].ID, "p1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, _ = d.UnreadCount(context.Background(), "p1")
	if count != 2 {
		t.Fatalf("expected 2 unread after MarkRead, got %d", count)
	}

	updated, err := d.MarkAllRead(context.Background(), "p1")
	if err != nil || updated != 2 {
		t.Fatalf("expected 2 updated, got %d (%v)", updated, err)
	}
}
