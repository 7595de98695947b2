package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campus-rides/internal/notification/domain"
	ridedomain "campus-rides/internal/ride/domain"
	"campus-rides/pkg/apperr"
	"campus-rides/pkg/logger"
)

// Pusher delivers a message to a user's live connection, if any.
// Implemented by the WebSocket manager.
type Pusher interface {
	SendToUser(userID string, message interface{}) error
}

// Dispatcher is the stateless notification fan-out. It persists one
// Notification row per recipient, gated by that recipient's preference
// flags, and best-effort pushes to connected users.
type Dispatcher struct {
	notifs domain.NotificationRepository
	prefs  domain.PreferenceRepository
	push   Pusher
	log    logger.Logger
}

func NewDispatcher(
	notifs domain.NotificationRepository,
	prefs domain.PreferenceRepository,
	push Pusher,
	log logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		notifs: notifs,
		prefs:  prefs,
		push:   push,
		log:    log,
	}
}

// Emit creates and stores one notification for one recipient, then pushes
// it to their live connection when push delivery is enabled.
func (d *Dispatcher) Emit(ctx context.Context, userID, title, message string, typ domain.NotificationType, rideID string) error {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		RideID:    rideID,
		CreatedAt: time.Now(),
	}

	if err := d.notifs.Save(ctx, n); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}

	if d.push != nil && d.preferenceFor(ctx, userID).PushEnabled {
		if err := d.push.SendToUser(userID, map[string]interface{}{
			"type": "notification",
			"data": n,
		}); err != nil {
			// Push is best-effort; the stored row is the source of truth.
			d.log.WithFields(logger.LogFields{
				"user_id": userID,
			}).Debug("push_failed", err.Error())
		}
	}

	return nil
}

// NotifyRideBooked informs the driver of a new booking and confirms the
// booking to the passenger, each gated by their own preferences.
func (d *Dispatcher) NotifyRideBooked(ctx context.Context, ride ridedomain.RideSnapshot, passengerID string) {
	if d.preferenceFor(ctx, ride.DriverID).BookingConfirmationEnabled {
		d.emitLogged(ctx, ride.DriverID,
			"New Booking",
			fmt.Sprintf("A new passenger has booked your ride to %s", ride.Destination),
			domain.TypeRideBooked, ride.RideID)
	}

	if d.preferenceFor(ctx, passengerID).BookingConfirmationEnabled {
		d.emitLogged(ctx, passengerID,
			"Booking Confirmed",
			fmt.Sprintf("Your booking for the ride to %s has been confirmed", ride.Destination),
			domain.TypeBookingConfirmed, ride.RideID)
	}
}

// NotifyStatusChange informs the driver and every current passenger that
// the ride changed.
func (d *Dispatcher) NotifyStatusChange(ctx context.Context, ride ridedomain.RideSnapshot) {
	recipients := append([]string{ride.DriverID}, ride.Passengers...)
	for _, userID := range recipients {
		if !d.preferenceFor(ctx, userID).RideStatusEnabled {
			continue
		}
		d.emitLogged(ctx, userID,
			"Ride Status Updated",
			fmt.Sprintf("Your ride from %s to %s has been updated to %s", ride.Origin, ride.Destination, ride.Status),
			domain.TypeRideStatusChange, ride.RideID)
	}
}

// SendDepartureReminder reminds the driver and every passenger who has
// reminders enabled.
func (d *Dispatcher) SendDepartureReminder(ctx context.Context, ride ridedomain.RideSnapshot) {
	recipients := append([]string{ride.DriverID}, ride.Passengers...)
	for _, userID := range recipients {
		pref := d.preferenceFor(ctx, userID)
		if !pref.DepartureReminderEnabled {
			continue
		}
		d.emitLogged(ctx, userID,
			"Departure Reminder",
			fmt.Sprintf("Reminder: Your ride from %s to %s departs in %d minutes", ride.Origin, ride.Destination, pref.ReminderMinutesBefore),
			domain.TypeRideReminder, ride.RideID)
	}
}

func (d *Dispatcher) emitLogged(ctx context.Context, userID, title, message string, typ domain.NotificationType, rideID string) {
	if err := d.Emit(ctx, userID, title, message, typ, rideID); err != nil {
		// One failed recipient must not stop the rest of the fan-out.
		d.log.WithFields(logger.LogFields{
			"user_id": userID,
			"ride_id": rideID,
		}).Error("notification_emit_failed", err)
	}
}

func (d *Dispatcher) preferenceFor(ctx context.Context, userID string) domain.NotificationPreference {
	pref, err := d.prefs.FindByUser(ctx, userID)
	if err != nil {
		if !apperr.IsKind(err, apperr.KindNotFound) {
			d.log.WithFields(logger.LogFields{
				"user_id": userID,
			}).Error("load_preferences_failed", err)
		}
		return domain.DefaultPreference(userID)
	}
	return *pref
}

// Read side

// ListForUser returns a page of the user's notifications, newest first.
func (d *Dispatcher) ListForUser(ctx context.Context, userID string, page domain.Page) ([]*domain.Notification, int64, error) {
	if page.Number < 0 {
		page.Number = 0
	}
	if page.Size < 1 || page.Size > 50 {
		page.Size = 20
	}
	return d.notifs.FindByUser(ctx, userID, page)
}

// UnreadCount returns the number of unread notifications for the user.
func (d *Dispatcher) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return d.notifs.CountUnread(ctx, userID)
}

// MarkRead flips the read flag on one of the user's notifications.
func (d *Dispatcher) MarkRead(ctx context.Context, notificationID, userID string) error {
	return d.notifs.MarkRead(ctx, notificationID, userID)
}

// MarkAllRead flips the read flag on all of the user's notifications.
func (d *Dispatcher) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return d.notifs.MarkAllRead(ctx, userID)
}

// GetPreferences returns the user's stored preferences or the defaults.
func (d *Dispatcher) GetPreferences(ctx context.Context, userID string) domain.NotificationPreference {
	return d.preferenceFor(ctx, userID)
}

// UpdatePreferences stores the user's preference flags.
func (d *Dispatcher) UpdatePreferences(ctx context.Context, pref domain.NotificationPreference) error {
	if pref.UserID == "" {
		return apperr.Invalid("user is required")
	}
	if pref.ReminderMinutesBefore < 0 {
		return apperr.Invalid("reminder minutes must be zero or positive")
	}
	return d.prefs.Upsert(ctx, &pref)
}
