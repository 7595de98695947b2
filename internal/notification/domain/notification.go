package domain

import (
	"context"
	"time"
)

// NotificationType tags what triggered a notification
type NotificationType string

const (
	TypeRideStatusChange NotificationType = "RIDE_STATUS_CHANGE"
	TypeRideBooked       NotificationType = "RIDE_BOOKED"
	TypeBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	TypeRideReminder     NotificationType = "RIDE_REMINDER"
)

// Notification is an immutable record of one dispatched message. Only the
// read flag ever changes after creation.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	RideID    string           `json:"ride_id,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationPreference holds the per-user delivery flags. A user without
// a stored record gets the defaults; a missing record never blocks a ride
// mutation or a dispatch.
type NotificationPreference struct {
	UserID                     string `json:"user_id"`
	RideStatusEnabled          bool   `json:"ride_status_enabled"`
	BookingConfirmationEnabled bool   `json:"booking_confirmation_enabled"`
	DepartureReminderEnabled   bool   `json:"departure_reminder_enabled"`
	EmailEnabled               bool   `json:"email_enabled"`
	PushEnabled                bool   `json:"push_enabled"`
	ReminderMinutesBefore      int    `json:"reminder_minutes_before"`
}

// DefaultPreference returns the flags assumed for a user without a stored
// preference record.
func DefaultPreference(userID string) NotificationPreference {
	return NotificationPreference{
		UserID:                     userID,
		RideStatusEnabled:          true,
		BookingConfirmationEnabled: true,
		DepartureReminderEnabled:   true,
		EmailEnabled:               false,
		PushEnabled:                true,
		ReminderMinutesBefore:      30,
	}
}

// Page is a zero-based page window.
type Page struct {
	Number int
	Size   int
}

// NotificationRepository is the persistence port for notifications
type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error
	FindByUser(ctx context.Context, userID string, page Page) ([]*Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// PreferenceRepository is the persistence port for notification preferences.
// FindByUser returns apperr.NotFound for users without a stored record.
type PreferenceRepository interface {
	FindByUser(ctx context.Context, userID string) (*NotificationPreference, error)
	Upsert(ctx context.Context, pref *NotificationPreference) error
}
