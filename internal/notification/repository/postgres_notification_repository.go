package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-rides/internal/notification/domain"
	"campus-rides/pkg/apperr"
)

// PostgresNotificationRepository implements domain.NotificationRepository
type PostgresNotificationRepository struct {
	db *pgxpool.Pool
}

func NewPostgresNotificationRepository(db *pgxpool.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Save(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, ride_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`, n.ID, n.UserID, n.Title, n.Message, string(n.Type), n.RideID, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) FindByUser(ctx context.Context, userID string, page domain.Page) ([]*domain.Notification, int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, title, message, type, COALESCE(ride_id, ''), read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, page.Size, page.Number*page.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &n.RideID, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = domain.NotificationType(typ)
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, total, nil
}

func (r *PostgresNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, notificationID, userID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (r *PostgresNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PostgresPreferenceRepository implements domain.PreferenceRepository
type PostgresPreferenceRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPreferenceRepository(db *pgxpool.Pool) *PostgresPreferenceRepository {
	return &PostgresPreferenceRepository{db: db}
}

func (r *PostgresPreferenceRepository) FindByUser(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	var pref domain.NotificationPreference
	err := r.db.QueryRow(ctx, `
		SELECT user_id, ride_status_enabled, booking_confirmation_enabled,
		       departure_reminder_enabled, email_enabled, push_enabled,
		       reminder_minutes_before
		FROM notification_preferences
		WHERE user_id = $1
	`, userID).Scan(
		&pref.UserID,
		&pref.RideStatusEnabled,
		&pref.BookingConfirmationEnabled,
		&pref.DepartureReminderEnabled,
		&pref.EmailEnabled,
		&pref.PushEnabled,
		&pref.ReminderMinutesBefore,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("notification preferences not found")
		}
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	return &pref, nil
}

func (r *PostgresPreferenceRepository) Upsert(ctx context.Context, pref *domain.NotificationPreference) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notification_preferences (
			user_id, ride_status_enabled, booking_confirmation_enabled,
			departure_reminder_enabled, email_enabled, push_enabled,
			reminder_minutes_before
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			ride_status_enabled = EXCLUDED.ride_status_enabled,
			booking_confirmation_enabled = EXCLUDED.booking_confirmation_enabled,
			departure_reminder_enabled = EXCLUDED.departure_reminder_enabled,
			email_enabled = EXCLUDED.email_enabled,
			push_enabled = EXCLUDED.push_enabled,
			reminder_minutes_before = EXCLUDED.reminder_minutes_before
	`,
		pref.UserID,
		pref.RideStatusEnabled,
		pref.BookingConfirmationEnabled,
		pref.DepartureReminderEnabled,
		pref.EmailEnabled,
		pref.PushEnabled,
		pref.ReminderMinutesBefore,
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}
