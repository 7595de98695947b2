package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-rides/internal/rating/domain"
	"campus-rides/pkg/apperr"
)

// PostgresRatingRepository implements domain.RatingRepository
type PostgresRatingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRatingRepository(db *pgxpool.Pool) *PostgresRatingRepository {
	return &PostgresRatingRepository{db: db}
}

func (r *PostgresRatingRepository) Save(ctx context.Context, rating *domain.Rating) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ratings (id, ride_id, from_user_id, to_user_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		rating.ID, rating.RideID, rating.FromUserID, rating.ToUserID,
		rating.Score, rating.Comment, rating.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			return apperr.Conflict("you have already rated this user for this ride")
		}
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (r *PostgresRatingRepository) FindByRide(ctx context.Context, rideID string) ([]*domain.Rating, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ride_id, from_user_id, to_user_id, score, COALESCE(comment, ''), created_at
		FROM ratings
		WHERE ride_id = $1
		ORDER BY created_at DESC
	`, rideID)
	if err != nil {
		return nil, fmt.Errorf("query ride ratings: %w", err)
	}
	defer rows.Close()
	return scanRatings(rows)
}

func (r *PostgresRatingRepository) FindReceivedByUser(ctx context.Context, userID string, page domain.Page) ([]*domain.Rating, int64, error) {
	return r.findPageByUser(ctx, "to_user_id", userID, page)
}

func (r *PostgresRatingRepository) FindGivenByUser(ctx context.Context, userID string, page domain.Page) ([]*domain.Rating, int64, error) {
	return r.findPageByUser(ctx, "from_user_id", userID, page)
}

func (r *PostgresRatingRepository) findPageByUser(ctx context.Context, column, userID string, page domain.Page) ([]*domain.Rating, int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ratings WHERE `+column+` = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count ratings: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, ride_id, from_user_id, to_user_id, score, COALESCE(comment, ''), created_at
		FROM ratings
		WHERE `+column+` = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, page.Size, page.Number*page.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	ratings, err := scanRatings(rows)
	if err != nil {
		return nil, 0, err
	}
	return ratings, total, nil
}

func (r *PostgresRatingRepository) Exists(ctx context.Context, rideID, fromUserID, toUserID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ratings WHERE ride_id = $1 AND from_user_id = $2 AND to_user_id = $3
		)
	`, rideID, fromUserID, toUserID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check rating exists: %w", err)
	}
	return exists, nil
}

func (r *PostgresRatingRepository) StatsForUser(ctx context.Context, userID string) (float64, int, error) {
	var average float64
	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(score), 0), COUNT(*) FROM ratings WHERE to_user_id = $1
	`, userID).Scan(&average, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("rating stats: %w", err)
	}
	return average, total, nil
}

func scanRatings(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*domain.Rating, error) {
	var ratings []*domain.Rating
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(
			&rating.ID, &rating.RideID, &rating.FromUserID, &rating.ToUserID,
			&rating.Score, &rating.Comment, &rating.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, &rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}
