package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-rides/internal/user/domain"
	"campus-rides/pkg/apperr"
)

// PostgresUserRepository implements domain.UserRepository
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Save(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, full_name, department, role, average_rating, total_ratings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.FullName, user.Department, user.Role,
		user.AverageRating, user.TotalRatings, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique violation
			return apperr.Conflict("a user with this username or email already exists")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, userID)
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, COALESCE(full_name, ''),
		       COALESCE(department, ''), role, average_rating, total_ratings, created_at
		FROM users `+where,
		arg,
	).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FullName, &user.Department, &user.Role,
		&user.AverageRating, &user.TotalRatings, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) UpdateRatingStats(ctx context.Context, userID string, average float64, total int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET average_rating = $1, total_ratings = $2 WHERE id = $3
	`, average, total, userID)
	if err != nil {
		return fmt.Errorf("update rating stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
