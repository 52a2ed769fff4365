package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fisiotrack/clinic-api/internal/model"
	"github.com/fisiotrack/clinic-api/internal/repository"
	apperrors "github.com/fisiotrack/clinic-api/pkg/errors"
	"github.com/fisiotrack/clinic-api/pkg/metrics"
)

type userRepository struct {
	instrumented
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB, m *metrics.Metrics) repository.UserRepository {
	return &userRepository{instrumented: instrumented{metrics: m}, db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (err error) {
	defer func(start time.Time) { r.observe("user_create", start, err) }(time.Now())

	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (:id, :email, :password_hash, :created_at)
	`
	if _, err = r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (user *model.User, err error) {
	defer func(start time.Time) { r.observe("user_get_by_email", start, err) }(time.Now())

	query := `SELECT * FROM users WHERE email = $1`
	user = &model.User{}
	if err = r.db.GetContext(ctx, user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (user *model.User, err error) {
	defer func(start time.Time) { r.observe("user_get", start, err) }(time.Now())

	query := `SELECT * FROM users WHERE id = $1`
	user = &model.User{}
	if err = r.db.GetContext(ctx, user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
