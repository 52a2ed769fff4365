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

type evolutionRepository struct {
	instrumented
	db *sqlx.DB
}

func NewEvolutionRepository(db *sqlx.DB, m *metrics.Metrics) repository.EvolutionRepository {
	return &evolutionRepository{instrumented: instrumented{metrics: m}, db: db}
}

func (r *evolutionRepository) Create(ctx context.Context, evolution *model.Evolution) (err error) {
	defer func(start time.Time) { r.observe("evolution_create", start, err) }(time.Now())

	query := `
		INSERT INTO evolutions (id, owner_id, patient_id, date, description, created_at)
		VALUES (:id, :owner_id, :patient_id, :date, :description, :created_at)
	`
	if _, err = r.db.NamedExecContext(ctx, query, evolution); err != nil {
		return fmt.Errorf("failed to create evolution: %w", err)
	}
	return nil
}

// Get is scoped by owner; another owner's note reads as NotFound.
func (r *evolutionRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (evolution *model.Evolution, err error) {
	defer func(start time.Time) { r.observe("evolution_get", start, err) }(time.Now())

	query := `SELECT * FROM evolutions WHERE id = $1 AND owner_id = $2`
	evolution = &model.Evolution{}
	if err = r.db.GetContext(ctx, evolution, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("evolution", err)
		}
		return nil, fmt.Errorf("failed to get evolution: %w", err)
	}
	return evolution, nil
}

func (r *evolutionRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (err error) {
	defer func(start time.Time) { r.observe("evolution_delete", start, err) }(time.Now())

	query := `DELETE FROM evolutions WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete evolution: %w", err)
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr == nil && rows == 0 {
		err = apperrors.NewNotFound("evolution", nil)
		return err
	}
	return nil
}

func (r *evolutionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) (evolutions []*model.Evolution, err error) {
	defer func(start time.Time) { r.observe("evolution_list_by_owner", start, err) }(time.Now())

	query := `SELECT * FROM evolutions WHERE owner_id = $1 ORDER BY date DESC, created_at DESC`
	evolutions = []*model.Evolution{}
	if err = r.db.SelectContext(ctx, &evolutions, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list evolutions: %w", err)
	}
	return evolutions, nil
}

func (r *evolutionRepository) ListByPatient(ctx context.Context, ownerID, patientID uuid.UUID) (evolutions []*model.Evolution, err error) {
	defer func(start time.Time) { r.observe("evolution_list_by_patient", start, err) }(time.Now())

	query := `SELECT * FROM evolutions WHERE owner_id = $1 AND patient_id = $2 ORDER BY date DESC, created_at DESC`
	evolutions = []*model.Evolution{}
	if err = r.db.SelectContext(ctx, &evolutions, query, ownerID, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient evolutions: %w", err)
	}
	return evolutions, nil
}
