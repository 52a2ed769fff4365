package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fisiotrack/clinic-api/internal/model"
	"github.com/fisiotrack/clinic-api/internal/repository"
	apperrors "github.com/fisiotrack/clinic-api/pkg/errors"
	"github.com/fisiotrack/clinic-api/pkg/metrics"
)

type sourceUnitRepository struct {
	instrumented
	db *sqlx.DB
}

func NewSourceUnitRepository(db *sqlx.DB, m *metrics.Metrics) repository.SourceUnitRepository {
	return &sourceUnitRepository{instrumented: instrumented{metrics: m}, db: db}
}

func (r *sourceUnitRepository) Create(ctx context.Context, unit *model.SourceUnit) (err error) {
	defer func(start time.Time) { r.observe("source_unit_create", start, err) }(time.Now())

	query := `
		INSERT INTO source_units (id, owner_id, name, created_at)
		VALUES (:id, :owner_id, :name, :created_at)
	`
	if _, err = r.db.NamedExecContext(ctx, query, unit); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			err = apperrors.NewBadRequest("source unit name already exists", err)
			return err
		}
		return fmt.Errorf("failed to create source unit: %w", err)
	}
	return nil
}

// Delete is scoped by owner; deleting another owner's unit is NotFound.
func (r *sourceUnitRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (err error) {
	defer func(start time.Time) { r.observe("source_unit_delete", start, err) }(time.Now())

	query := `DELETE FROM source_units WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete source unit: %w", err)
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr == nil && rows == 0 {
		err = apperrors.NewNotFound("source unit", nil)
		return err
	}
	return nil
}

func (r *sourceUnitRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) (units []*model.SourceUnit, err error) {
	defer func(start time.Time) { r.observe("source_unit_list", start, err) }(time.Now())

	query := `SELECT * FROM source_units WHERE owner_id = $1 ORDER BY name ASC`
	units = []*model.SourceUnit{}
	if err = r.db.SelectContext(ctx, &units, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list source units: %w", err)
	}
	return units, nil
}
