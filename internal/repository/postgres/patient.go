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

type patientRepository struct {
	instrumented
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{instrumented: instrumented{metrics: m}, db: db}
}

// patientColumns selects archived through COALESCE so records written
// before the archive feature read as active.
const patientColumns = `
	id, owner_id, name, age, phone, email, diagnosis, sex, date_of_birth,
	weight, height, cns, cpf, acs, source_unit, address, reference_point,
	service, risk_rating, COALESCE(archived, false) AS archived,
	created_at, updated_at
`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	defer func(start time.Time) { r.observe("patient_create", start, err) }(time.Now())

	query := `
		INSERT INTO patients (
			id, owner_id, name, age, phone, email, diagnosis, sex, date_of_birth,
			weight, height, cns, cpf, acs, source_unit, address, reference_point,
			service, risk_rating, archived, created_at, updated_at
		) VALUES (
			:id, :owner_id, :name, :age, :phone, :email, :diagnosis, :sex, :date_of_birth,
			:weight, :height, :cns, :cpf, :acs, :source_unit, :address, :reference_point,
			:service, :risk_rating, :archived, :created_at, :updated_at
		)
	`
	if _, err = r.db.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

// Get is scoped by owner; another owner's record reads as NotFound.
func (r *patientRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (patient *model.Patient, err error) {
	defer func(start time.Time) { r.observe("patient_get", start, err) }(time.Now())

	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND owner_id = $2`
	patient = &model.Patient{}
	if err = r.db.GetContext(ctx, patient, query, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) (err error) {
	defer func(start time.Time) { r.observe("patient_update", start, err) }(time.Now())

	query := `
		UPDATE patients SET
			name = :name, age = :age, phone = :phone, email = :email,
			diagnosis = :diagnosis, sex = :sex, date_of_birth = :date_of_birth,
			weight = :weight, height = :height, cns = :cns, cpf = :cpf, acs = :acs,
			source_unit = :source_unit, address = :address,
			reference_point = :reference_point, service = :service,
			risk_rating = :risk_rating, archived = :archived, updated_at = :updated_at
		WHERE id = :id AND owner_id = :owner_id
	`
	result, err := r.db.NamedExecContext(ctx, query, patient)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr == nil && rows == 0 {
		err = apperrors.NewNotFound("patient", nil)
		return err
	}
	return nil
}

// Delete is scoped by owner like Get; deleting another owner's record
// is NotFound, not a silent no-op.
func (r *patientRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (err error) {
	defer func(start time.Time) { r.observe("patient_delete", start, err) }(time.Now())

	query := `DELETE FROM patients WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr == nil && rows == 0 {
		err = apperrors.NewNotFound("patient", nil)
		return err
	}
	return nil
}

func (r *patientRepository) ListActive(ctx context.Context, ownerID uuid.UUID) (patients []*model.Patient, err error) {
	defer func(start time.Time) { r.observe("patient_list_active", start, err) }(time.Now())

	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE owner_id = $1 AND COALESCE(archived, false) = false
		ORDER BY created_at DESC
	`
	patients = []*model.Patient{}
	if err = r.db.SelectContext(ctx, &patients, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) ListArchived(ctx context.Context, ownerID uuid.UUID) (patients []*model.Patient, err error) {
	defer func(start time.Time) { r.observe("patient_list_archived", start, err) }(time.Now())

	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE owner_id = $1 AND archived = true
		ORDER BY created_at DESC
	`
	patients = []*model.Patient{}
	if err = r.db.SelectContext(ctx, &patients, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list archived patients: %w", err)
	}
	return patients, nil
}
