package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/fisiotrack/clinic-api/internal/model"
)

// PatientRepository is the patients collection. Every read and delete
// carries the owner id so a record can never be reached through a
// foreign identity; a wrong-owner hit reads as NotFound. Get is a point
// read used for archived records that the active live view never loads.
type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListActive(ctx context.Context, ownerID uuid.UUID) ([]*model.Patient, error)
	ListArchived(ctx context.Context, ownerID uuid.UUID) ([]*model.Patient, error)
}

// EvolutionRepository is the evolutions collection, ordered by visit
// date descending on list. Owner-scoped like PatientRepository.
type EvolutionRepository interface {
	Create(ctx context.Context, evolution *model.Evolution) error
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Evolution, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Evolution, error)
	ListByPatient(ctx context.Context, ownerID, patientID uuid.UUID) ([]*model.Evolution, error)
}

// SourceUnitRepository is the source units collection, ordered by name
// ascending on list.
type SourceUnitRepository interface {
	Create(ctx context.Context, unit *model.SourceUnit) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.SourceUnit, error)
}

// UserRepository stores login identities.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}
