package model

import (
	"time"

	"github.com/google/uuid"
)

// SourceUnit is a named referring facility. Name is unique per owner and
// doubles as the foreign value on Patient.SourceUnit.
type SourceUnit struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateSourceUnitRequest struct {
	Name string `json:"name" binding:"required"`
}

// UnregisteredUnit is the synthetic bucket name for patients whose
// source unit does not match any registered unit.
const UnregisteredUnit = "unregistered"
