package model

import (
	"time"

	"github.com/google/uuid"
)

// Evolution is a dated free-text progress note for one patient. Date is
// the calendar day of the visit; CreatedAt records when the note was
// entered and the two are routinely different.
type Evolution struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	Date        Date      `db:"date" json:"date"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type CreateEvolutionRequest struct {
	Date        string `json:"date" binding:"required,datetime=2006-01-02"`
	Description string `json:"description" binding:"required"`
}

// ReplaceEvolutionRequest carries the full replacement note. Editing is
// delete-then-recreate: the result has a new id.
type ReplaceEvolutionRequest struct {
	Date        string `json:"date" binding:"required,datetime=2006-01-02"`
	Description string `json:"description" binding:"required"`
}
