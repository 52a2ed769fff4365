package model

import (
	"github.com/google/uuid"
)

// ServiceModality is how care is delivered.
type ServiceModality string

const (
	ServiceAmbulatory ServiceModality = "ambulatory"
	ServiceHomeVisit  ServiceModality = "home_visit"
)

// RiskRating is the clinical priority of a patient.
type RiskRating string

const (
	RiskElective RiskRating = "elective"
	RiskPriority RiskRating = "priority"
	RiskUrgent   RiskRating = "urgent"
)

// Patient is an owner-scoped clinical record. SourceUnit holds the
// referring unit's name, not its id: renaming or deleting a unit never
// cascades here, and unmatched names are grouped into an "unregistered"
// bucket by the view layer.
type Patient struct {
	Base
	OwnerID        uuid.UUID       `db:"owner_id" json:"owner_id"`
	Name           string          `db:"name" json:"name"`
	Age            int             `db:"age" json:"age"`
	Phone          string          `db:"phone" json:"phone"`
	Email          string          `db:"email" json:"email,omitempty"`
	Diagnosis      string          `db:"diagnosis" json:"diagnosis"`
	Sex            string          `db:"sex" json:"sex"`
	DateOfBirth    Date            `db:"date_of_birth" json:"date_of_birth"`
	Weight         string          `db:"weight" json:"weight"`
	Height         string          `db:"height" json:"height"`
	CNS            string          `db:"cns" json:"cns"`
	CPF            string          `db:"cpf" json:"cpf"`
	ACS            string          `db:"acs" json:"acs"`
	SourceUnit     string          `db:"source_unit" json:"source_unit"`
	Address        string          `db:"address" json:"address"`
	ReferencePoint string          `db:"reference_point" json:"reference_point"`
	Service        ServiceModality `db:"service" json:"service"`
	RiskRating     RiskRating      `db:"risk_rating" json:"risk_rating"`
	Archived       bool            `db:"archived" json:"archived"`
}

type CreatePatientRequest struct {
	Name           string `json:"name" binding:"required"`
	Age            int    `json:"age" binding:"required,min=1,max=120"`
	Phone          string `json:"phone" binding:"required"`
	Email          string `json:"email" binding:"omitempty,email"`
	Diagnosis      string `json:"diagnosis" binding:"required"`
	Sex            string `json:"sex" binding:"required"`
	DateOfBirth    string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Weight         string `json:"weight"`
	Height         string `json:"height"`
	CNS            string `json:"cns" binding:"omitempty,cns"`
	CPF            string `json:"cpf" binding:"omitempty,cpf"`
	ACS            string `json:"acs"`
	SourceUnit     string `json:"source_unit"`
	Address        string `json:"address"`
	ReferencePoint string `json:"reference_point"`
	Service        string `json:"service" binding:"omitempty,oneof=ambulatory home_visit"`
	RiskRating     string `json:"risk_rating" binding:"omitempty,oneof=elective priority urgent"`
}

type UpdatePatientRequest struct {
	Name           *string `json:"name"`
	Age            *int    `json:"age" binding:"omitempty,min=1,max=120"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Diagnosis      *string `json:"diagnosis"`
	Sex            *string `json:"sex"`
	DateOfBirth    *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Weight         *string `json:"weight"`
	Height         *string `json:"height"`
	CNS            *string `json:"cns" binding:"omitempty,cns"`
	CPF            *string `json:"cpf" binding:"omitempty,cpf"`
	ACS            *string `json:"acs"`
	SourceUnit     *string `json:"source_unit"`
	Address        *string `json:"address"`
	ReferencePoint *string `json:"reference_point"`
	Service        *string `json:"service" binding:"omitempty,oneof=ambulatory home_visit"`
	RiskRating     *string `json:"risk_rating" binding:"omitempty,oneof=elective priority urgent"`
	Archived       *bool   `json:"archived"`
}
