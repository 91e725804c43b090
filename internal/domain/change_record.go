package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ChangeRecord struct {
	ID         uuid.UUID          `json:"id" db:"id"`
	PictureID  uuid.UUID          `json:"picture_id" db:"picture_id"`
	Field      ChangeField        `json:"field" db:"field"`
	Value      json.RawMessage    `json:"value" db:"value"`
	Status     ChangeRecordStatus `json:"status" db:"status"`
	CreatedBy  uuid.UUID          `json:"created_by" db:"created_by"`
	ReviewedBy *uuid.UUID         `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt *time.Time         `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}

type ChangeRecordStatus string

const (
	StatusProposed  ChangeRecordStatus = "PROPOSED"
	StatusValidated ChangeRecordStatus = "VALIDATED"
	StatusRejected  ChangeRecordStatus = "REJECTED"
)

func (s ChangeRecordStatus) IsValid() bool {
	switch s {
	case StatusProposed, StatusValidated, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s ChangeRecordStatus) IsTerminal() bool {
	return s == StatusValidated || s == StatusRejected
}

type ChangeField string

const (
	FieldName        ChangeField = "name"
	FieldDescription ChangeField = "description"
	FieldSource      ChangeField = "source"
	FieldTakenAt     ChangeField = "takenAt"
	FieldLicense     ChangeField = "license"
	FieldPlace       ChangeField = "place"
)

func (f ChangeField) IsValid() bool {
	switch f {
	case FieldName, FieldDescription, FieldSource, FieldTakenAt, FieldLicense, FieldPlace:
		return true
	}
	return false
}

type ChangeInput struct {
	Field ChangeField     `json:"field"`
	Value json.RawMessage `json:"value"`
}
