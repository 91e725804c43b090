package version

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"picture-catalog/internal/domain"
)

var jsonNull = []byte("null")

type licenseChange struct {
	Name     *string `json:"name"`
	IsEdited *bool   `json:"isEdited"`
}

// ApplyChange decodes one change value onto sub. Applying records in order
// leaves the last value of each field in place.
func ApplyChange(sub *domain.PictureSubmission, field domain.ChangeField, value json.RawMessage) error {
	value = bytes.TrimSpace(value)
	isNull := len(value) == 0 || bytes.Equal(value, jsonNull)

	switch field {
	case domain.FieldName, domain.FieldSource:
		var s string
		if isNull || json.Unmarshal(value, &s) != nil || strings.TrimSpace(s) == "" {
			return &domain.ValidationError{Field: string(field), Reason: "must be a non-empty string"}
		}
		if field == domain.FieldName {
			sub.Name = domain.StringValue(s)
		} else {
			sub.Source = domain.StringValue(s)
		}

	case domain.FieldDescription:
		if isNull {
			sub.Description = domain.NullableString{Set: true}
			return nil
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return &domain.ValidationError{Field: string(field), Reason: "must be a string or null"}
		}
		sub.Description = domain.StringValue(s)

	case domain.FieldTakenAt:
		if isNull {
			sub.TakenAt = domain.NullableTime{Set: true}
			return nil
		}
		var t time.Time
		if err := json.Unmarshal(value, &t); err != nil {
			return &domain.ValidationError{Field: string(field), Reason: "must be an RFC3339 timestamp or null"}
		}
		sub.TakenAt = domain.NullableTime{Value: &t, Set: true}

	case domain.FieldPlace:
		if isNull {
			sub.PlaceID = domain.NullableUUID{Set: true}
			return nil
		}
		var id uuid.UUID
		if err := json.Unmarshal(value, &id); err != nil {
			return &domain.ValidationError{Field: string(field), Reason: "must be a place id or null"}
		}
		sub.PlaceID = domain.UUIDValue(id)

	case domain.FieldLicense:
		license, err := decodeLicense(value, isNull)
		if err != nil {
			return err
		}
		sub.License = license

	default:
		return &domain.ValidationError{Field: string(field), Reason: "field cannot be changed"}
	}
	return nil
}

// A proposed license comes from a person, so it counts as edited unless the
// proposal says otherwise.
func decodeLicense(value json.RawMessage, isNull bool) (*domain.LicenseInput, error) {
	invalid := &domain.ValidationError{Field: string(domain.FieldLicense), Reason: "must be a license name or {name, isEdited}"}
	if isNull {
		return nil, invalid
	}

	edited := true
	var name string
	if err := json.Unmarshal(value, &name); err == nil {
		if strings.TrimSpace(name) == "" {
			return nil, invalid
		}
		return &domain.LicenseInput{Name: &name, IsEdited: &edited}, nil
	}

	var lc licenseChange
	if err := json.Unmarshal(value, &lc); err != nil || lc.Name == nil || strings.TrimSpace(*lc.Name) == "" {
		return nil, invalid
	}
	if lc.IsEdited != nil {
		edited = *lc.IsEdited
	}
	return &domain.LicenseInput{Name: lc.Name, IsEdited: &edited}, nil
}
