package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type NullableString struct {
	Value *string
	Set   bool
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// NonEmpty returns the submitted string when one was sent and is not blank.
func (n NullableString) NonEmpty() (string, bool) {
	if !n.Set || n.Value == nil || strings.TrimSpace(*n.Value) == "" {
		return "", false
	}
	return *n.Value, true
}

func StringValue(s string) NullableString {
	return NullableString{Value: &s, Set: true}
}

type NullableTime struct {
	Value *time.Time
	Set   bool
}

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	n.Value = &t
	return nil
}

type NullableUUID struct {
	Value *uuid.UUID
	Set   bool
}

func (n *NullableUUID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" || string(data) == `""` {
		n.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	n.Value = &id
	return nil
}

func UUIDValue(id uuid.UUID) NullableUUID {
	return NullableUUID{Value: &id, Set: true}
}

// Base64File accepts either plain base64 or a data URI
// ("data:image/jpeg;base64,...").
type Base64File []byte

func (f *Base64File) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if idx := strings.Index(s, ";base64,"); idx >= 0 && strings.HasPrefix(s, "data:") {
		s = s[idx+len(";base64,"):]
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return &IngestionError{Reason: "file is not valid base64"}
	}
	*f = decoded
	return nil
}

type LicenseInput struct {
	Name     *string `json:"name,omitempty"`
	IsEdited *bool   `json:"is_edited,omitempty"`
}

// PictureSubmission is the immutable command for create and edit. Absent
// fields keep the previous value.
type PictureSubmission struct {
	Name             NullableString `json:"name"`
	Description      NullableString `json:"description"`
	Source           NullableString `json:"source"`
	TakenAt          NullableTime   `json:"taken_at"`
	CatalogID        NullableUUID   `json:"catalog_id"`
	PlaceID          NullableUUID   `json:"place_id"`
	License          *LicenseInput  `json:"license,omitempty"`
	OriginalFilename string         `json:"original_filename"`
	File             Base64File     `json:"file,omitempty"`
}

func (s PictureSubmission) HasFile() bool {
	return len(s.File) > 0
}

// MissingFields lists the keys a create submission must carry.
func (s PictureSubmission) MissingFields() []string {
	var missing []string
	if _, ok := s.Name.NonEmpty(); !ok {
		missing = append(missing, "name")
	}
	if _, ok := s.Source.NonEmpty(); !ok {
		missing = append(missing, "source")
	}
	if !s.HasFile() {
		missing = append(missing, "file")
	}
	if strings.TrimSpace(s.OriginalFilename) == "" {
		missing = append(missing, "original_filename")
	}
	return missing
}
