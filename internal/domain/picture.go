package domain

import (
	"time"

	"github.com/google/uuid"
)

const ResolutionOriginal = "original"

type Picture struct {
	ID                 uuid.UUID                   `json:"id" db:"id"`
	CatalogID          *uuid.UUID                  `json:"catalog_id,omitempty" db:"catalog_id"`
	OriginalFileName   string                      `json:"original_file_name" db:"original_file_name"`
	File               *FileRecord                 `json:"file,omitempty" db:"-"`
	Versions           []Version                   `json:"versions" db:"-"`
	ValidatedVersionID uuid.UUID                   `json:"validated_version_id" db:"validated_version_id"`
	ObjectChanges      map[uuid.UUID]*ChangeRecord `json:"object_changes,omitempty" db:"-"`
	CreatedAt          time.Time                   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at" db:"updated_at"`
}

type FileRecord struct {
	Path             string `json:"path"`
	WebPath          string `json:"web_path,omitempty"`
	MimeType         string `json:"mime_type"`
	Hash             string `json:"hash"`
	OriginalFileName string `json:"original_file_name"`
	Size             int64  `json:"size"`
}

type Version struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Source      string       `json:"source"`
	TakenAt     *time.Time   `json:"taken_at,omitempty"`
	PlaceID     *uuid.UUID   `json:"place_id,omitempty"`
	Exif        *Exif        `json:"exif,omitempty"`
	Position    *Position    `json:"position,omitempty"`
	Resolutions []Resolution `json:"resolutions"`
	License     License      `json:"license"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Exif struct {
	Model       *string  `json:"model,omitempty"`
	Aperture    *string  `json:"aperture,omitempty"`
	ISO         *int     `json:"iso,omitempty"`
	Exposure    *string  `json:"exposure,omitempty"`
	FocalLength *float64 `json:"focal_length,omitempty"`
}

type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Resolution struct {
	Slug   string `json:"slug"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

type License struct {
	Name     string `json:"name"`
	IsEdited bool   `json:"is_edited"`
}

// ExifData is what an extractor managed to read from a binary. Every field is
// optional.
type ExifData struct {
	Model       *string
	Aperture    *string
	ISO         *int
	Exposure    *string
	FocalLength *float64
	Width       *int
	Height      *int
}

type Catalog struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

type Place struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	Name       string      `json:"name" db:"name"`
	PictureIDs []uuid.UUID `json:"picture_ids" db:"-"`
}

// ValidatedVersion returns the element of Versions the picture currently
// displays, or nil when the pointer is dangling.
func (p *Picture) ValidatedVersion() *Version {
	for i := range p.Versions {
		if p.Versions[i].ID == p.ValidatedVersionID {
			return &p.Versions[i]
		}
	}
	return nil
}

func (p *Picture) AddVersion(v Version) {
	p.Versions = append(p.Versions, v)
	p.ValidatedVersionID = v.ID
}

func (p *Picture) CheckInvariants() error {
	if len(p.Versions) == 0 {
		return &ValidationError{Field: "versions", Reason: "picture has no version"}
	}
	if p.ValidatedVersion() == nil {
		return &ValidationError{Field: "validated_version_id", Reason: "validated version is not one of the picture versions"}
	}
	if p.File != nil && !p.ValidatedVersion().HasOriginalResolution() {
		return &ValidationError{Field: "resolutions", Reason: "missing original resolution"}
	}
	return nil
}

func (v *Version) HasOriginalResolution() bool {
	for _, r := range v.Resolutions {
		if r.Slug == ResolutionOriginal {
			return true
		}
	}
	return false
}
