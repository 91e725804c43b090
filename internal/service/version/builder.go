package version

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"picture-catalog/internal/domain"
)

// Input is everything a new version is derived from. Previous is nil for the
// first version of a picture.
type Input struct {
	Previous     *domain.Version
	Submitted    domain.PictureSubmission
	Exif         *domain.ExifData
	FileReplaced bool
	Place        *domain.Place
	License      domain.License
}

type Builder struct {
	now   func() time.Time
	newID func() uuid.UUID
}

func NewBuilder() *Builder {
	return &Builder{
		now:   time.Now,
		newID: uuid.New,
	}
}

// Build never touches Previous. Scalars follow patch semantics: name and
// source only move to a non-empty value, description and taken_at move
// whenever the key was submitted (null clears them).
func (b *Builder) Build(in Input) domain.Version {
	var v domain.Version
	if in.Previous != nil {
		v = Clone(*in.Previous)
	}
	v.ID = b.newID()
	v.CreatedAt = b.now().UTC()

	if name, ok := in.Submitted.Name.NonEmpty(); ok {
		v.Name = name
	}
	if source, ok := in.Submitted.Source.NonEmpty(); ok {
		v.Source = source
	}
	if in.Submitted.Description.Set {
		v.Description = cloneString(in.Submitted.Description.Value)
	}
	if in.Submitted.TakenAt.Set {
		v.TakenAt = cloneTime(in.Submitted.TakenAt.Value)
	}

	switch {
	case in.Place != nil:
		id := in.Place.ID
		v.PlaceID = &id
	case in.Submitted.PlaceID.Set && in.Submitted.PlaceID.Value == nil:
		v.PlaceID = nil
	}

	if in.FileReplaced {
		v.Exif = newExif(in.Exif)
		v.Position = resolvePosition(in.Exif)
		v.Resolutions = []domain.Resolution{originalResolution(in.Exif)}
	}

	v.License = in.License
	return v
}

// ResolveLicense carries the previous license unless a name was submitted.
// fallback is used for the very first version when nothing was submitted.
func ResolveLicense(previous *domain.License, submitted *domain.LicenseInput, fallback string) domain.License {
	if submitted == nil || submitted.Name == nil || *submitted.Name == "" {
		if previous != nil {
			l := *previous
			if submitted != nil && submitted.IsEdited != nil {
				l.IsEdited = *submitted.IsEdited
			}
			return l
		}
		return domain.License{Name: fallback}
	}

	l := domain.License{Name: *submitted.Name}
	switch {
	case submitted.IsEdited != nil:
		l.IsEdited = *submitted.IsEdited
	case previous != nil:
		l.IsEdited = previous.IsEdited
	}
	return l
}

// SameContent reports whether two versions describe the picture identically,
// ignoring identity and creation time.
func SameContent(a, b domain.Version) bool {
	return a.Name == b.Name &&
		a.Source == b.Source &&
		equalPtr(a.Description, b.Description) &&
		equalTime(a.TakenAt, b.TakenAt) &&
		equalPtr(a.PlaceID, b.PlaceID) &&
		a.License == b.License
}

// Clone deep-copies v so versions already stored on a picture stay immutable.
func Clone(v domain.Version) domain.Version {
	out := v
	out.Description = cloneString(v.Description)
	out.TakenAt = cloneTime(v.TakenAt)
	if v.PlaceID != nil {
		id := *v.PlaceID
		out.PlaceID = &id
	}
	if v.Exif != nil {
		e := *v.Exif
		out.Exif = &e
	}
	if v.Position != nil {
		p := *v.Position
		out.Position = &p
	}
	out.Resolutions = slices.Clone(v.Resolutions)
	return out
}

func newExif(data *domain.ExifData) *domain.Exif {
	if data == nil {
		return nil
	}
	return &domain.Exif{
		Model:       data.Model,
		Aperture:    data.Aperture,
		ISO:         data.ISO,
		Exposure:    data.Exposure,
		FocalLength: data.FocalLength,
	}
}

func originalResolution(data *domain.ExifData) domain.Resolution {
	r := domain.Resolution{Slug: domain.ResolutionOriginal}
	if data != nil {
		r.Width = data.Width
		r.Height = data.Height
	}
	return r
}

// resolvePosition is where coordinates derived from GPS tags would go. Nothing
// is geocoded yet, so the position stays unset.
func resolvePosition(*domain.ExifData) *domain.Position {
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
