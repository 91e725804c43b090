package version

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picture-catalog/internal/domain"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return &Builder{
		now:   func() time.Time { return fixedNow },
		newID: uuid.New,
	}
}

func ptr[T any](v T) *T { return &v }

func baseVersion() domain.Version {
	return domain.Version{
		ID:          uuid.New(),
		Name:        "Lake",
		Description: ptr("Morning mist"),
		Source:      "camera",
		TakenAt:     ptr(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)),
		Exif:        &domain.Exif{Model: ptr("Canon EOS 5D"), ISO: ptr(200)},
		Resolutions: []domain.Resolution{{Slug: domain.ResolutionOriginal, Width: ptr(4000), Height: ptr(3000)}},
		License:     domain.License{Name: "CC-BY-4.0"},
	}
}

func TestBuilder_Build(t *testing.T) {
	b := newTestBuilder()

	t.Run("First Version", func(t *testing.T) {
		v := b.Build(Input{
			Submitted: domain.PictureSubmission{
				Name:   domain.StringValue("Lake"),
				Source: domain.StringValue("camera"),
			},
			Exif:         &domain.ExifData{Model: ptr("Nikon D750"), Width: ptr(6000), Height: ptr(4000)},
			FileReplaced: true,
			License:      domain.License{Name: "All rights reserved"},
		})

		assert.NotEqual(t, uuid.Nil, v.ID)
		assert.Equal(t, fixedNow, v.CreatedAt)
		assert.Equal(t, "Lake", v.Name)
		assert.Equal(t, "camera", v.Source)
		require.NotNil(t, v.Exif)
		assert.Equal(t, "Nikon D750", *v.Exif.Model)
		assert.Nil(t, v.Exif.ISO)
		require.Len(t, v.Resolutions, 1)
		assert.Equal(t, domain.ResolutionOriginal, v.Resolutions[0].Slug)
		assert.Equal(t, 6000, *v.Resolutions[0].Width)
		assert.Nil(t, v.Position)
	})

	t.Run("Empty Scalars Keep Previous", func(t *testing.T) {
		prev := baseVersion()
		v := b.Build(Input{
			Previous:  &prev,
			Submitted: domain.PictureSubmission{Name: domain.StringValue("  ")},
			License:   prev.License,
		})

		assert.Equal(t, "Lake", v.Name)
		assert.Equal(t, "camera", v.Source)
		assert.Equal(t, "Morning mist", *v.Description)
		assert.NotEqual(t, prev.ID, v.ID)
	})

	t.Run("Explicit Null Clears Description", func(t *testing.T) {
		prev := baseVersion()
		v := b.Build(Input{
			Previous:  &prev,
			Submitted: domain.PictureSubmission{Description: domain.NullableString{Set: true}, TakenAt: domain.NullableTime{Set: true}},
			License:   prev.License,
		})

		assert.Nil(t, v.Description)
		assert.Nil(t, v.TakenAt)
		assert.NotNil(t, prev.Description)
	})

	t.Run("No File Carries Exif And Resolutions", func(t *testing.T) {
		prev := baseVersion()
		v := b.Build(Input{Previous: &prev, License: prev.License})

		assert.Equal(t, prev.Exif, v.Exif)
		assert.Equal(t, prev.Resolutions, v.Resolutions)

		v.Resolutions[0].Slug = "changed"
		assert.Equal(t, domain.ResolutionOriginal, prev.Resolutions[0].Slug)
	})

	t.Run("New File Without Exif Drops Previous Exif", func(t *testing.T) {
		prev := baseVersion()
		v := b.Build(Input{Previous: &prev, FileReplaced: true, License: prev.License})

		assert.Nil(t, v.Exif)
		require.Len(t, v.Resolutions, 1)
		assert.Nil(t, v.Resolutions[0].Width)
	})

	t.Run("Place Set And Cleared", func(t *testing.T) {
		prev := baseVersion()
		place := &domain.Place{ID: uuid.New(), Name: "Annecy"}

		v := b.Build(Input{Previous: &prev, Place: place, Submitted: domain.PictureSubmission{PlaceID: domain.UUIDValue(place.ID)}})
		require.NotNil(t, v.PlaceID)
		assert.Equal(t, place.ID, *v.PlaceID)

		cleared := b.Build(Input{Previous: &v, Submitted: domain.PictureSubmission{PlaceID: domain.NullableUUID{Set: true}}})
		assert.Nil(t, cleared.PlaceID)
	})
}

func TestResolveLicense(t *testing.T) {
	prev := &domain.License{Name: "CC0-1.0", IsEdited: true}

	assert.Equal(t, *prev, ResolveLicense(prev, nil, "All rights reserved"))
	assert.Equal(t, domain.License{Name: "All rights reserved"}, ResolveLicense(nil, nil, "All rights reserved"))
	assert.Equal(t, domain.License{Name: "CC-BY-4.0", IsEdited: true}, ResolveLicense(prev, &domain.LicenseInput{Name: ptr("CC-BY-4.0")}, ""))
	assert.Equal(t, domain.License{Name: "CC-BY-4.0"}, ResolveLicense(nil, &domain.LicenseInput{Name: ptr("CC-BY-4.0")}, ""))
	assert.Equal(t, domain.License{Name: "CC-BY-4.0"}, ResolveLicense(prev, &domain.LicenseInput{Name: ptr("CC-BY-4.0"), IsEdited: ptr(false)}, ""))
}

func TestSameContent(t *testing.T) {
	a := baseVersion()
	b := Clone(a)
	b.ID = uuid.New()
	b.CreatedAt = fixedNow
	assert.True(t, SameContent(a, b))

	b.Description = ptr("Evening")
	assert.False(t, SameContent(a, b))

	c := Clone(a)
	c.License.IsEdited = true
	assert.False(t, SameContent(a, c))
}

func TestApplyChange(t *testing.T) {
	t.Run("Last Write Wins", func(t *testing.T) {
		var sub domain.PictureSubmission
		require.NoError(t, ApplyChange(&sub, domain.FieldName, json.RawMessage(`"First"`)))
		require.NoError(t, ApplyChange(&sub, domain.FieldName, json.RawMessage(`"Second"`)))

		name, ok := sub.Name.NonEmpty()
		assert.True(t, ok)
		assert.Equal(t, "Second", name)
	})

	t.Run("Nullable Fields", func(t *testing.T) {
		var sub domain.PictureSubmission
		require.NoError(t, ApplyChange(&sub, domain.FieldDescription, json.RawMessage(`null`)))
		require.NoError(t, ApplyChange(&sub, domain.FieldTakenAt, json.RawMessage(`"2021-06-01T12:00:00Z"`)))
		require.NoError(t, ApplyChange(&sub, domain.FieldPlace, json.RawMessage(`null`)))

		assert.True(t, sub.Description.Set)
		assert.Nil(t, sub.Description.Value)
		require.NotNil(t, sub.TakenAt.Value)
		assert.Equal(t, 2021, sub.TakenAt.Value.Year())
		assert.True(t, sub.PlaceID.Set)
	})

	t.Run("License Forms", func(t *testing.T) {
		var sub domain.PictureSubmission
		require.NoError(t, ApplyChange(&sub, domain.FieldLicense, json.RawMessage(`"CC0-1.0"`)))
		assert.Equal(t, "CC0-1.0", *sub.License.Name)
		assert.True(t, *sub.License.IsEdited)

		require.NoError(t, ApplyChange(&sub, domain.FieldLicense, json.RawMessage(`{"name":"CC-BY-4.0","isEdited":false}`)))
		assert.Equal(t, "CC-BY-4.0", *sub.License.Name)
		assert.False(t, *sub.License.IsEdited)
	})

	t.Run("Invalid Values", func(t *testing.T) {
		cases := []struct {
			field domain.ChangeField
			value string
		}{
			{domain.FieldName, `""`},
			{domain.FieldName, `null`},
			{domain.FieldSource, `42`},
			{domain.FieldTakenAt, `"yesterday"`},
			{domain.FieldPlace, `"not-a-uuid"`},
			{domain.FieldLicense, `{}`},
			{domain.ChangeField("exif"), `"x"`},
		}
		for _, tc := range cases {
			var sub domain.PictureSubmission
			err := ApplyChange(&sub, tc.field, json.RawMessage(tc.value))

			var validationErr *domain.ValidationError
			assert.True(t, errors.As(err, &validationErr), "%s=%s", tc.field, tc.value)
		}
	})
}

type stubRegistry map[string]string

func (r stubRegistry) Canonical(name string) (string, bool) {
	c, ok := r[name]
	return c, ok
}

func (r stubRegistry) Default() string { return "All rights reserved" }

func TestCheckLicense(t *testing.T) {
	registry := stubRegistry{"cc-by-4.0": "CC-BY-4.0"}

	l, err := CheckLicense(registry, nil, &domain.LicenseInput{Name: ptr("cc-by-4.0")})
	require.NoError(t, err)
	assert.Equal(t, "CC-BY-4.0", l.Name)

	l, err = CheckLicense(registry, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.License{Name: "All rights reserved"}, l)

	_, err = CheckLicense(registry, nil, &domain.LicenseInput{Name: ptr("WTFPL")})
	var licenseErr *domain.InvalidLicenseError
	require.True(t, errors.As(err, &licenseErr))
	assert.Equal(t, "WTFPL", licenseErr.Name)
}
