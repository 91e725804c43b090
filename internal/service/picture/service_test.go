package picture_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"picture-catalog/internal/domain"
	"picture-catalog/internal/media/ingest"
	"picture-catalog/internal/mocks"
	"picture-catalog/internal/pkg/license"
	"picture-catalog/internal/repository"
	"picture-catalog/internal/service/picture"
)

var (
	lakeJPEG  = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x01}
	otherJPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x02}
)

type fixture struct {
	svc     picture.Service
	repos   *repository.Repositories
	files   *mocks.FileStore
	exif    *mocks.ExifExtractor
	place   domain.Place
	catalog domain.Catalog
	actor   domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repos:   repository.NewMemoryRepositories(),
		files:   new(mocks.FileStore),
		exif:    new(mocks.ExifExtractor),
		place:   domain.Place{ID: uuid.New(), Name: "Annecy"},
		catalog: domain.Catalog{ID: uuid.New(), Name: "Holidays"},
		actor:   domain.Actor{ID: uuid.New(), Role: domain.RoleContributor},
	}
	f.repos.Place = repository.NewMemoryPlaceStore(f.place)
	f.repos.Catalog = repository.NewMemoryCatalogStore(f.catalog)
	f.files.On("WebPath", mock.Anything).Return("http://cdn.local/picture").Maybe()
	f.rebuild()
	return f
}

func (f *fixture) rebuild() {
	f.svc = picture.NewService(
		f.repos.Picture, f.repos.ChangeRecord, f.repos.Place, f.repos.Catalog, f.repos.AuditLog,
		f.files, ingest.New(), f.exif, license.NewRegistry(""), zerolog.Nop(),
	)
}

func (f *fixture) noExif() {
	f.exif.On("Extract", mock.Anything).Return(nil, errors.New("exif: failed to find exif intro marker"))
}

func (f *fixture) expectUpload(content []byte) {
	f.files.On("Upload", mock.Anything, mock.AnythingOfType("string"), content, "image/jpeg").Return(nil).Once()
}

func lakeSubmission(content []byte) domain.PictureSubmission {
	return domain.PictureSubmission{
		Name:             domain.StringValue("Lake"),
		Source:           domain.StringValue("camera"),
		OriginalFilename: "lake.jpg",
		File:             content,
	}
}

func (f *fixture) createLake(t *testing.T) *domain.Picture {
	t.Helper()
	f.expectUpload(lakeJPEG)
	p, err := f.svc.Create(context.Background(), f.actor, lakeSubmission(lakeJPEG))
	require.NoError(t, err)
	return p
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.noExif()

		p := f.createLake(t)

		require.Len(t, p.Versions, 1)
		assert.Equal(t, p.Versions[0].ID, p.ValidatedVersionID)
		assert.NoError(t, p.CheckInvariants())
		assert.Equal(t, ingest.Hash(lakeJPEG), p.File.Hash)
		assert.Equal(t, "lake.jpg", p.File.OriginalFileName)
		assert.Equal(t, "pictures/"+p.OriginalFileName, p.File.Path)
		assert.Equal(t, "http://cdn.local/picture", p.File.WebPath)
		assert.Equal(t, "Lake", p.Versions[0].Name)
		assert.Equal(t, domain.License{Name: license.DefaultName}, p.Versions[0].License)
		assert.True(t, p.Versions[0].HasOriginalResolution())
		assert.Nil(t, p.Versions[0].Exif)
		assert.Empty(t, p.ObjectChanges)

		stored, err := f.repos.Picture.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ValidatedVersionID, stored.ValidatedVersionID)

		logs, _, err := f.repos.AuditLog.List(ctx, domain.AuditFilter{PictureID: &p.ID}, domain.DefaultPagination())
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, domain.AuditActionCreatePicture, logs[0].Action)
		f.files.AssertExpectations(t)
	})

	t.Run("Exif Feeds Version", func(t *testing.T) {
		f := newFixture(t)
		model, width, height := "Canon EOS R5", 8192, 5464
		f.exif.On("Extract", mock.Anything).Return(&domain.ExifData{Model: &model, Width: &width, Height: &height}, nil)
		f.expectUpload(lakeJPEG)

		p, err := f.svc.Create(ctx, f.actor, lakeSubmission(lakeJPEG))

		require.NoError(t, err)
		v := p.ValidatedVersion()
		require.NotNil(t, v.Exif)
		assert.Equal(t, model, *v.Exif.Model)
		assert.Equal(t, width, *v.Resolutions[0].Width)
		assert.Equal(t, height, *v.Resolutions[0].Height)
		assert.Nil(t, v.Position)
	})

	t.Run("Validation Errors Are Aggregated", func(t *testing.T) {
		f := newFixture(t)
		name := "WTFPL"
		sub := domain.PictureSubmission{
			Name:    domain.StringValue(""),
			License: &domain.LicenseInput{Name: &name},
		}

		p, err := f.svc.Create(ctx, f.actor, sub)

		assert.Nil(t, p)
		var missing *domain.MissingFieldError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []string{"name", "source", "file", "original_filename"}, missing.Fields)
		var invalid *domain.InvalidLicenseError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "WTFPL", invalid.Name)
		f.files.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown Place And Catalog", func(t *testing.T) {
		f := newFixture(t)
		sub := lakeSubmission(lakeJPEG)
		sub.PlaceID = domain.UUIDValue(uuid.New())
		sub.CatalogID = domain.UUIDValue(uuid.New())

		_, err := f.svc.Create(ctx, f.actor, sub)

		assert.ErrorIs(t, err, domain.ErrPlaceNotFound)
		assert.ErrorIs(t, err, domain.ErrCatalogNotFound)
		f.files.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Place And Catalog Attached", func(t *testing.T) {
		f := newFixture(t)
		f.noExif()
		f.expectUpload(lakeJPEG)
		sub := lakeSubmission(lakeJPEG)
		sub.PlaceID = domain.UUIDValue(f.place.ID)
		sub.CatalogID = domain.UUIDValue(f.catalog.ID)

		p, err := f.svc.Create(ctx, f.actor, sub)

		require.NoError(t, err)
		assert.Equal(t, f.catalog.ID, *p.CatalogID)
		assert.Equal(t, f.place.ID, *p.ValidatedVersion().PlaceID)
		place, err := f.repos.Place.GetByID(ctx, f.place.ID)
		require.NoError(t, err)
		assert.Contains(t, place.PictureIDs, p.ID)
	})

	t.Run("Save Failure Removes Upload", func(t *testing.T) {
		f := newFixture(t)
		f.noExif()
		pictures := new(mocks.PictureStore)
		f.repos.Picture = pictures
		f.rebuild()

		var uploaded string
		f.files.On("Upload", mock.Anything, mock.AnythingOfType("string"), lakeJPEG, "image/jpeg").
			Run(func(args mock.Arguments) { uploaded = args.String(1) }).Return(nil).Once()
		pictures.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
		f.files.On("Remove", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()

		p, err := f.svc.Create(ctx, f.actor, lakeSubmission(lakeJPEG))

		assert.Nil(t, p)
		assert.ErrorContains(t, err, "connection reset")
		f.files.AssertCalled(t, "Remove", mock.Anything, uploaded)
	})
}

func TestService_Edit(t *testing.T) {
	ctx := context.Background()

	t.Run("Identical File Is A No-Op", func(t *testing.T) {
		f := newFixture(t)
		f.noExif()
		created := f.createLake(t)

		sub := domain.PictureSubmission{File: lakeJPEG, OriginalFilename: "renamed.jpg"}
		p, err := f.svc.Edit(ctx, f.actor, created.ID, sub)

		require.NoError(t, err)
		assert.Len(t, p.Versions, 1)
		assert.Equal(t, created.ValidatedVersionID, p.ValidatedVersionID)
		assert.Equal(t, created.OriginalFileName, p.OriginalFileName)
		f.files.AssertNumberOfCalls(t, "Upload", 1)
		f.files.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
		f.exif.AssertNumberOfCalls(t, "Extract", 1)
	})

	t.Run("New File Appends Version", func(t *testing.T) {
		f := newFixture(t)
		f.noExif()
		created := f.createLake(t)
		oldPath := created.File.Path

		f.expectUpload(otherJPEG)
		f.files.On("Remove", mock.Anything, oldPath).Return(nil).Once()

		p, err := f.svc.Edit(ctx, f.actor, created.ID, domain.PictureSubmission{File: otherJPEG, OriginalFilename: "lake-2.jpg"})

		require.NoError(t, err)
		require.Len(t, p.Versions, 2)
		assert.Equal(t, p.Versions[1].ID, p.ValidatedVersionID)
		assert.NotEqual(t, created.ValidatedVersionID, p.ValidatedVersionID)
		assert.NotEqual(t, created.OriginalFileName, p.OriginalFileName)
		assert.Equal(t, ingest.Hash(otherJPEG), p.File.Hash)
		assert.Equal(t, "Lake", p.ValidatedVersion().Name)
		assert.Equal(t, created.Versions[0], p.Versions[0])
		assert.NoError(t, p.CheckInvariants())
		f.files.AssertExpectations(t)
	})

	t.Run("Metadata Only Patches Validated Version", func(t *testing.T) {
		f := newFixture(t)
		f.noExif()
		created := f.createLake(t)

		sub := domain.PictureSubmission{
			Name:        domain.StringValue("Lake at dawn"),
			Source:      domain.StringValue(""),
			Description: domain.StringValue("Fog over the water"),
		}
		p, err := f.svc.Edit(ctx, f.actor, created.ID, sub)

		require.NoError(t, err)
		require.Len(t, p.Versions, 1)
		v := p.ValidatedVersion()
		assert.Equal(t, created.ValidatedVersionID, v.ID)
		assert.Equal(t, "Lake at dawn", v.Name)
		assert.Equal(t, "camera", v.Source)
		assert.Equal(t, "Fog over the water", *v.Description)
		f.files.AssertNumberOfCalls(t, "Upload", 1)

		p, err = f.svc.Edit(ctx, f.actor, created.ID, domain.PictureSubmission{Description: domain.NullableString{Set: true}})
		require.NoError(t, err)
		assert.Nil(t, p.ValidatedVersion().Description)
	})

	t.Run("License Revalidated", func(t *testing.T) {
		f := newFixture(t)
		f.noExif()
		created := f.createLake(t)

		bad := "Proprietary-ish"
		_, err := f.svc.Edit(ctx, f.actor, created.ID, domain.PictureSubmission{License: &domain.LicenseInput{Name: &bad}})
		var invalid *domain.InvalidLicenseError
		assert.True(t, errors.As(err, &invalid))

		good := "cc-by-sa-4.0"
		edited := true
		p, err := f.svc.Edit(ctx, f.actor, created.ID, domain.PictureSubmission{License: &domain.LicenseInput{Name: &good, IsEdited: &edited}})
		require.NoError(t, err)
		assert.Equal(t, domain.License{Name: "CC-BY-SA-4.0", IsEdited: true}, p.ValidatedVersion().License)
	})

	t.Run("Place Membership Follows Version", func(t *testing.T) {
		f := newFixture(t)
		f.noExif()
		created := f.createLake(t)

		_, err := f.svc.Edit(ctx, f.actor, created.ID, domain.PictureSubmission{PlaceID: domain.UUIDValue(f.place.ID)})
		require.NoError(t, err)
		place, _ := f.repos.Place.GetByID(ctx, f.place.ID)
		assert.Contains(t, place.PictureIDs, created.ID)

		_, err = f.svc.Edit(ctx, f.actor, created.ID, domain.PictureSubmission{PlaceID: domain.NullableUUID{Set: true}})
		require.NoError(t, err)
		place, _ = f.repos.Place.GetByID(ctx, f.place.ID)
		assert.NotContains(t, place.PictureIDs, created.ID)
	})

	t.Run("Cancelled During Extraction Leaves Picture Untouched", func(t *testing.T) {
		f := newFixture(t)
		f.noExif()
		created := f.createLake(t)

		cctx, cancel := context.WithCancel(ctx)
		slow := new(mocks.ExifExtractor)
		slow.On("Extract", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil, errors.New("no exif"))
		f.exif = slow
		f.rebuild()

		_, err := f.svc.Edit(cctx, f.actor, created.ID, domain.PictureSubmission{File: otherJPEG, OriginalFilename: "x.jpg"})

		assert.ErrorIs(t, err, context.Canceled)
		stored, err := f.repos.Picture.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Versions, 1)
		assert.Equal(t, created.File.Hash, stored.File.Hash)
		f.files.AssertNumberOfCalls(t, "Upload", 1)
	})

	t.Run("Not Found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Edit(ctx, f.actor, uuid.New(), domain.PictureSubmission{})

		assert.ErrorIs(t, err, domain.ErrPictureNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.noExif()
	f.expectUpload(lakeJPEG)
	sub := lakeSubmission(lakeJPEG)
	sub.PlaceID = domain.UUIDValue(f.place.ID)
	created, err := f.svc.Create(ctx, f.actor, sub)
	require.NoError(t, err)

	require.NoError(t, f.repos.ChangeRecord.Create(ctx, []*domain.ChangeRecord{{
		ID: uuid.New(), PictureID: created.ID, Field: domain.FieldName, Value: []byte(`"x"`), Status: domain.StatusProposed,
	}}))
	f.files.On("Remove", mock.Anything, created.File.Path).Return(nil).Once()

	require.NoError(t, f.svc.Delete(ctx, f.actor, created.ID))

	_, err = f.svc.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrPictureNotFound)
	place, err := f.repos.Place.GetByID(ctx, f.place.ID)
	require.NoError(t, err)
	assert.NotContains(t, place.PictureIDs, created.ID)
	records, total, err := f.repos.ChangeRecord.ListByPicture(ctx, created.ID, nil, domain.DefaultPagination())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, records)
	f.files.AssertExpectations(t)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.actor, created.ID), domain.ErrPictureNotFound)
}

func TestService_Delete_FileRemovalFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.noExif()
	f.expectUpload(lakeJPEG)
	sub := lakeSubmission(lakeJPEG)
	sub.PlaceID = domain.UUIDValue(f.place.ID)
	created, err := f.svc.Create(ctx, f.actor, sub)
	require.NoError(t, err)
	place, err := f.repos.Place.GetByID(ctx, f.place.ID)
	require.NoError(t, err)
	require.Contains(t, place.PictureIDs, created.ID)

	f.files.On("Remove", mock.Anything, created.File.Path).Return(errors.New("minio down")).Once()

	require.NoError(t, f.svc.Delete(ctx, f.actor, created.ID))

	_, err = f.repos.Picture.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrPictureNotFound)
	place, err = f.repos.Place.GetByID(ctx, f.place.ID)
	require.NoError(t, err)
	assert.NotContains(t, place.PictureIDs, created.ID)
	f.files.AssertExpectations(t)
}

func TestService_Edit_AuditKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.noExif()
	created := f.createLake(t)

	_, err := f.svc.Edit(ctx, f.actor, created.ID, domain.PictureSubmission{Name: domain.StringValue("Misty Lake")})
	require.NoError(t, err)

	logs, _, err := f.repos.AuditLog.List(ctx, domain.AuditFilter{PictureID: &created.ID, Action: domain.AuditActionEditPicture}, domain.DefaultPagination())
	require.NoError(t, err)
	require.Len(t, logs, 1)

	var before, after domain.Picture
	require.NoError(t, json.Unmarshal(logs[0].Before, &before))
	require.NoError(t, json.Unmarshal(logs[0].After, &after))
	require.Len(t, before.Versions, 1)
	assert.Equal(t, "Lake", before.Versions[0].Name)
	require.Len(t, after.Versions, 2)
	assert.Equal(t, "Misty Lake", after.ValidatedVersion().Name)
}
