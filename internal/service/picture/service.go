package picture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"picture-catalog/internal/domain"
	"picture-catalog/internal/media/ingest"
	"picture-catalog/internal/repository"
	"picture-catalog/internal/service/version"
	"picture-catalog/internal/storage"
)

type FileIngestor interface {
	Ingest(content []byte, originalName string) (*ingest.Upload, error)
}

type ExifExtractor interface {
	Extract(r io.ReadSeeker) (*domain.ExifData, error)
}

type Service interface {
	Create(ctx context.Context, actor domain.Actor, sub domain.PictureSubmission) (*domain.Picture, error)
	Edit(ctx context.Context, actor domain.Actor, id uuid.UUID, sub domain.PictureSubmission) (*domain.Picture, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Picture, error)
}

type service struct {
	pictureRepo repository.PictureStore
	changeRepo  repository.ChangeRecordStore
	placeRepo   repository.PlaceStore
	catalogRepo repository.CatalogStore
	auditRepo   repository.AuditLogRepository
	files       storage.FileStore
	ingestor    FileIngestor
	extractor   ExifExtractor
	licenses    version.LicenseRegistry
	builder     *version.Builder
	log         zerolog.Logger
	now         func() time.Time
}

func NewService(
	pictureRepo repository.PictureStore,
	changeRepo repository.ChangeRecordStore,
	placeRepo repository.PlaceStore,
	catalogRepo repository.CatalogStore,
	auditRepo repository.AuditLogRepository,
	files storage.FileStore,
	ingestor FileIngestor,
	extractor ExifExtractor,
	licenses version.LicenseRegistry,
	log zerolog.Logger,
) Service {
	return &service{
		pictureRepo: pictureRepo,
		changeRepo:  changeRepo,
		placeRepo:   placeRepo,
		catalogRepo: catalogRepo,
		auditRepo:   auditRepo,
		files:       files,
		ingestor:    ingestor,
		extractor:   extractor,
		licenses:    licenses,
		builder:     version.NewBuilder(),
		log:         log.With().Str("service", "picture").Logger(),
		now:         time.Now,
	}
}

// references are the weak links a submission points at, resolved up front.
type references struct {
	catalog *domain.Catalog
	place   *domain.Place
}

func (s *service) Create(ctx context.Context, actor domain.Actor, sub domain.PictureSubmission) (*domain.Picture, error) {
	var errs []error
	if missing := sub.MissingFields(); len(missing) > 0 {
		errs = append(errs, &domain.MissingFieldError{Fields: missing})
	}
	license, err := version.CheckLicense(s.licenses, nil, sub.License)
	if err != nil {
		errs = append(errs, err)
	}
	refs, err := s.resolveReferences(ctx, sub)
	if err != nil {
		if !domain.IsRequestError(err) {
			return nil, err
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	upload, err := s.ingestor.Ingest(sub.File, sub.OriginalFilename)
	if err != nil {
		return nil, err
	}
	exif := s.extractExif(upload)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	first := s.builder.Build(version.Input{
		Submitted:    sub,
		Exif:         exif,
		FileReplaced: true,
		Place:        refs.place,
		License:      license,
	})

	now := s.now().UTC()
	picture := &domain.Picture{
		ID:               uuid.New(),
		OriginalFileName: upload.StorageName,
		File:             &upload.Record,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if refs.catalog != nil {
		picture.CatalogID = &refs.catalog.ID
	}
	picture.AddVersion(first)
	if err := picture.CheckInvariants(); err != nil {
		return nil, err
	}

	if err := s.files.Upload(ctx, upload.Record.Path, upload.Content, upload.Record.MimeType); err != nil {
		return nil, err
	}
	if err := s.pictureRepo.Save(ctx, picture); err != nil {
		s.discardUpload(ctx, upload.Record.Path)
		return nil, fmt.Errorf("save picture: %w", err)
	}

	s.syncPlace(ctx, picture.ID, nil, first.PlaceID)
	s.audit(ctx, actor, domain.AuditActionCreatePicture, picture.ID, nil, picture)
	s.log.Info().Str("picture_id", picture.ID.String()).Str("hash", upload.Record.Hash).Msg("picture created")

	s.present(picture)
	picture.ObjectChanges = map[uuid.UUID]*domain.ChangeRecord{}
	return picture, nil
}

func (s *service) Edit(ctx context.Context, actor domain.Actor, id uuid.UUID, sub domain.PictureSubmission) (*domain.Picture, error) {
	picture, err := s.pictureRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current := picture.ValidatedVersion()
	if current == nil {
		return nil, picture.CheckInvariants()
	}
	before := version.Clone(*current)
	snapshot, err := json.Marshal(picture)
	if err != nil {
		return nil, fmt.Errorf("snapshot picture: %w", err)
	}

	var errs []error
	license, err := version.CheckLicense(s.licenses, &current.License, sub.License)
	if err != nil {
		errs = append(errs, err)
	}
	refs, err := s.resolveReferences(ctx, sub)
	if err != nil {
		if !domain.IsRequestError(err) {
			return nil, err
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var upload *ingest.Upload
	if sub.HasFile() {
		name := sub.OriginalFilename
		if name == "" && picture.File != nil {
			name = picture.File.OriginalFileName
		}
		upload, err = s.ingestor.Ingest(sub.File, name)
		if err != nil {
			return nil, err
		}
		if picture.File != nil && picture.File.Hash == upload.Record.Hash {
			s.log.Debug().Str("picture_id", id.String()).Msg("uploaded file is identical, keeping current version")
			upload = nil
		}
	}

	if sub.CatalogID.Set {
		picture.CatalogID = nil
		if refs.catalog != nil {
			picture.CatalogID = &refs.catalog.ID
		}
	}
	picture.UpdatedAt = s.now().UTC()

	if upload == nil {
		patched := s.builder.Build(version.Input{
			Previous:  current,
			Submitted: sub,
			Place:     refs.place,
			License:   license,
		})
		patched.ID = current.ID
		patched.CreatedAt = current.CreatedAt
		*current = patched

		if err := s.pictureRepo.Save(ctx, picture); err != nil {
			return nil, fmt.Errorf("save picture: %w", err)
		}
	} else {
		if err := s.replaceFile(ctx, picture, current, upload, sub, refs.place, license); err != nil {
			return nil, err
		}
	}

	after := picture.ValidatedVersion()
	s.syncPlace(ctx, picture.ID, before.PlaceID, after.PlaceID)
	s.audit(ctx, actor, domain.AuditActionEditPicture, picture.ID, json.RawMessage(snapshot), picture)

	return s.hydrate(ctx, picture)
}

// replaceFile appends a version for a new binary. The new object is uploaded
// and the picture saved before the old object is removed, so a failure or a
// timeout leaves the stored picture pointing at a binary that still exists.
func (s *service) replaceFile(ctx context.Context, picture *domain.Picture, current *domain.Version, upload *ingest.Upload, sub domain.PictureSubmission, place *domain.Place, license domain.License) error {
	exif := s.extractExif(upload)
	if err := ctx.Err(); err != nil {
		return err
	}

	next := s.builder.Build(version.Input{
		Previous:     current,
		Submitted:    sub,
		Exif:         exif,
		FileReplaced: true,
		Place:        place,
		License:      license,
	})

	var oldPath string
	if picture.File != nil {
		oldPath = picture.File.Path
	}
	picture.File = &upload.Record
	picture.OriginalFileName = upload.StorageName
	picture.AddVersion(next)
	if err := picture.CheckInvariants(); err != nil {
		return err
	}

	if err := s.files.Upload(ctx, upload.Record.Path, upload.Content, upload.Record.MimeType); err != nil {
		return err
	}
	if err := s.pictureRepo.Save(ctx, picture); err != nil {
		s.discardUpload(ctx, upload.Record.Path)
		return fmt.Errorf("save picture: %w", err)
	}

	if oldPath != "" {
		if err := s.files.Remove(ctx, oldPath); err != nil {
			s.log.Warn().Err(err).Str("path", oldPath).Msg("failed to remove replaced file")
		}
	}
	s.log.Info().Str("picture_id", picture.ID.String()).Int("versions", len(picture.Versions)).Msg("picture file replaced")
	return nil
}

func (s *service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	picture, err := s.pictureRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.changeRepo.DeleteByPicture(ctx, id); err != nil {
		return fmt.Errorf("delete change records: %w", err)
	}
	if err := s.pictureRepo.Delete(ctx, id); err != nil {
		return err
	}

	// The picture row is gone; leftovers below are cleanup only.
	cleanup := context.WithoutCancel(ctx)
	if current := picture.ValidatedVersion(); current != nil && current.PlaceID != nil {
		if err := s.placeRepo.DetachPicture(cleanup, *current.PlaceID, id); err != nil {
			s.log.Warn().Err(err).Str("picture_id", id.String()).Str("place_id", current.PlaceID.String()).Msg("failed to detach deleted picture from place")
		}
	}
	if picture.File != nil {
		if err := s.files.Remove(cleanup, picture.File.Path); err != nil {
			s.log.Warn().Err(err).Str("path", picture.File.Path).Msg("failed to remove deleted picture file")
		}
	}

	s.audit(ctx, actor, domain.AuditActionDeletePicture, id, picture, nil)
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Picture, error) {
	picture, err := s.pictureRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, picture)
}

func (s *service) hydrate(ctx context.Context, picture *domain.Picture) (*domain.Picture, error) {
	if err := repository.LoadObjectChanges(ctx, s.changeRepo, picture); err != nil {
		return nil, err
	}
	s.present(picture)
	return picture, nil
}

func (s *service) present(picture *domain.Picture) {
	if picture.File != nil {
		picture.File.WebPath = s.files.WebPath(picture.File.Path)
	}
}

func (s *service) resolveReferences(ctx context.Context, sub domain.PictureSubmission) (references, error) {
	var (
		refs references
		errs []error
	)
	if sub.CatalogID.Value != nil {
		catalog, err := s.catalogRepo.GetByID(ctx, *sub.CatalogID.Value)
		if err != nil {
			errs = append(errs, err)
		}
		refs.catalog = catalog
	}
	if sub.PlaceID.Value != nil {
		place, err := s.placeRepo.GetByID(ctx, *sub.PlaceID.Value)
		if err != nil {
			errs = append(errs, err)
		}
		refs.place = place
	}
	return refs, errors.Join(errs...)
}

// extractExif treats any extraction failure as a binary without EXIF.
func (s *service) extractExif(upload *ingest.Upload) *domain.ExifData {
	data, err := s.extractor.Extract(bytes.NewReader(upload.Content))
	if err != nil {
		s.log.Debug().Err(err).Str("file", upload.StorageName).Msg("no exif data")
		return nil
	}
	return data
}

func (s *service) discardUpload(ctx context.Context, path string) {
	if err := s.files.Remove(context.WithoutCancel(ctx), path); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove orphaned upload")
	}
}

func (s *service) syncPlace(ctx context.Context, pictureID uuid.UUID, from, to *uuid.UUID) {
	if err := repository.MovePicture(ctx, s.placeRepo, pictureID, from, to); err != nil {
		s.log.Error().Err(err).Str("picture_id", pictureID.String()).Msg("place membership out of sync")
	}
}

func (s *service) audit(ctx context.Context, actor domain.Actor, action string, pictureID uuid.UUID, before, after interface{}) {
	err := repository.RecordAudit(ctx, s.auditRepo, domain.AuditEntry{
		Actor:     actor,
		Action:    action,
		PictureID: pictureID,
		Before:    before,
		After:     after,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Str("picture_id", pictureID.String()).Msg("failed to record audit log")
	}
}
