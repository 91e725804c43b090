package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"picture-catalog/internal/domain"
	"picture-catalog/internal/repository"
	"picture-catalog/internal/service/picture"
	"picture-catalog/internal/service/version"
)

type Service interface {
	Propose(ctx context.Context, pictureID uuid.UUID, changes []domain.ChangeInput, actor domain.Actor) (*domain.Picture, error)
	Validate(ctx context.Context, pictureID uuid.UUID, ids []uuid.UUID, actor domain.Actor) (*domain.Picture, error)
	Reject(ctx context.Context, pictureID uuid.UUID, ids []uuid.UUID, actor domain.Actor) (*domain.Picture, error)
	Clear(ctx context.Context, pictureID uuid.UUID, actor domain.Actor) (*domain.Picture, error)
	List(ctx context.Context, pictureID uuid.UUID, status *domain.ChangeRecordStatus, params domain.PaginationParams) (domain.PaginatedResponse[domain.ChangeRecord], error)
}

type service struct {
	pictureRepo repository.PictureStore
	changeRepo  repository.ChangeRecordStore
	placeRepo   repository.PlaceStore
	auditRepo   repository.AuditLogRepository
	pictureSvc  picture.Service
	licenses    version.LicenseRegistry
	builder     *version.Builder
	log         zerolog.Logger
	now         func() time.Time
}

func NewService(
	pictureRepo repository.PictureStore,
	changeRepo repository.ChangeRecordStore,
	placeRepo repository.PlaceStore,
	auditRepo repository.AuditLogRepository,
	pictureSvc picture.Service,
	licenses version.LicenseRegistry,
	log zerolog.Logger,
) Service {
	return &service{
		pictureRepo: pictureRepo,
		changeRepo:  changeRepo,
		placeRepo:   placeRepo,
		auditRepo:   auditRepo,
		pictureSvc:  pictureSvc,
		licenses:    licenses,
		builder:     version.NewBuilder(),
		log:         log.With().Str("service", "moderation").Logger(),
		now:         time.Now,
	}
}

// Propose records every change as PROPOSED. Proposals on the same field are
// kept side by side; validation decides which one wins.
func (s *service) Propose(ctx context.Context, pictureID uuid.UUID, changes []domain.ChangeInput, actor domain.Actor) (*domain.Picture, error) {
	if _, err := s.pictureRepo.GetByID(ctx, pictureID); err != nil {
		return nil, err
	}

	var errs []error
	for i, change := range changes {
		if err := s.checkChange(ctx, change); err != nil {
			if !domain.IsRequestError(err) {
				return nil, err
			}
			errs = append(errs, fmt.Errorf("change %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	now := s.now().UTC()
	records := make([]*domain.ChangeRecord, 0, len(changes))
	for _, change := range changes {
		records = append(records, &domain.ChangeRecord{
			ID:        uuid.New(),
			PictureID: pictureID,
			Field:     change.Field,
			Value:     compact(change.Value),
			Status:    domain.StatusProposed,
			CreatedBy: actor.ID,
			CreatedAt: now,
		})
	}
	if err := s.changeRepo.Create(ctx, records); err != nil {
		return nil, fmt.Errorf("create change records: %w", err)
	}

	s.audit(ctx, actor, domain.AuditActionProposeChanges, pictureID, nil, records)
	return s.pictureSvc.GetByID(ctx, pictureID)
}

// Validate folds the batch into one new version on top of the validated one.
// Only records owned by the picture and still PROPOSED take part. A batch that
// changes nothing appends no version but its records are still marked
// VALIDATED, which also makes a retry after a partial failure converge.
// Place records pointing at a removed place are skipped.
func (s *service) Validate(ctx context.Context, pictureID uuid.UUID, ids []uuid.UUID, actor domain.Actor) (*domain.Picture, error) {
	pic, err := s.pictureRepo.GetByID(ctx, pictureID)
	if err != nil {
		return nil, err
	}
	batch, err := s.pending(ctx, pictureID, ids)
	if err != nil {
		return nil, err
	}
	if batch, err = s.dropStalePlaces(ctx, pictureID, batch); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return s.pictureSvc.GetByID(ctx, pictureID)
	}

	current := pic.ValidatedVersion()
	if current == nil {
		return nil, pic.CheckInvariants()
	}

	var sub domain.PictureSubmission
	for _, rec := range batch {
		if err := version.ApplyChange(&sub, rec.Field, rec.Value); err != nil {
			return nil, fmt.Errorf("change record %s: %w", rec.ID, err)
		}
	}
	license, err := version.CheckLicense(s.licenses, &current.License, sub.License)
	if err != nil {
		return nil, err
	}
	var place *domain.Place
	if sub.PlaceID.Value != nil {
		if place, err = s.placeRepo.GetByID(ctx, *sub.PlaceID.Value); err != nil {
			return nil, err
		}
	}

	candidate := s.builder.Build(version.Input{
		Previous:  current,
		Submitted: sub,
		Place:     place,
		License:   license,
	})

	created := !version.SameContent(candidate, *current)
	if created {
		previousPlace := current.PlaceID
		pic.AddVersion(candidate)
		pic.UpdatedAt = s.now().UTC()
		if err := pic.CheckInvariants(); err != nil {
			return nil, err
		}
		if err := s.pictureRepo.Save(ctx, pic); err != nil {
			return nil, fmt.Errorf("save picture: %w", err)
		}
		if err := repository.MovePicture(ctx, s.placeRepo, pictureID, previousPlace, candidate.PlaceID); err != nil {
			s.log.Error().Err(err).Str("picture_id", pictureID.String()).Msg("place membership out of sync")
		}
	}

	batchIDs := recordIDs(batch)
	if err := s.changeRepo.UpdateStatus(ctx, batchIDs, domain.StatusValidated, actor.ID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("mark change records validated: %w", err)
	}

	s.log.Info().
		Str("picture_id", pictureID.String()).
		Int("records", len(batch)).
		Bool("new_version", created).
		Msg("changes validated")
	s.audit(ctx, actor, domain.AuditActionValidateChanges, pictureID, nil, map[string]interface{}{
		"change_ids":           batchIDs,
		"validated_version_id": pic.ValidatedVersionID,
		"version_created":      created,
	})

	return s.pictureSvc.GetByID(ctx, pictureID)
}

// Reject ignores ids that belong to another picture or are already terminal.
func (s *service) Reject(ctx context.Context, pictureID uuid.UUID, ids []uuid.UUID, actor domain.Actor) (*domain.Picture, error) {
	if _, err := s.pictureRepo.GetByID(ctx, pictureID); err != nil {
		return nil, err
	}
	batch, err := s.pending(ctx, pictureID, ids)
	if err != nil {
		return nil, err
	}

	if len(batch) > 0 {
		batchIDs := recordIDs(batch)
		if err := s.changeRepo.UpdateStatus(ctx, batchIDs, domain.StatusRejected, actor.ID, s.now().UTC()); err != nil {
			return nil, fmt.Errorf("mark change records rejected: %w", err)
		}
		s.audit(ctx, actor, domain.AuditActionRejectChanges, pictureID, nil, map[string]interface{}{
			"change_ids": batchIDs,
		})
	}

	return s.pictureSvc.GetByID(ctx, pictureID)
}

// Clear drops the whole moderation history of the picture.
func (s *service) Clear(ctx context.Context, pictureID uuid.UUID, actor domain.Actor) (*domain.Picture, error) {
	if _, err := s.pictureRepo.GetByID(ctx, pictureID); err != nil {
		return nil, err
	}

	deleted, err := s.changeRepo.DeleteByPicture(ctx, pictureID)
	if err != nil {
		return nil, fmt.Errorf("delete change records: %w", err)
	}

	s.audit(ctx, actor, domain.AuditActionClearChanges, pictureID, nil, map[string]interface{}{
		"deleted": deleted,
	})
	return s.pictureSvc.GetByID(ctx, pictureID)
}

func (s *service) List(ctx context.Context, pictureID uuid.UUID, status *domain.ChangeRecordStatus, params domain.PaginationParams) (domain.PaginatedResponse[domain.ChangeRecord], error) {
	if _, err := s.pictureRepo.GetByID(ctx, pictureID); err != nil {
		return domain.PaginatedResponse[domain.ChangeRecord]{}, err
	}
	params.Validate()

	records, total, err := s.changeRepo.ListByPicture(ctx, pictureID, status, params)
	if err != nil {
		return domain.PaginatedResponse[domain.ChangeRecord]{}, err
	}
	return domain.NewPaginatedResponse(records, params.Page, params.PageSize, total), nil
}

// pending loads the named records and keeps those the picture owns that are
// still PROPOSED, preserving the caller's order.
func (s *service) pending(ctx context.Context, pictureID uuid.UUID, ids []uuid.UUID) ([]*domain.ChangeRecord, error) {
	records, err := s.changeRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load change records: %w", err)
	}

	batch := make([]*domain.ChangeRecord, 0, len(records))
	for _, rec := range records {
		if rec.PictureID != pictureID {
			s.log.Warn().
				Str("picture_id", pictureID.String()).
				Str("change_id", rec.ID.String()).
				Msg("skipping change record owned by another picture")
			continue
		}
		if rec.Status.IsTerminal() {
			continue
		}
		batch = append(batch, rec)
	}
	return batch, nil
}

// dropStalePlaces leaves out place records whose target place no longer
// exists. They stay PROPOSED so a reviewer can still reject them.
func (s *service) dropStalePlaces(ctx context.Context, pictureID uuid.UUID, batch []*domain.ChangeRecord) ([]*domain.ChangeRecord, error) {
	kept := batch[:0]
	for _, rec := range batch {
		if rec.Field == domain.FieldPlace {
			var sub domain.PictureSubmission
			if err := version.ApplyChange(&sub, rec.Field, rec.Value); err == nil && sub.PlaceID.Value != nil {
				_, err := s.placeRepo.GetByID(ctx, *sub.PlaceID.Value)
				if errors.Is(err, domain.ErrPlaceNotFound) {
					s.log.Warn().
						Str("picture_id", pictureID.String()).
						Str("change_id", rec.ID.String()).
						Str("place_id", sub.PlaceID.Value.String()).
						Msg("skipping change record targeting a removed place")
					continue
				}
				if err != nil {
					return nil, err
				}
			}
		}
		kept = append(kept, rec)
	}
	return kept, nil
}

func (s *service) checkChange(ctx context.Context, change domain.ChangeInput) error {
	if !change.Field.IsValid() {
		return &domain.ValidationError{Field: string(change.Field), Reason: "field cannot be changed"}
	}

	var sub domain.PictureSubmission
	if err := version.ApplyChange(&sub, change.Field, change.Value); err != nil {
		return err
	}
	if sub.License != nil {
		if _, ok := s.licenses.Canonical(*sub.License.Name); !ok {
			return &domain.InvalidLicenseError{Name: *sub.License.Name}
		}
	}
	if sub.PlaceID.Value != nil {
		if _, err := s.placeRepo.GetByID(ctx, *sub.PlaceID.Value); err != nil {
			return err
		}
	}
	return nil
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

func recordIDs(records []*domain.ChangeRecord) []uuid.UUID {
	ids := make([]uuid.UUID, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids
}

func compact(value json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(value)) == 0 {
		return json.RawMessage("null")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return append(json.RawMessage(nil), value...)
	}
	return buf.Bytes()
}
