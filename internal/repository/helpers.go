package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"picture-catalog/internal/domain"
)

// LoadObjectChanges fills picture.ObjectChanges with every change record of
// the picture, whatever its status.
func LoadObjectChanges(ctx context.Context, store ChangeRecordStore, picture *domain.Picture) error {
	params := domain.PaginationParams{Page: 1, PageSize: 100}
	changes := make(map[uuid.UUID]*domain.ChangeRecord)

	for {
		records, total, err := store.ListByPicture(ctx, picture.ID, nil, params)
		if err != nil {
			return fmt.Errorf("load change records: %w", err)
		}
		for i := range records {
			changes[records[i].ID] = &records[i]
		}
		if len(records) == 0 || int64(params.Page*params.PageSize) >= total {
			break
		}
		params.Page++
	}

	picture.ObjectChanges = changes
	return nil
}

// MovePicture keeps place membership in line with the place a picture's
// validated version points at.
func MovePicture(ctx context.Context, store PlaceStore, pictureID uuid.UUID, from, to *uuid.UUID) error {
	if from != nil && (to == nil || *from != *to) {
		if err := store.DetachPicture(ctx, *from, pictureID); err != nil {
			return fmt.Errorf("detach picture from place: %w", err)
		}
	}
	if to != nil && (from == nil || *from != *to) {
		if err := store.AttachPicture(ctx, *to, pictureID); err != nil {
			return fmt.Errorf("attach picture to place: %w", err)
		}
	}
	return nil
}
