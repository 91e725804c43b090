package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"picture-catalog/internal/domain"
)

type ChangeRecordStore interface {
	Create(ctx context.Context, records []*domain.ChangeRecord) error
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.ChangeRecord, error)
	ListByPicture(ctx context.Context, pictureID uuid.UUID, status *domain.ChangeRecordStatus, params domain.PaginationParams) ([]domain.ChangeRecord, int64, error)
	UpdateStatus(ctx context.Context, ids []uuid.UUID, status domain.ChangeRecordStatus, reviewerID uuid.UUID, at time.Time) error
	DeleteByPicture(ctx context.Context, pictureID uuid.UUID) (int64, error)
}

type changeRecordRepository struct {
	db *sqlx.DB
}

func NewChangeRecordRepository(db *sqlx.DB) ChangeRecordStore {
	return &changeRecordRepository{db: db}
}

func (r *changeRecordRepository) Create(ctx context.Context, records []*domain.ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO change_records (id, picture_id, field, value, status, created_by, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)`

	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, query,
			rec.ID, rec.PictureID, rec.Field, string(rec.Value), rec.Status, rec.CreatedBy, rec.CreatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByIDs returns the records in the order of ids. Unknown ids are skipped.
func (r *changeRecordRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.ChangeRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, picture_id, field, value, status, created_by, reviewed_by, reviewed_at, created_at
		FROM change_records
		WHERE id = ANY($1::uuid[])`

	var rows []domain.ChangeRecord
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*domain.ChangeRecord, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	return orderByIDs(ids, byID), nil
}

func (r *changeRecordRepository) ListByPicture(ctx context.Context, pictureID uuid.UUID, status *domain.ChangeRecordStatus, params domain.PaginationParams) ([]domain.ChangeRecord, int64, error) {
	params.Validate()

	var total int64
	var records []domain.ChangeRecord

	if status != nil {
		countQuery := `SELECT COUNT(*) FROM change_records WHERE picture_id = $1 AND status = $2`
		if err := r.db.GetContext(ctx, &total, countQuery, pictureID, *status); err != nil {
			return nil, 0, err
		}

		query := `
			SELECT id, picture_id, field, value, status, created_by, reviewed_by, reviewed_at, created_at
			FROM change_records
			WHERE picture_id = $1 AND status = $2
			ORDER BY created_at DESC, id
			LIMIT $3 OFFSET $4`
		err := r.db.SelectContext(ctx, &records, query, pictureID, *status, params.PageSize, params.Offset())
		return records, total, err
	}

	countQuery := `SELECT COUNT(*) FROM change_records WHERE picture_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, pictureID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, picture_id, field, value, status, created_by, reviewed_by, reviewed_at, created_at
		FROM change_records
		WHERE picture_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	err := r.db.SelectContext(ctx, &records, query, pictureID, params.PageSize, params.Offset())
	return records, total, err
}

// UpdateStatus only moves records that are still PROPOSED.
func (r *changeRecordRepository) UpdateStatus(ctx context.Context, ids []uuid.UUID, status domain.ChangeRecordStatus, reviewerID uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE change_records
		SET status = $1, reviewed_by = $2, reviewed_at = $3
		WHERE id = ANY($4::uuid[]) AND status = $5`

	_, err := r.db.ExecContext(ctx, query, status, reviewerID, at, pq.Array(uuidStrings(ids)), domain.StatusProposed)
	return err
}

func (r *changeRecordRepository) DeleteByPicture(ctx context.Context, pictureID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM change_records WHERE picture_id = $1`, pictureID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func orderByIDs(ids []uuid.UUID, byID map[uuid.UUID]*domain.ChangeRecord) []*domain.ChangeRecord {
	out := make([]*domain.ChangeRecord, 0, len(byID))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, rec)
	}
	return out
}
