package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"picture-catalog/internal/domain"
)

type PictureStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Picture, error)
	Save(ctx context.Context, picture *domain.Picture) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// pictureRow is the stored document. Versions and the file record live in
// JSONB columns so a save rewrites the whole aggregate in one statement.
type pictureRow struct {
	ID                 uuid.UUID  `db:"id"`
	CatalogID          *uuid.UUID `db:"catalog_id"`
	OriginalFileName   string     `db:"original_file_name"`
	File               []byte     `db:"file"`
	Versions           []byte     `db:"versions"`
	ValidatedVersionID uuid.UUID  `db:"validated_version_id"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

type pictureRepository struct {
	db *sqlx.DB
}

func NewPictureRepository(db *sqlx.DB) PictureStore {
	return &pictureRepository{db: db}
}

func (r *pictureRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Picture, error) {
	var row pictureRow
	query := `
		SELECT id, catalog_id, original_file_name, file, versions, validated_version_id, created_at, updated_at
		FROM pictures
		WHERE id = $1`

	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPictureNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *pictureRepository) Save(ctx context.Context, picture *domain.Picture) error {
	fileJSON, versionsJSON, err := encodePicture(picture)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO pictures (id, catalog_id, original_file_name, file, versions, validated_version_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			catalog_id = EXCLUDED.catalog_id,
			original_file_name = EXCLUDED.original_file_name,
			file = EXCLUDED.file,
			versions = EXCLUDED.versions,
			validated_version_id = EXCLUDED.validated_version_id,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		picture.ID, picture.CatalogID, picture.OriginalFileName,
		fileJSON, versionsJSON, picture.ValidatedVersionID,
		picture.CreatedAt, picture.UpdatedAt,
	)
	return err
}

func (r *pictureRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pictures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrPictureNotFound
	}
	return nil
}

// encodePicture returns the JSONB payloads as strings; lib/pq would send a
// []byte as bytea.
func encodePicture(picture *domain.Picture) (*string, string, error) {
	var fileJSON *string
	if picture.File != nil {
		f := *picture.File
		f.WebPath = ""
		b, err := json.Marshal(f)
		if err != nil {
			return nil, "", fmt.Errorf("encode file record: %w", err)
		}
		s := string(b)
		fileJSON = &s
	}

	versions := picture.Versions
	if versions == nil {
		versions = []domain.Version{}
	}
	b, err := json.Marshal(versions)
	if err != nil {
		return nil, "", fmt.Errorf("encode versions: %w", err)
	}
	return fileJSON, string(b), nil
}

func (row pictureRow) toDomain() (*domain.Picture, error) {
	picture := &domain.Picture{
		ID:                 row.ID,
		CatalogID:          row.CatalogID,
		OriginalFileName:   row.OriginalFileName,
		ValidatedVersionID: row.ValidatedVersionID,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
	if len(row.File) > 0 {
		var file domain.FileRecord
		if err := json.Unmarshal(row.File, &file); err != nil {
			return nil, fmt.Errorf("decode file record: %w", err)
		}
		picture.File = &file
	}
	if err := json.Unmarshal(row.Versions, &picture.Versions); err != nil {
		return nil, fmt.Errorf("decode versions: %w", err)
	}
	return picture, nil
}
