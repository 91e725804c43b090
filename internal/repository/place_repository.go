package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"picture-catalog/internal/domain"
)

type PlaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Place, error)
	AttachPicture(ctx context.Context, placeID, pictureID uuid.UUID) error
	DetachPicture(ctx context.Context, placeID, pictureID uuid.UUID) error
}

type CatalogStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Catalog, error)
}

type placeRepository struct {
	db *sqlx.DB
}

func NewPlaceRepository(db *sqlx.DB) PlaceStore {
	return &placeRepository{db: db}
}

func (r *placeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	var place domain.Place
	err := r.db.GetContext(ctx, &place, `SELECT id, name FROM places WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlaceNotFound
	}
	if err != nil {
		return nil, err
	}

	query := `SELECT picture_id FROM place_pictures WHERE place_id = $1 ORDER BY attached_at`
	if err := r.db.SelectContext(ctx, &place.PictureIDs, query, id); err != nil {
		return nil, err
	}
	return &place, nil
}

func (r *placeRepository) AttachPicture(ctx context.Context, placeID, pictureID uuid.UUID) error {
	query := `
		INSERT INTO place_pictures (place_id, picture_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, placeID, pictureID)
	return err
}

func (r *placeRepository) DetachPicture(ctx context.Context, placeID, pictureID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM place_pictures WHERE place_id = $1 AND picture_id = $2`, placeID, pictureID)
	return err
}

type catalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) CatalogStore {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Catalog, error) {
	var catalog domain.Catalog
	err := r.db.GetContext(ctx, &catalog, `SELECT id, name FROM catalogs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCatalogNotFound
	}
	if err != nil {
		return nil, err
	}
	return &catalog, nil
}
