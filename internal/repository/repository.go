package repository

import (
	"context"
	_ "embed"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

type Repositories struct {
	Picture      PictureStore
	ChangeRecord ChangeRecordStore
	Place        PlaceStore
	Catalog      CatalogStore
	AuditLog     AuditLogRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Picture:      NewPictureRepository(db),
		ChangeRecord: NewChangeRecordRepository(db),
		Place:        NewPlaceRepository(db),
		Catalog:      NewCatalogRepository(db),
		AuditLog:     NewAuditLogRepository(db),
	}
}

func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Picture:      NewMemoryPictureStore(),
		ChangeRecord: NewMemoryChangeRecordStore(),
		Place:        NewMemoryPlaceStore(),
		Catalog:      NewMemoryCatalogStore(),
		AuditLog:     NewMemoryAuditLogRepository(),
	}
}

// Migrate creates the tables when they are missing. Every statement is
// idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
