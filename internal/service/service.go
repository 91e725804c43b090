package service

import (
	"github.com/rs/zerolog"

	"picture-catalog/internal/repository"
	"picture-catalog/internal/service/audit"
	"picture-catalog/internal/service/moderation"
	"picture-catalog/internal/service/picture"
	"picture-catalog/internal/service/version"
	"picture-catalog/internal/storage"
)

type Services struct {
	Picture    picture.Service
	Moderation moderation.Service
	Audit      audit.Service
}

func NewServices(
	repos *repository.Repositories,
	files storage.FileStore,
	ingestor picture.FileIngestor,
	extractor picture.ExifExtractor,
	licenses version.LicenseRegistry,
	log zerolog.Logger,
) *Services {
	pictureService := picture.NewService(
		repos.Picture,
		repos.ChangeRecord,
		repos.Place,
		repos.Catalog,
		repos.AuditLog,
		files,
		ingestor,
		extractor,
		licenses,
		log,
	)
	moderationService := moderation.NewService(
		repos.Picture,
		repos.ChangeRecord,
		repos.Place,
		repos.AuditLog,
		pictureService,
		licenses,
		log,
	)
	auditService := audit.NewService(repos.AuditLog, repos.Picture)

	return &Services{
		Picture:    pictureService,
		Moderation: moderationService,
		Audit:      auditService,
	}
}
