package audit

import (
	"context"

	"github.com/google/uuid"

	"picture-catalog/internal/domain"
	"picture-catalog/internal/repository"
)

const maxRecent = 100

// Service reads the trail written by the picture and moderation services.
type Service interface {
	GetRecentActivities(ctx context.Context, action string, limit int) ([]domain.AuditLog, error)
	GetPictureHistory(ctx context.Context, pictureID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error)
}

type service struct {
	auditRepo   repository.AuditLogRepository
	pictureRepo repository.PictureStore
}

func NewService(auditRepo repository.AuditLogRepository, pictureRepo repository.PictureStore) Service {
	return &service{
		auditRepo:   auditRepo,
		pictureRepo: pictureRepo,
	}
}

func (s *service) GetRecentActivities(ctx context.Context, action string, limit int) ([]domain.AuditLog, error) {
	if action != "" && !domain.IsAuditAction(action) {
		return nil, &domain.ValidationError{Field: "action", Reason: "unknown audit action"}
	}
	limit = min(max(limit, 1), maxRecent)

	logs, _, err := s.auditRepo.List(ctx, domain.AuditFilter{Action: action}, domain.PaginationParams{Page: 1, PageSize: limit})
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	return logs, nil
}

// GetPictureHistory also serves deleted pictures: their trail outlives them,
// so an unknown picture yields ErrPictureNotFound only when it never had one.
func (s *service) GetPictureHistory(ctx context.Context, pictureID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error) {
	params.Validate()

	logs, total, err := s.auditRepo.List(ctx, domain.AuditFilter{PictureID: &pictureID}, params)
	if err != nil {
		return domain.PaginatedResponse[domain.AuditLog]{}, err
	}
	if total == 0 {
		if _, err := s.pictureRepo.GetByID(ctx, pictureID); err != nil {
			return domain.PaginatedResponse[domain.AuditLog]{}, err
		}
	}
	return domain.NewPaginatedResponse(logs, params.Page, params.PageSize, total), nil
}
