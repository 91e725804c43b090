package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"picture-catalog/internal/domain"
	"picture-catalog/internal/service"
)

type Handlers struct {
	Picture      *PictureHandler
	ChangeRecord *ChangeRecordHandler
	Audit        *AuditHandler
}

func NewHandlers(services *service.Services, requestTimeout time.Duration) *Handlers {
	return &Handlers{
		Picture:      NewPictureHandler(services.Picture, requestTimeout),
		ChangeRecord: NewChangeRecordHandler(services.Moderation, requestTimeout),
		Audit:        NewAuditHandler(services.Audit),
	}
}

func getPaginationParams(c *fiber.Ctx) domain.PaginationParams {
	params := domain.PaginationParams{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", domain.DefaultPageSize),
	}
	params.Validate()
	return params
}
