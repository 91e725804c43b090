package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"picture-catalog/internal/domain"
	"picture-catalog/internal/middleware"
	"picture-catalog/internal/service/moderation"
)

type ChangeRecordHandler struct {
	moderationService moderation.Service
	timeout           time.Duration
}

func NewChangeRecordHandler(moderationService moderation.Service, timeout time.Duration) *ChangeRecordHandler {
	return &ChangeRecordHandler{
		moderationService: moderationService,
		timeout:           timeout,
	}
}

func (h *ChangeRecordHandler) Propose(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return middleware.Unauthorized("User not authenticated")
	}

	pictureID, err := parseUUIDParam(c, "pictureId")
	if err != nil {
		return err
	}

	var changes []domain.ChangeInput
	if err := json.Unmarshal(c.Body(), &changes); err != nil {
		return middleware.BadRequest("Body must be a list of {field, value}")
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	p, err := h.moderationService.Propose(ctx, pictureID, changes, actor)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ChangeRecordHandler) List(c *fiber.Ctx) error {
	pictureID, err := parseUUIDParam(c, "pictureId")
	if err != nil {
		return err
	}

	var status *domain.ChangeRecordStatus
	if s := c.Query("status"); s != "" {
		st := domain.ChangeRecordStatus(s)
		if !st.IsValid() {
			return middleware.BadRequest("Invalid status")
		}
		status = &st
	}

	result, err := h.moderationService.List(c.UserContext(), pictureID, status, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ChangeRecordHandler) Validate(c *fiber.Ctx) error {
	return h.review(c, h.moderationService.Validate)
}

func (h *ChangeRecordHandler) Reject(c *fiber.Ctx) error {
	return h.review(c, h.moderationService.Reject)
}

func (h *ChangeRecordHandler) Clear(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return middleware.Unauthorized("User not authenticated")
	}

	pictureID, err := parseUUIDParam(c, "pictureId")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	p, err := h.moderationService.Clear(ctx, pictureID, actor)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(p)
}

type reviewFunc func(ctx context.Context, pictureID uuid.UUID, ids []uuid.UUID, actor domain.Actor) (*domain.Picture, error)

func (h *ChangeRecordHandler) review(c *fiber.Ctx, fn reviewFunc) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return middleware.Unauthorized("User not authenticated")
	}

	pictureID, err := parseUUIDParam(c, "pictureId")
	if err != nil {
		return err
	}

	var ids []uuid.UUID
	if err := json.Unmarshal(c.Body(), &ids); err != nil {
		return middleware.BadRequest("Body must be a list of change record ids")
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	p, err := fn(ctx, pictureID, ids, actor)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(p)
}
