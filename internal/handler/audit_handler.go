package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"picture-catalog/internal/service/audit"
)

type AuditHandler struct {
	auditService audit.Service
}

func NewAuditHandler(auditService audit.Service) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GetRecentActivities lists the latest mutations across all pictures,
// optionally narrowed with ?action=VALIDATE_CHANGES.
func (h *AuditHandler) GetRecentActivities(c *fiber.Ctx) error {
	action := strings.ToUpper(strings.TrimSpace(c.Query("action")))

	logs, err := h.auditService.GetRecentActivities(c.UserContext(), action, c.QueryInt("limit", 10))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(logs)
}

func (h *AuditHandler) GetPictureHistory(c *fiber.Ctx) error {
	pictureID, err := parseUUIDParam(c, "pictureId")
	if err != nil {
		return err
	}

	result, err := h.auditService.GetPictureHistory(c.UserContext(), pictureID, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
