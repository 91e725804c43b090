package handler

import (
	"github.com/gofiber/fiber/v2"

	"picture-catalog/internal/domain"
	"picture-catalog/internal/middleware"
)

func SetupRoutes(app *fiber.App, h *Handlers, jwtSecret string) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1", middleware.RequestInfo())
	protected := v1.Group("", middleware.AuthRequired(jwtSecret))

	pictures := protected.Group("/pictures")
	pictures.Post("/", middleware.RequireRole(domain.RoleContributor), h.Picture.Create)
	pictures.Get("/:pictureId", h.Picture.Get)
	pictures.Put("/:pictureId", middleware.RequireRole(domain.RoleContributor), h.Picture.Update)
	pictures.Delete("/:pictureId", middleware.RequireRole(domain.RoleReviewer), h.Picture.Delete)
	pictures.Get("/:pictureId/history", middleware.RequireRole(domain.RoleReviewer), h.Audit.GetPictureHistory)

	changes := pictures.Group("/:pictureId/changes")
	changes.Post("/", middleware.RequireRole(domain.RoleContributor), h.ChangeRecord.Propose)
	changes.Get("/", h.ChangeRecord.List)
	changes.Delete("/", middleware.RequireRole(domain.RoleReviewer), h.ChangeRecord.Clear)
	changes.Post("/validate", middleware.RequireRole(domain.RoleReviewer), h.ChangeRecord.Validate)
	changes.Post("/reject", middleware.RequireRole(domain.RoleReviewer), h.ChangeRecord.Reject)

	audit := protected.Group("/audit", middleware.RequireRole(domain.RoleReviewer))
	audit.Get("/recent", h.Audit.GetRecentActivities)
}
