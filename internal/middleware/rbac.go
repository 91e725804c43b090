package middleware

import (
	"github.com/gofiber/fiber/v2"

	"picture-catalog/internal/domain"
)

func RequireRole(requiredRole domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := GetActor(c)
		if !ok {
			return Unauthorized("User not authenticated")
		}

		if !actor.HasRole(requiredRole) {
			return Forbidden("Insufficient permissions for this operation")
		}

		return c.Next()
	}
}
